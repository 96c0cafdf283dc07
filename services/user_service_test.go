package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/user"
)

func TestUserService_CreateDuplicate(t *testing.T) {
	f := newFixture(t, AchievementOptions{})

	_, err := f.users.CreateUser(context.Background(), &user.CreateUserRequest{ClerkID: "clerk_" + t.Name()})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUserService_UpsertDailyRecordValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})

	_, err := f.users.UpsertDailyRecord(ctx, f.userID, "2024-02-30", daily.Record{})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.users.UpsertDailyRecord(ctx, f.userID, "2024-02-10", daily.Record{WaterIntake: -1})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	rec, err := f.users.UpsertDailyRecord(ctx, f.userID, "2024-02-10", daily.Record{Date: "ignored", WaterIntake: 500})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-10", rec.Date)

	_, err = f.users.UpsertDailyRecord(ctx, "nobody", "2024-02-10", daily.Record{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ListDailyRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	f.log(t,
		daily.Record{Date: "2024-02-01"},
		daily.Record{Date: "2024-02-02"},
		daily.Record{Date: "2024-02-03"},
	)

	got, err := f.users.ListDailyRecords(ctx, f.userID, "2024-02-02", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.users.ListDailyRecords(ctx, f.userID, "2024-02-03", "2024-02-01")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.users.ListDailyRecords(ctx, f.userID, "yesterday", "")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUserService_UpdateTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})

	assert.ErrorIs(t, f.users.UpdateTargets(ctx, f.userID, user.Targets{DailyWater: -10}), ErrInvalidRecord)

	require.NoError(t, f.users.UpdateTargets(ctx, f.userID, user.Targets{DailyWater: 3200}))
	u, err := f.store.GetUser(ctx, f.userID)
	require.NoError(t, err)
	require.NotNil(t, u.Targets)
	assert.Equal(t, 3200.0, u.Targets.DailyWater)
	assert.Equal(t, 2000.0, u.Targets.WithDefaults(defaultTargets).DailyCalories)
}
