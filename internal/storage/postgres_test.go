package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
)

// Runs against a disposable database only: TEST_DATABASE_URL=postgres://... go test ./internal/storage
func newPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, url)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(s.Close)
	return s
}

func TestPostgres_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newPostgres(t)
	u := newUser("pg_" + t.Name())
	t.Cleanup(func() { _ = s.DeleteUserByClerkID(ctx, u.ClerkID) })

	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, u), ErrUserExists)

	require.NoError(t, s.UpsertDailyRecord(ctx, u.ID, daily.Record{Date: "2024-01-02", WaterIntake: 2600}))
	require.NoError(t, s.UpsertDailyRecord(ctx, u.ID, daily.Record{Date: "2024-01-01", WaterIntake: 2600}))

	records, err := s.LoadDailyRecords(ctx, u.ID, "", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-01", records[0].Date)

	a := achievement.Empty()
	a.XPTotal = 40
	require.NoError(t, s.SaveAchievements(ctx, u.ID, a))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Achievements)
	assert.Equal(t, 40, got.Achievements.XPTotal)

	assert.ErrorIs(t, s.UpsertDailyRecord(ctx, "missing", daily.Record{Date: "2024-01-01"}), ErrUserNotFound)
	assert.ErrorIs(t, s.SaveAchievements(ctx, "missing", a), ErrUserNotFound)
}
