package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/config"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/storage"
	"arogyamandiramAPI/internal/user"
	"arogyamandiramAPI/internal/userlock"
)

var defaultTargets = user.Targets{
	DailyCalories:       2000,
	DailyWater:          2500,
	DailyProtein:        150,
	DailyCarbs:          200,
	DailyFat:            67,
	IdealWeight:         70,
	DailyWorkoutMinutes: 30,
	DailyCalorieBurn:    400,
	SleepHours:          8,
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fixture struct {
	store  *storage.SQLiteStore
	users  *UserService
	svc    *AchievementService
	clock  *clock
	userID string
}

func newFixture(t *testing.T, opts AchievementOptions) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(store.Close)

	c := &clock{t: time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)}
	opts.DefaultTargets = defaultTargets
	opts.Now = c.now

	users := NewUserService(store)
	u, err := users.CreateUser(ctx, &user.CreateUserRequest{ClerkID: "clerk_" + t.Name(), Email: "a@b.c", Username: "asha"})
	require.NoError(t, err)

	return &fixture{
		store:  store,
		users:  users,
		svc:    NewAchievementService(store, userlock.NewMemory(), opts),
		clock:  c,
		userID: u.ID,
	}
}

func (f *fixture) log(t *testing.T, recs ...daily.Record) {
	t.Helper()
	for _, r := range recs {
		_, err := f.users.UpsertDailyRecord(context.Background(), f.userID, r.Date, r)
		require.NoError(t, err)
	}
}

func weight(v float64) *float64 { return &v }

func perfectDay(date string) daily.Record {
	return daily.Record{
		Date:           date,
		TotalCalories:  2000,
		WaterIntake:    2600,
		Sleep:          &daily.Sleep{Duration: 8, Bedtime: "22:30", WakeTime: "06:30"},
		CaloriesBurned: 450,
		Weight:         weight(70),
		Meals:          []daily.Meal{{Name: "dal", Time: "13:00"}},
	}
}

func badgeIDs(badges []achievement.EarnedBadge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestComputeAchievements_FreshUser(t *testing.T) {
	f := newFixture(t, AchievementOptions{})

	res, err := f.svc.ComputeAchievements(context.Background(), f.userID)
	require.NoError(t, err)

	assert.Empty(t, res.Achievements.Badges)
	assert.Empty(t, res.NewlyEarnedBadges)
	assert.Equal(t, achievement.Counts{}, res.Achievements.Streaks.Current)
	assert.Equal(t, 0, res.Achievements.XPTotal)
	assert.Equal(t, 1, res.Level.Level)
}

func TestComputeAchievements_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	for i := 0; i < 8; i++ {
		f.log(t, perfectDay(daily.AddDays("2024-05-03", i)))
	}

	first, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	require.NotEmpty(t, first.NewlyEarnedBadges)

	second, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)

	assert.Empty(t, second.NewlyEarnedBadges)
	assert.JSONEq(t, mustJSON(t, first.Achievements), mustJSON(t, second.Achievements))
	assert.Equal(t, first.Level, second.Level)
}

func TestComputeAchievements_FirstMealIsNotReawarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	f.log(t, daily.Record{Date: "2024-05-10", Meals: []daily.Meal{{Name: "idli", Time: "09:15"}}})

	first, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	assert.Contains(t, badgeIDs(first.NewlyEarnedBadges), achievement.FirstMeal)
	assert.Equal(t, "2024-05-10", first.NewlyEarnedBadges[0].FirstEarnedAt)
	assert.Equal(t, f.clock.t, first.NewlyEarnedBadges[0].EarnedAt)

	second, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, second.NewlyEarnedBadges)
	assert.Len(t, second.Achievements.Badges, len(first.Achievements.Badges))
}

func TestComputeAchievements_LevelFromPersistedXP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})

	for _, tc := range []struct {
		xp, level, into, need int
	}{
		{50, 2, 0, 100},
		{149, 2, 99, 100},
		{150, 3, 0, 200},
	} {
		a := achievement.Empty()
		a.XPTotal = tc.xp
		require.NoError(t, f.store.SaveAchievements(ctx, f.userID, a))

		res, err := f.svc.ComputeAchievements(ctx, f.userID)
		require.NoError(t, err)
		assert.Equal(t, tc.xp, res.Achievements.XPTotal)
		assert.Equal(t, tc.level, res.Level.Level)
		assert.Equal(t, tc.into, res.Level.XPIntoLevel)
		assert.Equal(t, tc.need, res.Level.XPForLevel)
	}
}

func TestComputeAchievements_RehydratesXPOnlyWhenZero(t *testing.T) {
	ctx := context.Background()
	calls := 0
	scorer := func(daily.Record, user.Targets) (int, error) {
		calls++
		return 7, nil
	}
	f := newFixture(t, AchievementOptions{Scorer: scorer, BadgeBonusXP: 10})
	f.log(t, perfectDay("2024-05-09"), perfectDay("2024-05-10"))

	first, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 14+10*len(first.NewlyEarnedBadges), first.Achievements.XPTotal)

	second, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "persisted XP is non-zero so no rehydration")
	assert.Equal(t, first.Achievements.XPTotal, second.Achievements.XPTotal)
}

func TestComputeAchievements_RehydrationFailureFallsBack(t *testing.T) {
	scorer := func(daily.Record, user.Targets) (int, error) {
		return 0, errors.New("scorer unavailable")
	}
	f := newFixture(t, AchievementOptions{Scorer: scorer, BadgeBonusXP: 10})
	f.log(t, daily.Record{Date: "2024-05-10", Meals: []daily.Meal{{Time: "12:00"}}})

	res, err := f.svc.ComputeAchievements(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 10*len(res.NewlyEarnedBadges), res.Achievements.XPTotal)
}

func TestComputeAchievements_UserNotFound(t *testing.T) {
	f := newFixture(t, AchievementOptions{})

	_, err := f.svc.ComputeAchievements(context.Background(), "missing-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type countingStore struct {
	storage.AchievementStore
	mu      sync.Mutex
	saves   int
	saveErr error
}

func (c *countingStore) SaveAchievements(ctx context.Context, userID string, a achievement.Achievements) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.AchievementStore.SaveAchievements(ctx, userID, a)
}

func TestComputeAchievements_SaveFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	f.log(t, perfectDay("2024-05-10"))

	failing := &countingStore{AchievementStore: f.store, saveErr: errors.New("disk full")}
	svc := NewAchievementService(failing, nil, AchievementOptions{DefaultTargets: defaultTargets, Now: f.clock.now})

	_, err := svc.ComputeAchievements(ctx, f.userID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, failing.saves)

	u, err := f.store.GetUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Nil(t, u.Achievements)
}

func TestComputeAchievements_SavesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	f.log(t, perfectDay("2024-05-10"))

	counting := &countingStore{AchievementStore: f.store}
	svc := NewAchievementService(counting, nil, AchievementOptions{DefaultTargets: defaultTargets, Now: f.clock.now})

	_, err := svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.saves)

	_, err = svc.Preview(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.saves, "preview never writes")
}

func TestComputeAchievements_MalformedLegacyDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	require.NoError(t, f.store.SetRawAchievements(ctx, f.userID,
		`{"badges":{"first_meal":true},"streaks":5,"xpTotal":"lots"}`))
	f.log(t, daily.Record{Date: "2024-05-10", Meals: []daily.Meal{{Time: "12:00"}}})

	res, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	assert.Contains(t, badgeIDs(res.NewlyEarnedBadges), achievement.FirstMeal)
}

func TestComputeAchievements_BackfillsFirstEarnedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	f.log(t, daily.Record{Date: "2024-04-01", Meals: []daily.Meal{{Time: "12:00"}}})

	legacyEarned := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	prev := achievement.Empty()
	prev.Badges = []achievement.EarnedBadge{{ID: achievement.FirstMeal, EarnedAt: legacyEarned}}
	prev.XPTotal = 30
	require.NoError(t, f.store.SaveAchievements(ctx, f.userID, prev))

	res, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	require.NotEmpty(t, res.Achievements.Badges)

	b := res.Achievements.Badges[0]
	assert.Equal(t, achievement.FirstMeal, b.ID)
	assert.Equal(t, "2024-04-01", b.FirstEarnedAt)
	assert.True(t, legacyEarned.Equal(b.EarnedAt), "earnedAt is never re-dated")
	assert.NotEmpty(t, b.Name, "display fields refilled from the catalog")
	assert.NotContains(t, badgeIDs(res.NewlyEarnedBadges), achievement.FirstMeal)
}

func TestComputeAchievements_BadgesSurviveBrokenStreak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	for i := 0; i < 7; i++ {
		f.log(t, daily.Record{Date: daily.AddDays("2024-05-04", i), WaterIntake: 3000})
	}

	first, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)
	require.Contains(t, badgeIDs(first.Achievements.Badges), "streak_water_7")

	// two weeks later the streak is long gone
	f.clock.t = f.clock.t.AddDate(0, 0, 14)
	second, err := f.svc.ComputeAchievements(ctx, f.userID)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Achievements.Streaks.Current.Water)
	assert.Equal(t, 7, second.Achievements.Streaks.Best.Water)
	assert.Equal(t, badgeIDs(first.Achievements.Badges), badgeIDs(second.Achievements.Badges))
	assert.GreaterOrEqual(t, second.Achievements.XPTotal, first.Achievements.XPTotal)
	for i, b := range second.Achievements.Badges {
		assert.Equal(t, first.Achievements.Badges[i].FirstEarnedAt, b.FirstEarnedAt, b.ID)
	}
}

func TestComputeAchievements_ConcurrentRunsNeverDoubleAward(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	for i := 0; i < 3; i++ {
		f.log(t, perfectDay(daily.AddDays("2024-05-08", i)))
	}

	var mu sync.Mutex
	awarded := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.ComputeAchievements(ctx, f.userID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, b := range res.NewlyEarnedBadges {
				awarded[b.ID]++
			}
		}()
	}
	wg.Wait()

	for id, n := range awarded {
		assert.Equal(t, 1, n, id)
	}

	u, err := f.store.GetUser(ctx, f.userID)
	require.NoError(t, err)
	require.NotNil(t, u.Achievements)
	assert.Len(t, u.Achievements.Badges, len(awarded))
}

func TestNewAchievementService_ZeroOptionsTakeDefaults(t *testing.T) {
	svc := NewAchievementService(nil, nil, AchievementOptions{})
	assert.Equal(t, 60, svc.opts.StreakWindowDays)
	assert.Equal(t, 60, svc.calculator.WindowDays)
	assert.Equal(t, 50, svc.opts.LevelBaseXP)
	assert.Equal(t, 10, svc.opts.BadgeBonusXP)

	svc = NewAchievementService(nil, nil, AchievementOptions{StreakWindowDays: -1, BadgeBonusXP: -1})
	assert.Equal(t, 0, svc.calculator.WindowDays, "negative window means unbounded")
	assert.Equal(t, 0, svc.opts.BadgeBonusXP, "negative bonus disables it")
}

func TestOptionsFromConfig_ExplicitZeroes(t *testing.T) {
	g := config.DefaultGamification()
	g.StreakWindowDays = 0
	g.BadgeBonusXP = 0

	svc := NewAchievementService(nil, nil, OptionsFromConfig(g, time.UTC))
	assert.Equal(t, 0, svc.calculator.WindowDays)
	assert.Equal(t, 0, svc.opts.BadgeBonusXP)

	svc = NewAchievementService(nil, nil, OptionsFromConfig(config.DefaultGamification(), time.UTC))
	assert.Equal(t, 60, svc.calculator.WindowDays)
	assert.Equal(t, 10, svc.opts.BadgeBonusXP)
}

func TestComputeAchievements_BadgeBonusByDefault(t *testing.T) {
	scorer := func(daily.Record, user.Targets) (int, error) { return 0, nil }
	f := newFixture(t, AchievementOptions{Scorer: scorer})
	f.log(t, daily.Record{Date: "2024-05-10", Meals: []daily.Meal{{Time: "12:00"}}})

	res, err := f.svc.ComputeAchievements(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotEmpty(t, res.NewlyEarnedBadges)
	assert.Equal(t, 10*len(res.NewlyEarnedBadges), res.Achievements.XPTotal)
}

func TestComputeAchievements_MonotonicAsHistoryGrows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, AchievementOptions{})
	f.clock.t = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	var prev *Result
	for i := 0; i < 45; i++ {
		today := daily.DateKey(f.clock.t)
		switch {
		case i%11 == 10:
			// skipped day
		case i%5 == 4:
			f.log(t, daily.Record{Date: today, WaterIntake: 3000, Meals: []daily.Meal{{Time: "07:00"}}})
		default:
			f.log(t, perfectDay(today))
		}

		res, err := f.svc.ComputeAchievements(ctx, f.userID)
		require.NoError(t, err)

		s := res.Achievements.Streaks
		for _, h := range []string{"logging", "calories", "water", "workout", "sleep", "weight"} {
			assert.GreaterOrEqual(t, s.Best.Get(h), s.Current.Get(h), "day %d %s", i, h)
			if prev != nil {
				assert.GreaterOrEqual(t, s.Best.Get(h), prev.Achievements.Streaks.Best.Get(h), "day %d %s", i, h)
			}
		}
		if prev != nil {
			assert.GreaterOrEqual(t, res.Achievements.XPTotal, prev.Achievements.XPTotal, "day %d", i)
			assert.GreaterOrEqual(t, len(res.Achievements.Badges), len(prev.Achievements.Badges), "day %d", i)
		}

		prev = res
		f.clock.t = f.clock.t.AddDate(0, 0, 1)
	}
}
