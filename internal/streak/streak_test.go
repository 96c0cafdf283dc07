package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/habit"
	"arogyamandiramAPI/internal/user"
)

var targets = user.Targets{
	DailyCalories:    2000,
	DailyWater:       2500,
	DailyCalorieBurn: 400,
	SleepHours:       8,
}

func waterDay(date string) daily.Record {
	return daily.Record{Date: date, WaterIntake: 3000}
}

func days(start string, n int, build func(string) daily.Record) []daily.Record {
	out := make([]daily.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, build(daily.AddDays(start, i)))
	}
	return out
}

func TestCompute_EmptyHistory(t *testing.T) {
	got := NewCalculator(DefaultWindowDays).Compute(nil, targets, "2024-05-01")

	assert.Equal(t, achievement.Counts{}, got.Current)
	assert.Equal(t, achievement.Counts{}, got.Best)
	assert.NotNil(t, got.Starts)
	assert.Empty(t, got.Starts)
}

func TestCompute_SingleSuccessfulDay(t *testing.T) {
	records := []daily.Record{waterDay("2024-05-01")}

	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-01")

	assert.Equal(t, 1, got.Current.Water)
	assert.Equal(t, 1, got.Best.Water)
	assert.Equal(t, 1, got.Current.Logging)
	assert.Equal(t, "2024-05-01", got.Starts["water"])
	assert.Equal(t, 0, got.Current.Sleep)
	_, hasSleep := got.Starts["sleep"]
	assert.False(t, hasSleep)
}

func TestCompute_GapResetsCurrentNotBest(t *testing.T) {
	records := days("2024-05-01", 5, waterDay)
	// 2024-05-06 is missing
	records = append(records, waterDay("2024-05-07"))

	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-07")

	assert.Equal(t, 1, got.Current.Logging)
	assert.Equal(t, 5, got.Best.Logging)
	assert.Equal(t, "2024-05-07", got.Starts["logging"])
}

func TestCompute_FailingDayBreaksEveryCounter(t *testing.T) {
	records := days("2024-05-01", 3, waterDay)
	records = append(records, daily.Record{Date: "2024-05-04"})

	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-04")

	assert.Equal(t, 0, got.Current.Logging)
	assert.Equal(t, 0, got.Current.Water)
	assert.Equal(t, 3, got.Best.Water)
	assert.Empty(t, got.Starts)
}

func TestCompute_TodayNotYetLoggedAnchorsOnYesterday(t *testing.T) {
	records := days("2024-05-01", 4, waterDay)

	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-05")
	assert.Equal(t, 4, got.Current.Water)
	assert.Equal(t, "2024-05-01", got.Starts["water"])

	stale := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-06")
	assert.Equal(t, 0, stale.Current.Water)
	assert.Equal(t, 4, stale.Best.Water)
}

func TestCompute_IndependentCounters(t *testing.T) {
	w := 70.0
	records := []daily.Record{
		{Date: "2024-05-01", WaterIntake: 3000, Weight: &w},
		{Date: "2024-05-02", WaterIntake: 3000},
		{Date: "2024-05-03", WaterIntake: 3000, Weight: &w},
	}

	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-03")

	assert.Equal(t, 3, got.Current.Water)
	assert.Equal(t, 1, got.Current.Weight)
	assert.Equal(t, "2024-05-03", got.Starts["weight"])
	assert.Equal(t, 1, got.Best.Weight)
	assert.Equal(t, 3, got.Current.Logging)
}

func TestCompute_WindowCapsCurrentButNotBest(t *testing.T) {
	records := days("2024-01-01", 90, waterDay)
	today := records[len(records)-1].Date

	got := NewCalculator(60).Compute(records, targets, today)
	assert.Equal(t, 60, got.Current.Water)
	assert.Equal(t, 90, got.Best.Water)

	unbounded := NewCalculator(0).Compute(records, targets, today)
	assert.Equal(t, 90, unbounded.Current.Water)
	assert.Equal(t, "2024-01-01", unbounded.Starts["water"])
}

func TestCompute_BestNeverBelowCurrent(t *testing.T) {
	records := append(days("2024-01-01", 3, waterDay), days("2024-01-05", 6, waterDay)...)
	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-01-10")

	for _, h := range habit.All {
		assert.GreaterOrEqual(t, got.Best.Get(string(h)), got.Current.Get(string(h)), string(h))
	}
	assert.Equal(t, 6, got.Current.Water)
	assert.Equal(t, 6, got.Best.Water)
}

func TestCompute_IgnoresFutureAndUnsortedInput(t *testing.T) {
	records := []daily.Record{
		waterDay("2024-05-03"),
		waterDay("2024-05-01"),
		waterDay("2024-05-02"),
		waterDay("2024-05-09"),
	}

	got := NewCalculator(DefaultWindowDays).Compute(records, targets, "2024-05-03")

	assert.Equal(t, 3, got.Current.Water)
	assert.Equal(t, 3, got.Best.Water)
}

func TestRun_StepStateMachine(t *testing.T) {
	var r Run
	r.Step("2024-01-01", true)
	r.Step("2024-01-02", true)
	assert.Equal(t, Run{Length: 2, Start: "2024-01-01", last: "2024-01-02"}, r)

	r.Step("2024-01-04", true)
	assert.Equal(t, 1, r.Length)
	assert.Equal(t, "2024-01-04", r.Start)

	r.Step("2024-01-05", false)
	assert.Equal(t, 0, r.Length)
	assert.Equal(t, "", r.Start)

	r.Step("2024-01-06", true)
	assert.Equal(t, 1, r.Length)
	assert.Equal(t, "2024-01-06", r.Start)
}
