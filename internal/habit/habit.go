package habit

import (
	"math"

	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/user"
)

type Habit string

const (
	Logging  Habit = "logging"
	Calories Habit = "calories"
	Water    Habit = "water"
	Workout  Habit = "workout"
	Sleep    Habit = "sleep"
	Weight   Habit = "weight"
)

// All lists the tracked habits; Logging is the umbrella "healthy day" habit.
var All = []Habit{Logging, Calories, Water, Workout, Sleep, Weight}

// Tracked lists the five concrete habits, excluding the umbrella.
var Tracked = []Habit{Calories, Water, Workout, Sleep, Weight}

const (
	calorieBandLow  = 0.85
	calorieBandHigh = 1.15
	// MinWorkoutBurn keeps the workout habit meaningful when the burn target is low or unset.
	MinWorkoutBurn = 300.0
)

// Predicate classifies a single day for one habit. Implementations are pure and total.
type Predicate func(rec *daily.Record, t user.Targets) bool

func CaloriesSuccess(rec *daily.Record, t user.Targets) bool {
	if rec == nil || t.DailyCalories <= 0 {
		return false
	}
	return rec.TotalCalories >= calorieBandLow*t.DailyCalories &&
		rec.TotalCalories <= calorieBandHigh*t.DailyCalories
}

func WaterSuccess(rec *daily.Record, t user.Targets) bool {
	if rec == nil || t.DailyWater <= 0 {
		return false
	}
	return rec.WaterIntake >= t.DailyWater
}

func SleepSuccess(rec *daily.Record, t user.Targets) bool {
	if rec == nil || t.SleepHours <= 0 || rec.Sleep == nil {
		return false
	}
	return rec.Sleep.Duration >= t.SleepHours
}

func WorkoutSuccess(rec *daily.Record, t user.Targets) bool {
	if rec == nil {
		return false
	}
	return rec.CaloriesBurned >= WorkoutThreshold(t)
}

// WorkoutThreshold is max(300, dailyCalorieBurn).
func WorkoutThreshold(t user.Targets) float64 {
	return math.Max(MinWorkoutBurn, t.DailyCalorieBurn)
}

func WeightSuccess(rec *daily.Record, _ user.Targets) bool {
	if rec == nil || rec.Weight == nil {
		return false
	}
	w := *rec.Weight
	return !math.IsNaN(w) && !math.IsInf(w, 0)
}

// HealthySuccess is true when any concrete habit succeeded.
func HealthySuccess(rec *daily.Record, t user.Targets) bool {
	for _, h := range Tracked {
		if For(h)(rec, t) {
			return true
		}
	}
	return false
}

// PerfectDay is true when every concrete habit succeeded.
func PerfectDay(rec *daily.Record, t user.Targets) bool {
	if rec == nil {
		return false
	}
	for _, h := range Tracked {
		if !For(h)(rec, t) {
			return false
		}
	}
	return true
}

// For returns the success predicate of h. Unknown habits never succeed.
func For(h Habit) Predicate {
	switch h {
	case Logging:
		return HealthySuccess
	case Calories:
		return CaloriesSuccess
	case Water:
		return WaterSuccess
	case Workout:
		return WorkoutSuccess
	case Sleep:
		return SleepSuccess
	case Weight:
		return WeightSuccess
	default:
		return func(*daily.Record, user.Targets) bool { return false }
	}
}
