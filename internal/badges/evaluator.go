package badges

import (
	"time"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/habit"
	"arogyamandiramAPI/internal/streak"
	"arogyamandiramAPI/internal/user"
)

const (
	earlyBirdBeforeHour = 8
	nightOwlUntilHour   = 6
	perfectWeekDays     = 7
	hydrationWeekDays   = 7
	noSkipMonthDays     = 30
)

type milestone struct {
	id        string
	threshold float64
	total     func(Totals) float64
}

var milestones = []milestone{
	{achievement.Meals50, 50, func(t Totals) float64 { return float64(t.Meals) }},
	{achievement.Meals100, 100, func(t Totals) float64 { return float64(t.Meals) }},
	{achievement.Workouts50, 50, func(t Totals) float64 { return float64(t.Workouts) }},
	{achievement.Workouts100, 100, func(t Totals) float64 { return float64(t.Workouts) }},
	{achievement.CaloriesBurned10000, 10000, func(t Totals) float64 { return t.CaloriesBurned }},
	{achievement.SleepEntries50, 50, func(t Totals) float64 { return float64(t.SleepEntries) }},
	{achievement.WeighIns30, 30, func(t Totals) float64 { return float64(t.WeighIns) }},
}

// Totals are lifetime aggregates over the whole history.
type Totals struct {
	Meals          int     `json:"meals"`
	Workouts       int     `json:"workouts"`
	SleepEntries   int     `json:"sleepEntries"`
	WeighIns       int     `json:"weighIns"`
	CaloriesBurned float64 `json:"caloriesBurned"`
}

// Evaluation is the outcome of scanning a user's history.
type Evaluation struct {
	// Satisfied lists every badge whose condition holds now, in catalog order.
	Satisfied []string
	// New lists the satisfied badges missing from the previously persisted set.
	New []string
	// FirstEarned maps badge id to the calendar date its condition first held.
	FirstEarned map[string]string
	Totals      Totals
	// Current holds unbounded current streak lengths per habit.
	Current achievement.Counts
}

type evaluation struct {
	t         user.Targets
	satisfied map[string]bool
	first     map[string]string
}

func (e *evaluation) award(id string) {
	e.satisfied[id] = true
}

// attribute records date as id's first-earned date unless one is already known.
func (e *evaluation) attribute(id, date string) {
	if date == "" {
		return
	}
	if _, ok := e.first[id]; !ok {
		e.first[id] = date
	}
}

// Evaluate walks the full history (records dated after today are ignored) and
// determines which badges are satisfied and when each was first earned.
func Evaluate(records []daily.Record, t user.Targets, prev achievement.Achievements, today string) Evaluation {
	history := streak.Upto(records, today)
	e := &evaluation{
		t:         t,
		satisfied: map[string]bool{},
		first:     map[string]string{},
	}

	totals := e.scanDays(history)
	current := e.scanStreaks(history, today)
	e.scanPerfectWeek(history)
	e.scanWeekendWarrior(history)

	out := Evaluation{
		FirstEarned: e.first,
		Totals:      totals,
		Current:     current,
	}
	for _, def := range achievement.Catalog() {
		if !e.satisfied[def.ID] {
			continue
		}
		out.Satisfied = append(out.Satisfied, def.ID)
		if !prev.Has(def.ID) {
			out.New = append(out.New, def.ID)
		}
	}
	return out
}

// scanDays handles first-time, milestone, early bird and night owl conditions in one forward pass.
func (e *evaluation) scanDays(history []daily.Record) Totals {
	var totals Totals
	for i := range history {
		rec := &history[i]

		if len(rec.Meals) > 0 {
			e.once(achievement.FirstMeal, rec.Date)
		}
		if rec.WaterIntake > 0 || len(rec.WaterEntries) > 0 {
			e.once(achievement.FirstWater, rec.Date)
		}
		if len(rec.Workouts) > 0 || rec.CaloriesBurned > 0 {
			e.once(achievement.FirstWorkout, rec.Date)
		}
		if habit.WeightSuccess(rec, e.t) {
			e.once(achievement.FirstWeighIn, rec.Date)
			totals.WeighIns++
		}
		if rec.Sleep != nil {
			e.once(achievement.FirstSleep, rec.Date)
			totals.SleepEntries++
		}
		if habit.PerfectDay(rec, e.t) {
			e.once(achievement.FirstPerfectDay, rec.Date)
		}

		totals.Meals += len(rec.Meals)
		totals.Workouts += len(rec.Workouts)
		if rec.CaloriesBurned > 0 {
			totals.CaloriesBurned += rec.CaloriesBurned
		}
		for _, m := range milestones {
			if m.total(totals) >= m.threshold {
				e.once(m.id, rec.Date)
			}
		}

		for _, meal := range rec.Meals {
			if h, ok := daily.ClockHour(meal.Time); ok && h < earlyBirdBeforeHour {
				e.once(achievement.EarlyBird, rec.Date)
				break
			}
		}
		if rec.Sleep != nil && (nightHour(rec.Sleep.Bedtime) || nightHour(rec.Sleep.WakeTime)) {
			e.once(achievement.NightOwl, rec.Date)
		}
	}
	return totals
}

func (e *evaluation) once(id, date string) {
	e.award(id)
	e.attribute(id, date)
}

func nightHour(clock string) bool {
	h, ok := daily.ClockHour(clock)
	return ok && h < nightOwlUntilHour
}

// scanStreaks awards streak badges from the unbounded current streak and attributes
// each threshold to the start of the first run that ever reached it.
func (e *evaluation) scanStreaks(history []daily.Record, today string) achievement.Counts {
	idx := daily.Index(history)
	anchor := streak.Anchor(idx, today)

	var current achievement.Counts
	for _, h := range habit.All {
		name := string(h)
		pred := habit.For(h)
		thresholds := achievement.StreakThresholds(name)

		cur, _ := streak.Current(idx, e.t, pred, anchor, 0)
		current.Set(name, cur)

		streak.Scan(history, e.t, pred, func(_ string, run streak.Run) {
			for _, n := range thresholds {
				if run.Length == n {
					e.attribute(achievement.StreakBadgeID(name, n), run.Start)
				}
			}
		})

		for _, n := range thresholds {
			if cur >= n {
				e.award(achievement.StreakBadgeID(name, n))
			}
		}
	}

	if current.Water >= hydrationWeekDays {
		e.award(achievement.HydrationWeek)
	}
	e.attribute(achievement.HydrationWeek, e.first[achievement.StreakBadgeID("water", hydrationWeekDays)])

	if current.Logging >= noSkipMonthDays {
		e.award(achievement.NoSkipMonth)
	}
	e.attribute(achievement.NoSkipMonth, e.first[achievement.StreakBadgeID("logging", noSkipMonthDays)])

	return current
}

// scanPerfectWeek looks for any seven consecutive calendar dates that are all perfect days.
func (e *evaluation) scanPerfectWeek(history []daily.Record) {
	streak.Scan(history, e.t, habit.PerfectDay, func(_ string, run streak.Run) {
		if run.Length >= perfectWeekDays {
			e.once(achievement.PerfectWeek, run.Start)
		}
	})
}

// scanWeekendWarrior looks for a Saturday and the Sunday right after it both meeting the workout goal.
func (e *evaluation) scanWeekendWarrior(history []daily.Record) {
	idx := daily.Index(history)
	hit := func(date string) bool {
		rec, ok := idx[date]
		return ok && habit.WorkoutSuccess(rec, e.t)
	}

	for i := range history {
		sat := history[i].Date
		if wd, ok := daily.Weekday(sat); !ok || wd != time.Saturday || !hit(sat) {
			continue
		}
		if hit(daily.AddDays(sat, 1)) {
			e.once(achievement.WeekendWarrior, sat)
			return
		}
	}
}
