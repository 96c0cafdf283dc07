package daily

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date key used for every daily record.
const DateLayout = "2006-01-02"

type Meal struct {
	Name     string  `json:"name,omitempty"`
	Time     string  `json:"time,omitempty"`
	Calories float64 `json:"calories,omitempty"`
}

type WaterEntry struct {
	Time   string  `json:"time,omitempty"`
	Amount float64 `json:"amount"`
}

type Sleep struct {
	Duration float64 `json:"duration"`
	Bedtime  string  `json:"bedtime,omitempty"`
	WakeTime string  `json:"wakeTime,omitempty"`
}

type Workout struct {
	Type           string  `json:"type,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	CaloriesBurned float64 `json:"caloriesBurned,omitempty"`
}

// Record is one user's log for one calendar date.
type Record struct {
	Date           string       `json:"date" db:"date"`
	TotalCalories  float64      `json:"totalCalories"`
	Protein        float64      `json:"protein,omitempty"`
	Carbs          float64      `json:"carbs,omitempty"`
	Fat            float64      `json:"fat,omitempty"`
	WaterIntake    float64      `json:"waterIntake"`
	WaterEntries   []WaterEntry `json:"waterEntries,omitempty"`
	Sleep          *Sleep       `json:"sleep,omitempty"`
	Weight         *float64     `json:"weight,omitempty"`
	Meals          []Meal       `json:"meals"`
	Workouts       []Workout    `json:"workouts"`
	CaloriesBurned float64      `json:"caloriesBurned"`
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateKey formats t's calendar date in its own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a date key by n calendar days. Invalid keys are returned unchanged.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return DateKey(t.AddDate(0, 0, n))
}

// IsNextDay reports whether next is exactly one calendar day after prev.
func IsNextDay(prev, next string) bool {
	return prev != "" && AddDays(prev, 1) == next
}

func Weekday(date string) (time.Weekday, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}

// ClockHour extracts the hour from "15:04", "15:04:05" or an RFC3339 timestamp.
func ClockHour(s string) (int, bool) {
	for _, layout := range []string{"15:04", "15:04:05", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

// Index maps date keys to records. Later duplicates win.
func Index(records []Record) map[string]*Record {
	m := make(map[string]*Record, len(records))
	for i := range records {
		m[records[i].Date] = &records[i]
	}
	return m
}

// Validate rejects records with a malformed date or negative quantities.
func (r *Record) Validate() error {
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	type field struct {
		name string
		v    float64
	}
	checks := []field{
		{"totalCalories", r.TotalCalories},
		{"protein", r.Protein},
		{"carbs", r.Carbs},
		{"fat", r.Fat},
		{"waterIntake", r.WaterIntake},
		{"caloriesBurned", r.CaloriesBurned},
	}
	if r.Weight != nil {
		checks = append(checks, field{"weight", *r.Weight})
	}
	if r.Sleep != nil {
		checks = append(checks, field{"sleep.duration", r.Sleep.Duration})
	}
	for _, c := range checks {
		if c.v < 0 {
			return fmt.Errorf("%s must not be negative", c.name)
		}
	}
	for _, w := range r.WaterEntries {
		if w.Amount < 0 {
			return fmt.Errorf("waterEntries.amount must not be negative")
		}
	}
	return nil
}
