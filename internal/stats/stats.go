package stats

import (
	"fmt"
	"time"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/habit"
	"arogyamandiramAPI/internal/user"
)

type Period string

const (
	Week    Period = "week"
	Month   Period = "month"
	Year    Period = "year"
	AllTime Period = "all_time"
)

// DaysStat summarises how many days in a period met each goal. HabitDays.Logging
// counts days where at least one habit succeeded.
type DaysStat struct {
	Period      Period             `json:"period"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	DaysLogged  int                `json:"daysLogged"`
	TotalDays   int                `json:"totalDays"`
	PerfectDays int                `json:"perfectDays"`
	HabitDays   achievement.Counts `json:"habitDays"`
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Week, Month, Year, AllTime:
		return p, nil
	case "":
		return Week, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Range returns the inclusive date bounds of p ending today. Weeks start on Monday.
// For AllTime the lower bound is the first logged date, supplied by the caller.
func Range(p Period, today, firstLogged string) (string, string) {
	t, err := daily.ParseDate(today)
	if err != nil {
		return today, today
	}
	switch p {
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return daily.DateKey(t.AddDate(0, 0, -offset)), today
	case Month:
		return daily.DateKey(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)), today
	case Year:
		return daily.DateKey(time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)), today
	}
	if firstLogged == "" || firstLogged > today {
		return today, today
	}
	return firstLogged, today
}

// ForPeriod counts logged, perfect and per-habit successful days for records in
// [from, to]. records must be sorted by date.
func ForPeriod(records []daily.Record, t user.Targets, p Period, today string) DaysStat {
	first := ""
	if len(records) > 0 {
		first = records[0].Date
	}
	from, to := Range(p, today, first)

	out := DaysStat{Period: p, From: from, To: to}
	if start, err := daily.ParseDate(from); err == nil {
		if end, err := daily.ParseDate(to); err == nil {
			out.TotalDays = int(end.Sub(start).Hours()/24) + 1
		}
	}

	for i := range records {
		rec := &records[i]
		if rec.Date < from || rec.Date > to {
			continue
		}
		out.DaysLogged++
		for _, h := range habit.All {
			if habit.For(h)(rec, t) {
				out.HabitDays.Set(string(h), out.HabitDays.Get(string(h))+1)
			}
		}
		if habit.PerfectDay(rec, t) {
			out.PerfectDays++
		}
	}
	return out
}
