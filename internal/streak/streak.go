package streak

import (
	"sort"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/habit"
	"arogyamandiramAPI/internal/user"
)

// DefaultWindowDays bounds the backward walk for current streaks.
const DefaultWindowDays = 60

// Run is the state of one habit's consecutive-success run during a forward scan.
type Run struct {
	Length int
	Start  string
	last   string
}

// Step feeds the outcome for date into the run. Dates must be fed in ascending
// order; a missing calendar date between two steps breaks the run.
func (r *Run) Step(date string, ok bool) {
	switch {
	case !ok:
		r.Length = 0
		r.Start = ""
	case r.Length > 0 && daily.IsNextDay(r.last, date):
		r.Length++
	default:
		r.Length = 1
		r.Start = date
	}
	r.last = date
}

// Scan walks records forward through pred's run state machine, calling fn after every step.
func Scan(records []daily.Record, t user.Targets, pred habit.Predicate, fn func(date string, run Run)) {
	var run Run
	for i := range records {
		run.Step(records[i].Date, pred(&records[i], t))
		if fn != nil {
			fn(records[i].Date, run)
		}
	}
}

// Longest returns the longest run of pred anywhere in records.
func Longest(records []daily.Record, t user.Targets, pred habit.Predicate) int {
	best := 0
	Scan(records, t, pred, func(_ string, run Run) {
		if run.Length > best {
			best = run.Length
		}
	})
	return best
}

// Current walks backward from anchor while pred keeps holding on consecutive dates.
// It returns the run length and the date the run began. window <= 0 means unbounded.
func Current(idx map[string]*daily.Record, t user.Targets, pred habit.Predicate, anchor string, window int) (int, string) {
	n, start := 0, ""
	for d := anchor; window <= 0 || n < window; d = daily.AddDays(d, -1) {
		rec, ok := idx[d]
		if !ok || !pred(rec, t) {
			break
		}
		n++
		start = d
	}
	return n, start
}

// Anchor is the date the backward walk starts from: today, or yesterday while
// today has not been logged yet.
func Anchor(idx map[string]*daily.Record, today string) string {
	if _, ok := idx[today]; ok {
		return today
	}
	return daily.AddDays(today, -1)
}

// Upto returns records dated on or before today, sorted ascending.
func Upto(records []daily.Record, today string) []daily.Record {
	out := make([]daily.Record, 0, len(records))
	for _, r := range records {
		if r.Date != "" && r.Date <= today {
			out = append(out, r)
		}
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Date < out[j].Date }) {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	}
	// one record per date; the later duplicate wins, matching daily.Index
	deduped := out[:0]
	for _, r := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date == r.Date {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

type Calculator struct {
	WindowDays int
}

func NewCalculator(windowDays int) Calculator {
	return Calculator{WindowDays: windowDays}
}

// Compute derives current and best streaks for every habit as of today.
func (c Calculator) Compute(records []daily.Record, t user.Targets, today string) achievement.HabitStreaks {
	history := Upto(records, today)
	idx := daily.Index(history)
	anchor := Anchor(idx, today)

	out := achievement.HabitStreaks{Starts: map[string]string{}}
	for _, h := range habit.All {
		pred := habit.For(h)
		cur, start := Current(idx, t, pred, anchor, c.WindowDays)
		best := Longest(history, t, pred)
		if best < cur {
			best = cur
		}
		out.Current.Set(string(h), cur)
		out.Best.Set(string(h), best)
		if cur > 0 {
			out.Starts[string(h)] = start
		}
	}
	return out
}
