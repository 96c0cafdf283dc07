package level

import (
	"fmt"
	"math"

	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/habit"
	"arogyamandiramAPI/internal/user"
)

const (
	DefaultBaseXP       = 50
	DefaultBadgeBonusXP = 10
)

// Progress is a lifetime XP total placed on the geometric level ladder.
type Progress struct {
	Level       int `json:"level"`
	XPIntoLevel int `json:"xpIntoLevel"`
	XPForLevel  int `json:"xpForCurrentLevel"`
	Percent     int `json:"percentComplete"`
	Total       int `json:"xpTotal"`
}

// Requirement is the XP needed to complete level n: base * 2^(n-1).
func Requirement(base, n int) int {
	if n < 1 {
		n = 1
	}
	return base << (n - 1)
}

// ForXP maps a lifetime total onto the level ladder. There is no maximum level.
func ForXP(total, base int) Progress {
	if base <= 0 {
		base = DefaultBaseXP
	}
	if total < 0 {
		total = 0
	}

	lvl, remaining := 1, total
	for need := Requirement(base, lvl); need > 0 && remaining >= need; need = Requirement(base, lvl) {
		remaining -= need
		lvl++
	}

	need := Requirement(base, lvl)
	percent := 100
	if need > 0 {
		percent = int(math.Round(100 * float64(remaining) / float64(need)))
	}
	return Progress{
		Level:       lvl,
		XPIntoLevel: remaining,
		XPForLevel:  need,
		Percent:     percent,
		Total:       total,
	}
}

// Scorer is the per-day XP function.
type Scorer func(rec daily.Record, t user.Targets) (int, error)

const (
	habitXP      = 10
	mealLoggedXP = 5
	perfectDayXP = 25
)

// DailyXP is the default per-day scorer: 10 per successful habit, 5 for logging
// any meal and a 25 bonus for a perfect day.
func DailyXP(rec daily.Record, t user.Targets) (int, error) {
	xp := 0
	for _, h := range habit.Tracked {
		if habit.For(h)(&rec, t) {
			xp += habitXP
		}
	}
	if len(rec.Meals) > 0 {
		xp += mealLoggedXP
	}
	if habit.PerfectDay(&rec, t) {
		xp += perfectDayXP
	}
	return xp, nil
}

// Rehydrate sums score over the whole history. Any scorer error aborts the sum.
func Rehydrate(records []daily.Record, t user.Targets, score Scorer) (int, error) {
	if score == nil {
		score = DailyXP
	}
	total := 0
	for _, rec := range records {
		xp, err := score(rec, t)
		if err != nil {
			return 0, fmt.Errorf("failed to score %s: %w", rec.Date, err)
		}
		if xp < 0 {
			return 0, fmt.Errorf("negative xp %d for %s", xp, rec.Date)
		}
		total += xp
	}
	return total, nil
}

// Lifetime combines persisted XP with the badge bonus of this run. rehydrated is
// only consulted by the caller when persisted is zero.
func Lifetime(persisted, rehydrated, newBadges, bonusPerBadge int) int {
	total := persisted
	if rehydrated > total {
		total = rehydrated
	}
	if total < 0 {
		total = 0
	}
	return total + bonusPerBadge*newBadges
}
