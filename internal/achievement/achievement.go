package achievement

import (
	"encoding/json"
	"math"
	"time"
)

type Category string

const (
	CategoryFirst     Category = "first"
	CategoryStreak    Category = "streak"
	CategoryMilestone Category = "milestone"
	CategoryChallenge Category = "challenge"
	CategoryOther     Category = "other"
)

type BadgeDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`
}

// EarnedBadge is a badge unlocked by a user. EarnedAt is the run that recorded it,
// FirstEarnedAt the calendar date its condition first held (possibly backdated).
type EarnedBadge struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Category      Category  `json:"category"`
	EarnedAt      time.Time `json:"earnedAt"`
	FirstEarnedAt string    `json:"firstEarnedAt,omitempty"`
}

// Counts holds one integer per habit, keyed by habit name in JSON.
type Counts struct {
	Logging  int `json:"logging"`
	Calories int `json:"calories"`
	Water    int `json:"water"`
	Workout  int `json:"workout"`
	Sleep    int `json:"sleep"`
	Weight   int `json:"weight"`
}

func (c *Counts) field(habit string) *int {
	switch habit {
	case "logging":
		return &c.Logging
	case "calories":
		return &c.Calories
	case "water":
		return &c.Water
	case "workout":
		return &c.Workout
	case "sleep":
		return &c.Sleep
	case "weight":
		return &c.Weight
	}
	return nil
}

func (c Counts) Get(habit string) int {
	if p := c.field(habit); p != nil {
		return *p
	}
	return 0
}

func (c *Counts) Set(habit string, n int) {
	if p := c.field(habit); p != nil {
		*p = n
	}
}

type HabitStreaks struct {
	Current Counts            `json:"current"`
	Best    Counts            `json:"best"`
	Starts  map[string]string `json:"starts"`
}

// Achievements is the per-user persisted gamification record.
type Achievements struct {
	Badges  []EarnedBadge `json:"badges"`
	Streaks HabitStreaks  `json:"streaks"`
	XPTotal int           `json:"xpTotal"`
}

// Empty returns the record a user starts with.
func Empty() Achievements {
	return Achievements{
		Badges:  []EarnedBadge{},
		Streaks: HabitStreaks{Starts: map[string]string{}},
	}
}

// Has reports whether a badge id is already present.
func (a Achievements) Has(id string) bool {
	for _, b := range a.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Decode parses a persisted achievements document. Legacy or malformed parts are
// replaced with empty defaults; only an undecodable top-level value is an error.
func Decode(raw []byte) (Achievements, error) {
	out := Empty()
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}

	var doc struct {
		Badges  json.RawMessage `json:"badges"`
		Streaks json.RawMessage `json:"streaks"`
		XPTotal json.RawMessage `json:"xpTotal"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, err
	}

	var badges []EarnedBadge
	if json.Unmarshal(doc.Badges, &badges) == nil {
		out.Badges = Normalize(badges)
	}

	var streaks struct {
		Current json.RawMessage   `json:"current"`
		Best    json.RawMessage   `json:"best"`
		Starts  map[string]string `json:"starts"`
	}
	if json.Unmarshal(doc.Streaks, &streaks) == nil {
		_ = json.Unmarshal(streaks.Current, &out.Streaks.Current)
		_ = json.Unmarshal(streaks.Best, &out.Streaks.Best)
		for k, v := range streaks.Starts {
			if v != "" {
				out.Streaks.Starts[k] = v
			}
		}
	}

	var xp float64
	if json.Unmarshal(doc.XPTotal, &xp) == nil && xp > 0 {
		if xp >= math.MaxInt {
			out.XPTotal = math.MaxInt
		} else {
			out.XPTotal = int(xp)
		}
	}

	return out, nil
}

// Normalize collapses duplicate ids (first occurrence wins, merged via MergeBadge)
// and refills display fields from the catalog for badges stored without them.
func Normalize(badges []EarnedBadge) []EarnedBadge {
	out := make([]EarnedBadge, 0, len(badges))
	pos := make(map[string]int, len(badges))
	for _, b := range badges {
		if b.ID == "" {
			continue
		}
		if def, ok := Lookup(b.ID); ok {
			if b.Name == "" {
				b.Name = def.Name
			}
			if b.Description == "" {
				b.Description = def.Description
			}
			if b.Icon == "" {
				b.Icon = def.Icon
			}
			if b.Category == "" {
				b.Category = def.Category
			}
		}
		if i, dup := pos[b.ID]; dup {
			out[i] = MergeBadge(out[i], b)
			continue
		}
		pos[b.ID] = len(out)
		out = append(out, b)
	}
	return out
}

// MergeBadge combines a persisted badge with a freshly computed one. Identity and
// EarnedAt stay with existing; FirstEarnedAt is filled when absent and only ever
// moves to an earlier date.
func MergeBadge(existing, fresh EarnedBadge) EarnedBadge {
	out := existing
	if out.EarnedAt.IsZero() {
		out.EarnedAt = fresh.EarnedAt
	}
	if fresh.FirstEarnedAt != "" && (out.FirstEarnedAt == "" || fresh.FirstEarnedAt < out.FirstEarnedAt) {
		out.FirstEarnedAt = fresh.FirstEarnedAt
	}
	return out
}

// NewEarnedBadge builds an earned badge from the catalog. ok is false for unknown ids.
func NewEarnedBadge(id string, earnedAt time.Time, firstEarnedAt string) (EarnedBadge, bool) {
	def, ok := Lookup(id)
	if !ok {
		return EarnedBadge{}, false
	}
	return EarnedBadge{
		ID:            def.ID,
		Name:          def.Name,
		Description:   def.Description,
		Icon:          def.Icon,
		Category:      def.Category,
		EarnedAt:      earnedAt,
		FirstEarnedAt: firstEarnedAt,
	}, true
}
