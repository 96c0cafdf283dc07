package achievement

import "fmt"

// Streak thresholds, in days.
var (
	LoggingStreakThresholds = []int{3, 7, 14, 30, 50, 100}
	HabitStreakThresholds   = []int{7, 14, 30, 50, 100}
)

// Streak habits in catalog order. Logging is the umbrella "healthy day" habit.
var streakHabits = []struct {
	habit string
	label string
	icon  string
}{
	{"logging", "Healthy Day", "🔥"},
	{"calories", "Calorie Goal", "🎯"},
	{"water", "Hydration", "💧"},
	{"workout", "Workout", "🏋️"},
	{"sleep", "Sleep", "😴"},
	{"weight", "Weigh-in", "⚖️"},
}

const (
	FirstMeal       = "first_meal"
	FirstWater      = "first_water"
	FirstWorkout    = "first_workout"
	FirstWeighIn    = "first_weigh_in"
	FirstSleep      = "first_sleep"
	FirstPerfectDay = "first_perfect_day"

	Meals50             = "meals_50"
	Meals100            = "meals_100"
	Workouts50          = "workouts_50"
	Workouts100         = "workouts_100"
	CaloriesBurned10000 = "calories_burned_10000"
	SleepEntries50      = "sleep_entries_50"
	WeighIns30          = "weigh_ins_30"

	EarlyBird      = "early_bird"
	NightOwl       = "night_owl"
	HydrationWeek  = "hydration_week"
	NoSkipMonth    = "no_skip_month"
	PerfectWeek    = "perfect_week"
	WeekendWarrior = "weekend_warrior"
)

// StreakBadgeID names the badge for reaching a streak threshold on a habit.
func StreakBadgeID(habit string, days int) string {
	return fmt.Sprintf("streak_%s_%d", habit, days)
}

// StreakThresholds returns the badge thresholds for a habit.
func StreakThresholds(habit string) []int {
	if habit == "logging" {
		return LoggingStreakThresholds
	}
	return HabitStreakThresholds
}

var (
	catalog []BadgeDefinition
	byID    map[string]BadgeDefinition
)

func init() {
	catalog = []BadgeDefinition{
		{FirstMeal, "First Bite", "Logged your first meal", "🍽️", CategoryFirst},
		{FirstWater, "First Sip", "Logged water for the first time", "🥤", CategoryFirst},
		{FirstWorkout, "First Sweat", "Logged your first workout", "👟", CategoryFirst},
		{FirstWeighIn, "First Weigh-in", "Recorded your weight for the first time", "⚖️", CategoryFirst},
		{FirstSleep, "First Rest", "Logged your first night of sleep", "🌙", CategoryFirst},
		{FirstPerfectDay, "Perfect Day", "Hit every goal in a single day", "🌟", CategoryFirst},
	}

	for _, h := range streakHabits {
		for _, n := range StreakThresholds(h.habit) {
			catalog = append(catalog, BadgeDefinition{
				ID:          StreakBadgeID(h.habit, n),
				Name:        fmt.Sprintf("%s Streak %d", h.label, n),
				Description: fmt.Sprintf("%s streak of %d consecutive days", h.label, n),
				Icon:        h.icon,
				Category:    CategoryStreak,
			})
		}
	}

	catalog = append(catalog,
		BadgeDefinition{Meals50, "Meal Tracker", "Logged 50 meals", "🥗", CategoryMilestone},
		BadgeDefinition{Meals100, "Meal Master", "Logged 100 meals", "🍱", CategoryMilestone},
		BadgeDefinition{Workouts50, "Gym Regular", "Logged 50 workouts", "💪", CategoryMilestone},
		BadgeDefinition{Workouts100, "Iron Will", "Logged 100 workouts", "🏆", CategoryMilestone},
		BadgeDefinition{CaloriesBurned10000, "Furnace", "Burned 10,000 kcal in total", "🔥", CategoryMilestone},
		BadgeDefinition{SleepEntries50, "Dream Keeper", "Logged sleep 50 times", "🛌", CategoryMilestone},
		BadgeDefinition{WeighIns30, "Scale Regular", "Recorded 30 weigh-ins", "📉", CategoryMilestone},

		BadgeDefinition{EarlyBird, "Early Bird", "Logged a meal before 8 AM", "🐦", CategoryChallenge},
		BadgeDefinition{NightOwl, "Night Owl", "Went to bed or woke up between midnight and 6 AM", "🦉", CategoryChallenge},
		BadgeDefinition{HydrationWeek, "Hydration Week", "Met your water goal 7 days in a row", "🌊", CategoryChallenge},
		BadgeDefinition{NoSkipMonth, "No-Skip Month", "30 healthy days in a row", "📅", CategoryChallenge},
		BadgeDefinition{PerfectWeek, "Perfect Week", "Seven perfect days in a row", "👑", CategoryChallenge},
		BadgeDefinition{WeekendWarrior, "Weekend Warrior", "Hit your workout goal on both days of a weekend", "⚔️", CategoryChallenge},
	)

	byID = make(map[string]BadgeDefinition, len(catalog))
	for _, d := range catalog {
		byID[d.ID] = d
	}
}

// Catalog returns the ordered badge table. The returned slice is a copy.
func Catalog() []BadgeDefinition {
	out := make([]BadgeDefinition, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (BadgeDefinition, bool) {
	d, ok := byID[id]
	return d, ok
}

// Position returns the catalog index of id, or -1.
func Position(id string) int {
	for i, d := range catalog {
		if d.ID == id {
			return i
		}
	}
	return -1
}
