package user

// Targets are a user's daily goals. Only a subset feeds the gamification engine.
type Targets struct {
	DailyCalories       float64 `json:"dailyCalories" yaml:"daily_calories"`
	DailyWater          float64 `json:"dailyWater" yaml:"daily_water"`
	DailyProtein        float64 `json:"dailyProtein" yaml:"daily_protein"`
	DailyCarbs          float64 `json:"dailyCarbs" yaml:"daily_carbs"`
	DailyFat            float64 `json:"dailyFat" yaml:"daily_fat"`
	IdealWeight         float64 `json:"idealWeight" yaml:"ideal_weight"`
	DailyWorkoutMinutes float64 `json:"dailyWorkoutMinutes" yaml:"daily_workout_minutes"`
	DailyCalorieBurn    float64 `json:"dailyCalorieBurn" yaml:"daily_calorie_burn"`
	SleepHours          float64 `json:"sleepHours" yaml:"sleep_hours"`
}

// WithDefaults returns t with every non-positive field taken from def.
// A nil receiver yields def unchanged.
func (t *Targets) WithDefaults(def Targets) Targets {
	if t == nil {
		return def
	}
	out := *t
	fill := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&out.DailyCalories, def.DailyCalories)
	fill(&out.DailyWater, def.DailyWater)
	fill(&out.DailyProtein, def.DailyProtein)
	fill(&out.DailyCarbs, def.DailyCarbs)
	fill(&out.DailyFat, def.DailyFat)
	fill(&out.IdealWeight, def.IdealWeight)
	fill(&out.DailyWorkoutMinutes, def.DailyWorkoutMinutes)
	fill(&out.DailyCalorieBurn, def.DailyCalorieBurn)
	fill(&out.SleepHours, def.SleepHours)
	return out
}
