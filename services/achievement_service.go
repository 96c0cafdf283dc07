package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/badges"
	"arogyamandiramAPI/internal/config"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/level"
	"arogyamandiramAPI/internal/logger"
	"arogyamandiramAPI/internal/stats"
	"arogyamandiramAPI/internal/storage"
	"arogyamandiramAPI/internal/streak"
	"arogyamandiramAPI/internal/user"
	"arogyamandiramAPI/internal/userlock"
)

var (
	ErrUserNotFound = storage.ErrUserNotFound
	ErrUserExists   = storage.ErrUserExists
)

// Result is what a computation hands back to the caller.
type Result struct {
	Achievements      achievement.Achievements `json:"achievements"`
	NewlyEarnedBadges []achievement.EarnedBadge `json:"newlyEarnedBadges"`
	Level             level.Progress           `json:"level"`
	Totals            badges.Totals            `json:"totals"`
}

// AchievementOptions holds the gamification policy. Zero values take the
// defaults (60 day window, 50 XP base, 10 XP per badge). A negative
// StreakWindowDays means unbounded and a negative BadgeBonusXP means no bonus.
type AchievementOptions struct {
	DefaultTargets   user.Targets
	StreakWindowDays int
	LevelBaseXP      int
	BadgeBonusXP     int
	// Scorer is the per-day XP function used for rehydration; nil means level.DailyXP.
	Scorer   level.Scorer
	Location *time.Location
	Now      func() time.Time
}

type AchievementService struct {
	store      storage.AchievementStore
	locker     userlock.Locker
	calculator streak.Calculator
	opts       AchievementOptions
}

func NewAchievementService(store storage.AchievementStore, locker userlock.Locker, opts AchievementOptions) *AchievementService {
	if locker == nil {
		locker = userlock.NewMemory()
	}
	if opts.LevelBaseXP <= 0 {
		opts.LevelBaseXP = level.DefaultBaseXP
	}
	switch {
	case opts.BadgeBonusXP == 0:
		opts.BadgeBonusXP = level.DefaultBadgeBonusXP
	case opts.BadgeBonusXP < 0:
		opts.BadgeBonusXP = 0
	}
	switch {
	case opts.StreakWindowDays == 0:
		opts.StreakWindowDays = streak.DefaultWindowDays
	case opts.StreakWindowDays < 0:
		opts.StreakWindowDays = 0
	}
	if opts.Scorer == nil {
		opts.Scorer = level.DailyXP
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AchievementService{
		store:      store,
		locker:     locker,
		calculator: streak.NewCalculator(opts.StreakWindowDays),
		opts:       opts,
	}
}

// ComputeAchievements recomputes streaks, badges and XP for a user from the full
// history and persists the merged record with a single write.
func (s *AchievementService) ComputeAchievements(ctx context.Context, userID string) (*Result, error) {
	start := time.Now()

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		achievementComputations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	defer unlock()

	res, err := s.compute(ctx, userID)
	if err != nil {
		achievementComputations.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	if err := s.store.SaveAchievements(ctx, userID, res.Achievements); err != nil {
		achievementComputations.WithLabelValues(outcome(err)).Inc()
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist achievements: %w", err)
	}

	for _, b := range res.NewlyEarnedBadges {
		badgesAwarded.WithLabelValues(string(b.Category)).Inc()
	}
	achievementComputations.WithLabelValues("ok").Inc()
	achievementDuration.Observe(time.Since(start).Seconds())

	logger.Info("Achievements computed",
		"user_id", userID,
		"new_badges", len(res.NewlyEarnedBadges),
		"badges", len(res.Achievements.Badges),
		"xp", res.Achievements.XPTotal,
		"level", res.Level.Level,
		"took", time.Since(start),
	)
	return res, nil
}

// Preview runs the same computation without persisting anything.
func (s *AchievementService) Preview(ctx context.Context, userID string) (*Result, error) {
	return s.compute(ctx, userID)
}

func outcome(err error) string {
	if errors.Is(err, storage.ErrUserNotFound) {
		return "not_found"
	}
	return "error"
}

func (s *AchievementService) today() string {
	return s.opts.Now().In(s.opts.Location).Format(daily.DateLayout)
}

func (s *AchievementService) compute(ctx context.Context, userID string) (*Result, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	prev := achievement.Empty()
	if u.Achievements != nil {
		prev = *u.Achievements
	}
	targets := u.Targets.WithDefaults(s.opts.DefaultTargets)

	records, err := s.store.LoadDailyRecords(ctx, userID, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load daily records: %w", err)
	}

	today := s.today()
	streaks := s.calculator.Compute(records, targets, today)
	eval := badges.Evaluate(records, targets, prev, today)

	rehydrated := 0
	if prev.XPTotal == 0 {
		rehydrated, err = level.Rehydrate(streak.Upto(records, today), targets, s.opts.Scorer)
		if err != nil {
			logger.Warn("XP rehydration failed, keeping persisted total", "user_id", userID, "error", err)
			rehydrated = 0
		}
	}

	now := s.opts.Now().UTC()
	merged, fresh := merge(prev, eval, now)
	merged.Streaks = streaks
	merged.XPTotal = level.Lifetime(prev.XPTotal, rehydrated, len(fresh), s.opts.BadgeBonusXP)

	return &Result{
		Achievements:      merged,
		NewlyEarnedBadges: fresh,
		Level:             level.ForXP(merged.XPTotal, s.opts.LevelBaseXP),
		Totals:            eval.Totals,
	}, nil
}

// merge keeps every persisted badge (backfilling firstEarnedAt) and appends the
// newly satisfied ones in catalog order.
func merge(prev achievement.Achievements, eval badges.Evaluation, now time.Time) (achievement.Achievements, []achievement.EarnedBadge) {
	out := achievement.Empty()
	out.Badges = make([]achievement.EarnedBadge, 0, len(prev.Badges)+len(eval.New))

	for _, b := range achievement.Normalize(prev.Badges) {
		if first, ok := eval.FirstEarned[b.ID]; ok {
			b = achievement.MergeBadge(b, achievement.EarnedBadge{FirstEarnedAt: first})
		}
		out.Badges = append(out.Badges, b)
	}

	fresh := []achievement.EarnedBadge{}
	for _, id := range eval.New {
		b, ok := achievement.NewEarnedBadge(id, now, eval.FirstEarned[id])
		if !ok {
			continue
		}
		out.Badges = append(out.Badges, b)
		fresh = append(fresh, b)
	}
	return out, fresh
}

// Stats summarises goal attainment for a calendar period ending today.
func (s *AchievementService) Stats(ctx context.Context, userID string, period stats.Period) (*stats.DaysStat, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	today := s.today()
	records, err := s.store.LoadDailyRecords(ctx, userID, "", today)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily records: %w", err)
	}

	out := stats.ForPeriod(records, u.Targets.WithDefaults(s.opts.DefaultTargets), period, today)
	return &out, nil
}

// OptionsFromConfig maps the gamification policy onto service options. In the
// YAML an explicit 0 means unbounded window or no badge bonus.
func OptionsFromConfig(g config.Gamification, loc *time.Location) AchievementOptions {
	opts := AchievementOptions{
		DefaultTargets:   g.DefaultTargets,
		StreakWindowDays: g.StreakWindowDays,
		LevelBaseXP:      g.LevelBaseXP,
		BadgeBonusXP:     g.BadgeBonusXP,
		Location:         loc,
	}
	if opts.StreakWindowDays == 0 {
		opts.StreakWindowDays = -1
	}
	if opts.BadgeBonusXP == 0 {
		opts.BadgeBonusXP = -1
	}
	return opts
}
