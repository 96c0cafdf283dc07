package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"arogyamandiramAPI/internal/user"
)

//go:embed gamification.yaml
var defaultGamification []byte

type Gamification struct {
	DefaultTargets   user.Targets `yaml:"default_targets"`
	StreakWindowDays int          `yaml:"streak_window_days"`
	LevelBaseXP      int          `yaml:"level_base_xp"`
	BadgeBonusXP     int          `yaml:"badge_bonus_xp"`
}

type Config struct {
	Port               string
	DatabaseURL        string
	SQLitePath         string
	ClerkSecretKey     string
	ClerkWebhookSecret string
	RedisURL           string
	LogDir             string
	Debug              bool
	Location           *time.Location
	MetricsUser        string
	MetricsPass        string
	RecomputeInterval  time.Duration
	Gamification       Gamification
}

// DefaultGamification returns the embedded policy.
func DefaultGamification() Gamification {
	g, err := ParseGamification(defaultGamification)
	if err != nil {
		panic(fmt.Sprintf("embedded gamification.yaml is invalid: %v", err))
	}
	return g
}

// ParseGamification decodes a policy document. Fields left out keep the values of
// the embedded default.
func ParseGamification(data []byte) (Gamification, error) {
	var g Gamification
	if len(defaultGamification) > 0 {
		if err := yaml.Unmarshal(defaultGamification, &g); err != nil {
			return Gamification{}, err
		}
	}
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Gamification{}, fmt.Errorf("failed to parse gamification config: %w", err)
	}
	if g.StreakWindowDays < 0 {
		return Gamification{}, fmt.Errorf("streak_window_days must be >= 0, got %d", g.StreakWindowDays)
	}
	if g.LevelBaseXP <= 0 {
		return Gamification{}, fmt.Errorf("level_base_xp must be positive, got %d", g.LevelBaseXP)
	}
	if g.BadgeBonusXP < 0 {
		return Gamification{}, fmt.Errorf("badge_bonus_xp must be >= 0, got %d", g.BadgeBonusXP)
	}
	return g, nil
}

// Load reads the environment (and .env when present) plus the gamification policy.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getenv("PORT", "3333"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getenv("SQLITE_PATH", "arogyamandiram.db"),
		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
		RedisURL:           os.Getenv("REDIS_URL"),
		LogDir:             os.Getenv("LOG_DIR"),
		MetricsUser:        os.Getenv("METRICS_USER"),
		MetricsPass:        os.Getenv("METRICS_PASS"),
		Location:           time.UTC,
	}

	if v := os.Getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEBUG value %q: %w", v, err)
		}
		cfg.Debug = debug
	}

	if v := os.Getenv("RECOMPUTE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid RECOMPUTE_INTERVAL %q", v)
		}
		cfg.RecomputeInterval = d
	}

	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	cfg.Gamification = DefaultGamification()
	if path := os.Getenv("GAMIFICATION_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read gamification config: %w", err)
		}
		g, err := ParseGamification(data)
		if err != nil {
			return nil, err
		}
		cfg.Gamification = g
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
