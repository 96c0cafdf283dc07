// Command recompute rebuilds persisted achievements from daily history, for
// backfills and after gamification policy changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"arogyamandiramAPI/internal/config"
	"arogyamandiramAPI/internal/logger"
	"arogyamandiramAPI/internal/storage"
	"arogyamandiramAPI/services"
)

var CLI struct {
	Version kong.VersionFlag

	Users       []string `name:"user" short:"u" help:"User ID to recompute (repeatable)." xor:"target"`
	All         bool     `help:"Recompute every user." xor:"target"`
	DryRun      bool     `help:"Compute and print without saving."`
	DatabaseURL string   `help:"Postgres connection string." env:"DATABASE_URL"`
	SQLite      string   `name:"sqlite" help:"SQLite database path, used when no database URL is given." env:"SQLITE_PATH" default:"arogyamandiram.db" type:"path"`
	Config      string   `help:"Gamification policy YAML." env:"GAMIFICATION_CONFIG" type:"path"`
	Timezone    string   `help:"Time zone that decides 'today'." env:"TIMEZONE" default:"UTC"`
	Debug       bool     `help:"Verbose logging." env:"DEBUG"`
}

type computer interface {
	ComputeAchievements(ctx context.Context, userID string) (*services.Result, error)
	Preview(ctx context.Context, userID string) (*services.Result, error)
}

func main() {
	kong.Parse(&CLI,
		kong.Name("recompute"),
		kong.Description("Recompute streaks, badges and XP from stored daily records."),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, Prefix: "recompute"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	if len(CLI.Users) == 0 && !CLI.All {
		return errors.New("pass --user or --all")
	}

	policy := config.DefaultGamification()
	if CLI.Config != "" {
		data, err := os.ReadFile(CLI.Config)
		if err != nil {
			return fmt.Errorf("failed to read gamification config: %w", err)
		}
		if policy, err = config.ParseGamification(data); err != nil {
			return err
		}
	}

	loc, err := time.LoadLocation(CLI.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", CLI.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := storage.Open(ctx, CLI.DatabaseURL, CLI.SQLite)
	if err != nil {
		return err
	}
	defer store.Close()

	userIDs := CLI.Users
	if CLI.All {
		if userIDs, err = store.ListUserIDs(ctx); err != nil {
			return err
		}
	}

	svc := services.NewAchievementService(store, nil, services.OptionsFromConfig(policy, loc))
	return recompute(ctx, svc, userIDs, CLI.DryRun, os.Stdout)
}

// recompute processes users one by one. A failing user is reported and skipped;
// the returned error summarises how many failed.
func recompute(ctx context.Context, svc computer, userIDs []string, dryRun bool, out io.Writer) error {
	failed := 0
	for _, id := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		run := svc.ComputeAchievements
		if dryRun {
			run = svc.Preview
		}

		res, err := run(ctx, id)
		if err != nil {
			failed++
			logger.Error("Recompute failed", "user_id", id, "error", err)
			continue
		}

		names := make([]string, 0, len(res.NewlyEarnedBadges))
		for _, b := range res.NewlyEarnedBadges {
			names = append(names, b.ID)
		}
		fmt.Fprintf(out, "%s\tlevel=%d\txp=%d\tbadges=%d\tnew=[%s]\n",
			id, res.Level.Level, res.Achievements.XPTotal, len(res.Achievements.Badges), strings.Join(names, ","))
	}

	logger.Info("Recompute finished", "users", len(userIDs), "failed", failed, "dry_run", dryRun)
	if failed > 0 {
		return fmt.Errorf("%d of %d users failed", failed, len(userIDs))
	}
	return nil
}
