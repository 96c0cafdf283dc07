package workers

import (
	"context"
	"time"

	"arogyamandiramAPI/internal/logger"
)

type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

type Recomputer interface {
	Recompute(ctx context.Context, userID string) error
}

// RecomputeFunc adapts a plain function to Recomputer.
type RecomputeFunc func(ctx context.Context, userID string) error

func (f RecomputeFunc) Recompute(ctx context.Context, userID string) error { return f(ctx, userID) }

// StartRecomputeWorker runs RecomputeAll once per interval until ctx is cancelled.
func StartRecomputeWorker(ctx context.Context, users UserLister, r Recomputer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Recompute worker started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Recompute worker stopped")
			return
		case <-ticker.C:
			RecomputeAll(ctx, users, r)
		}
	}
}

// RecomputeAll runs one sweep and reports how many users were processed and how
// many failed. A single failing user does not stop the sweep.
func RecomputeAll(ctx context.Context, users UserLister, r Recomputer) (int, int) {
	listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	ids, err := users.ListUserIDs(listCtx)
	cancel()
	if err != nil {
		logger.Error("Recompute sweep: failed to list users", "error", err)
		return 0, 0
	}

	start := time.Now()
	done, failed := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		userCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := r.Recompute(userCtx, id)
		cancel()
		done++
		if err != nil {
			failed++
			logger.Warn("Recompute sweep: user failed", "user_id", id, "error", err)
		}
	}

	logger.Info("Recompute sweep finished", "users", done, "failed", failed, "duration", time.Since(start))
	return done, failed
}
