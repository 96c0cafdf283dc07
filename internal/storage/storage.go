package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/logger"
	"arogyamandiramAPI/internal/user"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// AchievementStore is the read/write contract of the gamification engine.
type AchievementStore interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	// LoadDailyRecords returns records with from <= date <= to in ascending date order.
	// Empty bounds are open.
	LoadDailyRecords(ctx context.Context, userID, from, to string) ([]daily.Record, error)
	// SaveAchievements replaces the stored achievements; ErrUserNotFound when the user is gone.
	SaveAchievements(ctx context.Context, userID string, a achievement.Achievements) error
}

type Store interface {
	AchievementStore

	CreateUser(ctx context.Context, u *user.User) error
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error)
	UpdateTargets(ctx context.Context, userID string, t user.Targets) error
	DeleteUserByClerkID(ctx context.Context, clerkID string) error
	ListUserIDs(ctx context.Context) ([]string, error)
	UpsertDailyRecord(ctx context.Context, userID string, rec daily.Record) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

func encodeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return b, nil
}

func encodeTargets(t *user.Targets) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	return encodeJSON(t)
}

// decodeDocuments fills the JSON columns of a user row. Unreadable documents are
// logged and dropped so one bad row never blocks the user.
func decodeDocuments(u *user.User, targets, achievements []byte) {
	if len(targets) > 0 && string(targets) != "null" {
		var t user.Targets
		if err := json.Unmarshal(targets, &t); err != nil {
			logger.Warn("Ignoring unreadable targets", "user_id", u.ID, "error", err)
		} else {
			u.Targets = &t
		}
	}

	if len(achievements) > 0 && string(achievements) != "null" {
		a, err := achievement.Decode(achievements)
		if err != nil {
			logger.Warn("Ignoring unreadable achievements", "user_id", u.ID, "error", err)
			a = achievement.Empty()
		}
		u.Achievements = &a
	}
}

func decodeRecord(date string, data []byte) (daily.Record, error) {
	var rec daily.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return daily.Record{}, fmt.Errorf("failed to decode daily record %s: %w", date, err)
	}
	rec.Date = date
	return rec, nil
}

// Open picks Postgres when databaseURL is set and falls back to SQLite at sqlitePath.
// The schema is migrated either way.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	var (
		s   Store
		err error
	)
	if databaseURL != "" {
		s, err = OpenPostgres(ctx, databaseURL)
	} else {
		s, err = OpenSQLite(sqlitePath)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
