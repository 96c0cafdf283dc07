package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/storage"
	"arogyamandiramAPI/internal/user"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRecord = errors.New("invalid daily record")
)

type UserService struct {
	store storage.Store
	now   func() time.Time
}

func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store, now: time.Now}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	now := s.now()
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,

		EmailVerified: req.EmailVerified,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return s.store.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	return s.store.UpdateProfileByClerkID(ctx, clerkID, req)
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	return s.store.DeleteUserByClerkID(ctx, clerkID)
}

func (s *UserService) UpdateTargets(ctx context.Context, userID string, t user.Targets) error {
	for name, v := range map[string]float64{
		"dailyCalories":       t.DailyCalories,
		"dailyWater":          t.DailyWater,
		"dailyProtein":        t.DailyProtein,
		"dailyCarbs":          t.DailyCarbs,
		"dailyFat":            t.DailyFat,
		"idealWeight":         t.IdealWeight,
		"dailyWorkoutMinutes": t.DailyWorkoutMinutes,
		"dailyCalorieBurn":    t.DailyCalorieBurn,
		"sleepHours":          t.SleepHours,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidRecord, name)
		}
	}
	return s.store.UpdateTargets(ctx, userID, t)
}

// UpsertDailyRecord stores rec under date, replacing any earlier log for that day.
func (s *UserService) UpsertDailyRecord(ctx context.Context, userID, date string, rec daily.Record) (*daily.Record, error) {
	date = strings.TrimSpace(date)
	if _, err := daily.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	rec.Date = date
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	if err := s.store.UpsertDailyRecord(ctx, userID, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *UserService) ListDailyRecords(ctx context.Context, userID, from, to string) ([]daily.Record, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := daily.ParseDate(d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
	}
	if from != "" && to != "" && from > to {
		return nil, fmt.Errorf("%w: from %s is after to %s", ErrInvalidDate, from, to)
	}
	return s.store.LoadDailyRecords(ctx, userID, from, to)
}

func (s *UserService) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.store.ListUserIDs(ctx)
}
