package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/user"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	clerk_id       TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL DEFAULT '',
	username       TEXT NOT NULL DEFAULT '',
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	image_url      TEXT NOT NULL DEFAULT '',
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	targets        JSONB,
	achievements   JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_records (
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, date)
);
`

const userColumns = `id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at, targets, achievements`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres creates a tuned connection pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresStore(pool), nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *user.User) error {
	targets, err := encodeTargets(u.Targets)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, email_verified, targets, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.Exec(ctx, query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.EmailVerified,
		targets,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *PostgresStore) scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var targets, achievements []byte
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&targets,
		&achievements,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	decodeDocuments(u, targets, achievements)
	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRow(ctx, query, id))
}

func (s *PostgresStore) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`
	return s.scanUser(s.db.QueryRow(ctx, query, clerkID))
}

func (s *PostgresStore) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users SET
		username   = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name  = COALESCE(NULLIF($4, ''), last_name),
		image_url  = COALESCE(NULLIF($5, ''), image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	return s.scanUser(s.db.QueryRow(ctx, query, clerkID, req.Username, req.FirstName, req.LastName, req.ImageURL))
}

func (s *PostgresStore) UpdateTargets(ctx context.Context, userID string, t user.Targets) error {
	doc, err := encodeTargets(&t)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `UPDATE users SET targets = $2, updated_at = NOW() WHERE id = $1`, userID, doc)
	if err != nil {
		return fmt.Errorf("failed to update targets: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) UpsertDailyRecord(ctx context.Context, userID string, rec daily.Record) error {
	doc, err := encodeJSON(rec)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO daily_records (user_id, date, data, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, date)
	DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, userID, rec.Date, doc); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadDailyRecords(ctx context.Context, userID, from, to string) ([]daily.Record, error) {
	query := `
	SELECT date, data
	FROM daily_records
	WHERE user_id = $1
	  AND ($2 = '' OR date >= $2)
	  AND ($3 = '' OR date <= $3)
	ORDER BY date ASC
	`

	rows, err := s.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily records: %w", err)
	}
	defer rows.Close()

	records := []daily.Record{}
	for rows.Next() {
		var date string
		var data []byte
		if err := rows.Scan(&date, &data); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		rec, err := decodeRecord(date, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) SaveAchievements(ctx context.Context, userID string, a achievement.Achievements) error {
	doc, err := encodeJSON(a)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `UPDATE users SET achievements = $2, updated_at = NOW() WHERE id = $1`, userID, doc)
	if err != nil {
		return fmt.Errorf("failed to save achievements: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
