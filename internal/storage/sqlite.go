package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"arogyamandiramAPI/internal/achievement"
	"arogyamandiramAPI/internal/daily"
	"arogyamandiramAPI/internal/user"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	clerk_id       TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL DEFAULT '',
	username       TEXT NOT NULL DEFAULT '',
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	image_url      TEXT NOT NULL DEFAULT '',
	email_verified INTEGER NOT NULL DEFAULT 0,
	targets        TEXT,
	achievements   TEXT,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_records (
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, date)
);
`

// SQLiteStore is the single-file backend used for local runs and tests.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating when needed) the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *user.User) error {
	targets, err := encodeTargets(u.Targets)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, email_verified, targets, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.EmailVerified,
		nullable(targets),
		u.CreatedAt.UTC().Format(time.RFC3339Nano),
		u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*user.User, error) {
	u := &user.User{}
	var createdAt, updatedAt string
	var targets, achievements sql.NullString
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&createdAt,
		&updatedAt,
		&targets,
		&achievements,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	var t, a []byte
	if targets.Valid {
		t = []byte(targets.String)
	}
	if achievements.Valid {
		a = []byte(achievements.String)
	}
	decodeDocuments(u, t, a)
	return u, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStore) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, clerkID))
}

func (s *SQLiteStore) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users SET
		username   = COALESCE(NULLIF(?, ''), username),
		first_name = COALESCE(NULLIF(?, ''), first_name),
		last_name  = COALESCE(NULLIF(?, ''), last_name),
		image_url  = COALESCE(NULLIF(?, ''), image_url),
		updated_at = ?
	WHERE clerk_id = ?
	`

	res, err := s.db.ExecContext(ctx, query, req.Username, req.FirstName, req.LastName, req.ImageURL, s.stamp(), clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}
	return s.GetUserByClerkID(ctx, clerkID)
}

func (s *SQLiteStore) UpdateTargets(ctx context.Context, userID string, t user.Targets) error {
	doc, err := encodeTargets(&t)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET targets = ?, updated_at = ? WHERE id = ?`, string(doc), s.stamp(), userID)
	if err != nil {
		return fmt.Errorf("failed to update targets: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE clerk_id = ?`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
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

func (s *SQLiteStore) UpsertDailyRecord(ctx context.Context, userID string, rec daily.Record) error {
	doc, err := encodeJSON(rec)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO daily_records (user_id, date, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (user_id, date)
	DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, userID, rec.Date, string(doc), s.stamp()); err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadDailyRecords(ctx context.Context, userID, from, to string) ([]daily.Record, error) {
	query := `
	SELECT date, data
	FROM daily_records
	WHERE user_id = ?
	  AND (? = '' OR date >= ?)
	  AND (? = '' OR date <= ?)
	ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, from, from, to, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily records: %w", err)
	}
	defer rows.Close()

	records := []daily.Record{}
	for rows.Next() {
		var date, data string
		if err := rows.Scan(&date, &data); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		rec, err := decodeRecord(date, []byte(data))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SaveAchievements(ctx context.Context, userID string, a achievement.Achievements) error {
	doc, err := encodeJSON(a)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET achievements = ?, updated_at = ? WHERE id = ?`, string(doc), s.stamp(), userID)
	if err != nil {
		return fmt.Errorf("failed to save achievements: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRawAchievements stores a document as-is, bypassing encoding. Used to load
// legacy rows.
func (s *SQLiteStore) SetRawAchievements(ctx context.Context, userID, raw string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET achievements = ? WHERE id = ?`, raw, userID)
	return err
}
