// Package sqlite implements C5, the user profile store, on top of a
// single-file SQLite database. SQLite only supports one writer at a time;
// this package relies on that serialization instead of an additional
// in-process lock, matching the teacher pack's apricot/internal/storage
// connection setup (WAL journal mode, a capped single connection).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/repository"
)

// OpenDatabase opens (or creates) a SQLite database at path, configured for
// WAL journal mode and a single connection — SQLite tolerates only one
// writer, and the profile store's correctness (UpsertClick's
// read-then-write) depends on writes being strictly serialized.
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %q: %w", dir, err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database %q: %w", path, err)
	}
	return db, nil
}

// MigrateUp creates the user_interests table if it does not already exist.
func MigrateUp(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS user_interests (
    user_id    TEXT PRIMARY KEY,
    interest   TEXT NOT NULL,
    count      INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("creating user_interests table: %w", err)
	}
	return nil
}

// ProfileStore implements repository.UserProfileStore over SQLite.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore builds a ProfileStore over db.
func NewProfileStore(db *sql.DB) repository.UserProfileStore {
	return &ProfileStore{db: db}
}

// Get returns userID's interest record, or entity.ErrNotFound if the user
// has never clicked.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*entity.UserInterest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, interest, count, updated_at FROM user_interests WHERE user_id = ?`,
		userID)

	interest, err := scanInterest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return interest, nil
}

// UpsertClick folds vec into userID's running-mean interest vector:
// new := (old*cnt + vec) / (cnt+1), or vec/1 for a first-time user. The
// read-modify-write happens inside a transaction; SQLite's single-writer
// connection (see OpenDatabase) is what actually prevents a lost update
// across concurrent calls for the same user.
func (s *ProfileStore) UpsertClick(ctx context.Context, userID string, vec []float32) (*entity.UserInterest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpsertClick: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT user_id, interest, count, updated_at FROM user_interests WHERE user_id = ?`,
		userID)

	existing, err := scanInterest(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("UpsertClick: reading existing: %w", err)
	}

	var merged []float32
	var count int64
	if existing == nil {
		merged = append([]float32(nil), vec...)
		count = 1
	} else {
		merged = runningMean(existing.Interest, existing.Count, vec)
		count = existing.Count + 1
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("UpsertClick: marshaling interest: %w", err)
	}
	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
INSERT INTO user_interests (user_id, interest, count, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    interest = excluded.interest,
    count = excluded.count,
    updated_at = excluded.updated_at`,
		userID, string(payload), count, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("UpsertClick: writing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("UpsertClick: commit: %w", err)
	}

	return &entity.UserInterest{
		UserID:    userID,
		Interest:  merged,
		Count:     count,
		UpdatedAt: now,
	}, nil
}

// runningMean computes (old*cnt + vec) / (cnt+1) element-wise.
func runningMean(old []float32, cnt int64, vec []float32) []float32 {
	out := make([]float32, len(vec))
	n := float64(cnt) + 1
	for i := range vec {
		var o float64
		if i < len(old) {
			o = float64(old[i])
		}
		out[i] = float32((o*float64(cnt) + float64(vec[i])) / n)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInterest(row rowScanner) (*entity.UserInterest, error) {
	var userID, updatedAtRaw string
	var interestRaw string
	var count int64

	if err := row.Scan(&userID, &interestRaw, &count, &updatedAtRaw); err != nil {
		return nil, err
	}

	var interest []float32
	if err := json.Unmarshal([]byte(interestRaw), &interest); err != nil {
		return nil, fmt.Errorf("unmarshaling interest vector: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtRaw)
	if err != nil {
		updatedAt = time.Time{}
	}

	return &entity.UserInterest{
		UserID:    userID,
		Interest:  interest,
		Count:     count,
		UpdatedAt: updatedAt,
	}, nil
}
