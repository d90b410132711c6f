package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Skufu/glucocheck/internal/assessment"
)

// SQLiteStore mirrors the browser's local storage: one JSON value per
// (owner, key), with the capped history under HistoryKey.
type SQLiteStore struct {
	db       *sqlx.DB
	capacity int
	writeMu  sync.Mutex // serialises read-modify-write of the history value
}

type storageRow struct {
	Owner     string `db:"owner"`
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt int64  `db:"updated_at"`
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path string, capacityN int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, capacity: capacity(capacityN)}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS local_storage (
		owner TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (owner, key)
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context, owner string) ([]assessment.Record, error) {
	return s.readHistory(ctx, s.db, owner)
}

func (s *SQLiteStore) Append(ctx context.Context, owner string, rec assessment.Record) ([]assessment.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	history, err := s.readHistory(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	next := assessment.AppendToHistory(history, rec, s.capacity)

	value, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	if err := s.put(ctx, tx, owner, HistoryKey, string(value)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE owner = ? AND key = ?`, owner, HistoryKey)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPreference(ctx context.Context, owner, key string) (string, error) {
	row, err := s.get(ctx, s.db, owner, key)
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (s *SQLiteStore) SetPreference(ctx context.Context, owner, key, value string) error {
	return s.put(ctx, s.db, owner, key, value)
}

func (s *SQLiteStore) readHistory(ctx context.Context, q sqlx.QueryerContext, owner string) ([]assessment.Record, error) {
	row, err := s.get(ctx, q, owner, HistoryKey)
	if errors.Is(err, ErrNotFound) {
		return []assessment.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var history []assessment.Record
	if err := json.Unmarshal([]byte(row.Value), &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

func (s *SQLiteStore) get(ctx context.Context, q sqlx.QueryerContext, owner, key string) (storageRow, error) {
	var row storageRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT owner, key, value, updated_at FROM local_storage WHERE owner = ? AND key = ?`, owner, key)
	if errors.Is(err, sql.ErrNoRows) {
		return storageRow{}, ErrNotFound
	}
	if err != nil {
		return storageRow{}, fmt.Errorf("read %s: %w", key, err)
	}
	return row, nil
}

func (s *SQLiteStore) put(ctx context.Context, e sqlx.ExecerContext, owner, key, value string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO local_storage (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		owner, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
