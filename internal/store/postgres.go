package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

// PostgresStore is the server-managed history: one row per record.
type PostgresStore struct {
	pool     *pgxpool.Pool
	capacity int
}

// ConnectPostgres opens a pool, checks connectivity and creates the tables.
func ConnectPostgres(ctx context.Context, url string, capacityN int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &PostgresStore{pool: pool, capacity: capacity(capacityN)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS assessment_history (
		owner TEXT NOT NULL,
		id TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		inputs JSONB NOT NULL,
		prediction SMALLINT NOT NULL,
		probability DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (owner, id)
	);
	CREATE INDEX IF NOT EXISTS idx_assessment_history_recent ON assessment_history (owner, recorded_at DESC);

	CREATE TABLE IF NOT EXISTS user_preferences (
		owner TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (owner, key)
	);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]assessment.Record, error) {
	return listRecords(ctx, s.pool, owner, s.capacity)
}

func (s *PostgresStore) Append(ctx context.Context, owner string, rec assessment.Record) ([]assessment.Record, error) {
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}

	var out []assessment.Record
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO assessment_history (owner, id, recorded_at, inputs, prediction, probability)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			owner, rec.ID, rec.Timestamp, inputs, rec.Prediction, rec.Probability); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM assessment_history
			WHERE owner = $1 AND id NOT IN (
				SELECT id FROM assessment_history WHERE owner = $1
				ORDER BY recorded_at DESC, id DESC LIMIT $2
			)`, owner, s.capacity); err != nil {
			return fmt.Errorf("evict old records: %w", err)
		}
		out, err = listRecords(ctx, tx, owner, s.capacity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Clear(ctx context.Context, owner string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM assessment_history WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPreference(ctx context.Context, owner, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM user_preferences WHERE owner = $1 AND key = $2`, owner, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read preference %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) SetPreference(ctx context.Context, owner, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_preferences (owner, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (owner, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		owner, key, value)
	if err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listRecords(ctx context.Context, q querier, owner string, limit int) ([]assessment.Record, error) {
	rows, err := q.Query(ctx, `
		SELECT id, recorded_at, inputs, prediction, probability
		FROM assessment_history WHERE owner = $1
		ORDER BY recorded_at DESC, id DESC LIMIT $2`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []assessment.Record{}
	for rows.Next() {
		var (
			rec    assessment.Record
			inputs []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &inputs, &rec.Prediction, &rec.Probability); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var in vitals.Inputs
		if err := json.Unmarshal(inputs, &in); err != nil {
			return nil, fmt.Errorf("decode inputs: %w", err)
		}
		rec.Inputs = in
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
