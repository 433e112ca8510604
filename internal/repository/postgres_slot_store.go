package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const createSlotsTable = `CREATE TABLE IF NOT EXISTS attendance_slots (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresSlotStore keeps each slot as a row of attendance_slots.
type PostgresSlotStore struct {
	db *sqlx.DB
}

// NewPostgresSlotStore constructs a PostgresSlotStore.
func NewPostgresSlotStore(db *sqlx.DB) *PostgresSlotStore {
	return &PostgresSlotStore{db: db}
}

// EnsureSchema creates the slots table when it does not exist yet.
func (s *PostgresSlotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSlotsTable); err != nil {
		return fmt.Errorf("create attendance_slots: %w", err)
	}
	return nil
}

func (s *PostgresSlotStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	if err := s.db.GetContext(ctx, &value, `SELECT value FROM attendance_slots WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *PostgresSlotStore) Write(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO attendance_slots (key, value, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}
