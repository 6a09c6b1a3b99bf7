package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type FlagRepo struct {
	db *sql.DB
}

func NewFlagRepo(db *sql.DB) *FlagRepo {
	return &FlagRepo{db: db}
}

// Get reports a flag's value. Unset flags are false.
func (r *FlagRepo) Get(ctx context.Context, visitorID, name string) (bool, error) {
	var value int
	err := r.db.QueryRowContext(ctx, `
SELECT value FROM visitor_flags WHERE visitor_id = ? AND name = ?
`, visitorID, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get flag %q: %w", name, err)
	}
	return value != 0, nil
}

func (r *FlagRepo) Set(ctx context.Context, visitorID, name string, value bool) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO visitor_flags (visitor_id, name, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(visitor_id, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`, visitorID, name, boolToInt(value), formatTimestamp(nowUTC()))
	if err != nil {
		return fmt.Errorf("failed to set flag %q: %w", name, err)
	}
	return nil
}
