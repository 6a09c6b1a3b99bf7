package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type VisitorRepo struct {
	db *sql.DB
}

func NewVisitorRepo(db *sql.DB) *VisitorRepo {
	return &VisitorRepo{db: db}
}

// Touch records a visit. An unknown or empty id creates a new visitor;
// the returned Visitor carries the id to hand back to the browser.
func (r *VisitorRepo) Touch(ctx context.Context, id string) (*Visitor, error) {
	id = strings.TrimSpace(id)
	now := formatTimestamp(nowUTC())

	if id != "" {
		res, err := r.db.ExecContext(ctx, `
UPDATE visitors SET last_seen_at = ?, visits = visits + 1 WHERE id = ?
`, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update visitor %q: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return r.Get(ctx, id)
		}
	} else {
		id = NewID()
	}

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO visitors (id, created_at, last_seen_at, visits) VALUES (?, ?, ?, 1)
`, id, now, now); err != nil {
		return nil, fmt.Errorf("failed to create visitor: %w", err)
	}
	return r.Get(ctx, id)
}

// Get returns nil when the visitor does not exist.
func (r *VisitorRepo) Get(ctx context.Context, id string) (*Visitor, error) {
	var v Visitor
	var createdRaw, seenRaw string
	err := r.db.QueryRowContext(ctx, `
SELECT id, created_at, last_seen_at, visits FROM visitors WHERE id = ?
`, id).Scan(&v.ID, &createdRaw, &seenRaw, &v.Visits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get visitor %q: %w", id, err)
	}
	if v.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
		return nil, err
	}
	if v.LastSeenAt, err = parseTimestamp(seenRaw); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VisitorRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(1) FROM visitors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count visitors: %w", err)
	}
	return n, nil
}

func (r *VisitorRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM visitors WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete visitor %q: %w", id, err)
	}
	return nil
}
