package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type CommandLogRepo struct {
	db *sql.DB
}

func NewCommandLogRepo(db *sql.DB) *CommandLogRepo {
	return &CommandLogRepo{db: db}
}

// Append stores a command and drops the visitor's entries beyond
// MaxCommandsPerVisitor.
func (r *CommandLogRepo) Append(ctx context.Context, visitorID, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command is required")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start command log transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO command_log (visitor_id, command, created_at) VALUES (?, ?, ?)
`, visitorID, command, formatTimestamp(nowUTC())); err != nil {
		return fmt.Errorf("failed to append command: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM command_log
WHERE visitor_id = ? AND id NOT IN (
	SELECT id FROM command_log WHERE visitor_id = ? ORDER BY id DESC LIMIT ?
)
`, visitorID, visitorID, MaxCommandsPerVisitor); err != nil {
		return fmt.Errorf("failed to trim command log: %w", err)
	}
	return tx.Commit()
}

// Recent returns up to limit of the visitor's latest entries, oldest first.
func (r *CommandLogRepo) Recent(ctx context.Context, visitorID string, limit int) ([]CommandEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxCommandsPerVisitor {
		limit = MaxCommandsPerVisitor
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, visitor_id, command, created_at FROM (
	SELECT id, visitor_id, command, created_at FROM command_log
	WHERE visitor_id = ?
	ORDER BY id DESC
	LIMIT ?
) ORDER BY id ASC
`, visitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	var out []CommandEntry
	for rows.Next() {
		var e CommandEntry
		var createdRaw string
		if err := rows.Scan(&e.ID, &e.VisitorID, &e.Command, &createdRaw); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		if e.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commands: %w", err)
	}
	return out, nil
}
