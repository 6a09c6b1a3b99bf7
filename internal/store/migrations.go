package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create visitor tables",
		sql: `
CREATE TABLE IF NOT EXISTS visitors (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	last_seen_at TEXT NOT NULL,
	visits INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS visitor_flags (
	visitor_id TEXT NOT NULL,
	name TEXT NOT NULL,
	value INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (visitor_id, name),
	FOREIGN KEY(visitor_id) REFERENCES visitors(id) ON DELETE CASCADE
);
`,
	},
	{
		version: 2,
		name:    "create command log",
		sql: `
CREATE TABLE IF NOT EXISTS command_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	visitor_id TEXT NOT NULL,
	command TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(visitor_id) REFERENCES visitors(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_command_log_visitor ON command_log(visitor_id, id);
`,
	},
}

// RunMigrations applies every migration newer than the stored schema
// version in one transaction.
func RunMigrations(ctx context.Context, conn *sql.DB) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := storedVersion(ctx, tx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE _meta SET value = ? WHERE key = 'schema_version'`, strconv.Itoa(m.version)); err != nil {
			return fmt.Errorf("record schema version %d: %w", m.version, err)
		}
		slog.Info("store migration applied", "version", m.version, "name", m.name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// storedVersion reads schema_version from _meta, creating it at 0.
func storedVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	const ensure = `
CREATE TABLE IF NOT EXISTS _meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
INSERT OR IGNORE INTO _meta (key, value) VALUES ('schema_version', '0');
`
	if _, err := tx.ExecContext(ctx, ensure); err != nil {
		return 0, fmt.Errorf("prepare _meta: %w", err)
	}

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT value FROM _meta WHERE key = 'schema_version'`).Scan(&raw); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return v, nil
}

// SchemaVersion returns the latest migration version this build knows.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}
