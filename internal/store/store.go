// Package store persists per-visitor terminal state in sqlite: the boot and
// engineer flags and the command log that seeds history on reconnect.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Store struct {
	conn *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %q: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Store{conn: conn}, nil
}

func (s *Store) SQL() *sql.DB {
	return s.conn
}

func (s *Store) Visitors() *VisitorRepo {
	return NewVisitorRepo(s.conn)
}

func (s *Store) Flags() *FlagRepo {
	return NewFlagRepo(s.conn)
}

func (s *Store) Commands() *CommandLogRepo {
	return NewCommandLogRepo(s.conn)
}

// ForVisitor binds the repositories to one visitor id.
func (s *Store) ForVisitor(visitorID string) *VisitorState {
	return &VisitorState{
		visitorID: visitorID,
		flags:     s.Flags(),
		commands:  s.Commands(),
	}
}

func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
