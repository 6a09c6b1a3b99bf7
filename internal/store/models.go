package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Flag names stored in visitor_flags.
const (
	FlagBootSeen = "boot_seen"
	FlagVisited  = "visited"
	FlagEngineer = "engineer_unlocked"
)

// MaxCommandsPerVisitor bounds the command log kept for one visitor.
const MaxCommandsPerVisitor = 500

type Visitor struct {
	ID         string
	CreatedAt  time.Time
	LastSeenAt time.Time
	Visits     int
}

type CommandEntry struct {
	ID        int64
	VisitorID string
	Command   string
	CreatedAt time.Time
}

func NewID() string {
	return uuid.NewString()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
