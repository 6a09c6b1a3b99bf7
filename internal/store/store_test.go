package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/enesbrtc/enes.codes/internal/terminal"
)

var (
	_ terminal.Flags      = (*VisitorState)(nil)
	_ terminal.CommandLog = (*VisitorState)(nil)
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enesterm-test.db")
	st, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})
	return st, path
}

func assertTableExists(t *testing.T, conn *sql.DB, table string) {
	t.Helper()
	var count int
	err := conn.QueryRow(`SELECT count(1) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master error: %v", err)
	}
	if count != 1 {
		t.Fatalf("table %q not found", table)
	}
}

func schemaVersion(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var raw string
	if err := conn.QueryRow(`SELECT value FROM _meta WHERE key = 'schema_version'`).Scan(&raw); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		t.Fatalf("parse schema version %q: %v", raw, err)
	}
	return v
}

func TestOpenCreatesDBFileAndRunsMigrations(t *testing.T) {
	st, path := openTestStore(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected DB file at %q: %v", path, err)
	}
	for _, table := range []string{"_meta", "visitors", "visitor_flags", "command_log"} {
		assertTableExists(t, st.SQL(), table)
	}
	if got := schemaVersion(t, st.SQL()); got != SchemaVersion() {
		t.Fatalf("schema_version = %d, want %d", got, SchemaVersion())
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	st, path := openTestStore(t)
	if _, err := st.Visitors().Touch(context.Background(), "v1"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	again, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer again.Close()
	v, err := again.Visitors().Get(context.Background(), "v1")
	if err != nil || v == nil {
		t.Fatalf("Get() after reopen = %v, %v", v, err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("Open(\"\") error = nil")
	}
}

func TestVisitorTouch(t *testing.T) {
	st, _ := openTestStore(t)
	repo := st.Visitors()
	ctx := context.Background()

	fresh, err := repo.Touch(ctx, "")
	if err != nil {
		t.Fatalf("Touch(\"\") error = %v", err)
	}
	if fresh.ID == "" || fresh.Visits != 1 {
		t.Fatalf("Touch(\"\") = %+v", fresh)
	}

	again, err := repo.Touch(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("Touch(id) error = %v", err)
	}
	if again.ID != fresh.ID || again.Visits != 2 {
		t.Fatalf("Touch(id) = %+v, want visits 2", again)
	}

	unknown, err := repo.Touch(ctx, "cookie-from-elsewhere")
	if err != nil {
		t.Fatalf("Touch(unknown) error = %v", err)
	}
	if unknown.ID != "cookie-from-elsewhere" || unknown.Visits != 1 {
		t.Fatalf("Touch(unknown) = %+v", unknown)
	}

	if n, err := repo.Count(ctx); err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v, want 2", n, err)
	}
	if v, err := repo.Get(ctx, "missing"); err != nil || v != nil {
		t.Fatalf("Get(missing) = %v, %v", v, err)
	}
}

func TestFlagsPersistPerVisitor(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if _, err := st.Visitors().Touch(ctx, id); err != nil {
			t.Fatalf("Touch(%q) error = %v", id, err)
		}
	}

	a := st.ForVisitor("a")
	if seen, err := a.BootSeen(ctx); err != nil || seen {
		t.Fatalf("BootSeen() = %v, %v, want false", seen, err)
	}
	if err := a.MarkBootSeen(ctx); err != nil {
		t.Fatalf("MarkBootSeen() error = %v", err)
	}
	if err := a.MarkBootSeen(ctx); err != nil {
		t.Fatalf("second MarkBootSeen() error = %v", err)
	}
	if err := a.EnableEngineer(ctx); err != nil {
		t.Fatalf("EnableEngineer() error = %v", err)
	}

	if seen, _ := a.BootSeen(ctx); !seen {
		t.Fatalf("BootSeen() = false after mark")
	}
	if eng, _ := a.Engineer(ctx); !eng {
		t.Fatalf("Engineer() = false after enable")
	}
	if visited, _ := a.Visited(ctx); visited {
		t.Fatalf("Visited() = true without mark")
	}

	b := st.ForVisitor("b")
	if seen, _ := b.BootSeen(ctx); seen {
		t.Fatalf("flag leaked to another visitor")
	}

	if err := st.Visitors().Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if seen, _ := a.BootSeen(ctx); seen {
		t.Fatalf("flags survived visitor delete")
	}
}

func TestCommandLogRecentAndTrim(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := st.Visitors().Touch(ctx, "v"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	state := st.ForVisitor("v")

	for i := 0; i < MaxCommandsPerVisitor+5; i++ {
		if err := state.AppendCommand(ctx, fmt.Sprintf("cmd-%d", i)); err != nil {
			t.Fatalf("AppendCommand(%d) error = %v", i, err)
		}
	}

	got, err := state.RecentCommands(ctx, 3)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}
	want := []string{
		fmt.Sprintf("cmd-%d", MaxCommandsPerVisitor+2),
		fmt.Sprintf("cmd-%d", MaxCommandsPerVisitor+3),
		fmt.Sprintf("cmd-%d", MaxCommandsPerVisitor+4),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RecentCommands(3) = %v, want %v", got, want)
	}

	var count int
	if err := st.SQL().QueryRow(`SELECT count(1) FROM command_log WHERE visitor_id = 'v'`).Scan(&count); err != nil {
		t.Fatalf("count command_log: %v", err)
	}
	if count != MaxCommandsPerVisitor {
		t.Fatalf("command_log rows = %d, want %d", count, MaxCommandsPerVisitor)
	}
}

func TestCommandLogRejectsBlankAndUnknownVisitor(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	if err := st.Commands().Append(ctx, "ghost", "ls"); err == nil {
		t.Fatalf("Append() for unknown visitor error = nil")
	}
	if _, err := st.Visitors().Touch(ctx, "v"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if err := st.Commands().Append(ctx, "v", "   "); err == nil {
		t.Fatalf("Append(blank) error = nil")
	}
}

func TestVisitorStateRestoresTerminalHistory(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	visitor, err := st.Visitors().Touch(ctx, "")
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	state := st.ForVisitor(visitor.ID)

	first, err := terminal.New(terminal.Options{Flags: state, Log: state})
	if err != nil {
		t.Fatalf("terminal.New() error = %v", err)
	}
	if err := first.Boot(ctx); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	first.Submit(ctx, "deploy")
	first.Submit(ctx, "pwd")
	first.Close()

	second, err := terminal.New(terminal.Options{Flags: state, Log: state})
	if err != nil {
		t.Fatalf("terminal.New() error = %v", err)
	}
	defer second.Close()
	if err := second.Boot(ctx); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if got := second.History.Entries(); !reflect.DeepEqual(got, []string{"deploy", "pwd"}) {
		t.Fatalf("restored history = %v", got)
	}
	if second.Prompt() != "enes@engineer:~$ " {
		t.Fatalf("Prompt() = %q, want engineer prompt", second.Prompt())
	}
	if second.Buffer.Len() != 2 {
		t.Fatalf("returning visitor boot printed %d lines, want banner only", second.Buffer.Len())
	}
}
