package buffer

import (
	"fmt"
	"testing"
)

func TestPushKeepsLastCapacityLinesInOrder(t *testing.T) {
	b := New(DefaultCapacity)
	for i := 0; i < 2500; i++ {
		b.Push(fmt.Sprintf("line-%d", i))
	}

	lines := b.Lines()
	if len(lines) != DefaultCapacity {
		t.Fatalf("len(Lines()) = %d, want %d", len(lines), DefaultCapacity)
	}
	if lines[0].Content != "line-500" {
		t.Fatalf("first line = %q, want line-500", lines[0].Content)
	}
	for i, line := range lines {
		want := fmt.Sprintf("line-%d", i+500)
		if line.Content != want {
			t.Fatalf("lines[%d] = %q, want %q", i, line.Content, want)
		}
	}
}

func TestPushMultipleNotifiesOnce(t *testing.T) {
	b := New(10)
	calls := 0
	var last []Line
	b.Subscribe(func(lines []Line) {
		calls++
		last = lines
	})

	b.PushMultiple([]string{"a", "b", "c"})

	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
	if len(last) != 3 || last[2].Content != "c" {
		t.Fatalf("snapshot = %#v", last)
	}
}

func TestPushMultipleTrimsBeforeNotifying(t *testing.T) {
	b := New(3)
	var got []Line
	b.Subscribe(func(lines []Line) { got = lines })

	b.PushMultiple([]string{"1", "2", "3", "4", "5"})

	if len(got) != 3 {
		t.Fatalf("notified len = %d, want 3", len(got))
	}
	if got[0].Content != "3" || got[2].Content != "5" {
		t.Fatalf("notified = %v, %v", got[0].Content, got[2].Content)
	}
}

func TestLineIDsAreUnique(t *testing.T) {
	b := New(100)
	b.PushMultiple([]string{"x", "x", "x"})
	b.Push("x")

	seen := make(map[string]bool)
	for _, line := range b.Lines() {
		if line.ID == "" {
			t.Fatalf("empty line id")
		}
		if seen[line.ID] {
			t.Fatalf("duplicate line id %q", line.ID)
		}
		seen[line.ID] = true
	}
}

func TestClearNotifiesWithEmptyList(t *testing.T) {
	b := New(10)
	b.Push("hello")

	notified := false
	b.Subscribe(func(lines []Line) {
		notified = true
		if len(lines) != 0 {
			t.Fatalf("lines after clear = %d, want 0", len(lines))
		}
	})
	b.Clear()

	if !notified {
		t.Fatalf("expected clear to notify listeners")
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", b.Len())
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	b := New(10)
	calls := 0
	unsubscribe := b.Subscribe(func([]Line) { calls++ })

	b.Push("one")
	unsubscribe()
	unsubscribe()
	b.Push("two")

	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
}

func TestLast(t *testing.T) {
	b := New(10)
	b.PushMultiple([]string{"a", "b", "c"})

	got := b.Last(2)
	if len(got) != 2 || got[0].Content != "b" || got[1].Content != "c" {
		t.Fatalf("Last(2) = %#v", got)
	}
	if got := b.Last(10); len(got) != 3 {
		t.Fatalf("len(Last(10)) = %d, want 3", len(got))
	}
	if got := b.Last(0); got != nil {
		t.Fatalf("Last(0) = %#v, want nil", got)
	}
}

func TestReplaceNotifiesOnce(t *testing.T) {
	b := New(3)
	b.PushMultiple([]string{"a", "b"})

	var snapshots [][]Line
	b.Subscribe(func(lines []Line) { snapshots = append(snapshots, lines) })
	b.Replace([]string{"x", "y", "z", "w"})

	if len(snapshots) != 1 {
		t.Fatalf("notifications = %d, want 1", len(snapshots))
	}
	got := snapshots[0]
	if len(got) != 3 || got[0].Content != "y" || got[2].Content != "w" {
		t.Fatalf("Replace() snapshot = %#v", got)
	}
}
