package buffer

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of lines kept before the oldest are evicted.
const DefaultCapacity = 2000

type Line struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Listener receives a snapshot shared by all listeners of one mutation; it must
// not be modified.
type Listener func(lines []Line)

// Buffer is an append-only, capacity-bounded log of terminal output lines.
// Every mutation notifies subscribers with a snapshot of the full line list.
type Buffer struct {
	mu        sync.Mutex
	lines     []Line
	size      int
	listeners map[uint64]Listener
	nextID    uint64
	now       func() time.Time
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		size:      capacity,
		listeners: make(map[uint64]Listener),
		now:       time.Now,
	}
}

func (b *Buffer) Push(content string) {
	b.PushMultiple([]string{content})
}

// PushMultiple appends all contents and notifies listeners once.
func (b *Buffer) PushMultiple(contents []string) {
	if len(contents) == 0 {
		return
	}
	b.mu.Lock()
	b.appendLocked(contents)
	snapshot, listeners := b.snapshotLocked()
	b.mu.Unlock()

	notify(listeners, snapshot)
}

func (b *Buffer) Clear() {
	b.Replace(nil)
}

// Replace swaps the whole content for contents with a single notification,
// e.g. to redraw a full-screen frame.
func (b *Buffer) Replace(contents []string) {
	b.mu.Lock()
	b.lines = nil
	b.appendLocked(contents)
	snapshot, listeners := b.snapshotLocked()
	b.mu.Unlock()

	notify(listeners, snapshot)
}

func (b *Buffer) appendLocked(contents []string) {
	ts := b.now()
	for _, content := range contents {
		b.lines = append(b.lines, Line{
			ID:        uuid.NewString(),
			Content:   content,
			Timestamp: ts,
		})
	}
	if len(b.lines) > b.size {
		trimmed := make([]Line, b.size)
		copy(trimmed, b.lines[len(b.lines)-b.size:])
		b.lines = trimmed
	}
}

func (b *Buffer) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Last returns up to n of the newest lines.
func (b *Buffer) Last(n int) []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || len(b.lines) == 0 {
		return nil
	}
	if n > len(b.lines) {
		n = len(b.lines)
	}
	out := make([]Line, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Subscribe registers fn for every mutation and returns a function that
// removes it again.
func (b *Buffer) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *Buffer) snapshotLocked() ([]Line, []Listener) {
	snapshot := make([]Line, len(b.lines))
	copy(snapshot, b.lines)
	ids := make([]uint64, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	return snapshot, listeners
}

func notify(listeners []Listener, snapshot []Line) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
