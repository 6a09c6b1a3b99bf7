package history

import (
	"strings"
	"sync"
)

// Manager keeps submitted commands and a recall cursor with shell up/down
// arrow semantics. The cursor rests one past the newest entry after every
// submission or reset.
type Manager struct {
	mu      sync.Mutex
	entries []string
	index   int
	limit   int
}

// New returns a manager that keeps at most limit entries; limit <= 0 means
// unbounded.
func New(limit int) *Manager {
	return &Manager{limit: limit}
}

// Push appends cmd unless it is blank or equal to the newest entry.
func (m *Manager) Push(cmd string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(cmd) == "" {
		return
	}
	if n := len(m.entries); n > 0 && m.entries[n-1] == cmd {
		m.index = n
		return
	}
	m.entries = append(m.entries, cmd)
	if m.limit > 0 && len(m.entries) > m.limit {
		m.entries = append([]string(nil), m.entries[len(m.entries)-m.limit:]...)
	}
	m.index = len(m.entries)
}

// Previous moves the cursor toward the oldest entry, clamping there. ok is
// false when the history is empty.
func (m *Manager) Previous() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return "", false
	}
	if m.index > 0 {
		m.index--
	}
	if m.index >= len(m.entries) {
		m.index = len(m.entries) - 1
	}
	return m.entries[m.index], true
}

// Next moves the cursor toward the newest entry. Past the newest entry it
// yields an empty line. ok is false when the history is empty.
func (m *Manager) Next() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return "", false
	}
	if m.index < len(m.entries) {
		m.index++
	}
	if m.index == len(m.entries) {
		return "", true
	}
	return m.entries[m.index], true
}

func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = len(m.entries)
}

func (m *Manager) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...)
}

// Load replaces the entries, e.g. with a restored command log, and resets the
// cursor. Blank and consecutive duplicate entries are dropped.
func (m *Manager) Load(entries []string) {
	m.mu.Lock()
	m.entries = nil
	m.index = 0
	m.mu.Unlock()
	for _, entry := range entries {
		m.Push(entry)
	}
	m.Reset()
}
