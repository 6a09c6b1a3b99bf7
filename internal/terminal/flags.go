package terminal

import (
	"context"
	"sync"
)

// Flags are the per-visitor booleans that survive a closed terminal.
type Flags interface {
	BootSeen(ctx context.Context) (bool, error)
	MarkBootSeen(ctx context.Context) error
	Visited(ctx context.Context) (bool, error)
	MarkVisited(ctx context.Context) error
	Engineer(ctx context.Context) (bool, error)
	EnableEngineer(ctx context.Context) error
}

// CommandLog persists submitted commands so history survives reconnects.
type CommandLog interface {
	AppendCommand(ctx context.Context, command string) error
	RecentCommands(ctx context.Context, limit int) ([]string, error)
}

// MemoryFlags keeps flags for the lifetime of the process.
type MemoryFlags struct {
	mu       sync.Mutex
	bootSeen bool
	visited  bool
	engineer bool
}

var _ Flags = (*MemoryFlags)(nil)

func (f *MemoryFlags) BootSeen(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bootSeen, nil
}

func (f *MemoryFlags) MarkBootSeen(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bootSeen = true
	return nil
}

func (f *MemoryFlags) Visited(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited, nil
}

func (f *MemoryFlags) MarkVisited(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited = true
	return nil
}

func (f *MemoryFlags) Engineer(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engineer, nil
}

func (f *MemoryFlags) EnableEngineer(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engineer = true
	return nil
}
