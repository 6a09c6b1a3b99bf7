package snake

import (
	"context"
	"sync"
	"time"
)

// TickInterval is how often the snake moves.
const TickInterval = 200 * time.Millisecond

// Screen receives a full frame after every tick.
type Screen interface {
	Replace(lines []string)
}

// Runner drives a Game on a ticker until the game ends, Stop is called or the
// context is cancelled.
type Runner struct {
	screen   Screen
	interval time.Duration

	mu   sync.Mutex
	game *Game

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewRunner(game *Game, screen Screen, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = TickInterval
	}
	return &Runner{
		game:     game,
		screen:   screen,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Frame renders the current state.
func (r *Runner) Frame() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Render()
}

// Steer forwards a key to the game.
func (r *Runner) Steer(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game.Steer(key)
}

func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			over := r.game.Step()
			frame := r.game.Render()
			r.mu.Unlock()

			r.screen.Replace(frame)
			if over {
				return
			}
		}
	}
}

// Stop ends the loop. It is safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
