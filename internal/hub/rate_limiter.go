package hub

import (
	"sync"
	"time"

	"github.com/enesbrtc/enes.codes/internal/buffer"
)

// RateLimiter coalesces buffer snapshots per terminal so a burst of pushes
// reaches the client as one frame carrying the latest lines.
type RateLimiter struct {
	mu       sync.Mutex
	pending  map[string]*pendingScreen
	interval time.Duration
	onFlush  func(key string, lines []buffer.Line)
}

type pendingScreen struct {
	lines   []buffer.Line
	changes int
	timer   *time.Timer
}

func NewRateLimiter(interval time.Duration, onFlush func(string, []buffer.Line)) *RateLimiter {
	return &RateLimiter{
		pending:  make(map[string]*pendingScreen),
		interval: interval,
		onFlush:  onFlush,
	}
}

func (r *RateLimiter) Add(key string, lines []buffer.Line) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.pending[key]
	if !exists {
		p = &pendingScreen{}
		r.pending[key] = p
	}
	p.lines = lines
	p.changes++

	if p.timer == nil {
		p.timer = time.AfterFunc(r.interval, func() {
			r.flushKey(key)
		})
	}
}

func (r *RateLimiter) flushKey(key string) {
	r.mu.Lock()
	p, exists := r.pending[key]
	if !exists {
		r.mu.Unlock()
		return
	}
	delete(r.pending, key)
	r.mu.Unlock()

	if r.onFlush != nil && p.changes > 0 {
		r.onFlush(key, p.lines)
	}
}

// Flush sends key's pending snapshot now.
func (r *RateLimiter) Flush(key string) {
	r.mu.Lock()
	p, exists := r.pending[key]
	if exists && p.timer != nil {
		p.timer.Stop()
	}
	r.mu.Unlock()
	r.flushKey(key)
}

func (r *RateLimiter) FlushAll() {
	r.mu.Lock()
	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	for _, k := range keys {
		r.Flush(k)
	}
}

// Drop discards key's pending snapshot without sending it.
func (r *RateLimiter) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, exists := r.pending[key]; exists {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(r.pending, key)
	}
}

func (r *RateLimiter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
