// Package hub serves terminals over websockets: one terminal per connection,
// JSON messages tagged by type, and screen snapshots batched per terminal.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"github.com/enesbrtc/enes.codes/internal/buffer"
	"github.com/enesbrtc/enes.codes/internal/terminal"
)

const defaultBatchInterval = 30 * time.Millisecond

// OpenFunc creates the terminal for a new connection. visitorID is the id the
// browser presented, possibly empty; the returned id is the one to keep.
type OpenFunc func(ctx context.Context, visitorID string) (term *terminal.Terminal, resolvedID string, err error)

// Recorder receives hub events for metrics.
type Recorder interface {
	TerminalOpened()
	TerminalClosed()
	RecordHubMessage(msgType string)
	RecordOutputFlush()
}

type nopRecorder struct{}

func (nopRecorder) TerminalOpened()         {}
func (nopRecorder) TerminalClosed()         {}
func (nopRecorder) RecordHubMessage(string) {}
func (nopRecorder) RecordOutputFlush()      {}

type Option func(*Hub)

// WithToken requires ?token= on every connection.
func WithToken(token string) Option {
	return func(h *Hub) { h.token = token }
}

func WithRecorder(r Recorder) Option {
	return func(h *Hub) {
		if r != nil {
			h.recorder = r
		}
	}
}

func WithBatchInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.batchInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

type Hub struct {
	clients       map[string]*Client
	register      chan *Client
	unregister    chan *Client
	broadcast     chan []byte
	open          OpenFunc
	token         string
	mu            sync.RWMutex
	rateLimiter   *RateLimiter
	batchInterval time.Duration
	recorder      Recorder
	logger        *slog.Logger
	running       atomic.Bool
}

func New(open OpenFunc, opts ...Option) *Hub {
	h := &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client, 16),
		unregister:    make(chan *Client, 16),
		broadcast:     make(chan []byte, 256),
		open:          open,
		batchInterval: defaultBatchInterval,
		recorder:      nopRecorder{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.rateLimiter = NewRateLimiter(h.batchInterval, h.sendScreen)
	return h
}

func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.rateLimiter.FlushAll()
			h.mu.Lock()
			clients := h.clients
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			for _, c := range clients {
				c.release()
				h.recorder.TerminalClosed()
			}
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
			h.recorder.TerminalOpened()
			go c.writePump(ctx)
			go c.readPump(ctx)
			h.logger.Info("client connected", "client_id", c.id, "visitor_id", c.visitorID, "total", h.ClientCount())

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c.id]
			delete(h.clients, c.id)
			h.mu.Unlock()
			if ok {
				c.release()
				h.rateLimiter.Drop(c.id)
				h.recorder.TerminalClosed()
			}
			h.logger.Info("client disconnected", "client_id", c.id, "total", h.ClientCount())

		case data := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				if !c.enqueue(data) {
					h.logger.Warn("client send buffer full, dropping message", "client_id", c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && r.URL.Query().Get("token") != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	term, visitorID, err := h.open(r.Context(), r.URL.Query().Get("visitor"))
	if err != nil {
		h.logger.Error("open terminal", "error", err)
		http.Error(w, "failed to open terminal", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept error", "error", err)
		term.Close()
		return
	}

	client := newClient(conn, h, term, visitorID)
	select {
	case h.register <- client:
	default:
		h.logger.Warn("hub not accepting connections")
		client.release()
		conn.Close(websocket.StatusTryAgainLater, "server busy")
	}
}

// Broadcast shows lines on every connected terminal's client without
// touching the terminals themselves.
func (h *Hub) Broadcast(lines []string) {
	data, err := json.Marshal(NoticeMessage{Type: TypeNotice, Lines: lines})
	if err != nil {
		h.logger.Error("marshal notice message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping notice")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

// sendScreen is the rate limiter's flush callback.
func (h *Hub) sendScreen(id string, lines []buffer.Line) {
	c := h.client(id)
	if c == nil {
		return
	}
	msg := c.screen(lines)
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal screen message", "error", err)
		return
	}
	if c.enqueue(data) {
		h.recorder.RecordOutputFlush()
	}
}

func (h *Hub) send(c *Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}
	c.enqueue(data)
}

func (h *Hub) SendError(c *Client, message string) {
	h.send(c, ErrorMessage{Type: TypeError, Message: message})
}

func (h *Hub) unregisterClient(c *Client) {
	if !h.running.Load() {
		c.release()
		c.conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	select {
	case h.unregister <- c:
	default:
		h.logger.Warn("unregister channel full, forcing close", "client_id", c.id)
		c.release()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}
}
