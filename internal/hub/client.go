package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/enesbrtc/enes.codes/internal/buffer"
	"github.com/enesbrtc/enes.codes/internal/terminal"
)

const (
	readLimit    = 32768
	pingInterval = 30 * time.Second
)

type Client struct {
	id        string
	visitorID string
	conn      *websocket.Conn
	term      *terminal.Terminal
	hub       *Hub

	mu          sync.Mutex
	send        chan []byte
	closed      bool
	unsubscribe func()
}

func newClient(conn *websocket.Conn, hub *Hub, term *terminal.Terminal, visitorID string) *Client {
	c := &Client{
		id:        term.ID,
		visitorID: visitorID,
		conn:      conn,
		term:      term,
		hub:       hub,
		send:      make(chan []byte, 256),
	}
	c.unsubscribe = term.Buffer.Subscribe(func(lines []buffer.Line) {
		hub.rateLimiter.Add(c.id, lines)
	})
	return c
}

// enqueue reports false when the message was dropped.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// release closes the terminal and the send queue. Safe to call repeatedly.
func (c *Client) release() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.unsubscribe()
	c.term.Close()
}

func (c *Client) screen(lines []buffer.Line) ScreenMessage {
	mode, _ := c.term.InteractiveMode()
	snap := c.term.Shell.Snapshot()
	if lines == nil {
		lines = []buffer.Line{}
	}
	return ScreenMessage{
		Type:         TypeScreen,
		Lines:        lines,
		Prompt:       c.term.Prompt(),
		PasswordMode: c.term.PasswordMode(),
		Mode:         mode,
		Session:      c.term.Sessions.Get().Kind(),
		Context:      string(snap.Context),
		Machine:      string(snap.Machine),
		Ts:           time.Now().UnixMilli(),
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(readLimit)

	c.hub.send(c, HelloMessage{Type: TypeHello, VisitorID: c.visitorID, TerminalID: c.id})
	if err := c.term.Boot(ctx); err != nil {
		c.hub.logger.Warn("terminal boot failed", "client_id", c.id, "error", err)
		c.hub.SendError(c, "boot failed")
	}
	c.hub.rateLimiter.Add(c.id, c.term.Buffer.Lines())
	c.hub.rateLimiter.Flush(c.id)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.hub.logger.Debug("client read error", "client_id", c.id, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Warn("client invalid message", "client_id", c.id, "error", err)
			c.hub.SendError(c, "invalid message format")
			continue
		}
		c.hub.recorder.RecordHubMessage(metricType(msg.Type))
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case TypeInput:
		c.term.Submit(ctx, msg.Text)
	case TypeKey:
		if msg.Key != "" {
			c.term.SendKey(msg.Key)
		}
	case TypeTab:
		text := c.term.Complete(msg.Text)
		c.hub.send(c, InputMessage{Type: TypeCompletion, Text: text, OK: text != msg.Text})
	case TypeHistoryPrev:
		text, ok := c.term.HistoryPrevious()
		c.hub.send(c, InputMessage{Type: TypeHistory, Text: text, OK: ok})
	case TypeHistoryNext:
		text, ok := c.term.HistoryNext()
		c.hub.send(c, InputMessage{Type: TypeHistory, Text: text, OK: ok})
	case TypeInterrupt:
		c.term.Interrupt()
	case TypeClear:
		c.term.ClearScreen()
	case TypeEscape:
		c.term.Escape()
	default:
		c.hub.SendError(c, "unknown message type: "+msg.Type)
		return
	}
	c.hub.rateLimiter.Flush(c.id)
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-c.term.Done():
			c.finish(ctx)
			return
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// finish sends what is left after the terminal closed itself.
func (c *Client) finish(ctx context.Context) {
	c.hub.rateLimiter.Flush(c.id)
drain:
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				break drain
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		default:
			break drain
		}
	}
	data, _ := json.Marshal(ClosedMessage{Type: TypeClosed})
	_ = c.conn.Write(ctx, websocket.MessageText, data)
	c.conn.Close(websocket.StatusNormalClosure, "session closed")
}
