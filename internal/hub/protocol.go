package hub

import "github.com/enesbrtc/enes.codes/internal/buffer"

// Client message types.
const (
	TypeInput       = "input"
	TypeKey         = "key"
	TypeTab         = "tab"
	TypeHistoryPrev = "history_prev"
	TypeHistoryNext = "history_next"
	TypeInterrupt   = "interrupt"
	TypeClear       = "clear"
	TypeEscape      = "escape"
)

// unknownType labels client messages with an unrecognised type in metrics.
const unknownType = "unknown"

var clientTypes = map[string]bool{
	TypeInput:       true,
	TypeKey:         true,
	TypeTab:         true,
	TypeHistoryPrev: true,
	TypeHistoryNext: true,
	TypeInterrupt:   true,
	TypeClear:       true,
	TypeEscape:      true,
}

// metricType bounds the label set to the known client message types.
func metricType(msgType string) string {
	if clientTypes[msgType] {
		return msgType
	}
	return unknownType
}

// Server message types.
const (
	TypeHello      = "hello"
	TypeScreen     = "screen"
	TypeCompletion = "completion"
	TypeHistory    = "history"
	TypeNotice     = "notice"
	TypeClosed     = "closed"
	TypeError      = "error"
)

type ClientMessage struct {
	Type string `json:"type"`
	// Text is the submitted line for input and the partial line for tab.
	Text string `json:"text,omitempty"`
	Key  string `json:"key,omitempty"`
}

type HelloMessage struct {
	Type       string `json:"type"`
	VisitorID  string `json:"visitor_id"`
	TerminalID string `json:"terminal_id"`
}

// ScreenMessage is a full snapshot of one terminal.
type ScreenMessage struct {
	Type         string        `json:"type"`
	Lines        []buffer.Line `json:"lines"`
	Prompt       string        `json:"prompt"`
	PasswordMode bool          `json:"password_mode"`
	Mode         string        `json:"mode,omitempty"`
	Session      string        `json:"session"`
	Context      string        `json:"context"`
	Machine      string        `json:"machine"`
	Ts           int64         `json:"ts"`
}

// InputMessage replaces the client's input line after completion or history
// navigation.
type InputMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

type NoticeMessage struct {
	Type  string   `json:"type"`
	Lines []string `json:"lines"`
}

type ClosedMessage struct {
	Type string `json:"type"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
