// Package session models the simulated remote-login handshake. No credential
// is ever checked: any non-empty username and password are accepted.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultHome is the working directory a new remote shell starts in.
const DefaultHome = "/home/enes"

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrEmptyCredential   = errors.New("empty credential")
)

// State is one of Local, SSHUsername, SSHPassword or SSHShell.
type State interface {
	Kind() string
	isState()
}

type Local struct{}

type SSHUsername struct {
	Host string
}

type SSHPassword struct {
	Username string
	Host     string
}

type SSHShell struct {
	Username string
	Host     string
	Cwd      string
}

func (Local) Kind() string       { return "local" }
func (SSHUsername) Kind() string { return "ssh-username" }
func (SSHPassword) Kind() string { return "ssh-password" }
func (SSHShell) Kind() string    { return "ssh-shell" }

func (Local) isState()       {}
func (SSHUsername) isState() {}
func (SSHPassword) isState() {}
func (SSHShell) isState()    {}

// Remote reports whether s is any of the SSH states.
func Remote(s State) bool {
	_, local := s.(Local)
	return !local
}

type Listener func(State)

// Manager owns the session of one terminal.
type Manager struct {
	home string

	mu        sync.Mutex
	state     State
	listeners map[uint64]Listener
	nextID    uint64
}

// NewManager returns a manager in the Local state. Remote shells start in
// home, or DefaultHome when empty.
func NewManager(home string) *Manager {
	if home == "" {
		home = DefaultHome
	}
	return &Manager{
		home:      home,
		state:     Local{},
		listeners: make(map[uint64]Listener),
	}
}

func (m *Manager) Get() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Set replaces the state unconditionally and notifies subscribers.
func (m *Manager) Set(s State) {
	if s == nil {
		s = Local{}
	}
	m.mu.Lock()
	m.state = s
	listeners := m.snapshotLocked()
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Subscribe registers fn for every transition and returns its unsubscribe
// function.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Connect starts a login to host. Only valid from Local.
func (m *Manager) Connect(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return errors.New("host is required")
	}
	return m.transition(func(cur State) (State, error) {
		if _, ok := cur.(Local); !ok {
			return nil, fmt.Errorf("connect from %s: %w", cur.Kind(), ErrInvalidTransition)
		}
		return SSHUsername{Host: host}, nil
	})
}

// Authenticate feeds one login line: the username while in SSHUsername, the
// password while in SSHPassword. Blank input leaves the state unchanged and
// returns ErrEmptyCredential.
func (m *Manager) Authenticate(input string) (State, error) {
	value := strings.TrimSpace(input)
	var next State
	err := m.transition(func(cur State) (State, error) {
		switch s := cur.(type) {
		case SSHUsername:
			if value == "" {
				return nil, ErrEmptyCredential
			}
			next = SSHPassword{Username: value, Host: s.Host}
		case SSHPassword:
			if value == "" {
				return nil, ErrEmptyCredential
			}
			next = SSHShell{Username: s.Username, Host: s.Host, Cwd: m.home}
		default:
			return nil, fmt.Errorf("authenticate from %s: %w", cur.Kind(), ErrInvalidTransition)
		}
		return next, nil
	})
	if err != nil {
		return m.Get(), err
	}
	return next, nil
}

// SetCwd records the remote working directory. Only valid in SSHShell.
func (m *Manager) SetCwd(cwd string) error {
	return m.transition(func(cur State) (State, error) {
		s, ok := cur.(SSHShell)
		if !ok {
			return nil, fmt.Errorf("set cwd from %s: %w", cur.Kind(), ErrInvalidTransition)
		}
		s.Cwd = cwd
		return s, nil
	})
}

// Exit closes a remote shell and returns to Local.
func (m *Manager) Exit() error {
	return m.transition(func(cur State) (State, error) {
		if _, ok := cur.(SSHShell); !ok {
			return nil, fmt.Errorf("exit from %s: %w", cur.Kind(), ErrInvalidTransition)
		}
		return Local{}, nil
	})
}

func (m *Manager) transition(step func(State) (State, error)) error {
	m.mu.Lock()
	next, err := step(m.state)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = next
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

func (m *Manager) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		out = append(out, fn)
	}
	return out
}
