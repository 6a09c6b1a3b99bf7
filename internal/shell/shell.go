// Package shell tracks which shell flavor and command scope a terminal is in,
// plus the coarse machine state shown by the page chrome.
package shell

import (
	"sync"

	"github.com/enesbrtc/enes.codes/internal/kernel"
)

// Context selects the command scope used by the local kernel.
type Context string

const (
	ContextLocal    Context = "local"
	ContextEngineer Context = "engineer"
	ContextSSH      Context = "ssh"
)

// Environment maps the context to the kernel environment tag.
func (c Context) Environment() kernel.Environment {
	switch c {
	case ContextEngineer:
		return kernel.EnvEngineer
	case ContextSSH:
		return kernel.EnvSSH
	default:
		return kernel.EnvLocal
	}
}

// Flavor is the shell the user is typing into.
type Flavor string

const (
	FlavorLocal   Flavor = "local"
	FlavorSSHAuth Flavor = "ssh-auth"
	FlavorSSH     Flavor = "ssh"
)

type MachineState string

const (
	MachineIdle         MachineState = "idle"
	MachineEngineer     MachineState = "engineer"
	MachineSSHConnected MachineState = "ssh-connected"
)

type Snapshot struct {
	Context Context      `json:"context"`
	Flavor  Flavor       `json:"flavor"`
	Machine MachineState `json:"machine"`
}

// Controller holds the shell state of one terminal. Listeners fire only when
// a value actually changes.
type Controller struct {
	mu        sync.Mutex
	state     Snapshot
	listeners map[uint64]func(Snapshot)
	nextID    uint64
}

func New() *Controller {
	return &Controller{
		state:     initial(),
		listeners: make(map[uint64]func(Snapshot)),
	}
}

func initial() Snapshot {
	return Snapshot{Context: ContextLocal, Flavor: FlavorLocal, Machine: MachineIdle}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Context() Context      { return c.Snapshot().Context }
func (c *Controller) Flavor() Flavor        { return c.Snapshot().Flavor }
func (c *Controller) Machine() MachineState { return c.Snapshot().Machine }

func (c *Controller) SetContext(ctx Context) {
	c.update(func(s *Snapshot) { s.Context = ctx })
}

func (c *Controller) SetFlavor(f Flavor) {
	c.update(func(s *Snapshot) { s.Flavor = f })
}

func (c *Controller) SetMachine(m MachineState) {
	c.update(func(s *Snapshot) { s.Machine = m })
}

// Reset returns to the local shell with an idle machine.
func (c *Controller) Reset() {
	c.update(func(s *Snapshot) { *s = initial() })
}

func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) update(apply func(*Snapshot)) {
	c.mu.Lock()
	before := c.state
	apply(&c.state)
	after := c.state
	if before == after {
		c.mu.Unlock()
		return
	}
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(after)
	}
}
