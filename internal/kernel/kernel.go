// Package kernel maps command names to handlers and runs submitted input
// lines against them. A kernel may be captured by one interactive mode at a
// time, which then receives every raw line instead of command dispatch.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Scope controls in which environments a command is listed.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeEngineer Scope = "engineer"
	ScopeSSH      Scope = "ssh"
)

// Environment is the command scope the caller is running in. EnvAny disables
// scope filtering when listing.
type Environment string

const (
	EnvAny      Environment = ""
	EnvLocal    Environment = "local"
	EnvEngineer Environment = "engineer"
	EnvSSH      Environment = "ssh"
)

// Output is the sink command output is written to.
type Output interface {
	Push(content string)
	PushMultiple(contents []string)
}

type Handler func(call *Call) error

type Command struct {
	Name    string
	Scope   Scope
	Hidden  bool
	Summary string
	Handler Handler
}

// Visible reports whether c is listed in env.
func (c Command) Visible(env Environment) bool {
	switch {
	case env == EnvAny, c.Scope == ScopeGlobal:
		return true
	case c.Scope == ScopeEngineer:
		return env == EnvEngineer
	case c.Scope == ScopeSSH:
		return env == EnvSSH
	}
	return false
}

// Mode captures raw input while active. Stop, if set, runs once when the mode
// is replaced or cleared.
type Mode struct {
	Name   string
	Handle func(ctx context.Context, input string)
	Stop   func()
}

// Hinter produces a hint line for input whose command name is unknown.
type Hinter func(name, raw string, known []string) (string, bool)

// Status classifies what Run did with a line.
type Status string

const (
	StatusEmpty       Status = "empty"
	StatusInteractive Status = "interactive"
	StatusNotFound    Status = "not_found"
	StatusRejected    Status = "rejected"
	StatusOK          Status = "ok"
	StatusFailed      Status = "failed"
)

type Result struct {
	Command string
	Status  Status
}

type Option func(*Kernel)

// WithHinter enables suggestions for unknown commands.
func WithHinter(h Hinter) Option {
	return func(k *Kernel) { k.hinter = h }
}

// WithPrecondition makes Run refuse input while check returns an error. The
// error text is printed as a single line.
func WithPrecondition(check func() error) Option {
	return func(k *Kernel) { k.precondition = check }
}

func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) { k.logger = logger }
}

type Kernel struct {
	out          Output
	hinter       Hinter
	precondition func() error
	logger       *slog.Logger

	mu       sync.RWMutex
	commands map[string]Command
	order    []string
	mode     *Mode
}

func New(out Output, opts ...Option) *Kernel {
	k := &Kernel{
		out:      out,
		commands: make(map[string]Command),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Register adds cmd, replacing any command with the same name.
func (k *Kernel) Register(cmd Command) error {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return errors.New("command name is required")
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("command %q: name must not contain whitespace", cmd.Name)
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %q: handler is required", name)
	}
	if cmd.Scope == "" {
		cmd.Scope = ScopeGlobal
	}
	switch cmd.Scope {
	case ScopeGlobal, ScopeEngineer, ScopeSSH:
	default:
		return fmt.Errorf("command %q: unknown scope %q", name, cmd.Scope)
	}
	cmd.Name = name

	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.commands[name]; !exists {
		k.order = append(k.order, name)
	}
	k.commands[name] = cmd
	return nil
}

// Lookup finds a command by case-insensitive name.
func (k *Kernel) Lookup(name string) (Command, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	cmd, ok := k.commands[strings.ToLower(name)]
	return cmd, ok
}

// List returns the commands visible from env in registration order.
func (k *Kernel) List(env Environment) []Command {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Command, 0, len(k.order))
	for _, name := range k.order {
		if cmd := k.commands[name]; cmd.Visible(env) {
			out = append(out, cmd)
		}
	}
	return out
}

func (k *Kernel) names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]string(nil), k.order...)
}

// SetInteractiveMode makes m the active mode, stopping any previous one.
func (k *Kernel) SetInteractiveMode(m Mode) {
	k.mu.Lock()
	prev := k.mode
	k.mode = &m
	k.mu.Unlock()
	if prev != nil && prev.Stop != nil {
		prev.Stop()
	}
}

// ClearInteractiveMode restores normal dispatch. It reports whether a mode
// was active.
func (k *Kernel) ClearInteractiveMode() bool {
	k.mu.Lock()
	prev := k.mode
	k.mode = nil
	k.mu.Unlock()
	if prev == nil {
		return false
	}
	if prev.Stop != nil {
		prev.Stop()
	}
	return true
}

// ActiveMode returns the name of the active interactive mode.
func (k *Kernel) ActiveMode() (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.mode == nil {
		return "", false
	}
	return k.mode.Name, true
}

// Reset drops any interactive mode.
func (k *Kernel) Reset() {
	k.ClearInteractiveMode()
}

// Run executes one input line in env. Failures are written to the output and
// never returned.
func (k *Kernel) Run(ctx context.Context, input string, env Environment) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Result{Status: StatusEmpty}
	}

	k.mu.RLock()
	mode := k.mode
	k.mu.RUnlock()
	if mode != nil {
		if mode.Handle != nil {
			mode.Handle(ctx, trimmed)
		}
		return Result{Command: mode.Name, Status: StatusInteractive}
	}

	if k.precondition != nil {
		if err := k.precondition(); err != nil {
			k.out.Push(err.Error())
			return Result{Status: StatusRejected}
		}
	}

	fields := strings.Fields(trimmed)
	name := strings.ToLower(fields[0])
	cmd, ok := k.Lookup(name)
	if !ok {
		lines := []string{name + ": command not found"}
		if k.hinter != nil {
			if hint, ok := k.hinter(name, trimmed, k.names()); ok {
				lines = append(lines, hint)
			}
		}
		k.out.PushMultiple(lines)
		return Result{Command: name, Status: StatusNotFound}
	}

	call := &Call{
		Context:     ctx,
		Name:        name,
		Args:        fields[1:],
		Raw:         trimmed,
		Environment: env,
		kernel:      k,
	}
	if err := k.invoke(cmd, call); err != nil {
		k.logger.Warn("command failed", "command", name, "error", err)
		k.out.Push(fmt.Sprintf("Error executing %s: %v", name, err))
		return Result{Command: name, Status: StatusFailed}
	}
	return Result{Command: name, Status: StatusOK}
}

func (k *Kernel) invoke(cmd Command, call *Call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return cmd.Handler(call)
}
