// Package commands holds the command tables of the local and remote shells.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/enesbrtc/enes.codes/internal/history"
	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/session"
	"github.com/enesbrtc/enes.codes/internal/shell"
	"github.com/enesbrtc/enes.codes/internal/snake"
	"github.com/enesbrtc/enes.codes/internal/vfs"
)

// Screen is the terminal output as seen by commands.
type Screen interface {
	kernel.Output
	Clear()
	Replace(lines []string)
}

// Flags persists per-visitor booleans.
type Flags interface {
	EnableEngineer(ctx context.Context) error
}

// Deps is everything the command handlers act on.
type Deps struct {
	Screen   Screen
	Local    vfs.Filesystem
	Remote   vfs.Filesystem
	Sessions *session.Manager
	Shell    *shell.Controller
	History  *history.Manager
	Flags    Flags
	Content  *Content

	// Close is called by exit to close the terminal.
	Close func()
	Now   func() time.Time
	Rand  snake.Rand

	SnakeInterval time.Duration
	RebootDelay   time.Duration
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

const defaultSummary = "Execute command"

var summaries = map[string]string{
	"help":       "Show available commands and usage",
	"ls":         "List directory contents",
	"cd":         "Change current directory",
	"cat":        "Display file contents",
	"pwd":        "Print working directory",
	"ssh":        "Connect to remote SSH server",
	"clear":      "Clear the terminal screen",
	"exit":       "Exit current session",
	"deploy":     "Unlock engineer mode",
	"whoami":     "Display current user information",
	"date":       "Show current date and time",
	"uptime":     "Show system uptime",
	"history":    "Show command history",
	"snake":      "Play snake",
	"projects":   "View engineering projects",
	"stack":      "Show technology stack",
	"experience": "View work experience",
	"now":        "Show current focus",
	"contact":    "Show contact information",
	"resume":     "Download resume",
}

// Summary returns the one-line description used by tab completion.
func Summary(name string) string {
	if s, ok := summaries[name]; ok {
		return s
	}
	return defaultSummary
}

// Local returns the command table of the local workstation.
func Local(d *Deps) []kernel.Command {
	var cmds []kernel.Command
	cmds = append(cmds, systemCommands(d)...)
	cmds = append(cmds, funCommands(d)...)
	cmds = append(cmds, easterEggs(d)...)
	cmds = append(cmds, gameCommands(d)...)
	return withSummaries(cmds)
}

// Remote returns the command table of the simulated SSH host.
func Remote(d *Deps) []kernel.Command {
	return withSummaries(remoteCommands(d))
}

// Install registers cmds on k.
func Install(k *kernel.Kernel, cmds []kernel.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := k.Register(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("install commands: %w", errors.Join(errs...))
	}
	return nil
}

func withSummaries(cmds []kernel.Command) []kernel.Command {
	for i := range cmds {
		if cmds[i].Summary == "" {
			cmds[i].Summary = Summary(cmds[i].Name)
		}
	}
	return cmds
}

// page returns a handler that prints a catalog page.
func page(d *Deps, name string) kernel.Handler {
	return func(c *kernel.Call) error {
		c.Print(d.Content.Page(name)...)
		return nil
	}
}
