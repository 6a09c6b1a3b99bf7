// Package dispatch routes one submitted line to the login flow, the remote
// kernel or the local kernel depending on the session state. It never
// interprets commands itself.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/session"
	"github.com/enesbrtc/enes.codes/internal/shell"
)

type Outcome string

const (
	AuthUsername    Outcome = "auth_username"
	AuthPassword    Outcome = "auth_password"
	CommandExecuted Outcome = "command_executed"
)

// Result describes what happened to one line. Err is set when a login line
// was refused; the session then stays where it was.
type Result struct {
	Outcome Outcome
	Kernel  kernel.Result
	Session session.State
	Err     error
}

type Dispatcher struct {
	sessions *session.Manager
	shell    *shell.Controller
	local    *kernel.Kernel
	remote   *kernel.Kernel
	logger   *slog.Logger
}

func New(sessions *session.Manager, sh *shell.Controller, local, remote *kernel.Kernel) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		shell:    sh,
		local:    local,
		remote:   remote,
		logger:   slog.Default(),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, input string) Result {
	switch s := d.sessions.Get().(type) {
	case session.SSHUsername:
		next, err := d.sessions.Authenticate(input)
		if err != nil {
			d.logger.Debug("login line refused", "state", s.Kind(), "error", err)
		}
		return Result{Outcome: AuthUsername, Session: next, Err: err}

	case session.SSHPassword:
		next, err := d.sessions.Authenticate(input)
		if err != nil {
			d.logger.Debug("login line refused", "state", s.Kind(), "error", err)
			return Result{Outcome: AuthPassword, Session: next, Err: err}
		}
		return Result{Outcome: AuthPassword, Session: next}

	case session.SSHShell:
		res := d.remote.Run(ctx, input, kernel.EnvSSH)
		return Result{Outcome: CommandExecuted, Kernel: res, Session: d.sessions.Get()}
	}

	res := d.local.Run(ctx, input, d.shell.Context().Environment())
	return Result{Outcome: CommandExecuted, Kernel: res, Session: d.sessions.Get()}
}
