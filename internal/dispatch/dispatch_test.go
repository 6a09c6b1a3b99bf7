package dispatch

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/enesbrtc/enes.codes/internal/buffer"
	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/session"
	"github.com/enesbrtc/enes.codes/internal/shell"
)

type fixture struct {
	d        *Dispatcher
	out      *buffer.Buffer
	sessions *session.Manager
	shell    *shell.Controller
	localEnv kernel.Environment
	remoteIn []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		out:      buffer.New(0),
		sessions: session.NewManager(""),
		shell:    shell.New(),
	}
	local := kernel.New(f.out)
	remote := kernel.New(f.out)

	if err := local.Register(kernel.Command{Name: "env", Handler: func(c *kernel.Call) error {
		f.localEnv = c.Environment
		return nil
	}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := remote.Register(kernel.Command{Name: "pwd", Scope: kernel.ScopeSSH, Handler: func(c *kernel.Call) error {
		f.remoteIn = append(f.remoteIn, c.Raw)
		return nil
	}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	f.d = New(f.sessions, f.shell, local, remote)
	return f
}

func contents(b *buffer.Buffer) []string {
	var out []string
	for _, l := range b.Lines() {
		out = append(out, l.Content)
	}
	return out
}

func TestLocalUsesShellContextAsEnvironment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if res := f.d.Dispatch(ctx, "env"); res.Outcome != CommandExecuted || res.Kernel.Status != kernel.StatusOK {
		t.Fatalf("Dispatch() = %+v", res)
	}
	if f.localEnv != kernel.EnvLocal {
		t.Fatalf("environment = %q, want local", f.localEnv)
	}

	f.shell.SetContext(shell.ContextEngineer)
	f.d.Dispatch(ctx, "env")
	if f.localEnv != kernel.EnvEngineer {
		t.Fatalf("environment = %q, want engineer", f.localEnv)
	}
}

func TestLoginThenRemoteShell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.sessions.Connect("enes.codes"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	res := f.d.Dispatch(ctx, "pwd")
	if res.Outcome != AuthUsername || res.Err != nil {
		t.Fatalf("Dispatch(username) = %+v", res)
	}
	if want := (session.SSHPassword{Username: "pwd", Host: "enes.codes"}); res.Session != want {
		t.Fatalf("session = %#v, want %#v", res.Session, want)
	}
	if len(f.remoteIn) != 0 {
		t.Fatalf("username was dispatched as a command")
	}

	res = f.d.Dispatch(ctx, "hunter2")
	if res.Outcome != AuthPassword || res.Err != nil {
		t.Fatalf("Dispatch(password) = %+v", res)
	}
	if _, ok := res.Session.(session.SSHShell); !ok {
		t.Fatalf("session = %#v, want SSHShell", res.Session)
	}
	if got := contents(f.out); len(got) != 0 {
		t.Fatalf("login step wrote output %q", got)
	}

	res = f.d.Dispatch(ctx, "pwd")
	if res.Outcome != CommandExecuted || res.Kernel.Status != kernel.StatusOK {
		t.Fatalf("Dispatch(pwd) = %+v", res)
	}
	if !reflect.DeepEqual(f.remoteIn, []string{"pwd"}) {
		t.Fatalf("remote kernel saw %v", f.remoteIn)
	}

	res = f.d.Dispatch(ctx, "env")
	if res.Kernel.Status != kernel.StatusNotFound {
		t.Fatalf("local command reached from remote shell: %+v", res)
	}
}

func TestBlankLoginLinesAreRefused(t *testing.T) {
	f := newFixture(t)
	f.sessions.Connect("enes.codes")

	res := f.d.Dispatch(context.Background(), "  ")
	if res.Outcome != AuthUsername || !errors.Is(res.Err, session.ErrEmptyCredential) {
		t.Fatalf("Dispatch(blank) = %+v", res)
	}
	if _, ok := f.sessions.Get().(session.SSHUsername); !ok {
		t.Fatalf("session = %#v, want SSHUsername", f.sessions.Get())
	}

	f.d.Dispatch(context.Background(), "guest")
	res = f.d.Dispatch(context.Background(), "")
	if res.Outcome != AuthPassword || !errors.Is(res.Err, session.ErrEmptyCredential) {
		t.Fatalf("Dispatch(blank password) = %+v", res)
	}
	if f.out.Len() != 0 {
		t.Fatalf("refused login printed %q", contents(f.out))
	}
}
