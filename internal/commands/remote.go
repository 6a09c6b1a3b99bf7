package commands

import (
	"errors"
	"fmt"

	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/session"
	"github.com/enesbrtc/enes.codes/internal/shell"
)

// RemoteGuard refuses remote commands unless a remote shell is open.
func RemoteGuard(sessions *session.Manager) func() error {
	return func() error {
		if _, ok := sessions.Get().(session.SSHShell); !ok {
			return errors.New("SSH session not active")
		}
		return nil
	}
}

func remoteCommands(d *Deps) []kernel.Command {
	return []kernel.Command{
		{Name: "ls", Scope: kernel.ScopeSSH, Handler: listHandler(d.Remote)},
		{Name: "cd", Scope: kernel.ScopeSSH, Handler: func(c *kernel.Call) error {
			if c.Arg(0) == "" {
				c.Print("cd: missing operand")
				return nil
			}
			if err := d.Remote.ChangeDirectory(c.Arg(0)); err != nil {
				return printFSError(c, err)
			}
			return d.Sessions.SetCwd(d.Remote.CurrentPath())
		}},
		{Name: "pwd", Scope: kernel.ScopeSSH, Handler: func(c *kernel.Call) error {
			c.Print(d.Remote.CurrentPath())
			return nil
		}},
		{Name: "cat", Scope: kernel.ScopeSSH, Handler: catHandler(d.Remote, "cat: missing operand")},
		{Name: "help", Scope: kernel.ScopeSSH, Handler: func(c *kernel.Call) error {
			c.Print(d.Content.Help.SSH...)
			return nil
		}},
		{Name: "exit", Scope: kernel.ScopeSSH, Handler: func(c *kernel.Call) error {
			host := d.Content.Host
			if s, ok := d.Sessions.Get().(session.SSHShell); ok {
				host = s.Host
			}
			if err := d.Sessions.Exit(); err != nil {
				return err
			}
			d.Shell.SetFlavor(shell.FlavorLocal)
			d.Shell.SetContext(shell.ContextLocal)
			d.Shell.SetMachine(shell.MachineIdle)
			c.Print(fmt.Sprintf("Connection to %s closed.", host))
			return nil
		}},
	}
}
