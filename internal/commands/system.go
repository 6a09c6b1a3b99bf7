package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/shell"
	"github.com/enesbrtc/enes.codes/internal/vfs"
)

func systemCommands(d *Deps) []kernel.Command {
	return []kernel.Command{
		{Name: "help", Scope: kernel.ScopeGlobal, Handler: helpHandler(d)},
		{Name: "clear", Scope: kernel.ScopeGlobal, Handler: func(*kernel.Call) error {
			d.Screen.Clear()
			return nil
		}},
		{Name: "exit", Scope: kernel.ScopeGlobal, Handler: func(c *kernel.Call) error {
			c.Print("closing session...")
			d.Shell.SetMachine(shell.MachineIdle)
			if d.Close != nil {
				d.Close()
			}
			return nil
		}},
		{Name: "ls", Scope: kernel.ScopeGlobal, Handler: listHandler(d.Local)},
		{Name: "cd", Scope: kernel.ScopeGlobal, Handler: func(c *kernel.Call) error {
			if err := d.Local.ChangeDirectory(c.Arg(0)); err != nil {
				return printFSError(c, err)
			}
			return nil
		}},
		{Name: "pwd", Scope: kernel.ScopeGlobal, Handler: func(c *kernel.Call) error {
			c.Print(d.Local.CurrentPath())
			return nil
		}},
		{Name: "cat", Scope: kernel.ScopeGlobal, Handler: catHandler(d.Local, "cat: missing file operand")},
		{Name: "history", Scope: kernel.ScopeGlobal, Handler: func(c *kernel.Call) error {
			entries := d.History.Entries()
			lines := make([]string, 0, len(entries))
			for i, entry := range entries {
				lines = append(lines, fmt.Sprintf("%5d  %s", i+1, entry))
			}
			c.Print(lines...)
			return nil
		}},

		{Name: "projects", Scope: kernel.ScopeEngineer, Handler: page(d, "projects")},
		{Name: "stack", Scope: kernel.ScopeEngineer, Handler: page(d, "stack")},
		{Name: "experience", Scope: kernel.ScopeEngineer, Handler: page(d, "experience")},
		{Name: "now", Scope: kernel.ScopeEngineer, Handler: page(d, "now")},
		{Name: "contact", Scope: kernel.ScopeEngineer, Handler: page(d, "contact")},
		{Name: "resume", Scope: kernel.ScopeEngineer, Handler: page(d, "resume")},
		{Name: "deploy", Scope: kernel.ScopeEngineer, Handler: deployHandler(d)},
		{Name: "ssh", Scope: kernel.ScopeEngineer, Handler: sshHandler(d)},
	}
}

func helpHandler(d *Deps) kernel.Handler {
	return func(c *kernel.Call) error {
		topic := c.Arg(0)
		if topic == "" {
			c.Print(d.Content.Help.General...)
			return nil
		}
		if lines, ok := d.Content.CommandHelp(topic); ok {
			c.Print(lines...)
			return nil
		}
		c.Print(
			fmt.Sprintf("No help available for '%s'.", topic),
			"",
			"Type 'help' for general guidance.",
		)
		return nil
	}
}

func deployHandler(d *Deps) kernel.Handler {
	return func(c *kernel.Call) error {
		if d.Flags != nil {
			if err := d.Flags.EnableEngineer(c.Context); err != nil {
				return fmt.Errorf("persist engineer mode: %w", err)
			}
		}
		d.Shell.SetMachine(shell.MachineEngineer)
		d.Shell.SetContext(shell.ContextEngineer)
		c.Print("SYSTEM ACCESS GRANTED", "Engineer mode activated")
		return nil
	}
}

func sshHandler(d *Deps) kernel.Handler {
	return func(c *kernel.Call) error {
		host := c.Arg(0)
		if host == "" {
			c.Print("ssh: missing host operand")
			return nil
		}
		if f := d.Shell.Flavor(); f == shell.FlavorSSH || f == shell.FlavorSSHAuth {
			c.Print("ssh: already connected to remote system", "Use 'exit' to disconnect first")
			return nil
		}
		if err := d.Sessions.Connect(host); err != nil {
			return err
		}
		d.Remote.Reset()
		d.Shell.SetFlavor(shell.FlavorSSHAuth)
		d.Shell.SetContext(shell.ContextSSH)
		c.Print(
			fmt.Sprintf("Connecting to %s...", host),
			"Verifying host fingerprint...",
			"Connection established.",
			"",
			"login: ",
		)
		return nil
	}
}

// listHandler implements ls [-l] [path] over fsys.
func listHandler(fsys vfs.Filesystem) kernel.Handler {
	return func(c *kernel.Call) error {
		long := false
		var target string
		for _, arg := range c.Args {
			if strings.HasPrefix(arg, "-") && len(arg) > 1 {
				long = long || strings.Contains(arg, "l")
				continue
			}
			if target == "" {
				target = arg
			}
		}

		nodes, err := fsys.ListDirectory(target)
		if err != nil {
			return printFSError(c, err)
		}
		lines := make([]string, 0, len(nodes))
		for _, n := range nodes {
			if long {
				lines = append(lines, formatLong(n))
			} else {
				lines = append(lines, displayName(n))
			}
		}
		c.Print(lines...)
		return nil
	}
}

func catHandler(fsys vfs.Filesystem, missing string) kernel.Handler {
	return func(c *kernel.Call) error {
		if c.Arg(0) == "" {
			c.Print(missing)
			return nil
		}
		lines, err := fsys.ReadFile(c.Arg(0))
		if err != nil {
			return printFSError(c, err)
		}
		c.Print(lines...)
		return nil
	}
}

// printFSError renders filesystem failures as one line; anything else is
// returned to the kernel.
func printFSError(c *kernel.Call, err error) error {
	var pathErr *vfs.PathError
	if errors.As(err, &pathErr) {
		c.Print(pathErr.Error())
		return nil
	}
	return err
}

func displayName(n vfs.Node) string {
	if n.IsDir() {
		return n.Name() + "/"
	}
	return n.Name()
}

func formatLong(n vfs.Node) string {
	size := 4096
	if f, ok := n.(*vfs.File); ok {
		size = f.Size()
	}
	return fmt.Sprintf("%s  1 enes  staff %6d %s %s",
		n.Mode().String(), size, n.ModTime().Format("Jan _2 15:04"), displayName(n))
}
