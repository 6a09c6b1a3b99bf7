package commands

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/enesbrtc/enes.codes/internal/buffer"
	"github.com/enesbrtc/enes.codes/internal/history"
	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/session"
	"github.com/enesbrtc/enes.codes/internal/shell"
	"github.com/enesbrtc/enes.codes/internal/vfs"
)

type fakeFlags struct {
	engineer bool
	err      error
}

func (f *fakeFlags) EnableEngineer(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.engineer = true
	return nil
}

type fixture struct {
	deps   *Deps
	out    *buffer.Buffer
	local  *kernel.Kernel
	remote *kernel.Kernel
	flags  *fakeFlags
	closed bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	content, err := LoadContent()
	if err != nil {
		t.Fatalf("LoadContent() error = %v", err)
	}
	localFS, err := vfs.LoadLocal()
	if err != nil {
		t.Fatalf("LoadLocal() error = %v", err)
	}
	remoteFS, err := vfs.LoadRemote()
	if err != nil {
		t.Fatalf("LoadRemote() error = %v", err)
	}

	f := &fixture{out: buffer.New(0), flags: &fakeFlags{}}
	sessions := session.NewManager(remoteFS.Home())
	f.deps = &Deps{
		Screen:        f.out,
		Local:         localFS,
		Remote:        remoteFS,
		Sessions:      sessions,
		Shell:         shell.New(),
		History:       history.New(0),
		Flags:         f.flags,
		Content:       content,
		Close:         func() { f.closed = true },
		Now:           func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) },
		SnakeInterval: time.Hour,
	}

	f.local = kernel.New(f.out, kernel.WithHinter(kernel.IntentHint))
	if err := Install(f.local, Local(f.deps)); err != nil {
		t.Fatalf("Install(Local) error = %v", err)
	}
	f.remote = kernel.New(f.out, kernel.WithPrecondition(RemoteGuard(sessions)))
	if err := Install(f.remote, Remote(f.deps)); err != nil {
		t.Fatalf("Install(Remote) error = %v", err)
	}
	return f
}

func (f *fixture) run(t *testing.T, input string) []string {
	t.Helper()
	f.out.Clear()
	f.local.Run(context.Background(), input, f.deps.Shell.Context().Environment())
	return f.lines()
}

func (f *fixture) runRemote(t *testing.T, input string) []string {
	t.Helper()
	f.out.Clear()
	f.remote.Run(context.Background(), input, kernel.EnvSSH)
	return f.lines()
}

func (f *fixture) lines() []string {
	var out []string
	for _, l := range f.out.Lines() {
		out = append(out, l.Content)
	}
	return out
}

func TestLocalCommandTable(t *testing.T) {
	f := newFixture(t)
	var visible []string
	for _, cmd := range f.local.List(kernel.EnvLocal) {
		if !cmd.Hidden {
			visible = append(visible, cmd.Name)
		}
	}
	want := []string{"help", "clear", "exit", "ls", "cd", "pwd", "cat", "history", "whoami", "date", "uptime", "snake"}
	if !reflect.DeepEqual(visible, want) {
		t.Fatalf("visible local commands = %v, want %v", visible, want)
	}

	engineer := f.local.List(kernel.EnvEngineer)
	found := map[string]bool{}
	for _, cmd := range engineer {
		found[cmd.Name] = true
	}
	for _, name := range []string{"projects", "stack", "experience", "now", "contact", "resume", "deploy", "ssh"} {
		if !found[name] {
			t.Fatalf("engineer list missing %q", name)
		}
	}
	if cmd, ok := f.local.Lookup("ls"); !ok || cmd.Summary != "List directory contents" {
		t.Fatalf("ls summary = %q", cmd.Summary)
	}
	if cmd, _ := f.local.Lookup("coffee"); !cmd.Hidden || cmd.Summary != defaultSummary {
		t.Fatalf("coffee = %+v", cmd)
	}
}

func TestFilesystemCommands(t *testing.T) {
	f := newFixture(t)

	if got := f.run(t, "pwd"); !reflect.DeepEqual(got, []string{"/home/enes"}) {
		t.Fatalf("pwd = %q", got)
	}
	got := f.run(t, "ls")
	want := []string{"about/", "notes/", "projects/", ".bashrc", "README.md"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ls = %q, want %q", got, want)
	}
	if got := f.run(t, "cd projects"); len(got) != 0 {
		t.Fatalf("cd printed %q", got)
	}
	if got := f.run(t, "ls -l"); len(got) != 3 || !strings.HasPrefix(got[0], "drwxr-xr-x") {
		t.Fatalf("ls -l = %q", got)
	}
	if got := f.run(t, "cat portfolio/README.md"); got[0] != "# Portfolio Website" {
		t.Fatalf("cat = %q", got)
	}
	if got := f.run(t, "cat portfolio"); !reflect.DeepEqual(got, []string{"cat: portfolio: Is a directory"}) {
		t.Fatalf("cat dir = %q", got)
	}
	if got := f.run(t, "cat"); !reflect.DeepEqual(got, []string{"cat: missing file operand"}) {
		t.Fatalf("cat without operand = %q", got)
	}
	if got := f.run(t, "cd nowhere"); !reflect.DeepEqual(got, []string{"cd: nowhere: No such file or directory"}) {
		t.Fatalf("cd missing = %q", got)
	}
	if got := f.run(t, "ls nowhere"); !reflect.DeepEqual(got, []string{"ls: nowhere: No such file or directory"}) {
		t.Fatalf("ls missing = %q", got)
	}
	f.run(t, "cd")
	if got := f.run(t, "pwd"); got[0] != "/home/enes" {
		t.Fatalf("pwd after cd = %q", got)
	}
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	if got := f.run(t, "help"); got[0] != "Welcome to enes.codes engineering workstation." {
		t.Fatalf("help = %q", got)
	}
	if got := f.run(t, "help SSH"); got[0] != "ssh <host> - Connect to remote systems" {
		t.Fatalf("help ssh = %q", got)
	}
	want := []string{"No help available for 'zork'.", "", "Type 'help' for general guidance."}
	if got := f.run(t, "help zork"); !reflect.DeepEqual(got, want) {
		t.Fatalf("help zork = %q", got)
	}
}

func TestDeploy(t *testing.T) {
	f := newFixture(t)
	got := f.run(t, "deploy")
	if !reflect.DeepEqual(got, []string{"SYSTEM ACCESS GRANTED", "Engineer mode activated"}) {
		t.Fatalf("deploy = %q", got)
	}
	if !f.flags.engineer {
		t.Fatalf("deploy did not persist engineer flag")
	}
	snap := f.deps.Shell.Snapshot()
	if snap.Context != shell.ContextEngineer || snap.Machine != shell.MachineEngineer {
		t.Fatalf("shell = %+v", snap)
	}
}

func TestDeployReportsFlagError(t *testing.T) {
	f := newFixture(t)
	f.flags.err = errors.New("database is locked")
	got := f.run(t, "deploy")
	want := []string{"Error executing deploy: persist engineer mode: database is locked"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("deploy = %q, want %q", got, want)
	}
	if f.deps.Shell.Context() != shell.ContextLocal {
		t.Fatalf("context changed despite failure")
	}
}

func TestSSHAndRemoteShell(t *testing.T) {
	f := newFixture(t)

	if got := f.run(t, "ssh"); !reflect.DeepEqual(got, []string{"ssh: missing host operand"}) {
		t.Fatalf("ssh = %q", got)
	}
	got := f.run(t, "ssh enes.codes")
	want := []string{"Connecting to enes.codes...", "Verifying host fingerprint...", "Connection established.", "", "login: "}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ssh enes.codes = %q", got)
	}
	if f.deps.Shell.Flavor() != shell.FlavorSSHAuth || f.deps.Shell.Context() != shell.ContextSSH {
		t.Fatalf("shell = %+v", f.deps.Shell.Snapshot())
	}
	if got := f.run(t, "ssh again"); got[0] != "ssh: already connected to remote system" {
		t.Fatalf("second ssh = %q", got)
	}

	if got := f.runRemote(t, "pwd"); !reflect.DeepEqual(got, []string{"SSH session not active"}) {
		t.Fatalf("remote before login = %q", got)
	}

	f.deps.Sessions.Authenticate("guest")
	f.deps.Sessions.Authenticate("pw")

	if got := f.runRemote(t, "ls"); !reflect.DeepEqual(got, []string{"config/", "projects/", ".bashrc", "README.md", "README.txt"}) {
		t.Fatalf("remote ls = %q", got)
	}
	if got := f.runRemote(t, "cd"); !reflect.DeepEqual(got, []string{"cd: missing operand"}) {
		t.Fatalf("remote cd = %q", got)
	}
	f.runRemote(t, "cd projects")
	if s := f.deps.Sessions.Get().(session.SSHShell); s.Cwd != "/home/enes/projects" {
		t.Fatalf("session cwd = %q", s.Cwd)
	}
	if got := f.runRemote(t, "cat api-gateway.md"); got[0] != "# API Gateway Service" {
		t.Fatalf("remote cat = %q", got)
	}
	if got := f.runRemote(t, "deploy"); !reflect.DeepEqual(got, []string{"deploy: command not found"}) {
		t.Fatalf("remote deploy = %q", got)
	}

	if got := f.runRemote(t, "exit"); !reflect.DeepEqual(got, []string{"Connection to enes.codes closed."}) {
		t.Fatalf("remote exit = %q", got)
	}
	if _, ok := f.deps.Sessions.Get().(session.Local); !ok {
		t.Fatalf("session = %#v, want Local", f.deps.Sessions.Get())
	}
	if snap := f.deps.Shell.Snapshot(); snap.Flavor != shell.FlavorLocal || snap.Context != shell.ContextLocal {
		t.Fatalf("shell after exit = %+v", snap)
	}
}

func TestLocalExitClosesTerminal(t *testing.T) {
	f := newFixture(t)
	f.deps.Shell.SetMachine(shell.MachineEngineer)
	if got := f.run(t, "exit"); !reflect.DeepEqual(got, []string{"closing session..."}) {
		t.Fatalf("exit = %q", got)
	}
	if !f.closed {
		t.Fatalf("exit did not close the terminal")
	}
	if f.deps.Shell.Machine() != shell.MachineIdle {
		t.Fatalf("machine = %q, want idle", f.deps.Shell.Machine())
	}
}

func TestFunAndEasterEggs(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		input string
		first string
	}{
		{"whoami", "enes.barutcu"},
		{"date", "2024-03-01T12:30:00.000Z"},
		{"uptime", "uptime: 99 days, 23 hours, 59 minutes"},
		{"hello", "Hi. Try 'help' to begin."},
		{"whois enes", "Domain Name: ENES.BARUTCU"},
		{"whois", "whois: missing operand"},
		{"whois bob", "whois: bob: domain not found"},
		{"404", "HTTP 404 - Command Not Found"},
	}
	for _, tt := range tests {
		got := f.run(t, tt.input)
		if len(got) == 0 || got[0] != tt.first {
			t.Fatalf("%s = %q, want first line %q", tt.input, got, tt.first)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	f := newFixture(t)
	f.deps.History.Push("ls")
	f.deps.History.Push("pwd")
	want := []string{"    1  ls", "    2  pwd"}
	if got := f.run(t, "history"); !reflect.DeepEqual(got, want) {
		t.Fatalf("history = %q, want %q", got, want)
	}
}

func TestRebootRedrawsAfterDelay(t *testing.T) {
	f := newFixture(t)
	f.deps.RebootDelay = time.Millisecond

	f.run(t, "reboot")
	deadline := time.After(2 * time.Second)
	for {
		got := f.lines()
		if reflect.DeepEqual(got, f.deps.Content.Boot.Banner) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("screen after reboot = %q", got)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSnakeEntersInteractiveMode(t *testing.T) {
	f := newFixture(t)
	got := f.run(t, "snake")
	if got[0] != "🐍 SNAKE GAME 🐍" {
		t.Fatalf("snake = %q", got)
	}
	if name, ok := f.local.ActiveMode(); !ok || name != "snake" {
		t.Fatalf("ActiveMode() = %q, %v", name, ok)
	}

	f.out.Clear()
	f.local.Run(context.Background(), "help", kernel.EnvLocal)
	if f.out.Len() != 0 {
		t.Fatalf("help ran during snake: %q", f.lines())
	}
	f.local.Reset()
	if _, ok := f.local.ActiveMode(); ok {
		t.Fatalf("snake still active after Reset()")
	}
}

func TestParseContentValidation(t *testing.T) {
	if _, err := ParseContent([]byte("host: x\n")); err == nil {
		t.Fatalf("ParseContent(incomplete) error = nil")
	}
	if _, err := ParseContent([]byte("host: [")); err == nil {
		t.Fatalf("ParseContent(invalid yaml) error = nil")
	}
}
