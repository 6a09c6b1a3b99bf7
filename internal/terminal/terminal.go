// Package terminal assembles one interactive terminal: output buffer,
// history, filesystems, session, shell state, kernels and dispatcher. Input is
// serialised so handlers never run concurrently.
package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enesbrtc/enes.codes/internal/buffer"
	"github.com/enesbrtc/enes.codes/internal/commands"
	"github.com/enesbrtc/enes.codes/internal/dispatch"
	"github.com/enesbrtc/enes.codes/internal/history"
	"github.com/enesbrtc/enes.codes/internal/kernel"
	"github.com/enesbrtc/enes.codes/internal/session"
	"github.com/enesbrtc/enes.codes/internal/shell"
	"github.com/enesbrtc/enes.codes/internal/snake"
	"github.com/enesbrtc/enes.codes/internal/vfs"
)

const (
	DefaultBootDelay   = 500 * time.Millisecond
	DefaultRebootDelay = 2 * time.Second
	DefaultHistorySize = 500
)

type Options struct {
	// Flags defaults to a fresh MemoryFlags.
	Flags Flags
	// Log is optional.
	Log CommandLog

	BootDelay     time.Duration
	RebootDelay   time.Duration
	SnakeInterval time.Duration
	HistoryLimit  int

	// OnDispatch observes every submitted line.
	OnDispatch func(dispatch.Result)
	// OnClose runs once when the terminal closes.
	OnClose func()

	Logger *slog.Logger
	Now    func() time.Time
	Rand   snake.Rand
}

type Terminal struct {
	ID string

	Buffer   *buffer.Buffer
	History  *history.Manager
	Sessions *session.Manager
	Shell    *shell.Controller

	local      *kernel.Kernel
	remote     *kernel.Kernel
	dispatcher *dispatch.Dispatcher
	localFS    *vfs.Local
	remoteFS   *vfs.Remote
	content    *commands.Content
	flags      Flags
	log        CommandLog
	opts       Options
	logger     *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu           sync.Mutex
	booted       bool
	passwordMode bool
}

func New(opts Options) (*Terminal, error) {
	if opts.Flags == nil {
		opts.Flags = &MemoryFlags{}
	}
	if opts.BootDelay <= 0 {
		opts.BootDelay = DefaultBootDelay
	}
	if opts.RebootDelay <= 0 {
		opts.RebootDelay = DefaultRebootDelay
	}
	if opts.SnakeInterval <= 0 {
		opts.SnakeInterval = snake.TickInterval
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistorySize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	content, err := commands.LoadContent()
	if err != nil {
		return nil, err
	}
	localFS, err := vfs.LoadLocal()
	if err != nil {
		return nil, err
	}
	remoteFS, err := vfs.LoadRemote()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Terminal{
		ID:       uuid.NewString(),
		Buffer:   buffer.New(buffer.DefaultCapacity),
		History:  history.New(opts.HistoryLimit),
		Sessions: session.NewManager(remoteFS.Home()),
		Shell:    shell.New(),
		localFS:  localFS,
		remoteFS: remoteFS,
		content:  content,
		flags:    opts.Flags,
		log:      opts.Log,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
	t.logger = opts.Logger.With("terminal_id", t.ID)

	t.local = kernel.New(t.Buffer, kernel.WithHinter(kernel.IntentHint), kernel.WithLogger(t.logger))
	t.remote = kernel.New(t.Buffer,
		kernel.WithPrecondition(commands.RemoteGuard(t.Sessions)),
		kernel.WithLogger(t.logger),
	)

	deps := &commands.Deps{
		Screen:        t.Buffer,
		Local:         localFS,
		Remote:        remoteFS,
		Sessions:      t.Sessions,
		Shell:         t.Shell,
		History:       t.History,
		Flags:         opts.Flags,
		Content:       content,
		Close:         t.Close,
		Now:           opts.Now,
		Rand:          opts.Rand,
		SnakeInterval: opts.SnakeInterval,
		RebootDelay:   opts.RebootDelay,
	}
	if err := commands.Install(t.local, commands.Local(deps)); err != nil {
		cancel()
		return nil, err
	}
	if err := commands.Install(t.remote, commands.Remote(deps)); err != nil {
		cancel()
		return nil, err
	}

	t.dispatcher = dispatch.New(t.Sessions, t.Shell, t.local, t.remote)
	return t, nil
}

// Boot prints the boot sequence. The welcome block appears only for a
// visitor who has never booted, and the delayed tip only on a first visit.
// Later calls are no-ops.
func (t *Terminal) Boot(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.booted {
		return nil
	}
	t.booted = true

	t.Shell.Reset()
	t.Sessions.Set(session.Local{})
	t.passwordMode = false

	engineer, err := t.flags.Engineer(ctx)
	if err != nil {
		return fmt.Errorf("read engineer flag: %w", err)
	}
	if engineer {
		t.Shell.SetContext(shell.ContextEngineer)
		t.Shell.SetMachine(shell.MachineEngineer)
	}

	if t.log != nil {
		recent, err := t.log.RecentCommands(ctx, t.opts.HistoryLimit)
		if err != nil {
			return fmt.Errorf("restore history: %w", err)
		}
		t.History.Load(recent)
	}

	seen, err := t.flags.BootSeen(ctx)
	if err != nil {
		return fmt.Errorf("read boot flag: %w", err)
	}
	if !seen {
		t.Buffer.PushMultiple(t.content.Boot.Welcome)
		if err := t.flags.MarkBootSeen(ctx); err != nil {
			return fmt.Errorf("mark boot seen: %w", err)
		}
	}

	visited, err := t.flags.Visited(ctx)
	if err != nil {
		return fmt.Errorf("read visit flag: %w", err)
	}
	if !visited {
		if err := t.flags.MarkVisited(ctx); err != nil {
			return fmt.Errorf("mark visited: %w", err)
		}
		t.after(t.opts.BootDelay, t.content.Boot.Tip)
	}

	t.Buffer.PushMultiple(t.content.Boot.Banner)
	t.logger.Info("terminal booted", "first_boot", !seen, "engineer", engineer)
	return nil
}

// after pushes lines once delay has passed, unless the terminal closes first.
func (t *Terminal) after(delay time.Duration, lines []string) {
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-t.ctx.Done():
		case <-timer.C:
			t.Buffer.PushMultiple(lines)
		}
	}()
}

// Submit handles one entered line: echo, history, dispatch, and the shell
// changes that follow a login step.
func (t *Terminal) Submit(ctx context.Context, line string) dispatch.Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	trimmed := strings.TrimSpace(line)
	state := t.Sessions.Get()
	prompt := t.promptLocked()

	if t.passwordMode {
		t.Buffer.Push(prompt)
	} else {
		t.Buffer.Push(prompt + trimmed)
	}

	loggable := trimmed != ""
	switch state.(type) {
	case session.SSHUsername, session.SSHPassword:
		loggable = false
	}
	if loggable {
		t.History.Push(trimmed)
		if t.log != nil {
			if err := t.log.AppendCommand(ctx, trimmed); err != nil {
				t.logger.Warn("append command log", "error", err)
			}
		}
	}
	t.History.Reset()

	res := t.dispatcher.Dispatch(t.ctx, trimmed)
	switch res.Outcome {
	case dispatch.AuthUsername:
		if res.Err == nil {
			t.passwordMode = true
		}
	case dispatch.AuthPassword:
		if res.Err == nil {
			t.passwordMode = false
			t.Shell.SetFlavor(shell.FlavorSSH)
			t.Shell.SetContext(shell.ContextSSH)
			t.Shell.SetMachine(shell.MachineSSHConnected)
			banner := t.content.Boot.LastLogin
			if s, ok := res.Session.(session.SSHShell); ok {
				banner = append([]string{"Welcome to " + s.Host, ""}, banner...)
				t.logger.Info("remote login", "host", s.Host, "user", s.Username)
			}
			t.Buffer.PushMultiple(banner)
		}
	}

	if t.opts.OnDispatch != nil {
		t.opts.OnDispatch(res)
	}
	return res
}

// Interrupt abandons the current input line.
func (t *Terminal) Interrupt() {
	t.Buffer.PushMultiple([]string{"^C", ""})
}

func (t *Terminal) ClearScreen() {
	t.Buffer.Clear()
}

var commonCommands = []string{
	"",
	"Common commands:",
	"  help        - Show available commands",
	"  ls          - List directory contents",
	"  cd          - Change directory",
	"  cat         - Display file contents",
	"  ssh         - Connect to remote server",
	"",
}

// Complete handles Tab for input and returns the new input line. A single
// matching command completes in place; otherwise candidates or hints are
// printed and input is returned unchanged.
func (t *Terminal) Complete(input string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.passwordMode {
		return input
	}
	if input == "" {
		t.Buffer.PushMultiple(commonCommands)
		return input
	}

	k := t.local
	if _, ok := t.Sessions.Get().(session.SSHShell); ok {
		k = t.remote
	}
	var visible []kernel.Command
	for _, cmd := range k.List(kernel.EnvAny) {
		if !cmd.Hidden {
			visible = append(visible, cmd)
		}
	}
	var matches []kernel.Command
	for _, cmd := range visible {
		if strings.HasPrefix(cmd.Name, input) {
			matches = append(matches, cmd)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].Name
	case 0:
		names := make([]string, 0, 5)
		for i := 0; i < len(visible) && i < 5; i++ {
			names = append(names, visible[i].Name)
		}
		t.Buffer.PushMultiple([]string{
			"",
			fmt.Sprintf("No commands starting with %q. Try: %s", input, strings.Join(names, ", ")),
			"",
		})
	default:
		lines := []string{"", "Available commands:"}
		for _, cmd := range matches {
			lines = append(lines, fmt.Sprintf("  %-12s - %s", cmd.Name, cmd.Summary))
		}
		lines = append(lines, "")
		t.Buffer.PushMultiple(lines)
	}
	return input
}

// HistoryPrevious recalls an older command. ok is false when there is
// nothing to recall or input is masked.
func (t *Terminal) HistoryPrevious() (string, bool) {
	if t.PasswordMode() {
		return "", false
	}
	return t.History.Previous()
}

func (t *Terminal) HistoryNext() (string, bool) {
	if t.PasswordMode() {
		return "", false
	}
	return t.History.Next()
}

// Escape leaves an active interactive mode, or else closes the terminal. It
// reports whether the terminal closed.
func (t *Terminal) Escape() bool {
	t.mu.Lock()
	if _, active := t.local.ActiveMode(); active {
		t.local.Reset()
		t.Buffer.PushMultiple([]string{"", "Interactive mode exited. Press ESC again to close terminal."})
		t.mu.Unlock()
		return false
	}
	t.mu.Unlock()

	t.Shell.SetMachine(shell.MachineIdle)
	t.Close()
	return true
}

// SendKey delivers a single key to the active interactive mode without echo
// or history. It reports whether a mode consumed the key.
func (t *Terminal) SendKey(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, active := t.local.ActiveMode(); !active {
		return false
	}
	res := t.local.Run(t.ctx, key, t.Shell.Context().Environment())
	return res.Status == kernel.StatusInteractive
}

// InteractiveMode returns the name of the active interactive mode.
func (t *Terminal) InteractiveMode() (string, bool) {
	return t.local.ActiveMode()
}

func (t *Terminal) Prompt() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.promptLocked()
}

func (t *Terminal) promptLocked() string {
	switch s := t.Sessions.Get().(type) {
	case session.SSHUsername:
		return "login: "
	case session.SSHPassword:
		return "password: "
	case session.SSHShell:
		return fmt.Sprintf("%s@%s:%s$ ", s.Username, s.Host, s.Cwd)
	}
	if t.Shell.Context() == shell.ContextEngineer {
		return "enes@engineer:~$ "
	}
	return "enes@local:~$ "
}

// PasswordMode reports whether input should be masked.
func (t *Terminal) PasswordMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.passwordMode
}

// Close stops background work such as delayed output and games.
func (t *Terminal) Close() {
	t.closeOnce.Do(func() {
		t.local.Reset()
		t.cancel()
		t.logger.Info("terminal closed")
		if t.opts.OnClose != nil {
			t.opts.OnClose()
		}
	})
}

// Done is closed once the terminal has been closed.
func (t *Terminal) Done() <-chan struct{} {
	return t.ctx.Done()
}
