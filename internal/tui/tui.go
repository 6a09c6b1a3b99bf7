// Package tui runs a terminal in the local console with bubbletea.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/enesbrtc/enes.codes/internal/buffer"
	"github.com/enesbrtc/enes.codes/internal/shell"
	"github.com/enesbrtc/enes.codes/internal/terminal"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7ee787"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0d1117")).
			Background(lipgloss.Color("#58a6ff")).
			Padding(0, 1)
	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0d1117")).
			Background(lipgloss.Color("#d29922")).
			Padding(0, 1)
)

type screenMsg []buffer.Line

type closedMsg struct{}

type Model struct {
	term     *terminal.Terminal
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	updates  chan []buffer.Line
	unsub    func()
	ready    bool
	closed   bool
}

func New(ctx context.Context, term *terminal.Terminal) *Model {
	in := textinput.New()
	in.Focus()
	in.Prompt = ""

	m := &Model{
		term:     term,
		ctx:      ctx,
		input:    in,
		viewport: viewport.New(80, 20),
		updates:  make(chan []buffer.Line, 1),
	}
	m.unsub = term.Buffer.Subscribe(m.publish)
	return m
}

// publish keeps only the newest snapshot for the UI goroutine.
func (m *Model) publish(lines []buffer.Line) {
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- lines:
	default:
	}
}

func (m *Model) waitForScreen() tea.Msg {
	select {
	case lines := <-m.updates:
		return screenMsg(lines)
	case <-m.term.Done():
		return closedMsg{}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.boot, m.waitForScreen)
}

func (m *Model) boot() tea.Msg {
	if err := m.term.Boot(m.ctx); err != nil {
		m.term.Buffer.Push("boot failed: " + err.Error())
	}
	return nil
}

var gameKeys = map[string]bool{
	"up": true, "down": true, "left": true, "right": true,
	"w": true, "a": true, "s": true, "d": true,
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.ready = true
		m.render(m.term.Buffer.Lines())
		return m, nil

	case screenMsg:
		m.render(msg)
		return m, m.waitForScreen

	case closedMsg:
		return m.quit()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if _, active := m.term.InteractiveMode(); active && gameKeys[key] {
		m.term.SendKey(key)
		return m, nil
	}

	switch key {
	case "esc":
		if m.term.Escape() {
			return m.quit()
		}
		return m, nil
	case "ctrl+d":
		m.term.Close()
		return m.quit()
	case "enter":
		line := m.input.Value()
		m.input.SetValue("")
		m.term.Submit(m.ctx, line)
		m.syncInput()
		return m, nil
	case "tab":
		m.input.SetValue(m.term.Complete(m.input.Value()))
		m.input.CursorEnd()
		return m, nil
	case "up":
		if text, ok := m.term.HistoryPrevious(); ok {
			m.input.SetValue(text)
			m.input.CursorEnd()
		}
		return m, nil
	case "down":
		text, _ := m.term.HistoryNext()
		m.input.SetValue(text)
		m.input.CursorEnd()
		return m, nil
	case "ctrl+c":
		m.input.SetValue("")
		m.term.Interrupt()
		return m, nil
	case "ctrl+l":
		m.term.ClearScreen()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) syncInput() {
	if m.term.PasswordMode() {
		m.input.EchoMode = textinput.EchoNone
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
}

func (m *Model) render(lines []buffer.Line) {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Content)
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if !m.closed {
		m.closed = true
		m.unsub()
	}
	return m, tea.Quit
}

func (m *Model) statusLine() string {
	snap := m.term.Shell.Snapshot()
	label := "local"
	switch snap.Context {
	case shell.ContextEngineer:
		label = "engineer"
	case shell.ContextSSH:
		label = "ssh " + m.term.Sessions.Get().Kind()
	}
	status := statusStyle.Render("enes.codes | " + label)
	if mode, ok := m.term.InteractiveMode(); ok {
		status += modeStyle.Render(mode + " | esc to quit")
	}
	return status
}

func (m *Model) View() string {
	if m.closed {
		return ""
	}
	return m.statusLine() + "\n" + m.viewport.View() + "\n" + promptStyle.Render(m.term.Prompt()) + m.input.View()
}

// Run drives term in the console until it closes.
func Run(ctx context.Context, term *terminal.Terminal) error {
	_, err := tea.NewProgram(New(ctx, term), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
