// Package tui is the interactive chat console for the hostel assistant.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tanmayyjais/hostelMate-frontend/internal/assistant"
	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

// Conversation is the part of assistant.Conversation the console drives.
type Conversation interface {
	Snapshot() assistant.Snapshot
	Submit(ctx context.Context, text string) (<-chan struct{}, error)
	Clear(ctx context.Context) error
}

// header, blank line, status, input, help
const chromeLines = 5

type snapshotMsg assistant.Snapshot

type errMsg struct{ err error }

// Model is the bubbletea model of the chat console.
type Model struct {
	ctx      context.Context
	conv     Conversation
	greeting assistant.Greeting
	title    string
	keys     KeyMap
	theme    Theme
	now      func() time.Time
	loc      *time.Location

	// changed is signalled by Notify; capacity one coalesces bursts.
	changed chan struct{}

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model

	snap   assistant.Snapshot
	status string
	failed bool
	width  int
	ready  bool
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithClock sets the time source and zone used for date separators.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(m *Model) {
		m.now = now
		m.loc = loc
	}
}

// NewModel creates a console bound to conv.
func NewModel(ctx context.Context, conv Conversation, opts ...Option) Model {
	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.CharLimit = domain.MaxUserMessageLength
	in.Prompt = "› "
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:      ctx,
		conv:     conv,
		greeting: assistant.DefaultGreeting,
		title:    "College Assistant",
		keys:     DefaultKeyMap(),
		theme:    DefaultTheme(),
		now:      time.Now,
		loc:      time.Local,
		changed:  make(chan struct{}, 1),
		input:    in,
		spinner:  sp,
		help:     help.New(),
		snap:     conv.Snapshot(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Notify is an assistant observer. It never blocks.
func (m Model) Notify(assistant.Snapshot) {
	select {
	case m.changed <- struct{}{}:
	default:
	}
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changed:
			return snapshotMsg(m.conv.Snapshot())
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForChange()}
	if m.snap.Pending {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		height := max(msg.Height-chromeLines, 3)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()

	case snapshotMsg:
		wasPending := m.snap.Pending
		m.snap = assistant.Snapshot(msg)
		m.refresh()
		cmds = append(cmds, m.waitForChange())
		if m.snap.Pending && !wasPending {
			cmds = append(cmds, m.spinner.Tick)
		}

	case errMsg:
		m.setStatus(domain.UserMessage(msg.err), true)

	case spinner.TickMsg:
		if m.snap.Pending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refresh()
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Clear):
			m.setStatus("", false)
			return m, m.clear()

		case key.Matches(msg, m.keys.Suggest):
			if m.snap.ShowGreeting && m.input.Value() == "" {
				m.input.SetValue(m.greeting.Suggestion)
				m.input.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, m.keys.Send):
			cmd := m.send()
			return m, cmd

		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) send() tea.Cmd {
	_, err := m.conv.Submit(m.ctx, m.input.Value())
	switch {
	case errors.Is(err, assistant.ErrTurnPending):
		m.setStatus("Please wait for the assistant to reply.", false)
		return nil
	case errors.Is(err, assistant.ErrEmptyMessage):
		return nil
	case errors.Is(err, assistant.ErrMessageTooLong):
		m.setStatus(err.Error(), true)
		return nil
	case err != nil:
		m.setStatus(domain.UserMessage(err), true)
		return nil
	}

	m.input.Reset()
	m.setStatus("", false)
	m.snap = m.conv.Snapshot()
	m.refresh()
	return m.spinner.Tick
}

func (m Model) clear() tea.Cmd {
	return func() tea.Msg {
		if err := m.conv.Clear(m.ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder

	if m.snap.ShowGreeting {
		b.WriteString(m.theme.Greeting.Render(lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render(m.greeting.Title),
			m.greeting.Text,
			"",
			m.theme.Suggestion.Render("Try: "+m.greeting.Suggestion),
		)))
		b.WriteString("\n")
	}

	bubbleWidth := max(m.width*3/4, 20)
	for _, row := range assistant.Layout(m.snap.Messages, m.now(), m.loc) {
		if row.DateLabel != "" {
			b.WriteString("\n")
			b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center,
				m.theme.Separator.Render("── "+row.DateLabel+" ──")))
			b.WriteString("\n")
		}
		b.WriteString(m.renderRow(row, bubbleWidth))
		b.WriteString("\n")
	}

	if m.snap.Pending {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.Typing.Render(" Assistant is typing..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(row assistant.Row, bubbleWidth int) string {
	user := row.Message.Sender == domain.SenderUser

	style, align, sender := m.theme.BotBubble, lipgloss.Left, "Assistant"
	if user {
		style, align, sender = m.theme.UserBubble, lipgloss.Right, "You"
	}
	if lipgloss.Width(row.Message.Text) > bubbleWidth {
		style = style.Width(bubbleWidth)
	}

	parts := make([]string, 0, 3)
	if row.GroupStart {
		parts = append(parts, m.theme.Sender.Render(sender))
	}
	parts = append(parts, style.Render(row.Message.Text), m.theme.Timestamp.Render(row.Time))

	block := lipgloss.JoinVertical(align, parts...)
	return lipgloss.PlaceHorizontal(m.width, align, block)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.theme.Header.Render(m.title)

	status := m.theme.Status.Render(m.status)
	if m.failed {
		status = m.theme.Error.Render(m.status)
	}

	counter := m.theme.Counter.Render(fmt.Sprintf("%d/%d", utf8.RuneCountInString(m.input.Value()), domain.MaxUserMessageLength))
	input := lipgloss.JoinHorizontal(lipgloss.Top, m.input.View(), " ", counter)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		"",
		status,
		input,
		m.help.View(m.keys),
	)
}

// Run starts the console for conv and blocks until the user quits or ctx
// ends.
func Run(ctx context.Context, conv *assistant.Conversation, opts ...Option) error {
	m := NewModel(ctx, conv, opts...)
	unsubscribe := conv.Subscribe(m.Notify)
	defer unsubscribe()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
