package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skncr-ai/scanner/internal/session"
)

// Pipeline is the part of a session.Machine the mirror drives
type Pipeline[T any] interface {
	Start(ctx context.Context) error
	Capture(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
	Snapshot() session.Snapshot[T]
	Subscribe(fn func(session.Snapshot[T])) (unsubscribe func())
}

type snapshotMsg[T any] struct {
	snapshot session.Snapshot[T]
}

type commandMsg struct {
	name string
	err  error
}

// Model is a live view of one pipeline. Space or enter captures, r resets and q quits.
type Model[T any] struct {
	title    string
	pipeline Pipeline[T]
	render   func(*T) string

	// updates carries a wake-up, not a snapshot; the model always reads the latest one
	updates     chan struct{}
	unsubscribe func()

	snapshot session.Snapshot[T]
	status   string
	width    int
}

// New subscribes to the pipeline. The pipeline is started by Init and closed on quit.
func New[T any](title string, p Pipeline[T], render func(*T) string) Model[T] {
	updates := make(chan struct{}, 1)
	unsubscribe := p.Subscribe(func(session.Snapshot[T]) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	return Model[T]{
		title:       title,
		pipeline:    p,
		render:      render,
		updates:     updates,
		unsubscribe: unsubscribe,
		snapshot:    p.Snapshot(),
	}
}

func (m Model[T]) Init() tea.Cmd {
	return tea.Batch(m.command("start", m.pipeline.Start), m.wait())
}

func (m Model[T]) wait() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.updates; !ok {
			return nil
		}
		return snapshotMsg[T]{snapshot: m.pipeline.Snapshot()}
	}
}

func (m Model[T]) command(name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return commandMsg{name: name, err: fn(context.Background())}
	}
}

func (m Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case snapshotMsg[T]:
		m.snapshot = msg.snapshot
		if m.snapshot.Closed {
			return m, nil
		}
		return m, m.wait()

	case commandMsg:
		switch {
		case msg.err == nil:
			m.status = ""
		case errors.Is(msg.err, session.ErrInvalidState):
			m.status = fmt.Sprintf("can't %s while %s", msg.name, m.snapshot.State)
		default:
			m.status = msg.name + ": " + msg.err.Error()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.unsubscribe()
			_ = m.pipeline.Close()
			return m, tea.Quit
		case " ", "enter":
			return m, m.command("capture", m.pipeline.Capture)
		case "r":
			return m, m.command("reset", m.pipeline.Reset)
		}
	}
	return m, nil
}

func (m Model[T]) View() string {
	s := m.snapshot

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		Title.Render(m.title), " ", StateStyle(s.State).Render(s.State.String()))

	var body string
	switch s.State {
	case session.Idle:
		body = Muted.Render("Starting camera...")
		if s.Closed {
			body = Muted.Render("Closed.")
		}
	case session.Streaming:
		body = "Camera live. Press space to capture."
	case session.Captured, session.Analyzing:
		body = fmt.Sprintf("Analyzing %d KB still...", (s.ImageBytes+1023)/1024)
	case session.Succeeded:
		body = strings.TrimRight(m.render(s.Result), "\n")
	case session.Failed:
		if f := s.Failure; f != nil {
			body = StateStyle(session.Failed).Render(string(f.Kind)) + "\n" + f.Message
		}
		body += "\n" + Muted.Render("Press r to try again.")
	}

	pane := Pane
	if m.width > 4 {
		pane = pane.Width(m.width - 2)
	}

	footer := Muted.Render("space capture • r reset • q quit")
	if m.status != "" {
		footer = StateStyle(session.Failed).Render(m.status) + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, pane.Render(body), footer) + "\n"
}
