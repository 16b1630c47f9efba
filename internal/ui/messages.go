package ui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/query"
)

// storeChangedMsg signals that the store state moved; the model re-reads the snapshot
type storeChangedMsg struct{}

// fetchDoneMsg reports the end of a store operation; the model re-reads the snapshot
type fetchDoneMsg struct {
	op  string
	err error
}

type clearDoneMsg struct {
	result backend.ClearResult
	err    error
}

type exportDoneMsg struct {
	result backend.ExportResult
	err    error
}

type autoRefreshMsg time.Time

// storeCmd runs fn against the store off the UI goroutine
func storeCmd(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{op: op, err: fn()}
	}
}

func refreshCmd(ctx context.Context, s *query.Store) tea.Cmd {
	return storeCmd("refresh", func() error { return s.Refresh(ctx) })
}

func clearCmd(ctx context.Context, s *query.Store) tea.Cmd {
	return func() tea.Msg {
		res, err := s.ClearLogs(ctx)
		return clearDoneMsg{result: res, err: err}
	}
}

func exportCmd(ctx context.Context, s *query.Store, path string) tea.Cmd {
	return func() tea.Msg {
		res, err := s.ExportLogs(ctx, path)
		return exportDoneMsg{result: res, err: err}
	}
}

func autoRefreshTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return autoRefreshMsg(t)
	})
}

// Notifier forwards store changes into a running program.
// Pass its OnChange to query.Options before the program starts.
type Notifier struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewNotifier returns a notifier with no program attached
func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnChange wakes the attached program, if any
func (n *Notifier) OnChange(query.State) {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p != nil {
		go p.Send(storeChangedMsg{})
	}
}

func (n *Notifier) attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	n.mu.Unlock()
}
