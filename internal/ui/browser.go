package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/emoji"
	"github.com/yildizm/logdesk/internal/query"
	"github.com/yildizm/logdesk/internal/ui/components"
)

// mode is the input mode of the browser
type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeConfirmClear
	modeHelp
)

// Options configures the browser
type Options struct {
	Theme       Theme
	Color       bool
	TimeFormat  string
	AutoRefresh time.Duration
	ExportPath  string
}

// Model is the bubbletea model for the record browser
type Model struct {
	ctx   context.Context
	store *query.Store
	opts  Options

	styles *Styles
	state  query.State

	width  int
	height int
	cursor int
	mode   mode
	input  textinput.Model

	autoRefresh bool
	status      string
	statusErr   bool
	quitting    bool
}

// NewModel creates a browser over store
func NewModel(ctx context.Context, store *query.Store, opts Options) *Model {
	if opts.TimeFormat == "" {
		opts.TimeFormat = "2006-01-02 15:04:05"
	}
	if opts.Theme.Name == "" {
		opts.Theme = DefaultTheme
	}
	styles := NewStyles(opts.Theme, opts.Color && !IsColorDisabled())

	input := textinput.New()
	input.Prompt = "/"
	input.PromptStyle = styles.Prompt
	input.Placeholder = "keyword"
	input.CharLimit = 256
	input.Cursor.SetMode(cursor.CursorStatic)

	return &Model{
		ctx:         ctx,
		store:       store,
		opts:        opts,
		styles:      styles,
		state:       store.Snapshot(),
		width:       120,
		height:      30,
		input:       input,
		autoRefresh: opts.AutoRefresh > 0,
	}
}

// Init loads the first page, stats and modules
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshCmd(m.ctx, m.store)}
	if m.autoRefresh {
		cmds = append(cmds, autoRefreshTick(m.opts.AutoRefresh))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and navigation
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case storeChangedMsg:
		m.sync()
		return m, nil
	case fetchDoneMsg:
		return m.handleFetchDone(msg)
	case clearDoneMsg:
		return m.handleClearDone(msg)
	case exportDoneMsg:
		return m.handleExportDone(msg)
	case autoRefreshMsg:
		return m.handleAutoRefresh()
	}
	return m, nil
}

// sync re-reads the store and keeps the cursor on the page
func (m *Model) sync() {
	m.state = m.store.Snapshot()
	if m.cursor >= len(m.state.Records) {
		m.cursor = max(0, len(m.state.Records)-1)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// handleKeyPress routes keys by mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.handleQuit()
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeConfirmClear:
		return m.handleConfirmKey(msg)
	case modeHelp:
		m.mode = modeBrowse
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m.handleQuit()
	case "?":
		m.mode = modeHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Records)-1 {
			m.cursor++
		}
	case "right", "n", "pgdown":
		return m, m.gotoPage(m.state.Page + 1)
	case "left", "p", "pgup":
		return m, m.gotoPage(m.state.Page - 1)
	case "home", "g":
		return m, m.gotoPage(1)
	case "end", "G":
		return m, m.gotoPage(max(1, m.state.TotalPages))
	case "enter":
		return m.handleSelect()
	case "esc":
		m.store.SetDetailOpen(false)
		m.sync()
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.state.Filters.Keyword)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "l":
		return m, m.cycleLevel()
	case "s":
		return m, m.toggleSort()
	case "r":
		m.setStatus(emoji.GetEmoji("refresh")+" Refreshing", false)
		return m, refreshCmd(m.ctx, m.store)
	case "a":
		return m.toggleAutoRefresh()
	case "c":
		m.mode = modeConfirmClear
	case "x":
		m.setStatus(emoji.GetEmoji("export")+" Exporting", false)
		return m, exportCmd(m.ctx, m.store, m.opts.ExportPath)
	}
	return m, nil
}

func (m *Model) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// handleSelect toggles the detail pane for the record under the cursor
func (m *Model) handleSelect() (tea.Model, tea.Cmd) {
	if len(m.state.Records) == 0 {
		return m, nil
	}
	current := m.state.Records[m.cursor]
	if open, ok := m.state.Detail.Record(); ok && open.ID == current.ID {
		m.store.SetDetailOpen(false)
	} else {
		m.store.SetSelectedRecord(&current)
	}
	m.sync()
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeBrowse
		keyword := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.input.Reset()
		m.cursor = 0
		return m, storeCmd("search", func() error {
			return m.store.SetFilters(m.ctx, query.WithKeyword(keyword))
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	if msg.String() != "y" && msg.String() != "Y" {
		m.setStatus("Clear cancelled", false)
		return m, nil
	}
	m.setStatus(emoji.GetEmoji("clear")+" Clearing", false)
	return m, clearCmd(m.ctx, m.store)
}

func (m *Model) gotoPage(page int) tea.Cmd {
	if page < 1 || page == m.state.Page || (m.state.TotalPages > 0 && page > m.state.TotalPages) {
		return nil
	}
	m.cursor = 0
	return storeCmd("page", func() error { return m.store.SetPage(m.ctx, page) })
}

// cycleLevel steps the level filter through all, FATAL, ERROR, WARN, INFO, DEBUG
func (m *Model) cycleLevel() tea.Cmd {
	levels := common.Levels()
	current := ""
	if len(m.state.Filters.Level) == 1 {
		current = m.state.Filters.Level[0]
	}

	var next []string
	switch current {
	case "":
		next = []string{levels[len(levels)-1]}
	default:
		for i := len(levels) - 1; i > 0; i-- {
			if levels[i] == current {
				next = []string{levels[i-1]}
			}
		}
	}

	m.cursor = 0
	return storeCmd("level", func() error {
		return m.store.SetFilters(m.ctx, query.WithLevels(next...))
	})
}

func (m *Model) toggleSort() tea.Cmd {
	order := backend.SortAsc
	if m.state.SortOrder == backend.SortAsc {
		order = backend.SortDesc
	}
	m.cursor = 0
	return storeCmd("sort", func() error { return m.store.SetSortOrder(m.ctx, order) })
}

func (m *Model) toggleAutoRefresh() (tea.Model, tea.Cmd) {
	if m.opts.AutoRefresh <= 0 {
		m.setStatus("Auto-refresh interval not configured", true)
		return m, nil
	}
	m.autoRefresh = !m.autoRefresh
	if !m.autoRefresh {
		m.setStatus("Auto-refresh off", false)
		return m, nil
	}
	m.setStatus(fmt.Sprintf("Auto-refresh every %s", m.opts.AutoRefresh), false)
	return m, autoRefreshTick(m.opts.AutoRefresh)
}

func (m *Model) handleAutoRefresh() (tea.Model, tea.Cmd) {
	if !m.autoRefresh {
		return m, nil
	}
	return m, tea.Batch(refreshCmd(m.ctx, m.store), autoRefreshTick(m.opts.AutoRefresh))
}

func (m *Model) handleFetchDone(msg fetchDoneMsg) (tea.Model, tea.Cmd) {
	m.sync()
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("%s %s failed: %v", emoji.GetEmoji("error"), msg.op, msg.err), true)
		return m, nil
	}
	if msg.op == "refresh" {
		m.setStatus("", false)
	}
	return m, nil
}

func (m *Model) handleClearDone(msg clearDoneMsg) (tea.Model, tea.Cmd) {
	m.sync()
	switch {
	case msg.err != nil:
		m.setStatus(fmt.Sprintf("%s Clear failed: %v", emoji.GetEmoji("error"), msg.err), true)
	case !msg.result.Success:
		m.setStatus(fmt.Sprintf("%s Clear failed: %s", emoji.GetEmoji("error"), msg.result.Error), true)
	default:
		m.cursor = 0
		m.setStatus(emoji.GetEmoji("success")+" Logs cleared", false)
	}
	return m, nil
}

func (m *Model) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		m.setStatus(fmt.Sprintf("%s Export failed: %v", emoji.GetEmoji("error"), msg.err), true)
	case !msg.result.Success:
		m.setStatus(fmt.Sprintf("%s Export failed: %s", emoji.GetEmoji("error"), msg.result.Error), true)
	default:
		m.setStatus(fmt.Sprintf("%s Exported %d records to %s", emoji.GetEmoji("success"), msg.result.Count, msg.result.FilePath), false)
	}
	return m, nil
}

// View renders the browser
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.mode == modeHelp {
		return m.renderHelp()
	}

	sections := []string{m.renderTitle(), m.renderStats(), ""}

	detail := ""
	if r, ok := m.state.Detail.Record(); ok {
		detail = components.NewRecordDetail(r, m.opts.TimeFormat, m.width).Render()
	}

	tableHeight := m.height - 7
	if detail != "" {
		tableHeight -= lipgloss.Height(detail)
	}
	sections = append(sections, m.renderTable(max(3, tableHeight)))
	if detail != "" {
		sections = append(sections, detail)
	}
	sections = append(sections, "", m.renderStatus(), m.renderKeys())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	title := m.styles.Title.Render(emoji.GetEmoji("rocket") + " logdesk")

	pages := max(1, m.state.TotalPages)
	level := "ALL"
	if len(m.state.Filters.Level) > 0 {
		level = strings.Join(m.state.Filters.Level, ",")
	}
	info := fmt.Sprintf("page %d/%d • %d records • sort %s • level %s",
		m.state.Page, pages, m.state.Total, m.state.SortOrder, level)
	if m.state.Filters.Keyword != "" {
		info += fmt.Sprintf(" • %s %q", emoji.GetEmoji("search"), m.state.Filters.Keyword)
	}
	if m.autoRefresh {
		info += " • " + emoji.GetEmoji("refresh") + " auto"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", m.styles.Muted.Render(info))
}

func (m *Model) renderStats() string {
	bar := components.NewStatsBar(m.state.Stats)
	bar.Label = m.styles.Muted
	bar.Value = m.styles.Body
	bar.Alert = m.styles.Error
	bar.Spark = m.styles.Success
	return " " + bar.Render()
}

func (m *Model) renderTable(height int) string {
	table := components.NewRecordTable(m.state.Records, m.width, height)
	table.Selected = m.cursor
	table.TimeFormat = m.opts.TimeFormat
	table.Styles = components.TableStyles{
		Header:   m.styles.Header,
		Row:      m.styles.Row,
		Selected: m.styles.Selected,
		Muted:    m.styles.Muted,
		Level:    m.styles.Level,
	}
	return table.Render()
}

// renderStatus shows the prompt, loading state, last error or the latest message
func (m *Model) renderStatus() string {
	switch {
	case m.mode == modeSearch:
		return m.input.View()
	case m.mode == modeConfirmClear:
		return m.styles.Error.Render("Delete all stored logs? (y/N)")
	case m.state.Loading:
		return m.styles.Status.Render("Loading…")
	case m.statusErr && m.status != "":
		return m.styles.Error.Render(m.status)
	case m.state.LastError != nil:
		return m.styles.Error.Render(fmt.Sprintf("%s %v", emoji.GetEmoji("error"), m.state.LastError))
	default:
		return m.styles.Status.Render(m.status)
	}
}

func (m *Model) renderKeys() string {
	return m.styles.Muted.Render("↑↓ move • ←→ page • enter detail • / search • l level • s sort • r refresh • a auto • x export • c clear • ? help • q quit")
}

func (m *Model) renderHelp() string {
	rows := [][2]string{
		{"↑/k ↓/j", "Move the cursor"},
		{"←/p →/n", "Previous / next page"},
		{"g G", "First / last page"},
		{"enter", "Open or close the record detail"},
		{"esc", "Close the detail pane"},
		{"/", "Search message, module and data"},
		{"l", "Cycle level filter"},
		{"s", "Toggle sort order"},
		{"r", "Refresh records, stats and modules"},
		{"a", "Toggle auto-refresh"},
		{"x", "Export the filtered records"},
		{"c", "Clear all stored logs"},
		{"q", "Quit"},
	}

	lines := []string{m.styles.Title.Render(emoji.GetEmoji("help") + " Keys"), ""}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("  %-10s %s", r[0], r[1]))
	}
	lines = append(lines, "", m.styles.Muted.Render("Press any key to go back"))
	return m.styles.Frame.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Run starts the browser and blocks until the user quits.
// notifier may be nil; when set, store changes repaint the screen as they happen.
func Run(ctx context.Context, store *query.Store, notifier *Notifier, opts Options) error {
	model := NewModel(ctx, store, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if notifier != nil {
		notifier.attach(p)
		defer notifier.attach(nil)
	}
	_, err := p.Run()
	return err
}
