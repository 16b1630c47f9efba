package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/yildizm/logdesk/internal/common"
)

// TableStyles holds the styles a RecordTable renders with
type TableStyles struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	// Level colors a level name; nil leaves it plain
	Level func(level string) string
}

// RecordTable renders one page of records with a selection cursor
type RecordTable struct {
	Records    []common.LogRecord
	Selected   int
	Width      int
	Height     int
	TimeFormat string
	Styles     TableStyles
}

const (
	timeWidth    = 19
	levelWidth   = 5
	moduleWidth  = 14
	processWidth = 10
	minMessage   = 10
)

// NewRecordTable creates a table sized to width x height rows
func NewRecordTable(records []common.LogRecord, width, height int) *RecordTable {
	return &RecordTable{
		Records:    records,
		Width:      width,
		Height:     height,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// window returns the slice of rows to show so that Selected stays visible
func (t *RecordTable) window() (start, end int) {
	rows := t.Height
	if rows <= 0 || rows >= len(t.Records) {
		return 0, len(t.Records)
	}
	start = t.Selected - rows/2
	if start < 0 {
		start = 0
	}
	end = start + rows
	if end > len(t.Records) {
		end = len(t.Records)
		start = end - rows
	}
	return start, end
}

// Render renders the header and visible rows
func (t *RecordTable) Render() string {
	msgWidth := t.Width - timeWidth - levelWidth - moduleWidth - processWidth - 6
	if msgWidth < minMessage {
		msgWidth = minMessage
	}

	header := fmt.Sprintf("  %-*s %-*s %-*s %-*s %s",
		timeWidth, "TIME", levelWidth, "LEVEL", moduleWidth, "MODULE", processWidth, "PROCESS", "MESSAGE")

	if len(t.Records) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			t.Styles.Header.Render(header),
			t.Styles.Muted.Render("  No records"))
	}

	start, end := t.window()
	lines := make([]string, 0, end-start+1)
	lines = append(lines, t.Styles.Header.Render(header))

	for i := start; i < end; i++ {
		r := t.Records[i]
		prefix := "  "
		if i == t.Selected {
			prefix = "▶ "
		}

		level := fmt.Sprintf("%-*s", levelWidth, Truncate(r.Level, levelWidth))
		if i != t.Selected && t.Styles.Level != nil {
			level = t.Styles.Level(level)
		}

		row := fmt.Sprintf("%s%-*s %s %-*s %-*s %s",
			prefix,
			timeWidth, Truncate(r.Time().Format(t.TimeFormat), timeWidth),
			level,
			moduleWidth, Truncate(r.Module, moduleWidth),
			processWidth, Truncate(r.Process, processWidth),
			Truncate(firstLine(r.Message), msgWidth))

		if i == t.Selected {
			lines = append(lines, t.Styles.Selected.Render(row))
		} else {
			lines = append(lines, t.Styles.Row.Render(row))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Truncate shortens s to width display cells, marking the cut with an ellipsis
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "…")
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
