package components

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/logdesk/internal/common"
)

// DetailViewer represents a detailed view of a single record
type DetailViewer struct {
	Title   string
	Content []DetailSection
	Width   int
	Frame   lipgloss.Style
	Header  lipgloss.Style
	Section lipgloss.Style
}

// DetailSection represents a section in the detail view
type DetailSection struct {
	Title   string
	Content []string
}

// NewDetailViewer creates a new detail viewer
func NewDetailViewer(title string, width int) *DetailViewer {
	return &DetailViewer{
		Title:   title,
		Width:   width,
		Frame:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Header:  lipgloss.NewStyle().Bold(true),
		Section: lipgloss.NewStyle().Bold(true),
	}
}

// NewRecordDetail builds a viewer with the fields, message and data of r
func NewRecordDetail(r common.LogRecord, timeFormat string, width int) *DetailViewer {
	d := NewDetailViewer("Record "+r.ID, width)

	fields := []string{
		"Time:    " + r.Time().Format(timeFormat),
		"Level:   " + r.Level,
	}
	if r.Module != "" {
		fields = append(fields, "Module:  "+r.Module)
	}
	if r.Process != "" {
		fields = append(fields, "Process: "+r.Process)
	}
	d.AddSection(DetailSection{Title: "Fields", Content: fields})
	d.AddSection(DetailSection{Title: "Message", Content: strings.Split(r.Message, "\n")})

	if len(r.Data) > 0 {
		keys := make([]string, 0, len(r.Data))
		for k := range r.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		data := make([]string, 0, len(keys))
		for _, k := range keys {
			data = append(data, k+" = "+r.Data[k])
		}
		d.AddSection(DetailSection{Title: "Data", Content: data})
	}
	return d
}

// AddSection adds a section to the detail view
func (d *DetailViewer) AddSection(section DetailSection) {
	d.Content = append(d.Content, section)
}

// Render renders the detail viewer
func (d *DetailViewer) Render() string {
	content := make([]string, 0, len(d.Content)*3+2)
	content = append(content, d.Header.Render(d.Title), "")

	for i, section := range d.Content {
		content = append(content, d.Section.Render(section.Title))
		for _, line := range section.Content {
			content = append(content, "  "+line)
		}
		if i < len(d.Content)-1 {
			content = append(content, "")
		}
	}

	frame := d.Frame
	if d.Width > 4 {
		frame = frame.Width(d.Width - 2)
	}
	return frame.Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}
