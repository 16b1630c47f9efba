package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/worker"
)

const maxBreakdownRows = 10

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts       *termfmt.TerminalOptions
	timeFormat string
}

// NewTerminal creates a new terminal formatter
func NewTerminal(o Options) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = o.Color
	opts.Emoji = o.Emoji
	timeFormat := o.TimestampFormat
	if timeFormat == "" {
		timeFormat = DefaultTimestampFormat
	}
	return &terminalFormatter{opts: opts, timeFormat: timeFormat}
}

func (f *terminalFormatter) FormatRecords(res backend.QueryResult) ([]byte, error) {
	var b strings.Builder

	pages := res.TotalPages
	if pages < 1 {
		pages = 1
	}
	symbol := termfmt.GetEmoji("pattern", f.opts)
	fmt.Fprintf(&b, "%s Records: page %d/%d, %s total\n\n", symbol, res.Page, pages, formatNumber(res.Total))

	if len(res.Records) == 0 {
		b.WriteString("No records match the current filters.\n")
		return []byte(b.String()), nil
	}

	for _, r := range res.Records {
		b.WriteString(f.recordLine(r))
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// recordLine renders one record as "time LEVEL [module/process] message"
func (f *terminalFormatter) recordLine(r common.LogRecord) string {
	var b strings.Builder
	b.WriteString(r.Time().Format(f.timeFormat))
	b.WriteString(" ")
	b.WriteString(getLevelEmoji(r.LogLevel(), f.opts))
	fmt.Fprintf(&b, " %-5s", r.Level)

	switch {
	case r.Module != "" && r.Process != "":
		fmt.Fprintf(&b, " [%s/%s]", r.Module, r.Process)
	case r.Module != "":
		fmt.Fprintf(&b, " [%s]", r.Module)
	case r.Process != "":
		fmt.Fprintf(&b, " [%s]", r.Process)
	}

	b.WriteString(" ")
	b.WriteString(r.Message)

	if len(r.Data) > 0 {
		b.WriteString(" ")
		b.WriteString(formatData(r.Data))
	}
	return b.String()
}

func (f *terminalFormatter) FormatStats(stats backend.LogStats) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b, "Log Statistics")

	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " Overview\n")

	errors := stats.ByLevel["ERROR"] + stats.ByLevel["FATAL"]
	errorRate := 0.0
	if stats.Total > 0 {
		errorRate = float64(errors) / float64(stats.Total) * 100
	}
	items := []termfmt.TreeItem{
		{Label: "Total Records", Value: formatNumber(stats.Total)},
		{Label: "Errors", Value: fmt.Sprintf("%d (%.1f%%)", errors, errorRate)},
		{Label: "Recent Errors", Value: formatNumber(stats.RecentErrors), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")

	f.writeBreakdown(&b, "By Level", stats.ByLevel, levelOrder)
	f.writeBreakdown(&b, "By Module", stats.ByModule, byCount)
	f.writeBreakdown(&b, "By Process", stats.ByProcess, byCount)
	f.writeHourly(&b, stats.Hourly)

	return []byte(b.String()), nil
}

// writeBreakdown writes one count map as a tree, at most maxBreakdownRows entries
func (f *terminalFormatter) writeBreakdown(b *strings.Builder, title string, counts map[string]int, order func(map[string]int) []string) {
	if len(counts) == 0 {
		return
	}

	b.WriteString(termfmt.GetEmoji("info", f.opts) + " " + title + "\n")

	keys := order(counts)
	if len(keys) > maxBreakdownRows {
		keys = keys[:maxBreakdownRows]
	}
	items := make([]termfmt.TreeItem, 0, len(keys))
	for i, k := range keys {
		items = append(items, termfmt.TreeItem{
			Label: k,
			Value: formatNumber(counts[k]),
			Last:  i == len(keys)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeHourly writes the hourly histogram as a one-line sparkline
func (f *terminalFormatter) writeHourly(b *strings.Builder, buckets []backend.HourlyBucket) {
	if len(buckets) == 0 {
		return
	}

	total, errs := 0, 0
	for _, bucket := range buckets {
		total += bucket.Count
		errs += bucket.Errors
	}

	b.WriteString(termfmt.GetEmoji("statistics", f.opts) + " Last 24 Hours\n")
	fmt.Fprintf(b, "%s  %d records, %d errors\n", sparkline(buckets), total, errs)
}

func (f *terminalFormatter) FormatModules(modules []string) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Modules (%d)\n", termfmt.GetEmoji("pattern", f.opts), len(modules))
	if len(modules) == 0 {
		return []byte(b.String()), nil
	}

	items := make([]termfmt.TreeItem, 0, len(modules))
	for i, m := range modules {
		items = append(items, termfmt.TreeItem{Label: m, Last: i == len(modules)-1})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	return []byte(b.String()), nil
}

func (f *terminalFormatter) FormatLines(res worker.Result) ([]byte, error) {
	var b strings.Builder
	for _, line := range res.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%s lines", formatNumber(len(res.Lines)))
	if res.FilteredCount > 0 || (len(res.Lines) == 0 && res.TotalLines > 0) {
		summary = fmt.Sprintf("%s of %s lines match", formatNumber(res.FilteredCount), formatNumber(res.TotalLines))
	}
	b.WriteString(termfmt.GetEmoji("statistics", f.opts) + " " + summary + "\n")
	return []byte(b.String()), nil
}

// writeHeader writes a header with box drawing
func (f *terminalFormatter) writeHeader(b *strings.Builder, header string) {
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

// levelOrder sorts level names by severity, unknown names last
func levelOrder(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := common.ParseLogLevel(keys[i]), common.ParseLogLevel(keys[j])
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// byCount sorts keys by descending count, then by name
func byCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
