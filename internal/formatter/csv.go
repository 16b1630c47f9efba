package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/worker"
)

// csvFormatter formats records and counts as CSV
type csvFormatter struct {
	timeFormat string
}

// NewCSV creates a new CSV formatter
func NewCSV(timeFormat string) Formatter {
	if timeFormat == "" {
		timeFormat = DefaultTimestampFormat
	}
	return &csvFormatter{timeFormat: timeFormat}
}

func (f *csvFormatter) FormatRecords(res backend.QueryResult) ([]byte, error) {
	rows := make([][]string, 0, len(res.Records))
	for _, r := range res.Records {
		rows = append(rows, []string{
			r.ID,
			r.Time().Format(f.timeFormat),
			r.Level,
			r.Module,
			r.Process,
			escapeCSVString(r.Message),
			formatData(r.Data),
		})
	}
	return writeCSV([]string{"ID", "Timestamp", "Level", "Module", "Process", "Message", "Data"}, rows)
}

func (f *csvFormatter) FormatStats(stats backend.LogStats) ([]byte, error) {
	rows := [][]string{{"total", "", strconv.Itoa(stats.Total)}}
	rows = append(rows, []string{"recent_errors", "", strconv.Itoa(stats.RecentErrors)})
	for _, k := range levelOrder(stats.ByLevel) {
		rows = append(rows, []string{"level", k, strconv.Itoa(stats.ByLevel[k])})
	}
	for _, k := range byCount(stats.ByModule) {
		rows = append(rows, []string{"module", k, strconv.Itoa(stats.ByModule[k])})
	}
	for _, k := range byCount(stats.ByProcess) {
		rows = append(rows, []string{"process", k, strconv.Itoa(stats.ByProcess[k])})
	}
	for _, b := range stats.Hourly {
		hour := strconv.FormatInt(b.Hour, 10)
		rows = append(rows, []string{"hourly", hour, strconv.Itoa(b.Count)})
		rows = append(rows, []string{"hourly_errors", hour, strconv.Itoa(b.Errors)})
	}
	return writeCSV([]string{"Metric", "Key", "Count"}, rows)
}

func (f *csvFormatter) FormatModules(modules []string) ([]byte, error) {
	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, []string{m})
	}
	return writeCSV([]string{"Module"}, rows)
}

func (f *csvFormatter) FormatLines(res worker.Result) ([]byte, error) {
	rows := make([][]string, 0, len(res.Lines))
	for i, line := range res.Lines {
		rows = append(rows, []string{strconv.Itoa(i + 1), escapeCSVString(line)})
	}
	return writeCSV([]string{"Line", "Text"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return b.Bytes(), nil
}

// escapeCSVString flattens embedded line breaks so each record stays on one row
func escapeCSVString(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
