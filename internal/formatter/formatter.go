package formatter

import (
	"fmt"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/worker"
)

// Formatter renders command output
type Formatter interface {
	FormatRecords(res backend.QueryResult) ([]byte, error)
	FormatStats(stats backend.LogStats) ([]byte, error)
	FormatModules(modules []string) ([]byte, error)
	FormatLines(res worker.Result) ([]byte, error)
}

// Options tunes the text formatter; JSON and CSV ignore them
type Options struct {
	Color           bool
	Emoji           bool
	TimestampFormat string
}

// DefaultTimestampFormat is used when Options leaves it empty
const DefaultTimestampFormat = "2006-01-02 15:04:05"

// New returns the formatter for format: text, json or csv
func New(format string, opts Options) (Formatter, error) {
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = DefaultTimestampFormat
	}

	switch format {
	case "text", "":
		return NewTerminal(opts), nil
	case "json":
		return NewJSON(), nil
	case "csv":
		return NewCSV(opts.TimestampFormat), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (available: text, json, csv)", format)
	}
}
