package formatter

import (
	"encoding/json"
	"time"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/worker"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// StatsOutput wraps stats with derived summary fields
type StatsOutput struct {
	backend.LogStats
	ErrorCount  int       `json:"error_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ModulesOutput represents the modules listing
type ModulesOutput struct {
	Modules []string `json:"modules"`
	Count   int      `json:"count"`
}

func (f *jsonFormatter) FormatRecords(res backend.QueryResult) ([]byte, error) {
	if res.Records == nil {
		res.Records = []common.LogRecord{}
	}
	return json.MarshalIndent(res, "", "  ")
}

func (f *jsonFormatter) FormatStats(stats backend.LogStats) ([]byte, error) {
	output := &StatsOutput{
		LogStats:    stats,
		ErrorCount:  stats.ByLevel["ERROR"] + stats.ByLevel["FATAL"],
		GeneratedAt: time.Now().UTC(),
	}
	return json.MarshalIndent(output, "", "  ")
}

func (f *jsonFormatter) FormatModules(modules []string) ([]byte, error) {
	if modules == nil {
		modules = []string{}
	}
	return json.MarshalIndent(&ModulesOutput{Modules: modules, Count: len(modules)}, "", "  ")
}

func (f *jsonFormatter) FormatLines(res worker.Result) ([]byte, error) {
	if res.Lines == nil {
		res.Lines = []string{}
	}
	return json.MarshalIndent(struct {
		Lines         []string `json:"lines"`
		TotalLines    int      `json:"totalLines"`
		FilteredCount int      `json:"filteredCount"`
	}{res.Lines, res.TotalLines, res.FilteredCount}, "", "  ")
}
