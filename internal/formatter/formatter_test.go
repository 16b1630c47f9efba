package formatter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
)

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{"text", false},
		{"json", false},
		{"csv", false},
		{"markdown", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := New(tt.format, Options{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if !tt.wantErr && f == nil {
				t.Fatal("expected formatter")
			}
		})
	}
}

func TestJSONRecordsNeverNull(t *testing.T) {
	out, err := NewJSON().FormatRecords(backend.QueryResult{Page: 1})
	if err != nil {
		t.Fatalf("FormatRecords: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := decoded["records"].([]any); !ok {
		t.Errorf("records should be an array, got %v", decoded["records"])
	}
}

func TestJSONStatsErrorCount(t *testing.T) {
	out, err := NewJSON().FormatStats(backend.LogStats{
		Total:   4,
		ByLevel: map[string]int{"ERROR": 2, "FATAL": 1, "INFO": 1},
	})
	if err != nil {
		t.Fatalf("FormatStats: %v", err)
	}

	var decoded struct {
		Total      int `json:"total"`
		ErrorCount int `json:"error_count"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Total != 4 || decoded.ErrorCount != 3 {
		t.Errorf("got total=%d errors=%d", decoded.Total, decoded.ErrorCount)
	}
}

func TestCSVRecords(t *testing.T) {
	res := backend.QueryResult{Records: []common.LogRecord{
		{ID: "1", Timestamp: 0, Level: "ERROR", Module: "auth", Message: "multi\nline, with comma"},
		{ID: "2", Timestamp: 1000, Level: "INFO", Message: "ok", Data: map[string]string{"k": "v"}},
	}}

	out, err := NewCSV("").FormatRecords(res)
	if err != nil {
		t.Fatalf("FormatRecords: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][5] != "multi line, with comma" {
		t.Errorf("message = %q", rows[1][5])
	}
	if rows[2][6] != "k=v" {
		t.Errorf("data = %q", rows[2][6])
	}
}

func TestCSVModules(t *testing.T) {
	out, err := NewCSV("").FormatModules([]string{"api", "db"})
	if err != nil {
		t.Fatalf("FormatModules: %v", err)
	}
	if got := string(out); got != "Module\napi\ndb\n" {
		t.Errorf("unexpected CSV %q", got)
	}
}
