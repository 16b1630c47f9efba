package formatter

import (
	"strings"
	"testing"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/worker"
)

func plainTerminal() *terminalFormatter {
	return NewTerminal(Options{TimestampFormat: "15:04:05"}).(*terminalFormatter)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordLine(t *testing.T) {
	f := plainTerminal()

	tests := []struct {
		name   string
		record common.LogRecord
		want   []string
		absent []string
	}{
		{
			name:   "module and process",
			record: common.LogRecord{Level: "ERROR", Module: "auth", Process: "api-1", Message: "login failed"},
			want:   []string{"ERROR", "[auth/api-1]", "login failed"},
		},
		{
			name:   "module only",
			record: common.LogRecord{Level: "INFO", Module: "db", Message: "connected"},
			want:   []string{"[db]", "connected"},
			absent: []string{"[db/"},
		},
		{
			name:   "data sorted",
			record: common.LogRecord{Level: "WARN", Message: "slow", Data: map[string]string{"z": "1", "a": "2"}},
			want:   []string{"slow a=2 z=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := f.recordLine(tt.record)
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("line %q missing %q", line, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(line, a) {
					t.Errorf("line %q should not contain %q", line, a)
				}
			}
		})
	}
}

func TestFormatRecordsEmpty(t *testing.T) {
	out, err := plainTerminal().FormatRecords(backend.QueryResult{Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("FormatRecords: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "page 1/1") {
		t.Errorf("expected page 1/1 in %q", s)
	}
	if !strings.Contains(s, "No records match") {
		t.Errorf("expected empty notice in %q", s)
	}
}

func TestFormatStatsSummary(t *testing.T) {
	stats := backend.LogStats{
		Total:     17,
		ByLevel:   map[string]int{"INFO": 10, "ERROR": 5, "WARN": 2},
		ByModule:  map[string]int{"db": 3},
		ByProcess: map[string]int{},
	}

	out, err := plainTerminal().FormatStats(stats)
	if err != nil {
		t.Fatalf("FormatStats: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "5 (29.4%)") {
		t.Errorf("expected error rate in:\n%s", s)
	}
	if !strings.Contains(s, "By Module") {
		t.Errorf("expected module breakdown in:\n%s", s)
	}
	if strings.Contains(s, "By Process") {
		t.Errorf("empty breakdown should be omitted:\n%s", s)
	}
}

func TestBreakdownOrdering(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		order  func(map[string]int) []string
		want   []string
	}{
		{
			name:   "levels by severity",
			counts: map[string]int{"INFO": 10, "ERROR": 5, "WARN": 2},
			order:  levelOrder,
			want:   []string{"ERROR", "WARN", "INFO"},
		},
		{
			name:   "modules by count",
			counts: map[string]int{"db": 3, "auth": 9, "api": 5},
			order:  byCount,
			want:   []string{"auth", "api", "db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			plainTerminal().writeBreakdown(&b, "Breakdown", tt.counts, tt.order)

			// skip the title line
			body := b.String()
			body = body[strings.Index(body, "\n")+1:]

			last := -1
			for _, w := range tt.want {
				idx := strings.Index(body, w)
				if idx <= last {
					t.Fatalf("%q out of order in:\n%s", w, body)
				}
				last = idx
			}
		})
	}
}

func TestBreakdownLimit(t *testing.T) {
	counts := make(map[string]int)
	for i := 0; i < 15; i++ {
		counts[string(rune('a'+i))+"-mod"] = i + 1
	}

	var b strings.Builder
	plainTerminal().writeBreakdown(&b, "By Module", counts, byCount)

	s := b.String()
	if !strings.Contains(s, "o-mod") {
		t.Errorf("highest count missing:\n%s", s)
	}
	if strings.Contains(s, "a-mod") {
		t.Errorf("lowest count should be cut:\n%s", s)
	}
}

func TestFormatLinesSummary(t *testing.T) {
	tests := []struct {
		name string
		res  worker.Result
		want string
	}{
		{"unfiltered", worker.Result{Lines: []string{"a", "b"}, TotalLines: 2}, "2 lines"},
		{"filtered", worker.Result{Lines: []string{"a"}, TotalLines: 3, FilteredCount: 1}, "1 of 3 lines match"},
		{"no match", worker.Result{Lines: []string{}, TotalLines: 3}, "0 of 3 lines match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := plainTerminal().FormatLines(tt.res)
			if err != nil {
				t.Fatalf("FormatLines: %v", err)
			}
			if !strings.Contains(string(out), tt.want) {
				t.Errorf("output %q missing %q", out, tt.want)
			}
		})
	}
}

func TestSparkline(t *testing.T) {
	buckets := []backend.HourlyBucket{{Count: 0}, {Count: 1}, {Count: 8}}
	got := []rune(sparkline(buckets))
	if len(got) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(got))
	}
	if got[0] != ' ' || got[2] != '█' {
		t.Errorf("unexpected sparkline %q", string(got))
	}
}
