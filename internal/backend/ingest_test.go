package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/yildizm/logdesk/internal/common"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() IngestOptions {
	return IngestOptions{Now: func() time.Time { return fixedNow }}
}

func TestIngestJSON(t *testing.T) {
	input := strings.Join([]string{
		`{"timestamp":1709294400000,"level":"error","module":"db","process":"api","message":"connection lost","retry":3}`,
		`{"ts":"2024-03-01T11:00:00Z","level":"warning","service":"cache","msg":"slow get","key":"user:1"}`,
		`{"time":1709294400,"message":"seconds epoch"}`,
	}, "\n")

	records, err := Ingest(context.Background(), strings.NewReader(input), testOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.Timestamp != 1709294400000 || first.Level != "ERROR" || first.Module != "db" ||
		first.Process != "api" || first.Message != "connection lost" {
		t.Errorf("first record = %+v", first)
	}
	if first.Data["retry"] != "3" {
		t.Errorf("extra fields should land in data, got %v", first.Data)
	}

	second := records[1]
	wantTS := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC).UnixMilli()
	if second.Timestamp != wantTS || second.Level != "WARN" || second.Module != "cache" || second.Message != "slow get" {
		t.Errorf("second record = %+v", second)
	}
	if second.Data["key"] != "user:1" {
		t.Errorf("second data = %v", second.Data)
	}

	if records[2].Timestamp != 1709294400000 {
		t.Errorf("seconds epoch = %d, want ms", records[2].Timestamp)
	}
	if records[2].Level != "INFO" {
		t.Errorf("missing level should default to INFO, got %q", records[2].Level)
	}
	if records[2].Data != nil {
		t.Errorf("no extra fields should leave data nil, got %v", records[2].Data)
	}
}

func TestIngestTextLine(t *testing.T) {
	input := "2024-03-01 10:00:00 ERROR [db] disk full\n\n   \n"

	records, err := Ingest(context.Background(), strings.NewReader(input), testOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (blank lines skipped)", len(records))
	}

	rec := records[0]
	if rec.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", rec.Level)
	}
	if rec.Module != "db" {
		t.Errorf("Module = %q, want db", rec.Module)
	}
	if !strings.Contains(rec.Message, "disk full") {
		t.Errorf("Message = %q, want it to contain the text", rec.Message)
	}
}

func TestIngestDefaults(t *testing.T) {
	opts := testOptions()
	opts.Module = "fallback"
	opts.Process = "worker-1"

	records, err := Ingest(context.Background(), strings.NewReader(`{"message":"hi","module":"own"}`+"\n"+`{"message":"bare"}`), opts)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if records[0].Module != "own" || records[0].Process != "worker-1" {
		t.Errorf("first = %+v", records[0])
	}
	if records[1].Module != "fallback" {
		t.Errorf("second module = %q, want fallback", records[1].Module)
	}
	if records[1].Timestamp != fixedNow.UnixMilli() {
		t.Errorf("missing timestamp should use Now, got %d", records[1].Timestamp)
	}
}

func TestIngestInvalidJSONFallsBack(t *testing.T) {
	records, err := Ingest(context.Background(), strings.NewReader(`{"broken": WARN oops`), testOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Level != "WARN" {
		t.Errorf("Level = %q, want WARN detected from text", records[0].Level)
	}
}

func TestIngestExportedRecordsRoundTrip(t *testing.T) {
	line := `{"id":"r1","timestamp":1709294400123,"level":"FATAL","module":"core","process":"p1","message":"halt","data":{"code":"E42"}}`

	records, err := Ingest(context.Background(), strings.NewReader(line), testOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := common.LogRecord{
		ID: "r1", Timestamp: 1709294400123, Level: "FATAL", Module: "core",
		Process: "p1", Message: "halt", Data: map[string]string{"code": "E42"},
	}
	got := records[0]
	if got.ID != want.ID || got.Timestamp != want.Timestamp || got.Level != want.Level ||
		got.Module != want.Module || got.Process != want.Process || got.Message != want.Message ||
		len(got.Data) != 1 || got.Data["code"] != "E42" {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"", "auto", "JSON", "logfmt", "text"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) = %v", in, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) = %v, want ErrUnknownFormat", err)
	}
}

func TestBracketModule(t *testing.T) {
	tests := map[string]string{
		"[db] query":                 "db",
		"[ERROR] [auth] denied":      "auth",
		"[10:00:00] [http.server] x": "http.server",
		"no brackets":                "",
		"[] empty":                   "",
		"[has space] x":              "",
	}
	for in, want := range tests {
		if got := bracketModule(in); got != want {
			t.Errorf("bracketModule(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEpochToMillis(t *testing.T) {
	tests := map[int64]int64{
		0:                   0,
		1709294400:          1709294400000,
		1709294400123:       1709294400123,
		1709294400123456:    1709294400123,
		1709294400123456789: 1709294400123,
	}
	for in, want := range tests {
		if got := epochToMillis(in); got != want {
			t.Errorf("epochToMillis(%d) = %d, want %d", in, got, want)
		}
	}
}

type sliceAppender struct {
	records []common.LogRecord
}

func (a *sliceAppender) Append(_ context.Context, records ...common.LogRecord) (int, error) {
	a.records = append(a.records, records...)
	return len(records), nil
}

func TestLoadFileZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log.zst")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = enc.Write([]byte(`{"level":"info","message":"compressed"}` + "\n"))
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	dst := &sliceAppender{}
	n, err := LoadFile(context.Background(), dst, path, testOptions())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if n != 1 || dst.records[0].Message != "compressed" {
		t.Errorf("loaded %d records: %+v", n, dst.records)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), &sliceAppender{}, filepath.Join(t.TempDir(), "nope.log"), testOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}
