package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"
	"github.com/yildizm/go-logparser"

	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/logger"
)

const maxLineBytes = 1024 * 1024

// Format selects how Ingest reads each line
type Format string

const (
	FormatAuto   Format = "auto"
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"
)

// ErrUnknownFormat is returned for an unsupported ingest format
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat validates a format name; empty means auto
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatLogfmt, FormatText:
		return Format(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("%w %q (available: auto, json, logfmt, text)", ErrUnknownFormat, s)
	}
}

// IngestOptions controls how raw lines become records
type IngestOptions struct {
	Format  Format
	Module  string // used when a line names no module
	Process string // used when a line names no process
	Now     func() time.Time
	Logger  *logger.Logger
}

// Ingest reads r line by line and converts each non-blank line into a record.
// JSON objects are decoded field by field; anything else goes through the text parser.
func Ingest(ctx context.Context, r io.Reader, opts IngestOptions) ([]common.LogRecord, error) {
	in := newIngester(opts)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	records := make([]common.LogRecord, 0)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return records, err
			}
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, in.record(line))
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}

	in.log.DebugWithFields("ingested lines", []logger.Field{logger.Count(len(records)), logger.F("json", in.jsonLines)})
	return records, nil
}

// OpenSource opens a log file, transparently decompressing .zst files
func OpenSource(path string) (io.ReadCloser, error) {
	// #nosec G304 - path is supplied by the local user
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open zstd stream: %w", err)
	}
	return &zstdFile{Decoder: dec, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// LoadFile ingests path and appends the records to dst
func LoadFile(ctx context.Context, dst Appender, path string, opts IngestOptions) (int, error) {
	src, err := OpenSource(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	records, err := Ingest(ctx, src, opts)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	return dst.Append(ctx, records...)
}

type ingester struct {
	opts      IngestOptions
	json      fastjson.Parser
	text      logparser.Parser
	logfmt    logparser.Parser
	log       *logger.Logger
	jsonLines int
}

func newIngester(opts IngestOptions) *ingester {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &ingester{
		opts:   opts,
		text:   logparser.NewWithFormat(logparser.FormatText),
		logfmt: logparser.NewWithFormat(logparser.FormatLogfmt),
		log:    log,
	}
}

func (in *ingester) record(line string) common.LogRecord {
	var rec common.LogRecord
	switch in.opts.Format {
	case FormatJSON:
		rec = in.fromJSONOrText(line)
	case FormatLogfmt:
		rec = in.fromParser(in.logfmt, line)
	case FormatText:
		rec = in.fromParser(in.text, line)
	default:
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "{"):
			rec = in.fromJSONOrText(line)
		case looksLikeLogfmt(line):
			rec = in.fromParser(in.logfmt, line)
		default:
			rec = in.fromParser(in.text, line)
		}
	}

	if rec.Module == "" {
		rec.Module = in.opts.Module
	}
	if rec.Process == "" {
		rec.Process = in.opts.Process
	}
	return rec
}

func (in *ingester) fromJSONOrText(line string) common.LogRecord {
	v, err := in.json.Parse(line)
	if err != nil || v.Type() != fastjson.TypeObject {
		in.log.Debug("not a JSON object, falling back to text: %q", truncate(line, 60))
		return in.fromParser(in.text, line)
	}
	in.jsonLines++
	return in.fromJSON(v)
}

func (in *ingester) fromJSON(v *fastjson.Value) common.LogRecord {
	rec := common.LogRecord{Data: make(map[string]string)}

	obj, _ := v.Object()
	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		switch k {
		case "id":
			rec.ID = stringValue(val)
		case "timestamp", "time", "ts":
			rec.Timestamp = timestampValue(val)
		case "level", "severity":
			rec.Level = stringValue(val)
		case "module", "service", "logger":
			if rec.Module == "" {
				rec.Module = stringValue(val)
			}
		case "process", "pid":
			rec.Process = stringValue(val)
		case "message", "msg":
			if rec.Message == "" {
				rec.Message = stringValue(val)
			}
		case "data":
			if val.Type() == fastjson.TypeObject {
				inner, _ := val.Object()
				inner.Visit(func(ik []byte, iv *fastjson.Value) {
					rec.Data[string(ik)] = stringValue(iv)
				})
				return
			}
			rec.Data[k] = stringValue(val)
		default:
			rec.Data[k] = stringValue(val)
		}
	})

	if rec.Timestamp == 0 {
		rec.Timestamp = in.opts.Now().UnixMilli()
	}
	rec.Level = common.NormalizeLevel(rec.Level)
	if len(rec.Data) == 0 {
		rec.Data = nil
	}
	return rec
}

func (in *ingester) fromParser(p logparser.Parser, line string) common.LogRecord {
	now := in.opts.Now()
	rec := common.LogRecord{
		Timestamp: now.UnixMilli(),
		Level:     detectLevel(line),
		Message:   strings.TrimSpace(line),
	}

	entries, err := p.ParseString(line)
	if err == nil && len(entries) > 0 {
		parsed := common.RecordFromEntry(&entries[0], now)
		if rec.Level == "" && isLevelWord(entries[0].Level) {
			rec.Level = parsed.Level
		}
		if strings.TrimSpace(parsed.Message) != "" {
			rec.Message = strings.TrimSpace(parsed.Message)
		}
		rec.Timestamp = parsed.Timestamp
	}
	if rec.Level == "" {
		rec.Level = common.LevelInfo.String()
	}

	if module := bracketModule(line); module != "" {
		rec.Module = module
		rec.Message = strings.TrimSpace(strings.Replace(rec.Message, "["+module+"]", "", 1))
	}
	return rec
}

func looksLikeLogfmt(line string) bool {
	return strings.Contains(line, "level=") || strings.Contains(line, "msg=")
}

var levelWords = map[string]bool{
	"DEBUG": true, "TRACE": true, "INFO": true, "WARN": true, "WARNING": true,
	"ERROR": true, "ERR": true, "FATAL": true, "CRITICAL": true, "PANIC": true,
}

func isLevelWord(s string) bool {
	return levelWords[strings.ToUpper(strings.TrimSpace(s))]
}

// detectLevel finds the first whitespace-separated level word in line, or ""
func detectLevel(line string) string {
	for _, word := range strings.Fields(line) {
		word = strings.Trim(word, "[]():=")
		if isLevelWord(word) {
			return common.NormalizeLevel(word)
		}
	}
	return ""
}

// bracketModule returns the first [name] token that is not a level or timestamp
func bracketModule(line string) string {
	rest := line
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			return ""
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			return ""
		}
		name := rest[open+1 : open+end]
		rest = rest[open+end+1:]

		if isModuleName(name) {
			return name
		}
	}
}

func isModuleName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	if isLevelWord(s) {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '/':
		default:
			return false
		}
	}
	return hasLetter
}

func stringValue(v *fastjson.Value) string {
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}

// timestampValue accepts epoch numbers in s/ms/us/ns or RFC 3339 strings
func timestampValue(v *fastjson.Value) int64 {
	switch v.Type() {
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return epochToMillis(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return epochToMillis(int64(f))
	case fastjson.TypeString:
		s := string(v.GetStringBytes())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochToMillis(n)
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.000", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UnixMilli()
			}
		}
	}
	return 0
}

func epochToMillis(n int64) int64 {
	switch {
	case n <= 0:
		return 0
	case n < 1e11:
		return n * 1000
	case n < 1e14:
		return n
	case n < 1e17:
		return n / 1e3
	default:
		return n / 1e6
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
