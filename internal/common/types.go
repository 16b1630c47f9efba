package common

import (
	"strings"
	"time"

	"github.com/yildizm/go-logparser"
)

// LogLevel represents the severity of a log record
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// LogRecord is one stored log line as the query backend returns it
type LogRecord struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"timestamp"` // epoch milliseconds
	Level     string            `json:"level"`
	Module    string            `json:"module,omitempty"`
	Process   string            `json:"process,omitempty"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
}

// Time returns the record timestamp in local time
func (r LogRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// LogLevel returns the parsed severity of the record
func (r LogRecord) LogLevel() LogLevel {
	return ParseLogLevel(r.Level)
}

// Clone returns a copy that shares no maps with r
func (r LogRecord) Clone() LogRecord {
	if r.Data != nil {
		data := make(map[string]string, len(r.Data))
		for k, v := range r.Data {
			data[k] = v
		}
		r.Data = data
	}
	return r
}

// CloneRecords deep-copies a record slice; nil stays nil
func CloneRecords(records []LogRecord) []LogRecord {
	if records == nil {
		return nil
	}
	out := make([]LogRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// String methods for LogLevel
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// IsError reports whether l is ERROR or worse
func (l LogLevel) IsError() bool {
	return l >= LevelError
}

// ParseLogLevel parses string to LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "ERR":
		return LevelError
	case "FATAL", "CRITICAL", "PANIC":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// NormalizeLevel maps free-form level names onto the canonical upper-case set
func NormalizeLevel(s string) string {
	return ParseLogLevel(s).String()
}

// Levels lists the canonical level names in severity order
func Levels() []string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
}

// RecordFromEntry converts a go-logparser entry into a LogRecord.
// A zero parser timestamp falls back to fallback.
func RecordFromEntry(entry *logparser.LogEntry, fallback time.Time) LogRecord {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = fallback
	}
	return LogRecord{
		Timestamp: ts.UnixMilli(),
		Level:     NormalizeLevel(entry.Level),
		Message:   entry.Message,
	}
}
