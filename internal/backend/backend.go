// Package backend defines the paginated log store consumed by the query store,
// plus ingestion of raw log text into records.
package backend

import (
	"context"
	"errors"

	"github.com/yildizm/logdesk/internal/common"
)

const (
	// DefaultPageSize is used when a query asks for pageSize <= 0
	DefaultPageSize = 50
	// MaxPageSize caps the page size a backend will honour
	MaxPageSize = 1000
)

var (
	// ErrInvalidSortOrder is returned for sort orders other than asc and desc
	ErrInvalidSortOrder = errors.New("invalid sort order")
	// ErrInvalidTimeRange is returned when startTime is after endTime
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// SortOrder orders records by timestamp
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder validates a user supplied sort order
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	case "":
		return SortDesc, nil
	default:
		return "", ErrInvalidSortOrder
	}
}

// QueryParams is one paginated query. Empty constraints are omitted on the wire
// and mean "no constraint".
type QueryParams struct {
	Page      int       `json:"page"`
	PageSize  int       `json:"pageSize"`
	Level     []string  `json:"level,omitempty"`
	Module    []string  `json:"module,omitempty"`
	Process   []string  `json:"process,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	StartTime *int64    `json:"startTime,omitempty"`
	EndTime   *int64    `json:"endTime,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

// Validate checks the constraints that cannot be clamped
func (p QueryParams) Validate() error {
	if p.SortOrder != "" {
		if _, err := ParseSortOrder(string(p.SortOrder)); err != nil {
			return err
		}
	}
	if p.StartTime != nil && p.EndTime != nil && *p.StartTime > *p.EndTime {
		return ErrInvalidTimeRange
	}
	return nil
}

// QueryResult is one page of records. Page is the page actually served.
type QueryResult struct {
	Records    []common.LogRecord `json:"records"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// HourlyBucket counts records in one clock hour
type HourlyBucket struct {
	Hour   int64 `json:"hour"` // epoch milliseconds at the start of the hour
	Count  int   `json:"count"`
	Errors int   `json:"errors"`
}

// LogStats summarises the whole store
type LogStats struct {
	Total        int            `json:"total"`
	ByLevel      map[string]int `json:"byLevel"`
	ByModule     map[string]int `json:"byModule"`
	ByProcess    map[string]int `json:"byProcess"`
	RecentErrors int            `json:"recentErrors"`
	Hourly       []HourlyBucket `json:"hourly"`
}

// Clone returns a copy sharing no maps or slices with s
func (s LogStats) Clone() LogStats {
	out := s
	out.ByLevel = cloneCounts(s.ByLevel)
	out.ByModule = cloneCounts(s.ByModule)
	out.ByProcess = cloneCounts(s.ByProcess)
	if s.Hourly != nil {
		out.Hourly = append([]HourlyBucket(nil), s.Hourly...)
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ClearResult reports the outcome of wiping the store
type ClearResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExportParams selects the records to export and where to write them.
// An empty FilePath lets the backend choose one.
type ExportParams struct {
	QueryParams
	FilePath string `json:"filePath,omitempty"`
}

// ExportResult reports the outcome of an export
type ExportResult struct {
	Success  bool   `json:"success"`
	Count    int    `json:"count,omitempty"`
	FilePath string `json:"filePath,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Backend is a paginated, filterable log store
type Backend interface {
	Query(ctx context.Context, params QueryParams) (QueryResult, error)
	GetStats(ctx context.Context) (LogStats, error)
	GetModules(ctx context.Context) ([]string, error)
	ClearDB(ctx context.Context) (ClearResult, error)
	ExportLogs(ctx context.Context, params ExportParams) (ExportResult, error)
}

// Appender is implemented by backends that accept new records
type Appender interface {
	Append(ctx context.Context, records ...common.LogRecord) (int, error)
}

// TotalPages returns ceil(total/pageSize), zero for an empty result
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// NormalizePageSize applies the default and the cap
func NormalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ClampPage keeps page within [1, max(1, totalPages)]
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
