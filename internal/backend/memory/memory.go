// Package memory is an in-process Backend keeping records in a guarded slice.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/logger"
)

const (
	hourlyBuckets       = 24
	defaultRecentWindow = time.Hour
)

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now, for stats and default timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithExportDir sets the directory used when an export has no path
func WithExportDir(dir string) Option {
	return func(s *Store) {
		s.exportDir = dir
	}
}

// WithRecentWindow sets how far back RecentErrors looks
func WithRecentWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.recentWindow = d
		}
	}
}

// WithLogger sets the store logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// Store implements backend.Backend in memory
type Store struct {
	mu      sync.RWMutex
	records []common.LogRecord

	now          func() time.Time
	exportDir    string
	recentWindow time.Duration
	log          *logger.Logger
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		exportDir:    ".",
		recentWindow: defaultRecentWindow,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ backend.Backend  = (*Store)(nil)
	_ backend.Appender = (*Store)(nil)
)

// Append stores copies of records, filling in missing ids, timestamps and levels
func (s *Store) Append(ctx context.Context, records ...common.LogRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now().UnixMilli()
	prepared := make([]common.LogRecord, 0, len(records))
	for _, r := range records {
		r = r.Clone()
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Timestamp == 0 {
			r.Timestamp = now
		}
		r.Level = common.NormalizeLevel(r.Level)
		prepared = append(prepared, r)
	}

	s.mu.Lock()
	s.records = append(s.records, prepared...)
	s.mu.Unlock()
	return len(prepared), nil
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Query filters, sorts and paginates the stored records
func (s *Store) Query(ctx context.Context, params backend.QueryParams) (backend.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return backend.QueryResult{}, err
	}
	if err := params.Validate(); err != nil {
		return backend.QueryResult{}, err
	}

	matches := s.selectRecords(params)

	pageSize := backend.NormalizePageSize(params.PageSize)
	total := len(matches)
	totalPages := backend.TotalPages(total, pageSize)
	page := backend.ClampPage(params.Page, totalPages)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return backend.QueryResult{
		Records:    matches[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// selectRecords returns cloned matches in the requested order
func (s *Store) selectRecords(params backend.QueryParams) []common.LogRecord {
	s.mu.RLock()
	matches := make([]common.LogRecord, 0)
	for _, r := range s.records {
		if matchesQuery(r, params) {
			matches = append(matches, r.Clone())
		}
	}
	s.mu.RUnlock()

	desc := params.SortOrder != backend.SortAsc
	sort.SliceStable(matches, func(i, j int) bool {
		if desc {
			return matches[i].Timestamp > matches[j].Timestamp
		}
		return matches[i].Timestamp < matches[j].Timestamp
	})
	return matches
}

func matchesQuery(r common.LogRecord, q backend.QueryParams) bool {
	if len(q.Level) > 0 && !containsFold(q.Level, r.Level) {
		return false
	}
	if len(q.Module) > 0 && !containsFold(q.Module, r.Module) {
		return false
	}
	if len(q.Process) > 0 && !containsFold(q.Process, r.Process) {
		return false
	}
	if q.StartTime != nil && r.Timestamp < *q.StartTime {
		return false
	}
	if q.EndTime != nil && r.Timestamp > *q.EndTime {
		return false
	}
	if q.Keyword != "" && !matchesKeyword(r, strings.ToLower(q.Keyword)) {
		return false
	}
	return true
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func matchesKeyword(r common.LogRecord, keyword string) bool {
	if strings.Contains(strings.ToLower(r.Message), keyword) ||
		strings.Contains(strings.ToLower(r.Module), keyword) {
		return true
	}
	for k, v := range r.Data {
		if strings.Contains(strings.ToLower(k), keyword) || strings.Contains(strings.ToLower(v), keyword) {
			return true
		}
	}
	return false
}

// GetStats recomputes the summary over every stored record
func (s *Store) GetStats(ctx context.Context) (backend.LogStats, error) {
	if err := ctx.Err(); err != nil {
		return backend.LogStats{}, err
	}

	now := s.now()
	currentHour := now.Truncate(time.Hour)
	firstHour := currentHour.Add(-(hourlyBuckets - 1) * time.Hour)
	recentFrom := now.Add(-s.recentWindow).UnixMilli()

	stats := backend.LogStats{
		ByLevel:   make(map[string]int),
		ByModule:  make(map[string]int),
		ByProcess: make(map[string]int),
		Hourly:    make([]backend.HourlyBucket, hourlyBuckets),
	}
	for i := range stats.Hourly {
		stats.Hourly[i].Hour = firstHour.Add(time.Duration(i) * time.Hour).UnixMilli()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		stats.Total++
		stats.ByLevel[r.Level]++
		if r.Module != "" {
			stats.ByModule[r.Module]++
		}
		if r.Process != "" {
			stats.ByProcess[r.Process]++
		}

		isErr := r.LogLevel().IsError()
		if isErr && r.Timestamp >= recentFrom && r.Timestamp <= now.UnixMilli() {
			stats.RecentErrors++
		}

		idx := int(r.Time().Sub(firstHour) / time.Hour)
		if r.Timestamp < firstHour.UnixMilli() || idx >= hourlyBuckets {
			continue
		}
		stats.Hourly[idx].Count++
		if isErr {
			stats.Hourly[idx].Errors++
		}
	}
	return stats, nil
}

// GetModules returns the distinct non-empty modules, sorted
func (s *Store) GetModules(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, r := range s.records {
		if r.Module != "" {
			seen[r.Module] = struct{}{}
		}
	}
	s.mu.RUnlock()

	modules := make([]string, 0, len(seen))
	for m := range seen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules, nil
}

// ClearDB drops every record
func (s *Store) ClearDB(ctx context.Context) (backend.ClearResult, error) {
	if err := ctx.Err(); err != nil {
		return backend.ClearResult{Error: err.Error()}, err
	}

	s.mu.Lock()
	n := len(s.records)
	s.records = nil
	s.mu.Unlock()

	s.log.Info("cleared %d records", n)
	return backend.ClearResult{Success: true}, nil
}

// ExportLogs writes every record matching params as NDJSON, zstd-compressed when
// the path ends in .zst. Pagination fields are ignored.
func (s *Store) ExportLogs(ctx context.Context, params backend.ExportParams) (backend.ExportResult, error) {
	fail := func(err error) (backend.ExportResult, error) {
		return backend.ExportResult{Error: err.Error()}, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := params.Validate(); err != nil {
		return fail(err)
	}

	path := params.FilePath
	if path == "" {
		path = filepath.Join(s.exportDir, fmt.Sprintf("logs-%d.ndjson", s.now().Unix()))
	}

	records := s.selectRecords(params.QueryParams)
	if err := writeNDJSON(path, records); err != nil {
		return fail(fmt.Errorf("export to %s: %w", path, err))
	}

	s.log.InfoWithFields("exported records", []logger.Field{logger.Count(len(records)), logger.F("path", path)})
	return backend.ExportResult{Success: true, Count: len(records), FilePath: path}, nil
}

func writeNDJSON(path string, records []common.LogRecord) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}

	// #nosec G304 - export path is chosen by the local user
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return zerr
		}
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}

	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}
	return buf.Flush()
}
