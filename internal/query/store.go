// Package query holds the state of a paged, filtered log view and the actions
// that change it. Every action that touches the backend blocks until the
// backend answers; overlapping actions are not sequenced, so when responses
// race the last one to arrive wins.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/logger"
)

// State is a point-in-time copy of the store
type State struct {
	Records    []common.LogRecord
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	SortOrder  backend.SortOrder
	Loading    bool
	Filters    Filters
	Stats      backend.LogStats
	Modules    []string
	Detail     DetailView
	LastError  error
}

// Options configures a new Store
type Options struct {
	PageSize  int
	SortOrder backend.SortOrder
	Filters   Filters
	Logger    *logger.Logger
	// OnChange runs after each state change, outside the store lock
	OnChange func(State)
}

// Store owns the query state for one view
type Store struct {
	backend backend.Backend
	log     *logger.Logger
	notify  func(State)

	mu       sync.Mutex
	state    State
	inflight int
}

// New creates a store with empty results and the given defaults
func New(b backend.Backend, opts Options) *Store {
	order := opts.SortOrder
	if order == "" {
		order = backend.SortDesc
	}
	pageSize := backend.NormalizePageSize(opts.PageSize)
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Store{
		backend: b,
		log:     log,
		notify:  opts.OnChange,
		state: State{
			Records:   []common.LogRecord{},
			Page:      1,
			PageSize:  pageSize,
			SortOrder: order,
			Filters:   opts.Filters.clone(),
			Modules:   []string{},
		},
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.Records = common.CloneRecords(s.state.Records)
	st.Filters = s.state.Filters.clone()
	st.Stats = s.state.Stats.Clone()
	st.Modules = append([]string{}, s.state.Modules...)
	st.Detail = s.state.Detail.clone()
	st.Loading = s.inflight > 0
	return st
}

// update applies fn under the lock and then reports the new state
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotIfWatched()
	s.mu.Unlock()
	s.emit(snap)
}

func (s *Store) snapshotIfWatched() *State {
	if s.notify == nil {
		return nil
	}
	st := s.snapshotLocked()
	return &st
}

func (s *Store) emit(st *State) {
	if st != nil {
		s.notify(*st)
	}
}

// paramsLocked builds a query from the current state, omitting empty constraints
func (s *Store) paramsLocked() backend.QueryParams {
	f := s.state.Filters.clone()
	return backend.QueryParams{
		Page:      s.state.Page,
		PageSize:  s.state.PageSize,
		Level:     f.Level,
		Module:    f.Module,
		Process:   f.Process,
		Keyword:   f.Keyword,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		SortOrder: s.state.SortOrder,
	}
}

// FetchLogs queries the backend with the current page, sort and filters.
// On failure the previous results stay in place and LastError is set.
func (s *Store) FetchLogs(ctx context.Context) error {
	return s.mutateAndFetch(ctx, nil)
}

// SetFilters merges opts into the filters, resets to page 1 and fetches
func (s *Store) SetFilters(ctx context.Context, opts ...FilterOption) error {
	return s.mutateAndFetch(ctx, func(st *State) {
		for _, opt := range opts {
			opt(&st.Filters)
		}
		st.Page = 1
	})
}

// SetSortOrder changes the order, resets to page 1 and fetches
func (s *Store) SetSortOrder(ctx context.Context, order backend.SortOrder) error {
	if _, err := backend.ParseSortOrder(string(order)); err != nil {
		return fmt.Errorf("set sort order %q: %w", order, err)
	}
	return s.mutateAndFetch(ctx, func(st *State) {
		st.SortOrder = order
		st.Page = 1
	})
}

// SetPage moves to page n and fetches. The backend clamps out-of-range pages.
func (s *Store) SetPage(ctx context.Context, n int) error {
	return s.mutateAndFetch(ctx, func(st *State) {
		st.Page = n
	})
}

// SetPageSize changes the page size, resets to page 1 and fetches
func (s *Store) SetPageSize(ctx context.Context, n int) error {
	return s.mutateAndFetch(ctx, func(st *State) {
		st.PageSize = backend.NormalizePageSize(n)
		st.Page = 1
	})
}

// mutateAndFetch applies mutate and captures the query params in one critical section
func (s *Store) mutateAndFetch(ctx context.Context, mutate func(st *State)) error {
	s.mu.Lock()
	if mutate != nil {
		mutate(&s.state)
	}
	params := s.paramsLocked()
	s.inflight++
	snap := s.snapshotIfWatched()
	s.mu.Unlock()
	s.emit(snap)

	start := time.Now()
	res, err := s.backend.Query(ctx, params)

	s.mu.Lock()
	s.inflight--
	if err != nil {
		s.state.LastError = err
	} else {
		s.state.Records = common.CloneRecords(res.Records)
		if s.state.Records == nil {
			s.state.Records = []common.LogRecord{}
		}
		s.state.Total = res.Total
		s.state.Page = res.Page
		s.state.PageSize = res.PageSize
		s.state.TotalPages = res.TotalPages
		s.state.LastError = nil
	}
	snap = s.snapshotIfWatched()
	s.mu.Unlock()
	s.emit(snap)

	if err != nil {
		s.log.Warn("fetch logs failed: %v", err)
		return fmt.Errorf("fetch logs: %w", err)
	}
	s.log.DebugWithFields("fetched logs", []logger.Field{
		logger.F("page", res.Page), logger.Count(len(res.Records)), logger.F("total", res.Total), logger.Duration(time.Since(start)),
	})
	return nil
}

// FetchStats replaces the stats wholesale. Failure keeps the previous stats.
func (s *Store) FetchStats(ctx context.Context) error {
	stats, err := s.backend.GetStats(ctx)
	if err != nil {
		s.update(func(st *State) { st.LastError = err })
		s.log.Warn("fetch stats failed: %v", err)
		return fmt.Errorf("fetch stats: %w", err)
	}
	s.update(func(st *State) { st.Stats = stats.Clone() })
	return nil
}

// FetchModules replaces the module list. Failure keeps the previous list.
func (s *Store) FetchModules(ctx context.Context) error {
	modules, err := s.backend.GetModules(ctx)
	if err != nil {
		s.update(func(st *State) { st.LastError = err })
		s.log.Warn("fetch modules failed: %v", err)
		return fmt.Errorf("fetch modules: %w", err)
	}
	s.update(func(st *State) { st.Modules = append([]string{}, modules...) })
	return nil
}

// SetSelectedRecord opens the detail view on r, or closes it when r is nil
func (s *Store) SetSelectedRecord(r *common.LogRecord) {
	s.update(func(st *State) {
		if r == nil {
			st.Detail = ClosedDetail()
			return
		}
		st.Detail = OpenDetail(*r)
	})
}

// SetDetailOpen(false) closes the detail view and clears the selection.
// Opening without a selected record does nothing.
func (s *Store) SetDetailOpen(open bool) {
	if open {
		return
	}
	s.update(func(st *State) { st.Detail = ClosedDetail() })
}

// ClearLogs wipes the backend. On success the results, stats and detail view
// are reset. The backend result is returned as is.
func (s *Store) ClearLogs(ctx context.Context) (backend.ClearResult, error) {
	res, err := s.backend.ClearDB(ctx)
	if err != nil {
		s.log.Warn("clear logs failed: %v", err)
		return res, fmt.Errorf("clear logs: %w", err)
	}
	if !res.Success {
		return res, nil
	}

	s.update(func(st *State) {
		st.Records = []common.LogRecord{}
		st.Total = 0
		st.Page = 1
		st.TotalPages = 0
		st.Stats = backend.LogStats{}
		st.Detail = ClosedDetail()
	})
	s.log.Info("logs cleared")
	return res, nil
}

// ExportLogs exports every record matching the current filters and sort order.
// The store state is not changed.
func (s *Store) ExportLogs(ctx context.Context, path string) (backend.ExportResult, error) {
	s.mu.Lock()
	params := s.paramsLocked()
	s.mu.Unlock()

	params.Page = 0
	params.PageSize = 0
	res, err := s.backend.ExportLogs(ctx, backend.ExportParams{QueryParams: params, FilePath: path})
	if err != nil {
		s.log.Warn("export failed: %v", err)
		return res, fmt.Errorf("export logs: %w", err)
	}
	return res, nil
}

// Refresh fetches logs, stats and modules concurrently and waits for all three.
// It returns the first failure; the others still run to completion.
func (s *Store) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.FetchLogs(ctx) })
	g.Go(func() error { return s.FetchStats(ctx) })
	g.Go(func() error { return s.FetchModules(ctx) })
	return g.Wait()
}

// AutoRefresh calls Refresh every interval until ctx ends. Failed refreshes
// are logged and leave the previous data in place. interval <= 0 returns at once.
func (s *Store) AutoRefresh(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("auto refresh: %v", err)
			}
		}
	}
}
