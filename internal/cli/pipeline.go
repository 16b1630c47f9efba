package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/backend/memory"
	"github.com/yildizm/logdesk/internal/config"
	"github.com/yildizm/logdesk/internal/logger"
	"github.com/yildizm/logdesk/internal/query"
	"github.com/yildizm/logdesk/internal/worker"
)

var noFilters = query.Filters{}

var errNoSources = errors.New("no log sources: pass --source or set backend.sources in the config")

// ingestOptions builds ingest options from the backend config
func ingestOptions(cfg *config.Config, log *logger.Logger) (backend.IngestOptions, error) {
	format, err := backend.ParseFormat(cfg.Backend.Format)
	if err != nil {
		return backend.IngestOptions{}, err
	}
	return backend.IngestOptions{
		Format:  format,
		Module:  cfg.Backend.DefaultModule,
		Process: cfg.Backend.DefaultProcess,
		Logger:  log,
	}, nil
}

// openBackend loads every configured source into a fresh in-memory store
func openBackend(ctx context.Context, cfg *config.Config) (*memory.Store, error) {
	if len(cfg.Backend.Sources) == 0 {
		return nil, errNoSources
	}
	mem := newMemoryStore(cfg)
	if err := loadSources(ctx, mem, cfg, cfg.Backend.Sources); err != nil {
		return nil, err
	}
	return mem, nil
}

// openFollowedBackend loads the compressed sources and hands the plain ones
// to a follower that ingests their complete lines before it starts tailing
func openFollowedBackend(ctx context.Context, cfg *config.Config) (*memory.Store, *backend.Follower, error) {
	if len(cfg.Backend.Sources) == 0 {
		return nil, nil, errNoSources
	}
	mem := newMemoryStore(cfg)

	var compressed, plain []string
	for _, path := range cfg.Backend.Sources {
		if strings.HasSuffix(path, ".zst") {
			compressed = append(compressed, path)
		} else {
			plain = append(plain, path)
		}
	}
	if err := loadSources(ctx, mem, cfg, compressed); err != nil {
		return nil, nil, err
	}

	log := newLogger("follow")
	opts, err := ingestOptions(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	follower, err := backend.NewFollower(mem, plain, opts, backend.FromStart())
	if err != nil {
		return nil, nil, err
	}
	n, err := follower.PollAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.DebugWithFields("loaded followed sources", []logger.Field{logger.F("files", len(plain)), logger.Count(n)})
	return mem, follower, nil
}

func newMemoryStore(cfg *config.Config) *memory.Store {
	return memory.New(
		memory.WithExportDir(cfg.Backend.ExportDir),
		memory.WithRecentWindow(cfg.Query.RecentErrorWindow),
		memory.WithLogger(newLogger("backend")),
	)
}

func loadSources(ctx context.Context, mem *memory.Store, cfg *config.Config, paths []string) error {
	log := newLogger("backend")
	opts, err := ingestOptions(cfg, log)
	if err != nil {
		return err
	}

	start := time.Now()
	total := 0
	for _, path := range paths {
		n, err := backend.LoadFile(ctx, mem, path, opts)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		total += n
	}
	log.InfoWithFields("loaded sources", []logger.Field{
		logger.F("files", len(paths)), logger.Count(total), logger.Duration(time.Since(start)),
	})
	return nil
}

// newQueryStore creates a query store with the configured defaults
func newQueryStore(b backend.Backend, cfg *config.Config, filters query.Filters, onChange func(query.State)) *query.Store {
	return query.New(b, query.Options{
		PageSize:  cfg.Query.PageSize,
		SortOrder: backend.SortOrder(cfg.Query.SortOrder),
		Filters:   filters,
		Logger:    newLogger("query"),
		OnChange:  onChange,
	})
}

// newWorkerClient creates a worker client with the configured payload limit
func newWorkerClient(cfg *config.Config) *worker.Client {
	log := newLogger("worker")
	return worker.NewClient(
		worker.WithClientLogger(log),
		worker.WithMaxContentBytes(cfg.Worker.MaxContentBytes),
	)
}

// readInput reads a whole file, or stdin when path is "" or "-"
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	rc, err := backend.OpenSource(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// lineOptions selects what the worker does with raw content
type lineOptions struct {
	tail      int
	filter    string
	parseOnly bool
}

// processContent runs content through the worker: parse only, or load with an
// optional tail and then filter the loaded lines
func processContent(ctx context.Context, client *worker.Client, content string, opts lineOptions) (worker.Result, error) {
	if opts.parseOnly {
		return client.ParseLogs(ctx, content)
	}

	res, err := client.LoadLogs(ctx, content, opts.tail)
	if err != nil {
		return worker.Result{}, err
	}
	if opts.filter == "" {
		return res, nil
	}

	filtered, err := client.FilterLogs(ctx, res.Content, opts.filter)
	if err != nil {
		return worker.Result{}, err
	}
	return filtered, nil
}
