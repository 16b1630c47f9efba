package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/logdesk/internal/logger"
)

// Follower appends lines written to source files after they were loaded.
// Compressed sources cannot be tailed and are skipped.
type Follower struct {
	dst  Appender
	opts IngestOptions
	log  *logger.Logger

	fromStart bool

	mu      sync.Mutex
	offsets map[string]int64
}

// FollowOption configures a Follower
type FollowOption func(*Follower)

// FromStart starts every file at offset 0 so the first PollAll loads the
// complete lines already present and the follower owns the whole file
func FromStart() FollowOption {
	return func(f *Follower) {
		f.fromStart = true
	}
}

// NewFollower starts each path at its current end of file, or at 0 with FromStart
func NewFollower(dst Appender, paths []string, opts IngestOptions, options ...FollowOption) (*Follower, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	f := &Follower{dst: dst, opts: opts, log: log, offsets: make(map[string]int64)}
	for _, o := range options {
		o(f)
	}
	for _, path := range paths {
		if strings.HasSuffix(path, ".zst") {
			log.Warn("not following compressed source %s", path)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("follow %s: %w", path, err)
		}
		if f.fromStart {
			f.offsets[filepath.Clean(path)] = 0
		} else {
			f.offsets[filepath.Clean(path)] = info.Size()
		}
	}
	return f, nil
}

// PollAll polls every followed file once and returns the records added
func (f *Follower) PollAll(ctx context.Context) (int, error) {
	total := 0
	for _, path := range f.Paths() {
		n, err := f.Poll(ctx, path)
		if err != nil {
			return total, fmt.Errorf("follow %s: %w", path, err)
		}
		total += n
	}
	return total, nil
}

// Paths returns the followed files
func (f *Follower) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.offsets))
	for p := range f.offsets {
		paths = append(paths, p)
	}
	return paths
}

// Run watches the followed files until ctx ends
func (f *Follower) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range f.Paths() {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			if _, err := f.Poll(ctx, event.Name); err != nil {
				f.log.Warn("follow %s: %v", event.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watcher error: %v", err)
		}
	}
}

// Poll ingests the complete lines appended to path since the last poll and
// returns how many records were added. A file that shrank is read from the start.
func (f *Follower) Poll(ctx context.Context, path string) (int, error) {
	path = filepath.Clean(path)

	f.mu.Lock()
	defer f.mu.Unlock()

	offset, ok := f.offsets[path]
	if !ok {
		return 0, nil
	}

	// #nosec G304 - path was registered by the local user
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if info.Size() < offset {
		f.log.Info("%s was truncated, reading from the start", path)
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	chunk, err := io.ReadAll(file)
	if err != nil {
		return 0, err
	}

	// leave a partial last line for the next poll
	end := bytes.LastIndexByte(chunk, '\n')
	if end < 0 {
		f.offsets[path] = offset
		return 0, nil
	}
	chunk = chunk[:end+1]
	f.offsets[path] = offset + int64(len(chunk))

	records, err := Ingest(ctx, bytes.NewReader(chunk), f.opts)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return f.dst.Append(ctx, records...)
}
