package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/logdesk/internal/emoji"
	"github.com/yildizm/logdesk/internal/worker"
)

var (
	watchTail   int
	watchFilter string
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-run the line pipeline whenever a log file changes",
		Long: `Monitor a log file and re-run the worker pipeline (tail, then filter) each
time it is written. Bursts of writes are coalesced by the configured debounce.
Press Ctrl+C to stop watching.

Examples:
  logdesk watch app.log
  logdesk watch --tail 50 --filter error app.log`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().IntVarP(&watchTail, "tail", "t", 20, "keep only the last N lines (0 = all)")
	cmd.Flags().StringVarP(&watchFilter, "filter", "f", "", "keep lines containing this text")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	filename := args[0]

	if err := validateWatchFilePath(filename); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	watcher, err := createWatcher(filename)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Watching file: %s\n", filename)
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop...\n\n")
	}

	client := newWorkerClient(cfg)
	defer func() { _ = client.Close() }()

	ctx, cancel := signalContext(commandContext(cmd.Context()))
	defer cancel()

	w := &fileWatch{
		path:     filename,
		client:   client,
		out:      cmd.OutOrStdout(),
		opts:     lineOptions{tail: watchTail, filter: watchFilter},
		debounce: cfg.Watch.Debounce,
	}
	return w.run(ctx, watcher)
}

// fileWatch re-runs the pipeline for one file on debounced write events
type fileWatch struct {
	path     string
	client   *worker.Client
	out      io.Writer
	opts     lineOptions
	debounce time.Duration
}

// run renders once, then again after every quiet period following a write
func (w *fileWatch) run(ctx context.Context, watcher *fsnotify.Watcher) error {
	w.render(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nStopping watch...\n")
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !isContentEvent(event) {
				continue
			}
			if w.debounce <= 0 {
				w.render(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.render(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	}
}

// render reads the whole file and prints the pipeline result.
// Errors are reported and the watch keeps going.
func (w *fileWatch) render(ctx context.Context) {
	content, err := readInput(w.path, nil)
	if err == nil {
		var res worker.Result
		res, err = processContent(ctx, w.client, content, w.opts)
		if err == nil {
			fmt.Fprintf(w.out, "%s %s @ %s\n", emoji.GetEmoji("watch"), w.path, time.Now().Format("15:04:05"))
			err = writeLines(w.out, res)
		}
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", emoji.GetEmoji("error"), err)
	}
}

func isContentEvent(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// signalContext cancels on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// createWatcher creates and configures a new file system watcher
func createWatcher(paths ...string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			cleanupWatcher(watcher)
			return nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	return watcher, nil
}

// validateWatchFilePath validates that a file path is safe to watch
func validateWatchFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}

	// Clean the path to resolve . and .. elements
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot watch directory, must be a file")
	}

	return nil
}
