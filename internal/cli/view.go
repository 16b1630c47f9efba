package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yildizm/logdesk/internal/emoji"
	"github.com/yildizm/logdesk/internal/monitor"
	"github.com/yildizm/logdesk/internal/worker"
)

var (
	viewTail      int
	viewFilter    string
	viewParseOnly bool
	viewStats     bool
)

func newViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Show the lines of a log file through the background worker",
		Long: `Load a log file (or stdin) on the background worker, keep the last --tail lines
and optionally keep only the lines containing --filter (case-insensitive).

Files ending in .zst are decompressed on the fly.

Examples:
  logdesk view app.log
  logdesk view --tail 200 --filter timeout app.log
  cat app.log | logdesk view --parse-only`,
		Args: cobra.MaximumNArgs(1),
		RunE: runView,
	}

	cmd.Flags().IntVarP(&viewTail, "tail", "t", 0, "keep only the last N lines (0 = all)")
	cmd.Flags().StringVarP(&viewFilter, "filter", "f", "", "keep lines containing this text")
	cmd.Flags().BoolVar(&viewParseOnly, "parse-only", false, "split into lines without tail or filter")
	cmd.Flags().BoolVar(&viewStats, "stats", false, "print worker processing stats to stderr")

	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flag("tail").Changed {
		viewTail = cfg.Worker.DefaultTail
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	content, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	client := newWorkerClient(cfg)
	defer func() { _ = client.Close() }()

	res, err := processContent(commandContext(cmd.Context()), client, content, lineOptions{
		tail:      viewTail,
		filter:    viewFilter,
		parseOnly: viewParseOnly,
	})
	if err != nil {
		return err
	}

	if err := writeLines(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if viewStats {
		printProcessingStats(cmd.ErrOrStderr(), client.Stats())
	}
	return nil
}

func writeLines(w io.Writer, res worker.Result) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := newFormatter(cfg)
	if err != nil {
		return err
	}
	out, err := f.FormatLines(res)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func printProcessingStats(w io.Writer, s monitor.ProcessingStats) {
	fmt.Fprintf(w, "%s Worker: %d requests, %d failed, %d lines, %d bytes, %s total, avg %s (min %s, max %s)\n",
		emoji.GetEmoji("statistics"), s.Requests, s.Failures, s.Lines, s.Bytes, s.TotalTime, s.AvgTime, s.MinTime, s.MaxTime)
}

// commandContext returns cmd's context, or a background context outside Execute
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
