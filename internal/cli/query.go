package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/emoji"
	"github.com/yildizm/logdesk/internal/formatter"
	"github.com/yildizm/logdesk/internal/query"
)

var (
	queryFilters  filterFlags
	queryPage     int
	queryPageSize int
	querySort     string
	queryFollow   bool
	queryInterval time.Duration
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored log records",
		Long: `Load the configured sources and print one page of records matching the filters.

With --follow the sources are tailed and the page is re-printed whenever new
records change the result.

Examples:
  logdesk query -s app.log --level ERROR
  logdesk query -s app.log -k timeout --since 1h --sort asc
  logdesk query -s app.log --page 2 --page-size 100 -o json
  logdesk query -s app.log --follow --level ERROR`,
		Args: cobra.NoArgs,
		RunE: runQuery,
	}

	queryFilters = filterFlags{}
	queryFilters.register(cmd)
	cmd.Flags().IntVar(&queryPage, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&queryPageSize, "page-size", 0, "records per page (default from config)")
	cmd.Flags().StringVar(&querySort, "sort", "", "sort order by timestamp: asc or desc")
	cmd.Flags().BoolVarP(&queryFollow, "follow", "F", false, "tail the sources and re-print on change")
	cmd.Flags().DurationVar(&queryInterval, "interval", 0, "refresh interval for --follow (default from config, else 2s)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if queryPageSize > 0 {
		cfg.Query.PageSize = queryPageSize
	}
	if querySort != "" {
		order, err := backend.ParseSortOrder(querySort)
		if err != nil {
			return err
		}
		cfg.Query.SortOrder = string(order)
	}

	filters, err := queryFilters.filters(time.Now())
	if err != nil {
		return err
	}
	f, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(commandContext(cmd.Context()))
	defer cancel()

	if !queryFollow {
		mem, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		store := newQueryStore(mem, cfg, filters, nil)
		if err := store.SetPage(ctx, queryPage); err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), f, store.Snapshot())
	}

	interval := queryInterval
	if interval <= 0 {
		interval = cfg.Query.AutoRefresh
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}

	mem, follower, err := openFollowedBackend(ctx, cfg)
	if err != nil {
		return err
	}

	printer := &changePrinter{out: cmd.OutOrStdout(), f: f, last: -1}
	store := newQueryStore(mem, cfg, filters, printer.onChange)
	if err := store.SetPage(ctx, queryPage); err != nil {
		return err
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "%s Following %d sources every %s, Ctrl+C to stop\n", emoji.GetEmoji("watch"), len(follower.Paths()), interval)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return follower.Run(gctx) })
	g.Go(func() error {
		if err := store.AutoRefresh(gctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func printRecords(w io.Writer, f formatter.Formatter, st query.State) error {
	out, err := f.FormatRecords(backend.QueryResult{
		Records:    st.Records,
		Total:      st.Total,
		Page:       st.Page,
		PageSize:   st.PageSize,
		TotalPages: st.TotalPages,
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// changePrinter prints the page whenever a settled fetch changes the total
type changePrinter struct {
	mu   sync.Mutex
	out  io.Writer
	f    formatter.Formatter
	last int
}

func (p *changePrinter) onChange(st query.State) {
	if st.Loading || st.LastError != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if st.Total == p.last {
		return
	}
	p.last = st.Total
	if err := printRecords(p.out, p.f, st); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", emoji.GetEmoji("error"), err)
	}
}
