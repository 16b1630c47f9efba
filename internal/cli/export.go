package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/emoji"
)

var (
	exportFilters filterFlags
	exportPath    string
	exportSort    string
)

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching records as NDJSON",
		Long: `Load the configured sources and write every record matching the filters to an
NDJSON file, one JSON object per line. Paths ending in .zst are zstd-compressed.
Without --path the file is created in the configured export directory.

Exported files can be loaded again as a source.

Examples:
  logdesk export -s app.log --level ERROR --path errors.ndjson
  logdesk export -s app.log --since 24h --path last-day.ndjson.zst`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	exportFilters = filterFlags{}
	exportFilters.register(cmd)
	cmd.Flags().StringVar(&exportPath, "path", "", "output file (default: <export_dir>/logs-<unix>.ndjson)")
	cmd.Flags().StringVar(&exportSort, "sort", "", "sort order by timestamp: asc or desc")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if exportSort != "" {
		order, err := backend.ParseSortOrder(exportSort)
		if err != nil {
			return err
		}
		cfg.Query.SortOrder = string(order)
	}

	filters, err := exportFilters.filters(time.Now())
	if err != nil {
		return err
	}

	ctx := commandContext(cmd.Context())
	mem, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}

	store := newQueryStore(mem, cfg, filters, nil)
	res, err := store.ExportLogs(ctx, exportPath)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("export failed: %s", res.Error)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d records to %s\n", emoji.GetEmoji("success"), res.Count, res.FilePath)
	return nil
}
