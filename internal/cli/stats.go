package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts by level, module and process",
		Long: `Load the configured sources and print totals, per-level, per-module and
per-process counts, errors in the recent window and a 24 hour histogram.

Examples:
  logdesk stats -s app.log
  logdesk stats -s app.log -s worker.log.zst -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f, err := newFormatter(cfg)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd.Context())
			mem, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			store := newQueryStore(mem, cfg, noFilters, nil)
			if err := store.FetchStats(ctx); err != nil {
				return err
			}

			out, err := f.FormatStats(store.Snapshot().Stats)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the distinct modules in the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f, err := newFormatter(cfg)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd.Context())
			mem, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			store := newQueryStore(mem, cfg, noFilters, nil)
			if err := store.FetchModules(ctx); err != nil {
				return err
			}

			out, err := f.FormatModules(store.Snapshot().Modules)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
