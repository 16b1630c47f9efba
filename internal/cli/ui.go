package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/logdesk/internal/ui"
)

var (
	uiFilters filterFlags
	uiTheme   string
)

func newUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse records in an interactive terminal UI",
		Long: `Load the configured sources and open a paged record browser with a detail
pane, keyword search, level and sort toggles, refresh, export and clear.

Press ? inside the browser for the key list.

Examples:
  logdesk ui -s app.log
  logdesk ui -s app.log --level ERROR --theme high-contrast`,
		Args: cobra.NoArgs,
		RunE: runUI,
	}

	uiFilters = filterFlags{}
	uiFilters.register(cmd)
	cmd.Flags().StringVar(&uiTheme, "theme", "default", fmt.Sprintf("color theme %v", ui.AvailableThemes()))

	return cmd
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme, ok := ui.ThemeByName(uiTheme)
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", uiTheme, ui.AvailableThemes())
	}
	filters, err := uiFilters.filters(time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(commandContext(cmd.Context()))
	defer cancel()

	mem, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier()
	store := newQueryStore(mem, cfg, filters, notifier.OnChange)

	return ui.Run(ctx, store, notifier, ui.Options{
		Theme:       theme,
		Color:       colorEnabled(cfg),
		TimeFormat:  cfg.Output.TimestampFormat,
		AutoRefresh: cfg.Query.AutoRefresh,
	})
}
