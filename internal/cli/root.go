package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yildizm/logdesk/internal/config"
	"github.com/yildizm/logdesk/internal/emoji"
	"github.com/yildizm/logdesk/internal/formatter"
	"github.com/yildizm/logdesk/internal/logger"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	noEmoji   bool
	outputFmt string
	sources   []string

	globalConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	globalConfig = nil

	rootCmd := &cobra.Command{
		Use:   "logdesk",
		Short: "Log processing and query desk",
		Long: `logdesk loads log files into a queryable store and processes raw log text
on a background worker.

It reads JSON, logfmt and plain text logs (optionally zstd-compressed), lets you
filter, page and export records, shows per-level and per-module statistics and
offers an interactive terminal browser.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "output format (text, json, csv)")
	rootCmd.PersistentFlags().StringSliceVarP(&sources, "source", "s", nil, "log file to load into the store (repeatable)")

	rootCmd.AddCommand(newViewCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newModulesCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newUICommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logdesk %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig loads the configuration once per command run and applies flag overrides
func loadConfig() (*config.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(sources) > 0 {
		cfg.Backend.Sources = append([]string{}, sources...)
	}
	if outputFmt != "" {
		cfg.Output.DefaultFormat = outputFmt
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noEmoji {
		cfg.Output.NoEmoji = true
	}
	if noColor {
		cfg.Output.ColorMode = "never"
	}
	emoji.SetEmojiDisabled(cfg.Output.NoEmoji)

	globalConfig = cfg
	return cfg, nil
}

// Global helpers
func isVerbose() bool {
	if globalConfig != nil {
		return globalConfig.Output.Verbose
	}
	return verbose
}

func colorEnabled(cfg *config.Config) bool {
	switch cfg.Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return !noColor
	}
}

func newLogger(component string) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose)
}

func newFormatter(cfg *config.Config) (formatter.Formatter, error) {
	return formatter.New(cfg.Output.DefaultFormat, formatter.Options{
		Color:           colorEnabled(cfg),
		Emoji:           !cfg.Output.NoEmoji,
		TimestampFormat: cfg.Output.TimestampFormat,
	})
}
