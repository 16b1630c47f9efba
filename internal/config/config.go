package config

import (
	"fmt"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Backend BackendConfig `yaml:"backend" json:"backend"`
	Worker  WorkerConfig  `yaml:"worker" json:"worker"`
	Query   QueryConfig   `yaml:"query" json:"query"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
}

// BackendConfig configures where records come from and where exports go
type BackendConfig struct {
	Sources        []string `yaml:"sources" json:"sources"`                 // log files loaded into the store
	Format         string   `yaml:"format" json:"format"`                   // auto|json|logfmt|text
	DefaultModule  string   `yaml:"default_module" json:"default_module"`   // module for lines that name none
	DefaultProcess string   `yaml:"default_process" json:"default_process"` // process for lines that name none
	ExportDir      string   `yaml:"export_dir" json:"export_dir"`           // directory for exports without a path
}

// WorkerConfig configures the background line processor
type WorkerConfig struct {
	DefaultTail     int `yaml:"default_tail" json:"default_tail"`           // 0 keeps every line
	MaxContentBytes int `yaml:"max_content_bytes" json:"max_content_bytes"` // per request payload limit
}

// QueryConfig configures the paged query view
type QueryConfig struct {
	PageSize          int           `yaml:"page_size" json:"page_size"`
	SortOrder         string        `yaml:"sort_order" json:"sort_order"`                   // asc|desc
	AutoRefresh       time.Duration `yaml:"auto_refresh" json:"auto_refresh"`               // 0 disables
	RecentErrorWindow time.Duration `yaml:"recent_error_window" json:"recent_error_window"` // window for the recent error count
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat   string `yaml:"default_format" json:"default_format"`     // text|json|csv
	ColorMode       string `yaml:"color_mode" json:"color_mode"`             // auto|always|never
	Verbose         bool   `yaml:"verbose" json:"verbose"`                   // default verbosity
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format"` // time format string
	NoEmoji         bool   `yaml:"no_emoji" json:"no_emoji"`                 // plain symbols only
}

// WatchConfig configures the file watcher
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"` // quiet period before re-reading
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Backend: BackendConfig{
			Sources:   []string{},
			Format:    "auto",
			ExportDir: ".",
		},
		Worker: WorkerConfig{
			DefaultTail:     0,
			MaxContentBytes: 64 * 1024 * 1024, // 64MB
		},
		Query: QueryConfig{
			PageSize:          50,
			SortOrder:         "desc",
			AutoRefresh:       0,
			RecentErrorWindow: time.Hour,
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			ColorMode:       "auto",
			Verbose:         false,
			TimestampFormat: "2006-01-02 15:04:05",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateBackendConfig(); err != nil {
		return err
	}
	if err := c.validateWorkerConfig(); err != nil {
		return err
	}
	if err := c.validateQueryConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("debounce must be non-negative")
	}
	return nil
}

// validateBackendConfig validates backend-related configuration
func (c *Config) validateBackendConfig() error {
	if c.Backend.Format != "" {
		validFormats := map[string]bool{
			"auto":   true,
			"json":   true,
			"logfmt": true,
			"text":   true,
		}
		if !validFormats[c.Backend.Format] {
			return fmt.Errorf("invalid backend format: %s (must be one of: auto, json, logfmt, text)", c.Backend.Format)
		}
	}
	return nil
}

// validateWorkerConfig validates worker-related configuration
func (c *Config) validateWorkerConfig() error {
	if c.Worker.DefaultTail < 0 {
		return fmt.Errorf("default_tail must be non-negative")
	}
	if c.Worker.MaxContentBytes < 0 {
		return fmt.Errorf("max_content_bytes must be non-negative")
	}
	return nil
}

// validateQueryConfig validates query-related configuration
func (c *Config) validateQueryConfig() error {
	if c.Query.PageSize < 1 || c.Query.PageSize > 1000 {
		return fmt.Errorf("page_size must be between 1 and 1000")
	}
	if c.Query.SortOrder != "" && c.Query.SortOrder != "asc" && c.Query.SortOrder != "desc" {
		return fmt.Errorf("invalid sort order: %s (must be one of: asc, desc)", c.Query.SortOrder)
	}
	if c.Query.AutoRefresh < 0 {
		return fmt.Errorf("auto_refresh must be non-negative")
	}
	if c.Query.RecentErrorWindow < 0 {
		return fmt.Errorf("recent_error_window must be non-negative")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json": true,
			"text": true,
			"csv":  true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}
