package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.logdesk.yaml",               // Project-specific config (highest priority)
	"~/.config/logdesk/config.yaml", // User config
	"/etc/logdesk/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.logdesk.yaml
// 4. ~/.config/logdesk/config.yaml
// 5. /etc/logdesk/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If custom path is provided, use only that path
	if customPath != "" {
		// Validate the custom path for security
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from standard paths in reverse priority order (lowest to highest)
		paths := make([]string, len(l.configPaths))
		copy(paths, l.configPaths)
		// Reverse the slice to load lowest priority first
		for i := len(paths)/2 - 1; i >= 0; i-- {
			opp := len(paths) - 1 - i
			paths[i], paths[opp] = paths[opp], paths[i]
		}

		for _, path := range paths {
			expandedPath := expandPath(path)
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					// Log warning but continue with other config files
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	// Apply environment variable overrides
	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Create a temporary config to unmarshal into
	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Merge the file config into the existing config
	mergeConfigs(config, &fileConfig)

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Backend Config
		"LOGDESK_BACKEND_FORMAT":          func(v string) error { config.Backend.Format = v; return nil },
		"LOGDESK_BACKEND_DEFAULT_MODULE":  func(v string) error { config.Backend.DefaultModule = v; return nil },
		"LOGDESK_BACKEND_DEFAULT_PROCESS": func(v string) error { config.Backend.DefaultProcess = v; return nil },
		"LOGDESK_BACKEND_EXPORT_DIR":      func(v string) error { config.Backend.ExportDir = v; return nil },

		// Worker Config
		"LOGDESK_WORKER_DEFAULT_TAIL":      func(v string) error { return parseInt(v, &config.Worker.DefaultTail) },
		"LOGDESK_WORKER_MAX_CONTENT_BYTES": func(v string) error { return parseInt(v, &config.Worker.MaxContentBytes) },

		// Query Config
		"LOGDESK_QUERY_PAGE_SIZE":           func(v string) error { return parseInt(v, &config.Query.PageSize) },
		"LOGDESK_QUERY_SORT_ORDER":          func(v string) error { config.Query.SortOrder = v; return nil },
		"LOGDESK_QUERY_AUTO_REFRESH":        func(v string) error { return parseDuration(v, &config.Query.AutoRefresh) },
		"LOGDESK_QUERY_RECENT_ERROR_WINDOW": func(v string) error { return parseDuration(v, &config.Query.RecentErrorWindow) },

		// Output Config
		"LOGDESK_OUTPUT_DEFAULT_FORMAT":   func(v string) error { config.Output.DefaultFormat = v; return nil },
		"LOGDESK_OUTPUT_COLOR_MODE":       func(v string) error { config.Output.ColorMode = v; return nil },
		"LOGDESK_OUTPUT_VERBOSE":          func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"LOGDESK_OUTPUT_TIMESTAMP_FORMAT": func(v string) error { config.Output.TimestampFormat = v; return nil },
		"LOGDESK_OUTPUT_NO_EMOJI":         func(v string) error { return parseBool(v, &config.Output.NoEmoji) },

		// Watch Config
		"LOGDESK_WATCH_DEBOUNCE": func(v string) error { return parseDuration(v, &config.Watch.Debounce) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Sources are a comma-separated list
	if sources := os.Getenv("LOGDESK_BACKEND_SOURCES"); sources != "" {
		config.Backend.Sources = splitList(sources)
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	// Clean the path to resolve any ".." components
	cleanPath := filepath.Clean(path)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Ensure it's a YAML file
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	// Convert to absolute path for additional validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Basic sanity check - ensure it's not in sensitive system directories
	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config
// Only non-zero values from source overwrite destination
func mergeConfigs(dst, src *Config) {
	// Version
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeBackendConfig(&dst.Backend, &src.Backend)
	mergeWorkerConfig(&dst.Worker, &src.Worker)
	mergeQueryConfig(&dst.Query, &src.Query)
	mergeOutputConfig(&dst.Output, &src.Output)
	if src.Watch.Debounce != 0 {
		dst.Watch.Debounce = src.Watch.Debounce
	}
}

// mergeBackendConfig merges backend configuration
func mergeBackendConfig(dst, src *BackendConfig) {
	if len(src.Sources) > 0 {
		dst.Sources = src.Sources
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.DefaultModule != "" {
		dst.DefaultModule = src.DefaultModule
	}
	if src.DefaultProcess != "" {
		dst.DefaultProcess = src.DefaultProcess
	}
	if src.ExportDir != "" {
		dst.ExportDir = src.ExportDir
	}
}

// mergeWorkerConfig merges worker configuration
func mergeWorkerConfig(dst, src *WorkerConfig) {
	if src.DefaultTail != 0 {
		dst.DefaultTail = src.DefaultTail
	}
	if src.MaxContentBytes != 0 {
		dst.MaxContentBytes = src.MaxContentBytes
	}
}

// mergeQueryConfig merges query configuration
func mergeQueryConfig(dst, src *QueryConfig) {
	if src.PageSize != 0 {
		dst.PageSize = src.PageSize
	}
	if src.SortOrder != "" {
		dst.SortOrder = src.SortOrder
	}
	if src.AutoRefresh != 0 {
		dst.AutoRefresh = src.AutoRefresh
	}
	if src.RecentErrorWindow != 0 {
		dst.RecentErrorWindow = src.RecentErrorWindow
	}
}

// mergeOutputConfig merges output configuration
func mergeOutputConfig(dst, src *OutputConfig) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.TimestampFormat != "" {
		dst.TimestampFormat = src.TimestampFormat
	}
	// Both flags default to false, so a file can only switch them on.
	// Env overrides can switch them off again.
	mergeIfSet(&dst.Verbose, src.Verbose)
	mergeIfSet(&dst.NoEmoji, src.NoEmoji)
}

// mergeIfSet turns dst on when src is set
func mergeIfSet(dst *bool, src bool) {
	if src {
		*dst = true
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
