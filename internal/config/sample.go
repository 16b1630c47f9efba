package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# logdesk configuration
version: "1.0"

backend:
  # Log files loaded into the in-memory store for query, stats, export and ui.
  # Files ending in .zst are decompressed while reading.
  sources: []
  # How lines are read: auto, json, logfmt or text
  format: auto
  # Module and process assigned to lines that do not name one
  default_module: ""
  default_process: ""
  # Directory used by export when no path is given
  export_dir: "."

worker:
  # Keep only the last N lines when viewing a file (0 keeps everything)
  default_tail: 0
  # Reject payloads larger than this many bytes (0 disables the limit)
  max_content_bytes: 67108864

query:
  # Records per page (1-1000)
  page_size: 50
  # Timestamp order: asc or desc
  sort_order: desc
  # Refresh interval for the ui and query --follow (0 disables)
  auto_refresh: 0s
  # How far back the recent error count looks
  recent_error_window: 1h

output:
  # Default output format: text, json or csv
  default_format: text
  # Colors: auto, always or never
  color_mode: auto
  verbose: false
  timestamp_format: "2006-01-02 15:04:05"
  no_emoji: false

watch:
  # Quiet period after a write before the file is re-read
  debounce: 200ms
`
}

// MinimalSampleConfig returns a compact configuration with the common settings
func MinimalSampleConfig() string {
	return `version: "1.0"
backend:
  sources: []
query:
  page_size: 50
  sort_order: desc
output:
  default_format: text
`
}
