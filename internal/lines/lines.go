// Package lines implements the pure text operations behind the log viewer:
// splitting raw content into lines, keeping only the tail, and substring filtering.
// Every function is synchronous and side-effect free; none of them panic on odd input.
package lines

import "strings"

// FilterResult holds the outcome of FilterBySubstring
type FilterResult struct {
	Content       string
	Lines         []string
	FilteredCount int
}

// ParseLines splits content on newlines and drops lines that are blank after trimming.
// The surviving lines keep their original text and order.
func ParseLines(content string) []string {
	if content == "" {
		return []string{}
	}

	raw := strings.Split(content, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// TailTruncate keeps the last n newline-delimited segments of content.
// Blank segments count toward n; filtering happens afterwards in ParseLines.
func TailTruncate(content string, n int) string {
	if n <= 0 {
		return content
	}

	raw := strings.Split(content, "\n")
	if len(raw) <= n {
		return content
	}
	return strings.Join(raw[len(raw)-n:], "\n")
}

// FilterBySubstring keeps the raw lines containing needle, ignoring case.
// An empty needle returns the content unchanged with FilteredCount 0.
func FilterBySubstring(content, needle string) FilterResult {
	if needle == "" {
		return FilterResult{
			Content: content,
			Lines:   ParseLines(content),
		}
	}

	lowered := strings.ToLower(needle)
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), lowered) {
			kept = append(kept, line)
		}
	}

	filtered := strings.Join(kept, "\n")
	parsed := ParseLines(filtered)
	return FilterResult{
		Content:       filtered,
		Lines:         parsed,
		FilteredCount: len(parsed),
	}
}
