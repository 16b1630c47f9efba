package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/logdesk/internal/backend"
	"github.com/yildizm/logdesk/internal/common"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// getLevelEmoji returns emoji for log levels using go-termfmt
func getLevelEmoji(level common.LogLevel, opts *termfmt.TerminalOptions) string {
	switch level {
	case common.LevelFatal, common.LevelError:
		return termfmt.GetEmoji("error", opts)
	case common.LevelWarn:
		return termfmt.GetEmoji("warning", opts)
	case common.LevelInfo:
		return termfmt.GetEmoji("info", opts)
	default:
		return termfmt.GetEmoji("insight", opts)
	}
}

// formatData renders record data as sorted key=value pairs
func formatData(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+data[k])
	}
	return strings.Join(parts, " ")
}

// sparkline scales bucket counts onto block characters
func sparkline(buckets []backend.HourlyBucket) string {
	peak := 0
	for _, b := range buckets {
		if b.Count > peak {
			peak = b.Count
		}
	}

	var sb strings.Builder
	for _, b := range buckets {
		if peak == 0 || b.Count == 0 {
			sb.WriteRune(' ')
			continue
		}
		idx := (b.Count*len(sparkBlocks) - 1) / peak
		sb.WriteRune(sparkBlocks[idx])
	}
	return sb.String()
}
