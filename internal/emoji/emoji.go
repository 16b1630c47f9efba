package emoji

import (
	"sync/atomic"

	"github.com/yildizm/logdesk/internal/common"
)

// emojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":      {"❌", "[ERR]"},
	"warning":    {"⚠️", "[WRN]"},
	"info":       {"ℹ️", "[INF]"},
	"debug":      {"🐛", "[DBG]"},
	"fatal":      {"💀", "[FTL]"},
	"success":    {"✅", "[OK]"},
	"search":     {"🔍", "[FIND]"},
	"statistics": {"📊", "[STATS]"},
	"module":     {"🏷️", "[MOD]"},
	"export":     {"📦", "[EXP]"},
	"clear":      {"🧹", "[CLR]"},
	"watch":      {"👀", "[WATCH]"},
	"rocket":     {"🚀", "[LOG]"},
	"refresh":    {"🔄", "[REF]"},
	"help":       {"❓", "[?]"},
	"door":       {"🚪", "[EXIT]"},
	"number":     {"🔢", "[#]"},
}

var emojiDisabled atomic.Bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled.Store(disabled)
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled.Load()
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled.Load() {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}

// ForLevel returns the symbol for a level name such as "ERROR" or "warn"
func ForLevel(level string) string {
	switch common.ParseLogLevel(level) {
	case common.LevelFatal:
		return GetEmoji("fatal")
	case common.LevelError:
		return GetEmoji("error")
	case common.LevelWarn:
		return GetEmoji("warning")
	case common.LevelDebug:
		return GetEmoji("debug")
	default:
		return GetEmoji("info")
	}
}
