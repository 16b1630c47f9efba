package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/logdesk/internal/common"
)

// Theme represents a color theme for the TUI
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	// Level colors
	Debug lipgloss.AdaptiveColor
	Info  lipgloss.AdaptiveColor
	Warn  lipgloss.AdaptiveColor
	Error lipgloss.AdaptiveColor
	Fatal lipgloss.AdaptiveColor

	Success  lipgloss.AdaptiveColor
	Border   lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Selected lipgloss.AdaptiveColor
}

func adaptive(c [2]string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: c[0], Dark: c[1]}
}

// buildTheme creates a theme with the given light/dark color pairs
func buildTheme(name string, primary, secondary, accent, debug, info, warn, errorColor, fatal, success, border, muted, selected [2]string) Theme {
	return Theme{
		Name:      name,
		Primary:   adaptive(primary),
		Secondary: adaptive(secondary),
		Accent:    adaptive(accent),
		Debug:     adaptive(debug),
		Info:      adaptive(info),
		Warn:      adaptive(warn),
		Error:     adaptive(errorColor),
		Fatal:     adaptive(fatal),
		Success:   adaptive(success),
		Border:    adaptive(border),
		Muted:     adaptive(muted),
		Selected:  adaptive(selected),
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#7C3AED", "#A855F7"},
		[2]string{"#6B7280", "#9CA3AF"}, [2]string{"#0891B2", "#06B6D4"}, [2]string{"#D97706", "#F59E0B"},
		[2]string{"#DC2626", "#EF4444"}, [2]string{"#9D174D", "#F472B6"}, [2]string{"#059669", "#10B981"},
		[2]string{"#D1D5DB", "#374151"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#DBEAFE", "#1E3A8A"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#000080", "#8080FF"},
		[2]string{"#666666", "#BBBBBB"}, [2]string{"#0066CC", "#4499FF"}, [2]string{"#CC6600", "#FFAA00"},
		[2]string{"#CC0000", "#FF4444"}, [2]string{"#800080", "#FF80FF"}, [2]string{"#006600", "#00FF00"},
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#CCCCCC", "#333333"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"}, [2]string{"#4A5568", "#CBD5E0"},
		[2]string{"#A0AEC0", "#718096"}, [2]string{"#2B6CB0", "#63B3ED"}, [2]string{"#C05621", "#F6AD55"},
		[2]string{"#C53030", "#FC8181"}, [2]string{"#553C9A", "#B794F6"}, [2]string{"#2F855A", "#68D391"},
		[2]string{"#E2E8F0", "#2D3748"}, [2]string{"#A0AEC0", "#718096"}, [2]string{"#EDF2F7", "#2D3748"})
)

// ThemeByName looks up a theme; the second result is false for unknown names
func ThemeByName(name string) (Theme, bool) {
	switch name {
	case "", "default":
		return DefaultTheme, true
	case "high-contrast":
		return HighContrastTheme, true
	case "minimal":
		return MinimalTheme, true
	default:
		return Theme{}, false
	}
}

// AvailableThemes returns the theme names ThemeByName accepts
func AvailableThemes() []string {
	return []string{"default", "high-contrast", "minimal"}
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// Styles contains all the styled components
type Styles struct {
	Theme Theme

	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style

	Row      lipgloss.Style
	Selected lipgloss.Style

	Status  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Prompt  lipgloss.Style

	Detail lipgloss.Style
	Frame  lipgloss.Style

	levels map[common.LogLevel]lipgloss.Style
}

// NewStyles builds styles for theme. With color disabled every style renders plain text.
func NewStyles(theme Theme, color bool) *Styles {
	base := lipgloss.NewStyle
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Theme: theme, Title: plain, Header: plain, Body: plain, Muted: plain,
			Row: plain, Selected: plain.Reverse(true), Status: plain, Success: plain,
			Error: plain, Prompt: plain,
			Detail: plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			Frame:  plain,
			levels: map[common.LogLevel]lipgloss.Style{},
		}
	}

	return &Styles{
		Theme:    theme,
		Title:    base().Foreground(theme.Primary).Bold(true).Padding(0, 1),
		Header:   base().Foreground(theme.Secondary).Bold(true).Underline(true),
		Body:     base(),
		Muted:    base().Foreground(theme.Muted),
		Row:      base(),
		Selected: base().Background(theme.Selected).Foreground(theme.Primary).Bold(true),
		Status:   base().Foreground(theme.Secondary),
		Success:  base().Foreground(theme.Success).Bold(true),
		Error:    base().Foreground(theme.Error).Bold(true),
		Prompt:   base().Foreground(theme.Accent).Bold(true),
		Detail: base().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1),
		Frame: base().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
		levels: map[common.LogLevel]lipgloss.Style{
			common.LevelDebug: base().Foreground(theme.Debug),
			common.LevelInfo:  base().Foreground(theme.Info),
			common.LevelWarn:  base().Foreground(theme.Warn).Bold(true),
			common.LevelError: base().Foreground(theme.Error).Bold(true),
			common.LevelFatal: base().Foreground(theme.Fatal).Bold(true),
		},
	}
}

// Level renders a level name in its level color
func (s *Styles) Level(level string) string {
	if style, ok := s.levels[common.ParseLogLevel(level)]; ok {
		return style.Render(level)
	}
	return level
}
