package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/logdesk/internal/backend"
)

// StatsBar renders the compact stats strip above the table
type StatsBar struct {
	Stats  backend.LogStats
	Label  lipgloss.Style
	Value  lipgloss.Style
	Alert  lipgloss.Style
	Spark  lipgloss.Style
	Module int // how many top modules to list
}

// NewStatsBar creates a stats bar for stats
func NewStatsBar(stats backend.LogStats) *StatsBar {
	return &StatsBar{Stats: stats, Module: 3}
}

// Render renders totals, level counts and the 24h sparkline on one line
func (s *StatsBar) Render() string {
	parts := []string{
		s.Label.Render("total ") + s.Value.Render(FormatCount(s.Stats.Total)),
	}

	errs := s.Stats.ByLevel["ERROR"] + s.Stats.ByLevel["FATAL"]
	errStyle := s.Value
	if s.Stats.RecentErrors > 0 {
		errStyle = s.Alert
	}
	parts = append(parts,
		s.Label.Render("errors ")+errStyle.Render(fmt.Sprintf("%s (%s recent)", FormatCount(errs), FormatCount(s.Stats.RecentErrors))),
		s.Label.Render("warn ")+s.Value.Render(FormatCount(s.Stats.ByLevel["WARN"])),
	)

	if len(s.Stats.Hourly) > 0 {
		values := make([]int, len(s.Stats.Hourly))
		for i, b := range s.Stats.Hourly {
			values[i] = b.Count
		}
		parts = append(parts, s.Label.Render("24h ")+s.Spark.Render(Sparkline(values)))
	}

	return strings.Join(parts, "  ")
}

// Sparkline maps values onto block characters scaled to the largest value
func Sparkline(values []int) string {
	chars := []rune("▁▂▃▄▅▆▇█")

	peak := 0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		if peak == 0 || v <= 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(chars[(v*len(chars)-1)/peak])
	}
	return b.String()
}

// FormatCount formats numbers with K/M suffixes
func FormatCount(n int) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 1000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
