package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/logdesk/internal/common"
	"github.com/yildizm/logdesk/internal/query"
)

// filterFlags are the record filters shared by query, export and ui
type filterFlags struct {
	levels    []string
	modules   []string
	processes []string
	keyword   string
	since     string
	until     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.levels, "level", "l", nil, "only these levels (repeatable, e.g. ERROR,WARN)")
	cmd.Flags().StringSliceVarP(&f.modules, "module", "m", nil, "only these modules (repeatable)")
	cmd.Flags().StringSliceVarP(&f.processes, "process", "p", nil, "only these processes (repeatable)")
	cmd.Flags().StringVarP(&f.keyword, "keyword", "k", "", "case-insensitive text in message, module or data")
	cmd.Flags().StringVar(&f.since, "since", "", "start time: RFC3339, epoch milliseconds or a duration ago (e.g. 15m)")
	cmd.Flags().StringVar(&f.until, "until", "", "end time, same forms as --since")
}

// filters converts the flags into query filters
func (f *filterFlags) filters(now time.Time) (query.Filters, error) {
	out := query.Filters{
		Module:  f.modules,
		Process: f.processes,
		Keyword: f.keyword,
	}
	for _, l := range f.levels {
		out.Level = append(out.Level, common.NormalizeLevel(l))
	}

	if f.since != "" {
		ms, err := parseTimeFlag(f.since, now)
		if err != nil {
			return query.Filters{}, fmt.Errorf("invalid --since: %w", err)
		}
		out.StartTime = &ms
	}
	if f.until != "" {
		ms, err := parseTimeFlag(f.until, now)
		if err != nil {
			return query.Filters{}, fmt.Errorf("invalid --until: %w", err)
		}
		out.EndTime = &ms
	}
	if out.StartTime != nil && out.EndTime != nil && *out.StartTime > *out.EndTime {
		return query.Filters{}, fmt.Errorf("--since is after --until")
	}
	return out, nil
}

// parseTimeFlag accepts RFC3339, epoch milliseconds or a duration before now
func parseTimeFlag(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d).UnixMilli(), nil
	}
	return 0, fmt.Errorf("%q is not a time, epoch milliseconds or duration", s)
}
