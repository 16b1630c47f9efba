package query

// Filters narrows the records a query returns. Empty fields mean no constraint.
type Filters struct {
	Level     []string `json:"level,omitempty" yaml:"level,omitempty"`
	Module    []string `json:"module,omitempty" yaml:"module,omitempty"`
	Process   []string `json:"process,omitempty" yaml:"process,omitempty"`
	Keyword   string   `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	StartTime *int64   `json:"startTime,omitempty" yaml:"start_time,omitempty"`
	EndTime   *int64   `json:"endTime,omitempty" yaml:"end_time,omitempty"`
}

// IsEmpty reports whether no constraint is set
func (f Filters) IsEmpty() bool {
	return len(f.Level) == 0 && len(f.Module) == 0 && len(f.Process) == 0 &&
		f.Keyword == "" && f.StartTime == nil && f.EndTime == nil
}

func (f Filters) clone() Filters {
	return Filters{
		Level:     cloneStrings(f.Level),
		Module:    cloneStrings(f.Module),
		Process:   cloneStrings(f.Process),
		Keyword:   f.Keyword,
		StartTime: cloneInt(f.StartTime),
		EndTime:   cloneInt(f.EndTime),
	}
}

// FilterOption overwrites one filter field, leaving the others as they are
type FilterOption func(*Filters)

// WithLevels replaces the level set; no arguments clears it
func WithLevels(levels ...string) FilterOption {
	return func(f *Filters) {
		f.Level = cloneStrings(levels)
	}
}

// WithModules replaces the module set; no arguments clears it
func WithModules(modules ...string) FilterOption {
	return func(f *Filters) {
		f.Module = cloneStrings(modules)
	}
}

// WithProcesses replaces the process set; no arguments clears it
func WithProcesses(processes ...string) FilterOption {
	return func(f *Filters) {
		f.Process = cloneStrings(processes)
	}
}

// WithKeyword replaces the keyword; "" clears it
func WithKeyword(keyword string) FilterOption {
	return func(f *Filters) {
		f.Keyword = keyword
	}
}

// WithStartTime sets the inclusive lower bound, in epoch milliseconds
func WithStartTime(ms int64) FilterOption {
	return func(f *Filters) {
		f.StartTime = &ms
	}
}

// WithoutStartTime removes the lower bound
func WithoutStartTime() FilterOption {
	return func(f *Filters) {
		f.StartTime = nil
	}
}

// WithEndTime sets the inclusive upper bound, in epoch milliseconds
func WithEndTime(ms int64) FilterOption {
	return func(f *Filters) {
		f.EndTime = &ms
	}
}

// WithoutEndTime removes the upper bound
func WithoutEndTime() FilterOption {
	return func(f *Filters) {
		f.EndTime = nil
	}
}

// WithFilters replaces every field at once
func WithFilters(filters Filters) FilterOption {
	return func(f *Filters) {
		*f = filters.clone()
	}
}

// ResetFilters clears every constraint
func ResetFilters() FilterOption {
	return func(f *Filters) {
		*f = Filters{}
	}
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
