package backend

import (
	"errors"
	"testing"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{0, 50, 0},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{120, 50, 3},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, totalPages, want int
	}{
		{0, 3, 1},
		{-4, 3, 1},
		{2, 3, 2},
		{5, 3, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := ClampPage(tt.page, tt.totalPages); got != tt.want {
			t.Errorf("ClampPage(%d, %d) = %d, want %d", tt.page, tt.totalPages, got, tt.want)
		}
	}
}

func TestNormalizePageSize(t *testing.T) {
	tests := map[int]int{0: DefaultPageSize, -1: DefaultPageSize, 10: 10, 5000: MaxPageSize}
	for in, want := range tests {
		if got := NormalizePageSize(in); got != want {
			t.Errorf("NormalizePageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"asc", SortAsc, false},
		{"desc", SortDesc, false},
		{"", SortDesc, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryParamsValidate(t *testing.T) {
	start, end := int64(200), int64(100)

	if err := (QueryParams{StartTime: &start, EndTime: &end}).Validate(); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("inverted range error = %v, want ErrInvalidTimeRange", err)
	}
	if err := (QueryParams{SortOrder: "sideways"}).Validate(); !errors.Is(err, ErrInvalidSortOrder) {
		t.Errorf("bad sort error = %v, want ErrInvalidSortOrder", err)
	}
	if err := (QueryParams{StartTime: &end, EndTime: &start}).Validate(); err != nil {
		t.Errorf("valid params rejected: %v", err)
	}
}

func TestLogStatsClone(t *testing.T) {
	orig := LogStats{
		Total:   2,
		ByLevel: map[string]int{"INFO": 2},
		Hourly:  []HourlyBucket{{Hour: 1, Count: 2}},
	}
	c := orig.Clone()
	c.ByLevel["INFO"] = 9
	c.Hourly[0].Count = 9

	if orig.ByLevel["INFO"] != 2 || orig.Hourly[0].Count != 2 {
		t.Errorf("Clone shares memory with original: %+v", orig)
	}
	if c.ByModule != nil {
		t.Errorf("nil maps should stay nil")
	}
}
