package lines

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "empty", content: "", want: []string{}},
		{name: "single line", content: "hello", want: []string{"hello"}},
		{name: "drops blank lines", content: "a\n\nb\n   \nc\n", want: []string{"a", "b", "c"}},
		{name: "keeps original spacing", content: "  indented\ttabbed ", want: []string{"  indented\ttabbed "}},
		{name: "only whitespace", content: "\n \n\t\n", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLines(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLines(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestParseLinesRoundTrip(t *testing.T) {
	inputs := [][]string{
		{"a", "", "b", "  ", "c"},
		{"", ""},
		{"ERROR x", "INFO y"},
	}

	for _, in := range inputs {
		got := ParseLines(strings.Join(in, "\n"))

		want := []string{}
		for _, l := range in {
			if strings.TrimSpace(l) != "" {
				want = append(want, l)
			}
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip of %q = %q, want %q", in, got, want)
		}

		again := ParseLines(strings.Join(got, "\n"))
		if !reflect.DeepEqual(again, got) {
			t.Errorf("ParseLines is not idempotent: %q != %q", again, got)
		}
	}
}

func TestTailTruncate(t *testing.T) {
	content := "one\ntwo\n\nfour\nfive"

	tests := []struct {
		name string
		n    int
		want string
	}{
		{name: "zero is identity", n: 0, want: content},
		{name: "negative is identity", n: -3, want: content},
		{name: "last two", n: 2, want: "four\nfive"},
		{name: "blank segments count", n: 3, want: "\nfour\nfive"},
		{name: "larger than content", n: 50, want: content},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TailTruncate(content, tt.n)
			if got != tt.want {
				t.Errorf("TailTruncate(%d) = %q, want %q", tt.n, got, tt.want)
			}
			if tt.n > 0 && len(strings.Split(got, "\n")) > tt.n {
				t.Errorf("TailTruncate(%d) returned more than %d segments", tt.n, tt.n)
			}
		})
	}
}

func TestTailThenParse(t *testing.T) {
	got := ParseLines(TailTruncate("a\n\nb\nc", 2))
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilterBySubstring(t *testing.T) {
	res := FilterBySubstring("ERROR foo\nINFO bar\nERROR baz", "error")

	want := []string{"ERROR foo", "ERROR baz"}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Errorf("Lines = %q, want %q", res.Lines, want)
	}
	if res.FilteredCount != 2 {
		t.Errorf("FilteredCount = %d, want 2", res.FilteredCount)
	}
	if res.Content != "ERROR foo\nERROR baz" {
		t.Errorf("Content = %q", res.Content)
	}
}

func TestFilterBySubstringEmptyNeedle(t *testing.T) {
	content := "a\n\nb"
	res := FilterBySubstring(content, "")

	if res.Content != content {
		t.Errorf("Content = %q, want unchanged %q", res.Content, content)
	}
	if !reflect.DeepEqual(res.Lines, []string{"a", "b"}) {
		t.Errorf("Lines = %q, want [a b]", res.Lines)
	}
	if res.FilteredCount != 0 {
		t.Errorf("FilteredCount = %d, want 0", res.FilteredCount)
	}
}

func TestFilterBySubstringNoMatch(t *testing.T) {
	res := FilterBySubstring("alpha\nbeta", "gamma")
	if res.Content != "" || len(res.Lines) != 0 || res.FilteredCount != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if res.Lines == nil {
		t.Error("Lines should be an empty slice, not nil")
	}
}

func TestFilterMatchesRawLine(t *testing.T) {
	// The match runs on the raw line, so leading spaces are part of it.
	res := FilterBySubstring("  warn: disk\nok", "  WARN")
	if res.FilteredCount != 1 || res.Lines[0] != "  warn: disk" {
		t.Errorf("unexpected result %+v", res)
	}
}
