package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestVerboseGating(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func(l *Logger)
		want    string
	}{
		{name: "debug hidden", verbose: false, log: func(l *Logger) { l.Debug("hidden") }, want: ""},
		{name: "debug shown", verbose: true, log: func(l *Logger) { l.Debug("x=%d", 1) }, want: "DEBUG [worker] x=1"},
		{name: "info hidden", verbose: false, log: func(l *Logger) { l.Info("hidden") }, want: ""},
		{name: "warn always", verbose: false, log: func(l *Logger) { l.Warn("careful") }, want: "WARN [worker] careful"},
		{name: "error always", verbose: false, log: func(l *Logger) { l.Error("bad") }, want: "ERROR [worker] bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New("worker", Verbose(tt.verbose)).WithWriter(&buf)
			tt.log(l)

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("query", Verbose(true)).WithWriter(&buf)

	l.DebugWithFields("fetched", []Field{Count(3), Error(errors.New("nope")), F("page", 2)})

	out := buf.String()
	if !strings.Contains(out, "[count=3 error=nope page=2]") {
		t.Errorf("unexpected fields in %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithCallback("", func() bool { return false }).WithWriter(&buf)

	base.Warn("one")
	base.WithComponent("rpc").Warn("two")

	out := buf.String()
	if !strings.Contains(out, "[main] one") || !strings.Contains(out, "[rpc] two") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNilAndNop(t *testing.T) {
	var l *Logger
	l.Warn("no panic")
	l.Debug("no panic")
	Nop().Error("discarded")
}
