package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  *zapcore.Level
	}{
		{"debug", levelPtr(zapcore.DebugLevel)},
		{"info", levelPtr(zapcore.InfoLevel)},
		{"warn", levelPtr(zapcore.WarnLevel)},
		{"error", levelPtr(zapcore.ErrorLevel)},
		{"WARN", levelPtr(zapcore.WarnLevel)},
		{"fatal", nil},
		{"verbose", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseLevel(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, *tt.want)
		}
	}
}

func TestNopWith(t *testing.T) {
	l := Nop().With(ChatID(42), String("kind", "message"))
	l.Info("discarded", Int("n", 1), Bool("ok", true))
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }

func TestWrapNamedWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core)).Named("dispatch").With(ChatID(7))

	l.Warn("update dropped", UpdateID(12), Command("add"))
	l.Debugf("workers=%d", 3)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.LoggerName != "dispatch" {
		t.Errorf("LoggerName = %q, want %q", first.LoggerName, "dispatch")
	}
	ctx := first.ContextMap()
	if ctx["chat_id"] != int64(7) || ctx["update_id"] != int64(12) || ctx["command"] != "add" {
		t.Errorf("fields = %v", ctx)
	}
	if entries[1].Message != "workers=3" {
		t.Errorf("Message = %q, want %q", entries[1].Message, "workers=3")
	}
}
