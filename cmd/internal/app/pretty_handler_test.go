package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandler_PlainOutput(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelInfo}, false)

	r := slog.NewRecord(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelInfo, "sweeper.run", 0)
	r.AddAttrs(slog.Int64("deleted", 3), slog.String("note", "two words"))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	out := sb.String()
	if !strings.Contains(out, "msg=sweeper.run") {
		t.Fatalf("missing message in output: %q", out)
	}
	if !strings.Contains(out, "deleted=3") {
		t.Fatalf("missing attr in output: %q", out)
	}
	if !strings.Contains(out, `note="two words"`) {
		t.Fatalf("expected quoting for spaced values: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes with color disabled: %q", out)
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn level")
	}
}

func TestPrettyHandler_Groups(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, nil, false).WithGroup("db").WithAttrs([]slog.Attr{slog.String("host", "localhost")})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "connect", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !strings.Contains(sb.String(), "db.host=localhost") {
		t.Fatalf("expected group-prefixed key, got %q", sb.String())
	}
}
