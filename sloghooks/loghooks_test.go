package sloghooks

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBuffered(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestSelfHealRedactsKey(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.SelfHeal("records:user-by-email:alice@example.com", "stale_epoch")

	out := buf.String()
	if strings.Contains(out, "alice@example.com") {
		t.Fatalf("key leaked: %s", out)
	}
	if !strings.Contains(out, "reason=stale_epoch") {
		t.Fatalf("missing reason: %s", out)
	}
}

func TestSelfHealSampling(t *testing.T) {
	h, buf := newBuffered(Options{SelfHealEvery: 5, Redact: func(s string) string { return s }})
	for i := 0; i < 10; i++ {
		h.SelfHeal("k", "corrupt")
	}
	if n := strings.Count(buf.String(), "qrcache.self_heal"); n != 2 {
		t.Fatalf("logged %d times, want 2", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.SelfHeal("k", "corrupt")
	h.ProviderSetRejected("k")
	h.GenSnapshotError("records", nil)
	h.GenBumpError("records", nil)
	h.ClearOutage("records", nil, nil)
	h.Cleared("records", 1)
}
