package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/qrcache"
)

func TestFieldsAreSortedAndLevelFiltered(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("hidden", nil)
	l.Info("generated", qrcache.Fields{"size": "200x200", "id": 1})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %s", out)
	}
	if !strings.Contains(out, "msg=generated id=1 size=200x200") {
		t.Fatalf("unexpected line: %s", out)
	}
}
