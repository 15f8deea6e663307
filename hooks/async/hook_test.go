package asynchook

import (
	"sync/atomic"
	"testing"

	"github.com/unkn0wn-root/qrcache"
)

type countingHooks struct {
	qrcache.NopHooks
	heals atomic.Int64
}

func (c *countingHooks) SelfHeal(string, string) { c.heals.Add(1) }

func TestCloseDrainsQueue(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 100)
	for i := 0; i < 50; i++ {
		h.SelfHeal("records:code:1", "stale_epoch")
	}
	h.Close()
	if got := inner.heals.Load(); got != 50 {
		t.Fatalf("delivered=%d want 50", got)
	}
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 1, 1)
	h.Close()
	h.Close()
	h.SelfHeal("k", "corrupt") // must not panic
	if got := inner.heals.Load(); got != 0 {
		t.Fatalf("delivered=%d want 0", got)
	}
}
