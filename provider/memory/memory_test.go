package memory

import (
	"context"
	"testing"
	"time"
)

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	p := New()
	if _, err := p.Set(ctx, "k", []byte("abc"), 0, 0); err != nil {
		t.Fatal(err)
	}
	b, ok, err := p.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	b[0] = 'X'
	again, _, _ := p.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated: %q", again)
	}
}

func TestTTLExpires(t *testing.T) {
	ctx := context.Background()
	p := New()
	now := time.Unix(1000, 0)
	p.now = func() time.Time { return now }

	if _, err := p.Set(ctx, "k", []byte("v"), 0, time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("expected miss after expiry")
	}
	if p.Len() != 0 {
		t.Fatalf("expired entry not dropped, len=%d", p.Len())
	}
}

func TestPurgePrefix(t *testing.T) {
	ctx := context.Background()
	p := New()
	for _, k := range []string{"records:a", "records:b", "images:a"} {
		if _, err := p.Set(ctx, k, []byte(k), 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Purge(ctx, "records:"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := p.Get(ctx, "records:a"); ok {
		t.Fatal("records:a survived purge")
	}
	if _, ok, _ := p.Get(ctx, "images:a"); !ok {
		t.Fatal("images:a should not be purged")
	}
}
