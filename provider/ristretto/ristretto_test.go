package ristretto

import (
	"context"
	"testing"
)

func TestSetThenGet(t *testing.T) {
	ctx := context.Background()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	ok, err := p.Set(ctx, "k", []byte("v"), 1, 0)
	if err != nil || !ok {
		t.Fatalf("set ok=%v err=%v", ok, err)
	}
	b, hit, err := p.Get(ctx, "k")
	if err != nil || !hit || string(b) != "v" {
		t.Fatalf("get=%q hit=%v err=%v", b, hit, err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := p.Get(ctx, "k"); hit {
		t.Fatal("expected miss after delete")
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for zero config")
	}
}
