package genstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGenStore(t *testing.T, ttl time.Duration) (*RedisGenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisGenStoreWithTTL(rdb, "qrcache", ttl), mr
}

func TestRedisBumpAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisGenStore(t, 0)

	if g, err := s.Snapshot(ctx, "epoch:records"); err != nil || g != 0 {
		t.Fatalf("g=%d err=%v", g, err)
	}
	for want := uint64(1); want <= 3; want++ {
		g, err := s.Bump(ctx, "epoch:records")
		if err != nil {
			t.Fatal(err)
		}
		if g != want {
			t.Fatalf("bump=%d want %d", g, want)
		}
	}
	if got, _ := mr.Get("gen:qrcache:epoch:records"); got != "3" {
		t.Fatalf("raw value=%q", got)
	}
}

func TestRedisBumpWithTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisGenStore(t, time.Hour)

	if _, err := s.Bump(ctx, "epoch:records"); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("gen:qrcache:epoch:records"); ttl != time.Hour {
		t.Fatalf("ttl=%v", ttl)
	}
}

func TestRedisSnapshotRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisGenStore(t, 0)
	mr.Set("gen:qrcache:epoch:records", "not-a-number")
	if _, err := s.Snapshot(ctx, "epoch:records"); err == nil {
		t.Fatal("expected parse error")
	}
}
