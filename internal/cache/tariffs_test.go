package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mivanov/postline-bot/internal/domain/tariffs"
)

type fakeSource struct {
	t     tariffs.Tariff
	calls int
}

func (f *fakeSource) Get(context.Context, string) (tariffs.Tariff, error) {
	f.calls++
	return f.t, nil
}

func basic() tariffs.Tariff {
	return tariffs.Tariff{Name: "basic", Price: 100, ChannelsLimit: 2, PostsPerDay: 5, DurationDays: 30}
}

func TestTariffCache_ReadThrough(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &fakeSource{t: basic()}
	c := NewTariffCache(rdb, time.Minute, src)
	ctx := context.Background()

	got, err := c.Get(ctx, "basic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != basic() {
		t.Fatalf("expected %+v, got %+v", basic(), got)
	}
	if src.calls != 1 {
		t.Fatalf("expected 1 source call, got %d", src.calls)
	}
	if !mr.Exists("tariff:basic") {
		t.Fatalf("expected cached key")
	}

	// Второе чтение идёт из кэша.
	if _, err := c.Get(ctx, "basic"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected cached read, source calls = %d", src.calls)
	}
}

func TestTariffCache_Invalidate(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &fakeSource{t: basic()}
	c := NewTariffCache(rdb, time.Minute, src)
	ctx := context.Background()

	if _, err := c.Get(ctx, "basic"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := c.Invalidate(ctx, "basic"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("tariff:basic") {
		t.Fatalf("expected key removed")
	}

	if _, err := c.Get(ctx, "basic"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected source re-read after invalidate, calls = %d", src.calls)
	}
}

func TestTariffCache_FallsBackWhenRedisDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &fakeSource{t: basic()}
	c := NewTariffCache(rdb, time.Minute, src)
	ctx := context.Background()

	mr.Close()

	got, err := c.Get(ctx, "basic")
	if err != nil {
		t.Fatalf("expected fallback to source, got %v", err)
	}
	if got != basic() {
		t.Fatalf("expected %+v, got %+v", basic(), got)
	}
}
