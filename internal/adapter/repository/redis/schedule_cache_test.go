package redis

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestScheduleCache_SetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	if _, err := cache.SetSurcharge(ctx, "svc-1", 0, 3, decimal.RequireFromString("2.25"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	pct, found, err := cache.GetSurcharge(ctx, "svc-1", 3)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if !pct.Equal(decimal.RequireFromString("2.25")) {
		t.Fatalf("expected 2.25, got %s", pct)
	}

	if got := mr.HGet("schedule:svc-1", "3"); got != "2.25" {
		t.Fatalf("expected hash field 3=2.25, got %q", got)
	}
}

func TestScheduleCache_Miss(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	if _, err := cache.SetSurcharge(ctx, "svc-1", 0, 1, decimal.NewFromInt(1), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	for _, tc := range []struct {
		service string
		days    int
	}{
		{"svc-1", 2},
		{"svc-2", 1},
	} {
		_, found, err := cache.GetSurcharge(ctx, tc.service, tc.days)
		if err != nil || found {
			t.Errorf("%s/%d: expected miss, got found=%v err=%v", tc.service, tc.days, found, err)
		}
	}
}

func TestScheduleCache_ZeroSurchargeIsAHit(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	if _, err := cache.SetSurcharge(ctx, "svc-1", 0, 9, decimal.Zero, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	pct, found, err := cache.GetSurcharge(ctx, "svc-1", 9)
	if err != nil || !found || !pct.IsZero() {
		t.Fatalf("expected cached zero, got pct=%s found=%v err=%v", pct, found, err)
	}
}

func TestScheduleCache_Expires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	if _, err := cache.SetSurcharge(ctx, "svc-1", 0, 1, decimal.NewFromInt(1), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, found, _ := cache.GetSurcharge(ctx, "svc-1", 1); found {
		t.Fatalf("expected entry to expire")
	}
}

func TestScheduleCache_InvalidateService(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	for days := 0; days < 3; days++ {
		if _, err := cache.SetSurcharge(ctx, "svc-1", 0, days, decimal.NewFromInt(int64(days)), time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	if _, err := cache.SetSurcharge(ctx, "svc-2", 0, 1, decimal.NewFromInt(4), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.InvalidateService(ctx, "svc-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	if mr.Exists("schedule:svc-1") {
		t.Fatalf("expected svc-1 hash to be removed")
	}
	if _, found, _ := cache.GetSurcharge(ctx, "svc-2", 1); !found {
		t.Fatalf("expected other services to stay cached")
	}
}

func TestScheduleCache_MalformedValue(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	mr.HSet("schedule:svc-1", "1", "not-a-number")

	if _, found, err := cache.GetSurcharge(context.Background(), "svc-1", 1); err == nil || found {
		t.Fatalf("expected decode error, got found=%v err=%v", found, err)
	}
}

func TestScheduleCache_InvalidateBumpsGeneration(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, "svc-1")
	if err != nil || gen != 0 {
		t.Fatalf("expected generation 0, got %d err=%v", gen, err)
	}

	if err := cache.InvalidateService(ctx, "svc-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	gen, err = cache.Generation(ctx, "svc-1")
	if err != nil || gen != 1 {
		t.Fatalf("expected generation 1, got %d err=%v", gen, err)
	}
	if other, _ := cache.Generation(ctx, "svc-2"); other != 0 {
		t.Fatalf("expected svc-2 generation untouched, got %d", other)
	}
}

func TestScheduleCache_SetFromOlderGenerationIsDiscarded(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewScheduleCache(client)
	ctx := context.Background()

	// A lookup reads the generation and loads the schedule, then a new
	// commission record invalidates the service before the lookup writes back.
	gen, err := cache.Generation(ctx, "svc-1")
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if err := cache.InvalidateService(ctx, "svc-1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	stored, err := cache.SetSurcharge(ctx, "svc-1", gen, 3, decimal.NewFromInt(2), time.Minute)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if stored {
		t.Fatalf("expected write from generation %d to be discarded", gen)
	}
	if _, found, _ := cache.GetSurcharge(ctx, "svc-1", 3); found {
		t.Fatalf("expected no cached surcharge after a discarded write")
	}

	current, _ := cache.Generation(ctx, "svc-1")
	stored, err = cache.SetSurcharge(ctx, "svc-1", current, 3, decimal.NewFromInt(9), time.Minute)
	if err != nil || !stored {
		t.Fatalf("expected write from current generation to be stored, stored=%v err=%v", stored, err)
	}
	if got := mr.HGet("schedule:svc-1", "3"); got != "9" {
		t.Fatalf("expected hash field 3=9, got %q", got)
	}
}
