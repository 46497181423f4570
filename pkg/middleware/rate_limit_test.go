package middleware

import (
	"context"
	"testing"
	"time"

	"barbook/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Service: "test"})
}

func TestMemoryCounterStore_WindowExpiry(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Stop()

	ctx := context.Background()
	window := 50 * time.Millisecond

	for i := 1; i <= 3; i++ {
		count, err := store.Increment(ctx, "+48123456789", window)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != i {
			t.Errorf("expected count %d, got %d", i, count)
		}
	}

	time.Sleep(window + 10*time.Millisecond)

	count, err := store.Increment(ctx, "+48123456789", window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expired hits should be dropped, got count %d", count)
	}
}

func TestPhoneRateLimiter_Allow(t *testing.T) {
	store := NewMemoryCounterStore()
	defer store.Stop()

	limiter := NewPhoneRateLimiter(store, 2, time.Minute, testLogger())
	ctx := context.Background()

	if !limiter.Allow(ctx, "+48123456789") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow(ctx, "+48123456789") {
		t.Error("second request should be allowed")
	}
	if limiter.Allow(ctx, "+48123456789") {
		t.Error("third request should be rejected")
	}

	if !limiter.Allow(ctx, "+48987654321") {
		t.Error("different phone must have its own counter")
	}
	if !limiter.Allow(ctx, "") {
		t.Error("requests without a phone are never throttled")
	}
}
