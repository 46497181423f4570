package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"barbook/pkg/logger"
)

type mockPurgeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (m *mockPurgeStore) DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	if m.err != nil {
		return 0, m.err
	}
	return 3, nil
}

func (m *mockPurgeStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func TestSweep_CutoffHonorsRetention(t *testing.T) {
	store := &mockPurgeStore{}
	s := New(store, testLogger(), time.Hour, 12*time.Hour)

	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.sweep()

	if store.calls() != 1 {
		t.Fatalf("sweep ran %d purges, want 1", store.calls())
	}
	want := now.Add(-12 * time.Hour)
	if !store.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", store.cutoffs[0], want)
	}
}

func TestSweep_StoreErrorDoesNotPanic(t *testing.T) {
	store := &mockPurgeStore{err: errors.New("connection reset")}
	s := New(store, testLogger(), time.Hour, 12*time.Hour)

	s.sweep()

	if store.calls() != 1 {
		t.Fatalf("sweep ran %d purges, want 1", store.calls())
	}
}

func TestStartStop_SweepsImmediately(t *testing.T) {
	store := &mockPurgeStore{}
	s := New(store, testLogger(), time.Hour, 12*time.Hour)

	s.Start()

	deadline := time.After(2 * time.Second)
	for store.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("no sweep within 2s of Start()")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	s.Stop()

	if store.calls() < 1 {
		t.Errorf("sweeps = %d, want at least the startup sweep", store.calls())
	}
}
