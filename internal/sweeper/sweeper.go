// Package sweeper removes cancelled bookings once their retention window has
// elapsed, freeing the slot coordinates for good.
package sweeper

import (
	"context"
	"time"

	"barbook/pkg/logger"
)

// PurgeStore is the slice of the booking repository the sweeper needs.
type PurgeStore interface {
	DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Sweeper struct {
	store     PurgeStore
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stop      chan struct{}
	done      chan struct{}
}

func New(store PurgeStore, log *logger.Logger, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop. It sweeps once immediately so a restart
// does not postpone overdue purges by a full interval.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()

	s.log.Info("Retention sweeper started",
		"interval", s.interval,
		"retention", s.retention,
	)
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
	s.log.Info("Retention sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	deleted, err := s.store.DeleteCancelledBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("Sweep failed", "error", err)
		return
	}

	if deleted > 0 {
		s.log.Info("Purged cancelled bookings", "count", deleted, "cutoff", cutoff)
	}
}
