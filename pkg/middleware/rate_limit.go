package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"barbook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// CounterStore counts requests per key within a rolling window. The
// in-process implementation serves single-instance deployments; the Redis
// one shares counts across replicas.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	Stop()
}

type MemoryCounterStore struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	stopCh chan struct{}
}

func NewMemoryCounterStore() *MemoryCounterStore {
	s := &MemoryCounterStore{
		hits:   make(map[string][]time.Time),
		stopCh: make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	valid := s.hits[key][:0]
	for _, ts := range s.hits[key] {
		if now.Sub(ts) < window {
			valid = append(valid, ts)
		}
	}
	valid = append(valid, now)
	s.hits[key] = valid

	return len(valid), nil
}

func (s *MemoryCounterStore) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, timestamps := range s.hits {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > time.Hour {
					delete(s.hits, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryCounterStore) Stop() {
	close(s.stopCh)
}

type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	redisKey := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(incr.Val()), nil
}

func (s *RedisCounterStore) Stop() {}

// PhoneRateLimiter throttles booking traffic per client phone number.
type PhoneRateLimiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	log    *logger.Logger
}

func NewPhoneRateLimiter(store CounterStore, limit int, window time.Duration, log *logger.Logger) *PhoneRateLimiter {
	return &PhoneRateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		log:    log,
	}
}

func (rl *PhoneRateLimiter) Allow(ctx context.Context, phone string) bool {
	if phone == "" {
		return true
	}

	count, err := rl.store.Increment(ctx, phone, rl.window)
	if err != nil {
		// A broken counter store must not take bookings down with it.
		rl.log.Warn("Rate limit store unavailable, allowing request", "error", err)
		return true
	}

	return count <= rl.limit
}

func (rl *PhoneRateLimiter) Stop() {
	rl.store.Stop()
}

func PhoneRateLimit(limiter *PhoneRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone := r.Header.Get("X-Phone-Number")
			if phone == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(r.Context(), phone) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"phone", phone,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
