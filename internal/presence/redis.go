package presence

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const onlineSetKey = "online_users"

var ErrStoreUnavailable = errors.New("presence store unavailable")

// RedisStore backs the OnlineSet with a Redis set so presence is shared
// across server processes. When Redis drops, the store marks itself
// unavailable and re-probes with capped backoff a bounded number of times,
// then stays down until the next process restart.
type RedisStore struct {
	rdb *redis.Client
	log *slog.Logger

	available atomic.Bool
	probing   atomic.Bool

	// ping is the availability probe; split out from rdb so tests can
	// exercise the backoff without a server.
	ping func(ctx context.Context) error

	maxProbes int
	probeBase time.Duration
	probeCeil time.Duration
}

func NewRedisStore(addr, password string, log *slog.Logger) *RedisStore {
	s := &RedisStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		log:       log,
		maxProbes: 3,
		probeBase: 200 * time.Millisecond,
		probeCeil: 2 * time.Second,
	}
	s.ping = func(ctx context.Context) error {
		return s.rdb.Ping(ctx).Err()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.ping(ctx); err != nil {
		log.Warn("redis unavailable, presence falls back to in-memory set", "addr", addr, "error", err)
		s.reprobe()
	} else {
		s.available.Store(true)
		log.Info("redis presence store connected", "addr", addr)
	}

	return s
}

// Client exposes the underlying connection for the pub/sub relay.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

func (s *RedisStore) Available() bool {
	return s.available.Load()
}

func (s *RedisStore) Add(ctx context.Context, userID string) error {
	if !s.available.Load() {
		return ErrStoreUnavailable
	}
	if err := s.rdb.SAdd(ctx, onlineSetKey, userID).Err(); err != nil {
		s.markUnavailable(err)
		return err
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, userID string) error {
	if !s.available.Load() {
		return ErrStoreUnavailable
	}
	if err := s.rdb.SRem(ctx, onlineSetKey, userID).Err(); err != nil {
		s.markUnavailable(err)
		return err
	}
	return nil
}

func (s *RedisStore) Members(ctx context.Context) ([]string, error) {
	if !s.available.Load() {
		return nil, ErrStoreUnavailable
	}
	members, err := s.rdb.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		s.markUnavailable(err)
		return nil, err
	}
	return members, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) markUnavailable(err error) {
	if s.available.CompareAndSwap(true, false) {
		s.log.Warn("redis presence store lost, falling back to in-memory set", "error", err)
		s.reprobe()
	}
}

// reprobe retries the connection in the background. Retries are bounded:
// after maxProbes failures the store stays unavailable and stops trying.
func (s *RedisStore) reprobe() {
	if !s.probing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.probing.Store(false)

		delay := s.probeBase
		for attempt := 1; attempt <= s.maxProbes; attempt++ {
			time.Sleep(delay)
			delay = min(delay*2, s.probeCeil)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := s.ping(ctx)
			cancel()
			if err == nil {
				s.available.Store(true)
				s.log.Info("redis presence store recovered", "attempt", attempt)
				return
			}
			s.log.Debug("redis probe failed", "attempt", attempt, "error", err)
		}
		s.log.Warn("giving up on redis presence store", "attempts", s.maxProbes)
	}()
}
