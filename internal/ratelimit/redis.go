package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisOpTimeout = 500 * time.Millisecond

// RedisStore is a fixed-window store backed by Redis, for deployments
// with more than one replica. Same semantics as MemoryStore: INCR on a
// per-caller key whose expiry marks the window reset. INCR is atomic on
// the server, so concurrent requests cannot both pass at the cap.
type RedisStore struct {
	client      redis.Cmdable
	maxRequests int
	window      time.Duration
	keyPrefix   string
}

// NewRedisStore creates a Redis-backed fixed-window store
func NewRedisStore(client redis.Cmdable, maxRequests int, window time.Duration) *RedisStore {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &RedisStore{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		keyPrefix:   "ratelimit:",
	}
}

// Allow reports whether the caller may proceed. Fails open on Redis
// errors: the limiter is an abuse heuristic and must not take the
// service down with it.
func (s *RedisStore) Allow(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	key := s.keyPrefix + id

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("caller", id).Msg("Rate limit store unavailable, allowing request")
		return true
	}
	count := incr.Val()

	// The key vanishing is the window reset. Expiry is set on the first
	// hit of a window, and re-armed whenever the key has no TTL so a
	// counter orphaned by an earlier PExpire failure cannot deny its
	// caller forever.
	if ttl.Val() < 0 {
		if err := s.client.PExpire(ctx, key, s.window).Err(); err != nil {
			log.Warn().Err(err).Str("caller", id).Msg("Failed to set rate limit window expiry")
		}
	}

	if count > int64(s.maxRequests) {
		log.Warn().
			Str("caller", id).
			Int64("count", count).
			Int("max", s.maxRequests).
			Msg("Rate limit exceeded")
		return false
	}

	return true
}
