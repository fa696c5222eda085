package invites

import (
	"context"
	"errors"
	"time"

	"warden-automod/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Resolved invites are cached as plain key-value pairs:
//
//	Key:   invite:<code>
//	Value: <guild id>
//	TTL:   configured cache lifetime
const KeyPrefix = "invite:"

const DefaultTTL = 6 * time.Hour

// CachedResolver serves invite lookups from Redis and falls back to next on
// a miss. Redis failures are logged and never fail a lookup; failed lookups
// are not cached.
type CachedResolver struct {
	client *redis.Client
	next   Resolver
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedResolver(client *redis.Client, next Resolver, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{client: client, next: next, ttl: ttl, logger: logger}
}

func (r *CachedResolver) ResolveInvite(ctx context.Context, code string) (string, error) {
	key := KeyPrefix + code

	guildID, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil && guildID != "":
		metrics.InviteCache.WithLabelValues("hit").Inc()
		return guildID, nil
	case err == nil || errors.Is(err, redis.Nil):
		metrics.InviteCache.WithLabelValues("miss").Inc()
	default:
		metrics.InviteCache.WithLabelValues("error").Inc()
		r.logger.Debug("invite cache read failed", zap.String("code", code), zap.Error(err))
	}

	guildID, err = r.next.ResolveInvite(ctx, code)
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, key, guildID, r.ttl).Err(); err != nil {
		r.logger.Debug("invite cache write failed", zap.String("code", code), zap.Error(err))
	}
	return guildID, nil
}

// Forget drops a cached invite, used when an invite is known to be revoked.
func (r *CachedResolver) Forget(ctx context.Context, code string) error {
	return r.client.Del(ctx, KeyPrefix+code).Err()
}
