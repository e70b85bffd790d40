package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

// RedisBlacklist is a Redis-backed revocation list for multi-instance
// deployments. Redis key TTLs replace the reaper: an entry disappears on
// its own once the underlying token would have expired anyway.
type RedisBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisBlacklist creates a Redis-backed revocation list
func NewRedisBlacklist(client *redis.Client) ports.Blacklist {
	return &RedisBlacklist{
		client: client,
		prefix: "rolodex:revoked:",
	}
}

// Insert marks a token as revoked until its natural expiry
func (b *RedisBlacklist) Insert(ctx context.Context, entry core.RevokedToken) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		// Already expired; keep a short-lived record anyway so the token
		// cannot be replayed through clock skew.
		ttl = time.Minute
	}

	if err := b.client.Set(ctx, b.prefix+entry.Token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	return nil
}

// Contains checks whether the raw token has been revoked
func (b *RedisBlacklist) Contains(ctx context.Context, rawToken string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+rawToken).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}

	return n > 0, nil
}
