package github

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gitpulse/gitpulse/internal/engine"
	"github.com/gitpulse/gitpulse/internal/log"
)

// defaultRosterTTL bounds how stale a cached roster may be. Team
// membership changes rarely; a short TTL keeps the fail-closed window
// small without hammering the API on comment-heavy subjects.
const defaultRosterTTL = 10 * time.Minute

// RosterCache caches team rosters in Redis in front of another
// resolver. Cache failures never fail a lookup; they fall through to
// the inner resolver.
type RosterCache struct {
	inner engine.TeamRosterResolver
	rdb   *redis.Client
	ttl   time.Duration
}

var _ engine.TeamRosterResolver = (*RosterCache)(nil)

// NewRosterCache wraps a resolver with a Redis cache at addr.
func NewRosterCache(inner engine.TeamRosterResolver, addr string, ttl time.Duration) *RosterCache {
	if ttl <= 0 {
		ttl = defaultRosterTTL
	}
	return &RosterCache{
		inner: inner,
		rdb:   redis.NewClient(&redis.Options{Addr: addr}),
		ttl:   ttl,
	}
}

// MemberLogins returns the cached roster when fresh, otherwise asks
// the inner resolver and refreshes the cache.
func (c *RosterCache) MemberLogins(ctx context.Context, org, slug string) ([]string, error) {
	key := "gitpulse:roster:" + org + "/" + slug

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var logins []string
		if err := json.Unmarshal(data, &logins); err == nil {
			log.Trace("roster cache hit", "team", org+"/"+slug)
			return logins, nil
		}
		log.Debug("dropping malformed roster cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		log.Debug("roster cache read failed", "key", key, "error", err)
	}

	logins, err := c.inner.MemberLogins(ctx, org, slug)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(logins); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Debug("roster cache write failed", "key", key, "error", err)
		}
	}
	return logins, nil
}
