// Package cache keeps hot, rarely-changing lookups in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/redis/go-redis/v9"
)

const (
	policyPrefix     = "guildbot:policy:"
	policyGenPrefix  = "guildbot:policygen:"
	defaultPolicyTTL = 10 * time.Minute
)

// PolicyCache is a read-through cache in front of the guild policy store.
// Writes go to the store first, then bump the guild's generation and drop
// the cached entry. A read only fills the cache if the generation it saw
// before loading is still current, so a load that raced a write is never
// cached. Redis failures degrade to direct store reads.
type PolicyCache struct {
	store  suggestions.Policies
	client *redis.Client
	ttl    time.Duration
}

var _ suggestions.Policies = (*PolicyCache)(nil)

// NewPolicyCache wraps store. A zero ttl uses the default.
func NewPolicyCache(store suggestions.Policies, client *redis.Client, ttl time.Duration) *PolicyCache {
	if ttl <= 0 {
		ttl = defaultPolicyTTL
	}
	return &PolicyCache{store: store, client: client, ttl: ttl}
}

func (c *PolicyCache) key(guildID string) string {
	return policyPrefix + guildID
}

func (c *PolicyCache) genKey(guildID string) string {
	return policyGenPrefix + guildID
}

// Get implements suggestions.PolicyReader.
func (c *PolicyCache) Get(ctx context.Context, guildID string) (suggestions.GuildPolicy, error) {
	raw, err := c.client.Get(ctx, c.key(guildID)).Bytes()
	switch {
	case err == nil:
		var p suggestions.GuildPolicy
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return p, nil
		}
		log.Printf("cache: dropping unreadable policy entry for %s", guildID)
	case !errors.Is(err, redis.Nil):
		log.Printf("cache: policy lookup for %s failed: %v", guildID, err)
	}

	gen, genErr := c.client.Get(ctx, c.genKey(guildID)).Result()
	if genErr != nil && !errors.Is(genErr, redis.Nil) {
		// Without a generation the fill cannot be checked; skip it.
		return c.store.Get(ctx, guildID)
	}

	p, err := c.store.Get(ctx, guildID)
	if err != nil {
		return suggestions.GuildPolicy{}, err
	}
	c.fill(ctx, guildID, gen, p)
	return p, nil
}

// fill caches p unless a write bumped the generation since gen was read.
func (c *PolicyCache) fill(ctx context.Context, guildID, gen string, p suggestions.GuildPolicy) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	genKey := c.genKey(guildID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(guildID), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		log.Printf("cache: policy for %s changed during load, not caching", guildID)
	case err != nil:
		log.Printf("cache: policy store for %s failed: %v", guildID, err)
	}
}

func (c *PolicyCache) SetChannel(ctx context.Context, guildID, channelID string) error {
	return c.write(ctx, guildID, func() error { return c.store.SetChannel(ctx, guildID, channelID) })
}

func (c *PolicyCache) SetReviewerRole(ctx context.Context, guildID, roleID string) error {
	return c.write(ctx, guildID, func() error { return c.store.SetReviewerRole(ctx, guildID, roleID) })
}

func (c *PolicyCache) SetBlockedRole(ctx context.Context, guildID, roleID string) error {
	return c.write(ctx, guildID, func() error { return c.store.SetBlockedRole(ctx, guildID, roleID) })
}

func (c *PolicyCache) write(ctx context.Context, guildID string, apply func() error) error {
	if err := apply(); err != nil {
		return err
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(guildID))
		pipe.Del(ctx, c.key(guildID))
		return nil
	})
	if err != nil {
		log.Printf("cache: policy invalidation for %s failed: %v", guildID, err)
	}
	return nil
}
