package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/emberforge/guildbot/src/data"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPolicies struct {
	suggestions.Policies
	gets int
	// afterLoad runs once, between reading the row and returning it.
	afterLoad func()
}

func (c *countingPolicies) Get(ctx context.Context, guildID string) (suggestions.GuildPolicy, error) {
	c.gets++
	p, err := c.Policies.Get(ctx, guildID)
	if hook := c.afterLoad; hook != nil {
		c.afterLoad = nil
		hook()
	}
	return p, err
}

func setupPolicyCache(t *testing.T) (*PolicyCache, *countingPolicies, *miniredis.Miniredis) {
	t.Helper()
	db, err := data.ConnectSQLite(filepath.Join(t.TempDir(), "policy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.Close(db) })
	require.NoError(t, suggestions.Migrate(db))

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	store := &countingPolicies{Policies: suggestions.NewPolicyStore(db)}
	return NewPolicyCache(store, client, time.Minute), store, s
}

func TestPolicyCacheReadThrough(t *testing.T) {
	cache, store, _ := setupPolicyCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetChannel(ctx, "g1", "c1"))
	require.NoError(t, cache.SetReviewerRole(ctx, "g1", "r1"))

	p, err := cache.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, suggestions.GuildPolicy{GuildID: "g1", ChannelID: "c1", ReviewerRoleID: "r1"}, p)

	p, err = cache.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c1", p.ChannelID)
	assert.Equal(t, 1, store.gets, "second read is served from redis")
}

func TestPolicyCacheInvalidatesOnWrite(t *testing.T) {
	cache, store, s := setupPolicyCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetChannel(ctx, "g2", "c1"))
	_, err := cache.Get(ctx, "g2")
	require.NoError(t, err)
	assert.True(t, s.Exists(policyPrefix+"g2"))

	require.NoError(t, cache.SetBlockedRole(ctx, "g2", "blocked"))
	assert.False(t, s.Exists(policyPrefix+"g2"))

	p, err := cache.Get(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, "blocked", p.BlockedRoleID)
	assert.Equal(t, "c1", p.ChannelID)
	assert.Equal(t, 2, store.gets)
}

func TestPolicyCacheExpiresAndSurvivesOutage(t *testing.T) {
	cache, store, s := setupPolicyCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SetChannel(ctx, "g3", "c3"))

	_, err := cache.Get(ctx, "g3")
	require.NoError(t, err)
	s.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "g3")
	require.NoError(t, err)
	assert.Equal(t, 2, store.gets)

	s.Close()
	p, err := cache.Get(ctx, "g3")
	require.NoError(t, err)
	assert.Equal(t, "c3", p.ChannelID)
}

func TestPolicyCacheSkipsFillRacingAWrite(t *testing.T) {
	cache, store, s := setupPolicyCache(t)
	ctx := context.Background()
	require.NoError(t, cache.SetChannel(ctx, "g4", "old"))

	store.afterLoad = func() {
		require.NoError(t, cache.SetChannel(ctx, "g4", "new"))
	}
	p, err := cache.Get(ctx, "g4")
	require.NoError(t, err)
	assert.Equal(t, "old", p.ChannelID, "the racing read returns what it loaded")
	assert.False(t, s.Exists(policyPrefix+"g4"), "but does not cache it")

	p, err = cache.Get(ctx, "g4")
	require.NoError(t, err)
	assert.Equal(t, "new", p.ChannelID)
	assert.True(t, s.Exists(policyPrefix+"g4"))
}
