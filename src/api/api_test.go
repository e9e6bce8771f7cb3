package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sharedconfig "github.com/emberforge/guildbot/src/config"
	"github.com/emberforge/guildbot/src/data"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	engine *suggestions.Engine
	id     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := data.ConnectSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.Close(db) })
	require.NoError(t, suggestions.Migrate(db))

	ctx := context.Background()
	policies := suggestions.NewPolicyStore(db)
	require.NoError(t, policies.SetChannel(ctx, "g1", "c1"))
	engine := suggestions.NewEngine(db, policies, nil)

	publish := func(_ context.Context, channelID string, s *suggestions.Suggestion, _ suggestions.Record) (suggestions.Publication, error) {
		return suggestions.Publication{ChannelID: channelID, MessageID: "m-" + s.ID}, nil
	}
	sub, err := engine.Submit(ctx, suggestions.SubmitRequest{
		GuildID: "g1", AuthorID: "u1", Title: "Dark mode", Description: "Please", Pros: "Eyes",
	}, publish)
	require.NoError(t, err)

	for _, voter := range []string{"a", "b"} {
		_, err := engine.CastVote(ctx, suggestions.VoteRequest{SuggestionID: sub.Suggestion.ID, VoterID: voter, Type: suggestions.Upvote})
		require.NoError(t, err)
	}
	_, err = engine.CastVote(ctx, suggestions.VoteRequest{SuggestionID: sub.Suggestion.ID, VoterID: "c", Type: suggestions.Downvote})
	require.NoError(t, err)

	return fixture{engine: engine, id: sub.Suggestion.ID}
}

func testConfig() *sharedconfig.APIConfig {
	return &sharedconfig.APIConfig{ListenAddr: ":0", AllowOrigins: []string{"http://localhost:3000"}}
}

func do(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := do(t, New(testConfig(), f.engine), "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestGetSuggestion(t *testing.T) {
	f := newFixture(t)
	h := New(testConfig(), f.engine)

	rec := do(t, h, "/v1/suggestions/"+f.id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got suggestionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, f.id, got.ID)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, int64(2), got.Upvotes)
	assert.Equal(t, int64(1), got.Downvotes)

	rec = do(t, h, "/v1/suggestions/zzzzzzzz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSuggestions(t *testing.T) {
	f := newFixture(t)
	h := New(testConfig(), f.engine)

	rec := do(t, h, "/v1/guilds/g1/suggestions?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Suggestions []suggestionView `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Suggestions, 1)
	assert.Equal(t, f.id, body.Suggestions[0].ID)

	rec = do(t, h, "/v1/guilds/g1/suggestions?status=approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Suggestions)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/guilds/g1/suggestions?status=weird", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/guilds/g1/suggestions?limit=-1", nil).Code)
}

func TestJWTRequiredWhenConfigured(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.JWTSecret = "s3cret"
	h := New(cfg, f.engine)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, "/v1/suggestions/"+f.id, nil).Code)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "dashboard",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	rec := do(t, h, "/v1/suggestions/"+f.id, http.Header{"Authorization": {"Bearer " + tok}})
	assert.Equal(t, http.StatusOK, rec.Code)

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("other"))
	require.NoError(t, err)
	rec = do(t, h, "/v1/suggestions/"+f.id, http.Header{"Authorization": {"Bearer " + bad}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, h, "/healthz", nil).Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.RateLimit = 2
	h := New(cfg, f.engine)

	path := "/v1/suggestions/" + f.id
	assert.Equal(t, http.StatusOK, do(t, h, path, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, path, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, path, nil).Code)
}

func TestRateLimiterWindowSlides(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("k"))
	assert.False(t, rl.allow("k"))
	assert.True(t, rl.allow("other"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("k"))
}

func TestRateLimiterForgetsIdleCallers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.True(t, rl.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	assert.Equal(t, 1000, rl.size())

	now = now.Add(time.Hour)
	rl.cleanup()
	assert.Equal(t, 0, rl.size())

	assert.True(t, rl.allow("10.9.9.9"))
	assert.Equal(t, 1, rl.size())
}

func TestRateLimiterSweepStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(5, 20*time.Millisecond)
	require.True(t, rl.allow("k"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rl.size() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep kept running after cancel")
	}
}
