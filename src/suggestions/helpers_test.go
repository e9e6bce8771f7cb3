package suggestions

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/emberforge/guildbot/src/data"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testGuild   = "100000000000000001"
	testChannel = "200000000000000002"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := data.ConnectSQLite(filepath.Join(t.TempDir(), "suggestions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.Close(db) })
	require.NoError(t, Migrate(db))
	return db
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)
	return NewEngine(db, NewPolicyStore(db), NewRegistry(), opts...), db
}

func configureGuild(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, NewPolicyStore(db).SetChannel(context.Background(), testGuild, testChannel))
}

func publishOK(_ context.Context, channelID string, s *Suggestion, _ Record) (Publication, error) {
	return Publication{ChannelID: channelID, MessageID: "m-" + s.ID, ThreadID: "t-" + s.ID}, nil
}

func submit(t *testing.T, e *Engine, title string) *Suggestion {
	t.Helper()
	sub, err := e.Submit(context.Background(), SubmitRequest{
		GuildID:     testGuild,
		AuthorID:    "300000000000000003",
		AuthorName:  "Ada",
		Title:       title,
		Description: "Add a map rotation vote every Friday.",
		Pros:        "More variety",
		Cons:        "Extra moderation work",
	}, publishOK)
	require.NoError(t, err)
	return sub.Suggestion
}

// sequenceIDs hands out the given ids in order, then generated ones.
func sequenceIDs(ids ...string) func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if n < len(ids) {
			id := ids[n]
			n++
			return id, nil
		}
		n++
		return fmt.Sprintf("gen%05d", n), nil
	}
}
