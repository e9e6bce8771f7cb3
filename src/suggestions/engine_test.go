package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineVotingScenario(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()

	s := submit(t, e, "Weekly map vote")
	assert.Equal(t, StatusPending, s.Status)
	assert.Equal(t, "m-"+s.ID, s.MessageID)
	assert.True(t, e.Registry().Has(s.ID))

	snap, err := e.Snapshot(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, Tally{}, snap.Tally)

	steps := []struct {
		voter  string
		vote   VoteType
		action VoteAction
		tally  Tally
	}{
		{"voter-a", Upvote, VoteAdded, Tally{Upvotes: 1}},
		{"voter-a", Upvote, VoteRemoved, Tally{}},
		{"voter-a", Downvote, VoteAdded, Tally{Downvotes: 1}},
		{"voter-b", Upvote, VoteAdded, Tally{Upvotes: 1, Downvotes: 1}},
		{"voter-a", Upvote, VoteSwitched, Tally{Upvotes: 2}},
	}
	for i, step := range steps {
		res, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, GuildID: testGuild, VoterID: step.voter, Type: step.vote})
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.action, res.Action, "step %d", i)
		assert.Equal(t, step.tally, res.Tally, "step %d", i)
		assert.Equal(t, step.tally, res.Record.Tally, "step %d", i)
	}

	dec, err := e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, GuildID: testGuild, ActorID: "reviewer-1", Verdict: StatusApproved, Reason: "good idea"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, dec.Suggestion.Status)
	require.NotNil(t, dec.Suggestion.DecisionReason)
	assert.Equal(t, "good idea", *dec.Suggestion.DecisionReason)
	assert.Equal(t, Tally{Upvotes: 2}, dec.Tally)
	assert.True(t, dec.Record.Closed)
	assert.Equal(t, "t-"+s.ID, dec.Suggestion.ThreadID)

	_, err = e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: "voter-c", Type: Upvote})
	require.ErrorIs(t, err, ErrVotingClosed)
}

func TestEngineSubmitRequiresChannel(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	published := false
	_, err := e.Submit(ctx, SubmitRequest{GuildID: testGuild, AuthorID: "1", Title: "t", Description: "d"},
		func(context.Context, string, *Suggestion, Record) (Publication, error) {
			published = true
			return Publication{}, nil
		})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, published)

	var rows int64
	require.NoError(t, db.Model(&Suggestion{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestEngineSubmitValidatesInput(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)

	_, err := e.Submit(context.Background(), SubmitRequest{GuildID: testGuild, AuthorID: "1", Title: "  <b></b> ", Description: "d"}, publishOK)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngineSubmitRetriesOnCollision(t *testing.T) {
	e, db := newTestEngine(t, WithIDSource(sequenceIDs("dup00001", "dup00001", "dup00001", "fresh001")))
	configureGuild(t, db)

	first := submit(t, e, "first")
	second := submit(t, e, "second")
	assert.Equal(t, "dup00001", first.ID)
	assert.Equal(t, "fresh001", second.ID)
}

func TestEngineSubmitPublishFailureLeavesOrphan(t *testing.T) {
	e, db := newTestEngine(t, WithIDSource(sequenceIDs("orph0001")))
	configureGuild(t, db)
	ctx := context.Background()

	boom := errors.New("missing permissions")
	_, err := e.Submit(ctx, SubmitRequest{GuildID: testGuild, AuthorID: "1", Title: "t", Description: "d"},
		func(context.Context, string, *Suggestion, Record) (Publication, error) {
			return Publication{}, boom
		})
	require.ErrorIs(t, err, boom)
	assert.False(t, e.Registry().Has("orph0001"))

	snap, err := e.Snapshot(ctx, "orph0001")
	require.NoError(t, err)
	assert.False(t, snap.Suggestion.Published())

	for id, err := range e.ReattachOpen(ctx) {
		require.NoError(t, err)
		t.Fatalf("orphan %s must not be reattached", id)
	}
}

func TestEngineSubmitRegistersBeforePublishing(t *testing.T) {
	e, db := newTestEngine(t, WithIDSource(sequenceIDs("live0001")))
	configureGuild(t, db)
	ctx := context.Background()

	var liveDuringPublish bool
	_, err := e.Submit(ctx, SubmitRequest{GuildID: testGuild, AuthorID: "1", Title: "t", Description: "d"},
		func(ctx context.Context, channelID string, s *Suggestion, rec Record) (Publication, error) {
			liveDuringPublish = e.Registry().Has(s.ID)
			return publishOK(ctx, channelID, s, rec)
		})
	require.NoError(t, err)
	assert.True(t, liveDuringPublish)

	res, err := e.CastVote(ctx, VoteRequest{SuggestionID: "live0001", VoterID: "v1", Type: Upvote})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Tally.Upvotes)
}

func TestEngineSubmitSurvivesAttachFailure(t *testing.T) {
	e, db := newTestEngine(t, WithIDSource(sequenceIDs("lost0001")))
	configureGuild(t, db)

	sub, err := e.Submit(context.Background(), SubmitRequest{GuildID: testGuild, AuthorID: "1", Title: "t", Description: "d"},
		func(ctx context.Context, channelID string, s *Suggestion, rec Record) (Publication, error) {
			// The row vanishes between publishing and storing its location.
			require.NoError(t, db.Where("suggestion_id = ?", s.ID).Delete(&Suggestion{}).Error)
			return publishOK(ctx, channelID, s, rec)
		})
	require.NoError(t, err)
	assert.Equal(t, "m-lost0001", sub.Suggestion.MessageID)
	assert.True(t, e.Registry().Has("lost0001"))
}

func TestEngineKeepsTextAsTyped(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()

	sub, err := e.Submit(ctx, SubmitRequest{
		GuildID:     testGuild,
		AuthorID:    "1",
		Title:       "  <Friday>  ",
		Description: "Add Vec<T> support. Press <Enter> to confirm, ping <@42> & friends",
		Pros:        "<b>not html</b>",
		ImageURL:    "https://cdn.example.com/a.png",
	}, publishOK)
	require.NoError(t, err)
	assert.Equal(t, "<Friday>", sub.Suggestion.Title)
	assert.Equal(t, "Add Vec<T> support. Press <Enter> to confirm, ping <@42> & friends", sub.Suggestion.Description)
	assert.Equal(t, "<b>not html</b>", sub.Suggestion.Pros)
	assert.Equal(t, "https://cdn.example.com/a.png", sub.Record.ImageURL)

	stored, err := e.Snapshot(ctx, sub.Suggestion.ID)
	require.NoError(t, err)
	assert.Equal(t, "<Friday>", stored.Suggestion.Title)

	dec, err := e.Decide(ctx, DecisionRequest{SuggestionID: sub.Suggestion.ID, ActorID: "r1", Verdict: StatusApproved, Reason: "ship <Enter> handling"})
	require.NoError(t, err)
	require.NotNil(t, dec.Suggestion.DecisionReason)
	assert.Equal(t, "ship <Enter> handling", *dec.Suggestion.DecisionReason)
}

func TestEngineSubmitRejectsBlankTitle(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)

	_, err := e.Submit(context.Background(), SubmitRequest{
		GuildID:     testGuild,
		AuthorID:    "1",
		Title:       "   ",
		Description: "x",
	}, publishOK)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngineDecideOnlyOnce(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()
	s := submit(t, e, "Dark mode")

	_, err := e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, ActorID: "r1", Verdict: StatusRejected, Reason: "out of scope", Anonymous: true})
	require.NoError(t, err)
	before, err := e.Snapshot(ctx, s.ID)
	require.NoError(t, err)

	_, err = e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, ActorID: "r2", Verdict: StatusApproved, Reason: "actually fine"})
	require.ErrorIs(t, err, ErrAlreadyDecided)

	after, err := e.Snapshot(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, after.Suggestion.Status)
	assert.Equal(t, *before.Suggestion.DecisionReason, *after.Suggestion.DecisionReason)
	assert.Equal(t, before.Suggestion.DecidedAnonymously, after.Suggestion.DecidedAnonymously)
	assert.Equal(t, *before.Suggestion.DecidedBy, *after.Suggestion.DecidedBy)
	assert.True(t, before.Suggestion.DecidedAt.Equal(*after.Suggestion.DecidedAt))

	_, err = e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, Verdict: StatusPending})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngineVotingClosedDoesNotMutate(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()
	s := submit(t, e, "Closed")

	_, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: "u1", Type: Downvote})
	require.NoError(t, err)
	_, err = e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, ActorID: "r", Verdict: StatusRejected})
	require.NoError(t, err)

	for _, vt := range []VoteType{Upvote, Downvote} {
		for _, voter := range []string{"u1", "u2"} {
			_, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: voter, Type: vt})
			require.ErrorIs(t, err, ErrVotingClosed)
		}
	}

	var rows []Vote
	require.NoError(t, db.Where("suggestion_id = ?", s.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, Vote{SuggestionID: s.ID, UserID: "u1", VoteType: Downvote}, rows[0])
}

func TestEngineScopesByGuild(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()
	s := submit(t, e, "Scoped")

	_, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, GuildID: "another-guild", VoterID: "u1", Type: Upvote})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, GuildID: "another-guild", Verdict: StatusApproved})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.CastVote(ctx, VoteRequest{SuggestionID: "BAD!", VoterID: "u1", Type: Upvote})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: "u1", Type: "sideways"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngineRestoreYieldsOnlyPending(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()

	open := submit(t, e, "still open")
	closed := submit(t, e, "done")
	_, err := e.Decide(ctx, DecisionRequest{SuggestionID: closed.ID, ActorID: "r", Verdict: StatusApproved})
	require.NoError(t, err)

	var ids []string
	for id, err := range e.ReattachOpen(ctx) {
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{open.ID}, ids)

	restarted := NewEngine(db, nil, nil)
	assert.Zero(t, restarted.Registry().Len())
	n, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, restarted.Registry().Has(open.ID))
	assert.False(t, restarted.Registry().Has(closed.ID))
}

func TestEngineConcurrentTogglesFromOneVoter(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()
	s := submit(t, e, "Toggle storm")

	const presses = 20
	var wg sync.WaitGroup
	errs := make(chan error, presses)
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: "same-voter", Type: Upvote})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	snap, err := e.Snapshot(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, Tally{}, snap.Tally, "an even number of identical presses nets to zero")
	assert.Zero(t, e.locks.inFlight())
}

func TestEngineConcurrentVotersAndDecision(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()
	s := submit(t, e, "Race")
	other := submit(t, e, "Unaffected")

	const voters = 15
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < voters; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: fmt.Sprintf("v%02d", i), Type: Upvote})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrVotingClosed)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := e.CastVote(ctx, VoteRequest{SuggestionID: other.ID, VoterID: fmt.Sprintf("v%02d", i), Type: Downvote})
			assert.NoError(t, err)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := e.Decide(ctx, DecisionRequest{SuggestionID: s.ID, ActorID: "r", Verdict: StatusApproved})
		assert.NoError(t, err)
	}()
	wg.Wait()

	snap, err := e.Snapshot(ctx, s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, accepted, snap.Tally.Upvotes)

	var rows int64
	require.NoError(t, db.Model(&Vote{}).Where("suggestion_id = ? AND vote_type = ?", s.ID, Upvote).Count(&rows).Error)
	assert.Equal(t, rows, snap.Tally.Upvotes)

	otherSnap, err := e.Snapshot(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, Tally{Downvotes: voters}, otherSnap.Tally)
}

func TestEngineListIncludesTallies(t *testing.T) {
	e, db := newTestEngine(t)
	configureGuild(t, db)
	ctx := context.Background()
	s := submit(t, e, "Listed")
	_, err := e.CastVote(ctx, VoteRequest{SuggestionID: s.ID, VoterID: "u", Type: Upvote})
	require.NoError(t, err)

	list, err := e.List(ctx, testGuild, StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, Tally{Upvotes: 1}, list[0].Tally)
}
