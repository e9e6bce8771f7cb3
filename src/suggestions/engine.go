package suggestions

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"time"

	"gorm.io/gorm"
)

const pendingPageSize = 100

// SubmitRequest carries the fields collected by the submission form.
type SubmitRequest struct {
	GuildID     string
	AuthorID    string
	AuthorName  string
	Title       string
	Description string
	Pros        string
	Cons        string
	ImageURL    string
}

// Publication locates the public record created for a suggestion.
type Publication struct {
	ChannelID string
	MessageID string
	ThreadID  string
}

// Publisher creates the public record (and its discussion thread) for a
// freshly stored suggestion.
type Publisher func(ctx context.Context, channelID string, s *Suggestion, rec Record) (Publication, error)

// Submission is the outcome of a successful submit.
type Submission struct {
	Suggestion *Suggestion
	Record     Record
}

// VoteRequest is a single voting control press. GuildID is optional; when set
// a suggestion from another guild is reported as not found.
type VoteRequest struct {
	SuggestionID string
	GuildID      string
	VoterID      string
	Type         VoteType
}

// VoteResult reports what the press did and the resulting tally.
type VoteResult struct {
	Action     VoteAction
	Tally      Tally
	Suggestion *Suggestion
	Record     Record
}

// DecisionRequest is a reviewer's verdict. Authorization happens before the
// engine is called.
type DecisionRequest struct {
	SuggestionID string
	GuildID      string
	ActorID      string
	Verdict      Status
	Reason       string
	Anonymous    bool
}

// DecisionRecord is the state after a successful decision.
type DecisionRecord struct {
	Suggestion *Suggestion
	Tally      Tally
	Record     Record
}

// Snapshot is a read-only view of a suggestion and its tally.
type Snapshot struct {
	Suggestion *Suggestion
	Tally      Tally
	Record     Record
}

// Engine owns every write to the suggestion and vote tables. Actions on the
// same suggestion are strictly ordered; different suggestions never contend.
type Engine struct {
	suggestions *SuggestionStore
	votes       *VoteStore
	policies    PolicyReader
	registry    *Registry
	locks       keyedMutex
	now         func() time.Time
	newID       func() (string, error)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for creation and decision stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDSource overrides the identifier generator.
func WithIDSource(fn func() (string, error)) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine wires the stores over db. A nil registry gets a private one.
func NewEngine(db *gorm.DB, policies PolicyReader, registry *Registry, opts ...Option) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if policies == nil {
		policies = NewPolicyStore(db)
	}
	e := &Engine{
		suggestions: NewSuggestionStore(db),
		votes:       NewVoteStore(db),
		policies:    policies,
		registry:    registry,
		now:         time.Now,
		newID:       NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the live-control registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Submit stores a new pending suggestion and publishes it. If publishing
// fails the stored row is left in place; it never gets a message id and so
// is never reattached or listed. Once the message exists the submission
// succeeds even if its location cannot be stored.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest, publish Publisher) (*Submission, error) {
	policy, err := e.policies.Get(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	if policy.ChannelID == "" {
		return nil, fmt.Errorf("%w: no suggestion channel for guild %s", ErrNotConfigured, req.GuildID)
	}

	rec := Suggestion{
		GuildID:     req.GuildID,
		AuthorID:    req.AuthorID,
		AuthorName:  Clip(req.AuthorName, maxAuthorNameLen),
		Title:       Clip(req.Title, MaxTitleLen),
		Description: Clip(req.Description, MaxDescriptionLen),
		Pros:        Clip(req.Pros, MaxProsConsLen),
		Cons:        Clip(req.Cons, MaxProsConsLen),
		ImageURL:    req.ImageURL,
		Status:      StatusPending,
		CreatedAt:   e.now().UTC(),
	}
	if rec.AuthorID == "" || rec.Title == "" || rec.Description == "" {
		return nil, fmt.Errorf("%w: author, title and description are required", ErrInvalidInput)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := e.newID()
		if err != nil {
			return nil, err
		}
		rec.ID = id
		err = e.suggestions.Create(ctx, &rec)
		if errors.Is(err, ErrDuplicateID) {
			log.Printf("suggestions: id collision on %s, drawing another", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	// Controls go live with the message, so the id must be registered first.
	e.registry.Add(rec.ID)

	initial := Render(rec, Tally{})
	if publish != nil {
		pub, err := publish(ctx, policy.ChannelID, &rec, initial)
		if err != nil {
			e.registry.Remove(rec.ID)
			return nil, fmt.Errorf("suggestions: publish %s: %w", rec.ID, err)
		}
		rec.ChannelID, rec.MessageID, rec.ThreadID = pub.ChannelID, pub.MessageID, pub.ThreadID
		if err := e.suggestions.AttachPublication(ctx, rec.ID, pub.ChannelID, pub.MessageID, pub.ThreadID); err != nil {
			// The public record exists and takes votes; it is only missing
			// from the next startup's reattach scan.
			log.Printf("suggestions: attach publication %s (message %s): %v", rec.ID, pub.MessageID, err)
		}
	}

	return &Submission{Suggestion: &rec, Record: initial}, nil
}

// CastVote applies one control press using the toggle/switch table:
// same direction removes, opposite direction switches, no vote adds.
func (e *Engine) CastVote(ctx context.Context, req VoteRequest) (*VoteResult, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: vote type %q", ErrInvalidInput, req.Type)
	}
	if req.VoterID == "" {
		return nil, fmt.Errorf("%w: missing voter", ErrInvalidInput)
	}

	unlock := e.locks.Lock(req.SuggestionID)
	defer unlock()

	s, err := e.load(ctx, req.SuggestionID, req.GuildID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrVotingClosed, s.ID, s.Status)
	}

	action, err := e.applyVote(ctx, req)
	if errors.Is(err, ErrConflict) {
		log.Printf("suggestions: vote conflict on %s by %s, retrying", req.SuggestionID, req.VoterID)
		action, err = e.applyVote(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	tally, err := e.votes.Tally(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Action: action, Tally: tally, Suggestion: s, Record: Render(*s, tally)}, nil
}

func (e *Engine) applyVote(ctx context.Context, req VoteRequest) (VoteAction, error) {
	current, err := e.votes.GetVote(ctx, req.SuggestionID, req.VoterID)
	if err != nil {
		return "", err
	}

	switch current {
	case req.Type:
		return VoteRemoved, e.votes.RemoveVote(ctx, req.SuggestionID, req.VoterID)
	case req.Type.Opposite():
		return VoteSwitched, e.votes.SwitchVote(ctx, req.SuggestionID, req.VoterID, req.Type)
	default:
		return VoteAdded, e.votes.SetVote(ctx, req.SuggestionID, req.VoterID, req.Type)
	}
}

// Decide moves a pending suggestion to approved or rejected. A suggestion is
// decided at most once.
func (e *Engine) Decide(ctx context.Context, req DecisionRequest) (*DecisionRecord, error) {
	if !req.Verdict.Terminal() {
		return nil, fmt.Errorf("%w: verdict %q", ErrInvalidInput, req.Verdict)
	}

	unlock := e.locks.Lock(req.SuggestionID)
	defer unlock()

	s, err := e.load(ctx, req.SuggestionID, req.GuildID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, s.ID, s.Status)
	}

	err = e.suggestions.SetStatus(ctx, s.ID, Decision{
		Status:    req.Verdict,
		Reason:    Clip(req.Reason, MaxReasonLen),
		Anonymous: req.Anonymous,
		ActorID:   req.ActorID,
		At:        e.now(),
	})
	if err != nil {
		return nil, err
	}

	decided, err := e.suggestions.Get(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	tally, err := e.votes.Tally(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return &DecisionRecord{Suggestion: decided, Tally: tally, Record: Render(*decided, tally)}, nil
}

// ReattachOpen yields every published pending suggestion id. The sequence is
// lazy and can be ranged over again for a fresh scan.
func (e *Engine) ReattachOpen(ctx context.Context) iter.Seq2[string, error] {
	return e.suggestions.Pending(ctx, pendingPageSize)
}

// Restore fills the registry from ReattachOpen. It runs once at startup.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	n := 0
	for id, err := range e.ReattachOpen(ctx) {
		if err != nil {
			return n, err
		}
		e.registry.Add(id)
		n++
	}
	return n, nil
}

// Snapshot loads a suggestion with its current tally and rendering.
func (e *Engine) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	s, err := e.suggestions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tally, err := e.votes.Tally(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Suggestion: s, Tally: tally, Record: Render(*s, tally)}, nil
}

// List returns recent published suggestions of a guild with their tallies.
func (e *Engine) List(ctx context.Context, guildID string, status Status, limit int) ([]Snapshot, error) {
	rows, err := e.suggestions.List(ctx, guildID, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(rows))
	for i := range rows {
		tally, err := e.votes.Tally(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{Suggestion: &rows[i], Tally: tally, Record: Render(rows[i], tally)})
	}
	return out, nil
}

func (e *Engine) load(ctx context.Context, id, guildID string) (*Suggestion, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s, err := e.suggestions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if guildID != "" && s.GuildID != guildID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}
