package suggestions

import (
	"context"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/emberforge/guildbot/src/logging"
	"github.com/emberforge/guildbot/src/suggestions"
)

// refresher re-renders public records. Edits for one suggestion are
// serialized and always render the latest committed state, so a slow edit
// can never overwrite a newer tally. An edit whose fingerprint matches the
// last one sent is skipped. Locks live only while an edit is in flight and
// at most maxFingerprints fingerprints are kept; forgetting one costs a
// redundant edit, nothing more.
type refresher struct {
	snapshot func(ctx context.Context, id string) (*suggestions.Snapshot, error)
	edit     func(channelID, messageID string, rec suggestions.Record) error

	mu    sync.Mutex
	locks map[string]*editLock
	last  map[string]uint64
}

type editLock struct {
	sync.Mutex
	refs int
}

const maxFingerprints = 4096

func newRefresher(
	snapshot func(ctx context.Context, id string) (*suggestions.Snapshot, error),
	edit func(channelID, messageID string, rec suggestions.Record) error,
) *refresher {
	return &refresher{
		snapshot: snapshot,
		edit:     edit,
		locks:    make(map[string]*editLock),
		last:     make(map[string]uint64),
	}
}

func (r *refresher) lock(id string) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &editLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

// remember records fp as the last edit sent for id. Closed records never
// change again and are forgotten.
func (r *refresher) remember(id string, fp uint64, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if closed {
		delete(r.last, id)
		return
	}
	if _, ok := r.last[id]; !ok && len(r.last) >= maxFingerprints {
		for victim := range r.last {
			delete(r.last, victim)
			break
		}
	}
	r.last[id] = fp
}

// refresh pushes the current rendering of id. Failures are logged only:
// the state change behind the refresh is already committed.
func (r *refresher) refresh(ctx context.Context, id string) {
	unlock := r.lock(id)
	defer unlock()

	snap, err := r.snapshot(ctx, id)
	if err != nil {
		log.Printf("suggestions: refresh %s: %v", id, err)
		return
	}
	s := snap.Suggestion
	if !s.Published() {
		return
	}

	fp := snap.Record.Fingerprint()
	r.mu.Lock()
	same := r.last[id] == fp
	r.mu.Unlock()
	if same {
		return
	}

	if err := r.edit(s.ChannelID, s.MessageID, snap.Record); err != nil {
		switch {
		case logging.IsUnknownResource(err):
			log.Printf("suggestions: record for %s was deleted, skipping edit", id)
		case logging.IsRateLimit(err):
			log.Printf("suggestions: rate limited editing %s: %v", id, err)
		default:
			log.Printf("suggestions: edit record %s: %v", id, err)
		}
		return
	}

	r.remember(id, fp, snap.Record.Closed)
}

func editRecord(s *discordgo.Session) func(channelID, messageID string, rec suggestions.Record) error {
	return func(channelID, messageID string, rec suggestions.Record) error {
		embeds := []*discordgo.MessageEmbed{buildEmbed(rec)}
		components := voteComponents(rec.SuggestionID, rec.Closed)
		_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         messageID,
			Channel:    channelID,
			Embeds:     &embeds,
			Components: &components,
		})
		return err
	}
}
