package suggestions

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Decision is the terminal transition applied by SetStatus.
type Decision struct {
	Status    Status
	Reason    string
	Anonymous bool
	ActorID   string
	At        time.Time
}

// SuggestionStore persists suggestion records.
type SuggestionStore struct {
	db *gorm.DB
}

func NewSuggestionStore(db *gorm.DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

// Create inserts a new record. ErrDuplicateID is returned when the id is taken.
func (s *SuggestionStore) Create(ctx context.Context, rec *Suggestion) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: missing suggestion id", ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("suggestions: create %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads a record by id.
func (s *SuggestionStore) Get(ctx context.Context, id string) (*Suggestion, error) {
	var rec Suggestion
	err := s.db.WithContext(ctx).Where("suggestion_id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("suggestions: get %s: %w", id, err)
	}
	return &rec, nil
}

// AttachPublication stores where the public record and its thread live.
func (s *SuggestionStore) AttachPublication(ctx context.Context, id, channelID, messageID, threadID string) error {
	res := s.db.WithContext(ctx).Model(&Suggestion{}).
		Where("suggestion_id = ?", id).
		Updates(map[string]any{
			"channel_id": channelID,
			"message_id": messageID,
			"thread_id":  threadID,
		})
	if res.Error != nil {
		return fmt.Errorf("suggestions: attach publication %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SetStatus applies a terminal decision in one conditional statement. It only
// matches a pending row, so a concurrent or repeated decision cannot overwrite
// the first one.
func (s *SuggestionStore) SetStatus(ctx context.Context, id string, d Decision) error {
	if !d.Status.Terminal() {
		return fmt.Errorf("%w: cannot transition to %q", ErrInvalidInput, d.Status)
	}

	var reason *string
	if r := strings.TrimSpace(d.Reason); r != "" {
		reason = &r
	}
	var actor *string
	if d.ActorID != "" {
		actor = &d.ActorID
	}
	at := d.At.UTC()

	res := s.db.WithContext(ctx).Model(&Suggestion{}).
		Where("suggestion_id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":              d.Status,
			"decision_reason":     reason,
			"decided_anonymously": d.Anonymous,
			"decided_by":          actor,
			"decided_at":          &at,
		})
	if res.Error != nil {
		return fmt.Errorf("suggestions: set status %s: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrAlreadyDecided, id)
}

// Pending yields the ids of every published pending suggestion, one page at a
// time. Each range over the sequence starts a fresh scan.
func (s *SuggestionStore) Pending(ctx context.Context, pageSize int) iter.Seq2[string, error] {
	if pageSize <= 0 {
		pageSize = 100
	}
	return func(yield func(string, error) bool) {
		after := ""
		for {
			var ids []string
			err := s.db.WithContext(ctx).Model(&Suggestion{}).
				Where("status = ? AND message_id <> '' AND suggestion_id > ?", StatusPending, after).
				Order("suggestion_id").
				Limit(pageSize).
				Pluck("suggestion_id", &ids).Error
			if err != nil {
				yield("", fmt.Errorf("suggestions: scan pending: %w", err))
				return
			}
			for _, id := range ids {
				if !yield(id, nil) {
					return
				}
			}
			if len(ids) < pageSize {
				return
			}
			after = ids[len(ids)-1]
		}
	}
}

// List returns the newest published suggestions of a guild, optionally filtered by status.
func (s *SuggestionStore) List(ctx context.Context, guildID string, status Status, limit int) ([]Suggestion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Where("guild_id = ? AND message_id <> ''", guildID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []Suggestion
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("suggestions: list %s: %w", guildID, err)
	}
	return out, nil
}
