package suggestions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// VoteStore persists one vote row per (suggestion, voter).
type VoteStore struct {
	db *gorm.DB
}

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

// GetVote returns the voter's current vote, or "" when there is none.
func (s *VoteStore) GetVote(ctx context.Context, suggestionID, userID string) (VoteType, error) {
	var v Vote
	err := s.db.WithContext(ctx).
		Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("votes: get %s/%s: %w", suggestionID, userID, err)
	}
	return v.VoteType, nil
}

// SetVote inserts a new row; an existing row yields ErrConflict.
func (s *VoteStore) SetVote(ctx context.Context, suggestionID, userID string, vt VoteType) error {
	err := s.db.WithContext(ctx).Create(&Vote{SuggestionID: suggestionID, UserID: userID, VoteType: vt}).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: vote %s/%s", ErrConflict, suggestionID, userID)
	}
	if err != nil {
		return fmt.Errorf("votes: set %s/%s: %w", suggestionID, userID, err)
	}
	return nil
}

// RemoveVote deletes the voter's row. Missing rows are not an error.
func (s *VoteStore) RemoveVote(ctx context.Context, suggestionID, userID string) error {
	err := s.db.WithContext(ctx).
		Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).
		Delete(&Vote{}).Error
	if err != nil {
		return fmt.Errorf("votes: remove %s/%s: %w", suggestionID, userID, err)
	}
	return nil
}

// SwitchVote replaces the voter's row in one transaction.
func (s *VoteStore) SwitchVote(ctx context.Context, suggestionID, userID string, vt VoteType) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).Delete(&Vote{}).Error; err != nil {
			return err
		}
		return tx.Create(&Vote{SuggestionID: suggestionID, UserID: userID, VoteType: vt}).Error
	})
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: vote %s/%s", ErrConflict, suggestionID, userID)
	}
	if err != nil {
		return fmt.Errorf("votes: switch %s/%s: %w", suggestionID, userID, err)
	}
	return nil
}

// Tally counts rows by type. A suggestion without votes tallies to zero.
func (s *VoteStore) Tally(ctx context.Context, suggestionID string) (Tally, error) {
	type agg struct {
		VoteType VoteType
		Count    int64
	}
	var rows []agg
	err := s.db.WithContext(ctx).Model(&Vote{}).
		Select("vote_type, count(*) as count").
		Where("suggestion_id = ?", suggestionID).
		Group("vote_type").
		Scan(&rows).Error
	if err != nil {
		return Tally{}, fmt.Errorf("votes: tally %s: %w", suggestionID, err)
	}

	var t Tally
	for _, r := range rows {
		switch r.VoteType {
		case Upvote:
			t.Upvotes = r.Count
		case Downvote:
			t.Downvotes = r.Count
		}
	}
	return t, nil
}
