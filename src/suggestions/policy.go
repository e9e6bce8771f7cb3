package suggestions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PolicyReader is the read side of the guild policy store; it is all the
// engine ever needs.
type PolicyReader interface {
	Get(ctx context.Context, guildID string) (GuildPolicy, error)
}

// Policies is the full guild policy store used by admin commands.
type Policies interface {
	PolicyReader
	SetChannel(ctx context.Context, guildID, channelID string) error
	SetReviewerRole(ctx context.Context, guildID, roleID string) error
	SetBlockedRole(ctx context.Context, guildID, roleID string) error
}

// PolicyStore keeps one settings row per guild.
type PolicyStore struct {
	db *gorm.DB
}

var _ Policies = (*PolicyStore)(nil)

func NewPolicyStore(db *gorm.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// Get returns the guild's policy. A guild without a row has every field unset.
func (s *PolicyStore) Get(ctx context.Context, guildID string) (GuildPolicy, error) {
	var p GuildPolicy
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GuildPolicy{GuildID: guildID}, nil
	}
	if err != nil {
		return GuildPolicy{}, fmt.Errorf("policy: get %s: %w", guildID, err)
	}
	return p, nil
}

func (s *PolicyStore) SetChannel(ctx context.Context, guildID, channelID string) error {
	return s.upsert(ctx, GuildPolicy{GuildID: guildID, ChannelID: channelID}, "suggestion_channel_id")
}

func (s *PolicyStore) SetReviewerRole(ctx context.Context, guildID, roleID string) error {
	return s.upsert(ctx, GuildPolicy{GuildID: guildID, ReviewerRoleID: roleID}, "reviewer_role_id")
}

func (s *PolicyStore) SetBlockedRole(ctx context.Context, guildID, roleID string) error {
	return s.upsert(ctx, GuildPolicy{GuildID: guildID, BlockedRoleID: roleID}, "blocked_role_id")
}

func (s *PolicyStore) upsert(ctx context.Context, row GuildPolicy, column string) error {
	if row.GuildID == "" {
		return fmt.Errorf("%w: missing guild id", ErrInvalidInput)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{column}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("policy: set %s for %s: %w", column, row.GuildID, err)
	}
	return nil
}
