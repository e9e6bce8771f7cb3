// Package suggestions implements the community suggestion lifecycle:
// submission, per-user voting, reviewer decisions and the tallies that
// the chat adapters render.
package suggestions

import (
	"time"

	"gorm.io/gorm"
)

// Status is the lifecycle state of a suggestion.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transitions or votes are allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// VoteType is the direction of a single vote.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// Valid reports whether v is a known vote direction.
func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// Opposite returns the other vote direction.
func (v VoteType) Opposite() VoteType {
	if v == Upvote {
		return Downvote
	}
	return Upvote
}

// VoteAction describes what a vote press did to the voter's row.
type VoteAction string

const (
	VoteAdded    VoteAction = "added"
	VoteRemoved  VoteAction = "removed"
	VoteSwitched VoteAction = "switched"
)

// Suggestion is a single community proposal.
type Suggestion struct {
	ID                 string `gorm:"column:suggestion_id;primaryKey;size:8"`
	GuildID            string `gorm:"size:32;index;not null"`
	AuthorID           string `gorm:"size:32;not null"`
	AuthorName         string `gorm:"size:128"`
	ChannelID          string `gorm:"size:32"`
	MessageID          string `gorm:"size:32"`
	ThreadID           string `gorm:"size:32"`
	Title              string `gorm:"size:256;not null"`
	Description        string `gorm:"type:text"`
	Pros               string `gorm:"type:text"`
	Cons               string `gorm:"type:text"`
	ImageURL           string `gorm:"type:text"`
	Status             Status `gorm:"size:16;not null;default:pending;index"`
	CreatedAt          time.Time
	DecisionReason     *string `gorm:"type:text"`
	DecidedAnonymously bool    `gorm:"not null;default:false"`
	DecidedBy          *string `gorm:"size:32"`
	DecidedAt          *time.Time
}

func (Suggestion) TableName() string { return "suggestions" }

// Published reports whether the public record was created on the platform.
func (s *Suggestion) Published() bool {
	return s != nil && s.MessageID != ""
}

// Vote is one voter's current stance on one suggestion.
type Vote struct {
	SuggestionID string   `gorm:"primaryKey;size:8"`
	UserID       string   `gorm:"primaryKey;size:32"`
	VoteType     VoteType `gorm:"size:16;not null"`
}

func (Vote) TableName() string { return "votes" }

// GuildPolicy is the per-guild suggestion configuration. Empty fields are unset.
type GuildPolicy struct {
	GuildID        string `gorm:"primaryKey;size:32"`
	ChannelID      string `gorm:"column:suggestion_channel_id;size:32"`
	ReviewerRoleID string `gorm:"size:32"`
	BlockedRoleID  string `gorm:"size:32"`
}

func (GuildPolicy) TableName() string { return "suggestion_guild_settings" }

// Tally is the aggregate vote count for a suggestion.
type Tally struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// Migrate creates or updates the suggestion tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Suggestion{}, &Vote{}, &GuildPolicy{})
}
