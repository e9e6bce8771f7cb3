package suggestions

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotConfigured means the guild policy lacks a required setting.
	ErrNotConfigured = errors.New("suggestions: guild not configured")
	// ErrNotFound means the suggestion id is unknown (or belongs to another guild).
	ErrNotFound = errors.New("suggestions: not found")
	// ErrVotingClosed means a vote was attempted on a decided suggestion.
	ErrVotingClosed = errors.New("suggestions: voting closed")
	// ErrAlreadyDecided means a second decision was attempted.
	ErrAlreadyDecided = errors.New("suggestions: already decided")
	// ErrDuplicateID means the generated identifier is already taken.
	ErrDuplicateID = errors.New("suggestions: duplicate id")
	// ErrConflict means a uniqueness violation exposed a concurrent write.
	ErrConflict = errors.New("suggestions: conflicting write")
	// ErrInvalidInput means the request is malformed.
	ErrInvalidInput = errors.New("suggestions: invalid input")
)

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "Error 1062")
}
