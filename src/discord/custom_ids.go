package discord

import "strings"

const (
	UpvotePrefix          = "upvote"
	DownvotePrefix        = "downvote"
	SuggestionModalPrefix = "suggestion_modal"
	CharacterModalID      = "character_modal"
)

// CustomID joins a component prefix and its payload.
func CustomID(prefix, payload string) string {
	return prefix + ":" + payload
}

// ParseCustomID splits a custom id into prefix and payload. Ids without a
// payload return ok=false.
func ParseCustomID(id string) (prefix, payload string, ok bool) {
	prefix, payload, found := strings.Cut(id, ":")
	if !found || prefix == "" || payload == "" {
		return "", "", false
	}
	return prefix, payload, true
}
