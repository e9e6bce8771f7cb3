package suggestions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emberforge/guildbot/src/suggestions"
)

const (
	replySubmitted        = "✅ Suggestion submitted!"
	replyNotConfigured    = "❌ Suggestion channel not set up. Contact an admin."
	replyChannelMissing   = "❌ Suggestion channel not found. Contact an admin."
	replyNotFound         = "❌ Suggestion not found."
	replyVotingClosed     = "❌ Voting is closed for this suggestion."
	replyNotAccepting     = "❌ This suggestion is no longer accepting votes."
	replyBlocked          = "❌ You are not allowed to submit suggestions."
	replyBadImage         = "❌ Please attach a valid image file."
	replyFormExpired      = "❌ This form expired. Please run /suggest again."
	replyReviewerNotSet   = "❌ Reviewer role not set up."
	replyNeedReviewerRole = "❌ You need the reviewer role to use this command."
	replyForbidden        = "❌ Bot lacks permissions to send messages or create threads."
	replyGuildOnly        = "Run this command in a guild."
	replyFailure          = "❌ Something went wrong. Please try again later."
)

// voteReply is the ephemeral acknowledgment for a vote press.
func voteReply(t suggestions.VoteType, action suggestions.VoteAction) string {
	switch {
	case t == suggestions.Upvote && action == suggestions.VoteAdded:
		return "✅ Upvoted!"
	case t == suggestions.Upvote && action == suggestions.VoteRemoved:
		return "🔄 Upvote removed."
	case t == suggestions.Upvote && action == suggestions.VoteSwitched:
		return "✅ Changed to upvote."
	case t == suggestions.Downvote && action == suggestions.VoteAdded:
		return "❌ Downvoted!"
	case t == suggestions.Downvote && action == suggestions.VoteRemoved:
		return "🔄 Downvote removed."
	default:
		return "❌ Changed to downvote."
	}
}

func decisionReply(id string, verdict suggestions.Status) string {
	if verdict == suggestions.StatusApproved {
		return fmt.Sprintf("✅ Suggestion `%s` approved!", id)
	}
	return fmt.Sprintf("❌ Suggestion `%s` rejected!", id)
}

func missingPermissionsReply(channelMention string, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Bot is missing required permissions in %s:", channelMention)
	for _, p := range missing {
		b.WriteString("\n• ")
		b.WriteString(p)
	}
	return b.String()
}

// errorReply maps engine errors onto user-facing text. Unknown errors get a
// generic reply; the caller logs the detail.
func errorReply(err error) string {
	switch {
	case errors.Is(err, suggestions.ErrNotConfigured):
		return replyNotConfigured
	case errors.Is(err, suggestions.ErrNotFound):
		return replyNotFound
	case errors.Is(err, suggestions.ErrVotingClosed):
		return replyVotingClosed
	case errors.Is(err, suggestions.ErrAlreadyDecided):
		return "❌ This suggestion has already been decided."
	case errors.Is(err, suggestions.ErrInvalidInput):
		return "❌ That request is missing required details."
	default:
		return replyFailure
	}
}
