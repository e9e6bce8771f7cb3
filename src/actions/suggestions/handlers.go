package suggestions

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/emberforge/guildbot/src/discord"
	"github.com/emberforge/guildbot/src/logging"
	"github.com/emberforge/guildbot/src/suggestions"
)

const threadAutoArchiveMinutes = 10080

func (m *Module) handleSuggest(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyGuildOnly)
		return
	}

	policy, err := m.policies.Get(ctx, i.GuildID)
	if err != nil {
		log.Printf("suggestions: load policy for %s: %v", i.GuildID, err)
		shareddiscord.RespondEphemeral(s, i.Interaction, replyFailure)
		return
	}
	if policy.BlockedRoleID != "" && shareddiscord.MemberHasRole(i.Member, policy.BlockedRoleID) {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyBlocked)
		return
	}

	data := i.ApplicationCommandData()
	imageURL := ""
	for _, opt := range data.Options {
		if opt.Name != "image" {
			continue
		}
		id, _ := opt.Value.(string)
		var att *discordgo.MessageAttachment
		if data.Resolved != nil {
			att = data.Resolved.Attachments[id]
		}
		if att == nil || !strings.HasPrefix(att.ContentType, "image/") {
			shareddiscord.RespondEphemeral(s, i.Interaction, replyBadImage)
			return
		}
		imageURL = att.URL
	}

	token := m.images.put(imageURL)
	err = shareddiscord.RespondModal(s, i.Interaction,
		shareddiscord.CustomID(shareddiscord.SuggestionModalPrefix, token),
		"Submit a Suggestion",
		discordgo.TextInput{
			CustomID:    "title",
			Label:       "Title",
			Style:       discordgo.TextInputShort,
			Placeholder: "Enter suggestion title...",
			Required:    true,
			MaxLength:   suggestions.MaxTitleLen,
		},
		discordgo.TextInput{
			CustomID:    "description",
			Label:       "Description",
			Style:       discordgo.TextInputParagraph,
			Placeholder: "Describe your suggestion...",
			Required:    true,
			MaxLength:   suggestions.MaxDescriptionLen,
		},
		discordgo.TextInput{
			CustomID:    "pros",
			Label:       "Pros",
			Style:       discordgo.TextInputParagraph,
			Placeholder: "What are the benefits?",
			Required:    true,
			MaxLength:   suggestions.MaxProsConsLen,
		},
		discordgo.TextInput{
			CustomID:    "cons",
			Label:       "Cons",
			Style:       discordgo.TextInputParagraph,
			Placeholder: "What are the drawbacks?",
			Required:    true,
			MaxLength:   suggestions.MaxProsConsLen,
		},
	)
	if err != nil {
		log.Printf("suggestions: open modal: %v", err)
	}
}

func (m *Module) handleModalSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	if i.GuildID == "" {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyGuildOnly)
		return
	}

	imageURL, ok := m.images.take(token)
	if !ok {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyFormExpired)
		return
	}

	policy, err := m.policies.Get(ctx, i.GuildID)
	if err != nil {
		log.Printf("suggestions: load policy for %s: %v", i.GuildID, err)
		shareddiscord.RespondEphemeral(s, i.Interaction, replyFailure)
		return
	}
	if policy.ChannelID == "" {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyNotConfigured)
		return
	}
	if _, err := s.Channel(policy.ChannelID); err != nil {
		log.Printf("suggestions: channel %s for guild %s: %v", policy.ChannelID, i.GuildID, err)
		shareddiscord.RespondEphemeral(s, i.Interaction, replyChannelMissing)
		return
	}
	missing, err := shareddiscord.BotMissingPermissions(s, policy.ChannelID, shareddiscord.PublishPermissions)
	if err != nil {
		log.Printf("suggestions: permission check: %v", err)
	} else if len(missing) > 0 {
		shareddiscord.RespondEphemeral(s, i.Interaction,
			missingPermissionsReply(shareddiscord.ChannelMention(policy.ChannelID), missing))
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		log.Printf("suggestions: failed to acknowledge modal: %v", err)
		return
	}

	values := shareddiscord.ModalValues(i.ModalSubmitData())
	author := shareddiscord.InteractionUser(i.Interaction)
	req := suggestions.SubmitRequest{
		GuildID:     i.GuildID,
		AuthorName:  shareddiscord.DisplayName(i.Interaction),
		Title:       values["title"],
		Description: values["description"],
		Pros:        values["pros"],
		Cons:        values["cons"],
		ImageURL:    imageURL,
	}
	if author != nil {
		req.AuthorID = author.ID
	}

	reply := replySubmitted
	sub, err := m.engine.Submit(ctx, req, m.publish(s))
	switch {
	case err == nil:
		log.Printf("suggestions: %s submitted in guild %s", sub.Suggestion.ID, i.GuildID)
	case logging.IsForbidden(err):
		log.Printf("suggestions: submit forbidden: %v", err)
		reply = replyForbidden
	default:
		log.Printf("suggestions: submit failed: %v", err)
		reply = errorReply(err)
	}
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &reply})
}

// publish sends the public record with its voting controls and opens the
// discussion thread. A failed thread is logged; the record is still live.
func (m *Module) publish(s *discordgo.Session) suggestions.Publisher {
	return func(ctx context.Context, channelID string, sg *suggestions.Suggestion, rec suggestions.Record) (suggestions.Publication, error) {
		msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{buildEmbed(rec)},
			Components: voteComponents(sg.ID, false),
		}, discordgo.WithContext(ctx))
		if err != nil {
			return suggestions.Publication{}, err
		}

		pub := suggestions.Publication{ChannelID: channelID, MessageID: msg.ID}
		thread, err := s.MessageThreadStartComplex(channelID, msg.ID, &discordgo.ThreadStart{
			Name:                shareddiscord.Truncate(sg.Title, shareddiscord.MaxThreadNameLen),
			AutoArchiveDuration: threadAutoArchiveMinutes,
		}, discordgo.WithContext(ctx))
		if err != nil {
			log.Printf("suggestions: thread for %s: %v", sg.ID, err)
			return pub, nil
		}
		pub.ThreadID = thread.ID
		return pub, nil
	}
}

func (m *Module) handleVote(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, id string, vote suggestions.VoteType) {
	if !m.engine.Registry().Has(id) {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyNotAccepting)
		return
	}
	voter := shareddiscord.InteractionUser(i.Interaction)
	if voter == nil {
		return
	}

	res, err := m.engine.CastVote(ctx, suggestions.VoteRequest{
		SuggestionID: id,
		GuildID:      i.GuildID,
		VoterID:      voter.ID,
		Type:         vote,
	})
	if err != nil {
		reply := errorReply(err)
		if reply == replyFailure {
			log.Printf("suggestions: vote on %s by %s: %v", id, voter.ID, err)
		}
		shareddiscord.RespondEphemeral(s, i.Interaction, reply)
		return
	}

	shareddiscord.RespondEphemeral(s, i.Interaction, voteReply(vote, res.Action))
	m.refresher.refresh(ctx, id)
}

func (m *Module) handleDecision(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, verdict suggestions.Status) {
	if i.GuildID == "" || i.Member == nil {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyGuildOnly)
		return
	}

	policy, err := m.policies.Get(ctx, i.GuildID)
	if err != nil {
		log.Printf("suggestions: load policy for %s: %v", i.GuildID, err)
		shareddiscord.RespondEphemeral(s, i.Interaction, replyFailure)
		return
	}
	if policy.ReviewerRoleID == "" {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyReviewerNotSet)
		return
	}
	if !shareddiscord.MemberHasRole(i.Member, policy.ReviewerRoleID) && !shareddiscord.IsAdministrator(i.Member) {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyNeedReviewerRole)
		return
	}

	req := suggestions.DecisionRequest{
		GuildID: i.GuildID,
		ActorID: i.Member.User.ID,
		Verdict: verdict,
	}
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "suggestion_id":
			req.SuggestionID = strings.ToLower(strings.TrimSpace(opt.StringValue()))
		case "reason":
			req.Reason = opt.StringValue()
		case "anonymous":
			req.Anonymous = opt.BoolValue()
		}
	}

	dec, err := m.engine.Decide(ctx, req)
	if err != nil {
		reply := errorReply(err)
		if reply == replyFailure {
			log.Printf("suggestions: decide %s: %v", req.SuggestionID, err)
		}
		shareddiscord.RespondEphemeral(s, i.Interaction, reply)
		return
	}
	log.Printf("suggestions: %s %s by %s", dec.Suggestion.ID, verdict, req.ActorID)

	shareddiscord.RespondEphemeral(s, i.Interaction, decisionReply(dec.Suggestion.ID, verdict))
	m.refresher.refresh(ctx, dec.Suggestion.ID)
	if dec.Suggestion.ThreadID != "" {
		closeThread(s, dec.Suggestion.ThreadID)
	}
}

func closeThread(s *discordgo.Session, threadID string) {
	archived, locked := true, true
	if _, err := s.ChannelEdit(threadID, &discordgo.ChannelEdit{
		Locked:   &locked,
		Archived: &archived,
	}); err != nil && !logging.IsUnknownResource(err) && !logging.IsForbidden(err) {
		log.Printf("suggestions: close thread %s: %v", threadID, err)
	}
}

func (m *Module) handleSetting(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyGuildOnly)
		return
	}
	if !shareddiscord.IsAdministrator(i.Member) {
		shareddiscord.RespondEphemeral(s, i.Interaction, "You do not have permission to use this command.")
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	opt := data.Options[0]
	id, _ := opt.Value.(string)

	var (
		err   error
		reply string
	)
	switch data.Name {
	case shareddiscord.CommandSetChannel:
		err = m.policies.SetChannel(ctx, i.GuildID, id)
		reply = fmt.Sprintf("✅ Suggestion channel set to %s", shareddiscord.ChannelMention(id))
	case shareddiscord.CommandSetReviewerRole:
		err = m.policies.SetReviewerRole(ctx, i.GuildID, id)
		reply = fmt.Sprintf("✅ Reviewer role set to %s", shareddiscord.RoleMention(id))
	case shareddiscord.CommandSetBlockedRole:
		err = m.policies.SetBlockedRole(ctx, i.GuildID, id)
		reply = fmt.Sprintf("✅ Users with %s can no longer submit suggestions.", shareddiscord.RoleMention(id))
	}
	if err != nil {
		log.Printf("suggestions: %s for guild %s: %v", data.Name, i.GuildID, err)
		reply = replyFailure
	}
	shareddiscord.RespondEphemeral(s, i.Interaction, reply)
}
