package discord

import (
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

const (
	MaxDiscordMessageLen = 2000
	MaxThreadNameLen     = 80
	MaxEmbedFieldLen     = 1024
)

// RespondEphemeral answers an interaction with a message only the caller sees.
func RespondEphemeral(s *discordgo.Session, i *discordgo.Interaction, content string) {
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: Truncate(content, MaxDiscordMessageLen),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("discord: ephemeral reply failed: %v", err)
	}
}

// RespondModal opens a modal form in reply to an interaction.
func RespondModal(s *discordgo.Session, i *discordgo.Interaction, customID, title string, inputs ...discordgo.TextInput) error {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// ModalValues collects text input values of a submitted modal by custom id.
func ModalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if in, ok := c.(*discordgo.TextInput); ok {
				values[in.CustomID] = in.Value
			}
		}
	}
	return values
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Mention formats a user mention.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// ChannelMention formats a channel mention.
func ChannelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

// RoleMention formats a role mention.
func RoleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// InteractionUser returns the acting user of a guild or DM interaction.
func InteractionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// DisplayName prefers the guild nickname, then the global name, then the username.
func DisplayName(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	u := InteractionUser(i)
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
