package suggestions

import (
	"time"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/emberforge/guildbot/src/discord"
	"github.com/emberforge/guildbot/src/suggestions"
)

// buildEmbed converts a rendered record into a Discord embed.
func buildEmbed(rec suggestions.Record) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     shareddiscord.Truncate(rec.Title, 256),
		Color:     rec.Color,
		Timestamp: rec.Timestamp.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: rec.Footer},
	}
	if rec.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: rec.AuthorName}
	}
	for _, f := range rec.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  f.Name,
			Value: shareddiscord.Truncate(f.Value, shareddiscord.MaxEmbedFieldLen),
		})
	}
	if rec.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: rec.ImageURL}
	}
	return embed
}

// voteComponents builds the two voting buttons. Closed records keep the
// buttons visible but disabled.
func voteComponents(id string, closed bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				Style:    discordgo.SecondaryButton,
				CustomID: shareddiscord.CustomID(shareddiscord.UpvotePrefix, id),
				Disabled: closed,
			},
			discordgo.Button{
				Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
				Style:    discordgo.SecondaryButton,
				CustomID: shareddiscord.CustomID(shareddiscord.DownvotePrefix, id),
				Disabled: closed,
			},
		}},
	}
}
