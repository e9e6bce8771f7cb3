package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/emberforge/guildbot/src/discord"
	"github.com/emberforge/guildbot/src/game"
)

const (
	replyNoPermission = "You do not have permission to use this command."
	replyGuildOnly    = "Run this command in a guild."
	defaultFaces      = 6
)

func (m *Module) handleSetGuildRole(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := shareddiscord.InteractionUser(i.Interaction)
	if user == nil || !m.config.IsSuperAdmin(user.ID) {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyNoPermission)
		return
	}
	if i.GuildID == "" {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyGuildOnly)
		return
	}

	roleID := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "role_id" {
			roleID = strings.TrimSpace(opt.StringValue())
		}
	}
	if roleID == "" {
		shareddiscord.RespondEphemeral(s, i.Interaction, "A role id is required.")
		return
	}

	if err := m.store.SetGuildAdminRole(ctx, i.GuildID, roleID); err != nil {
		log.Printf("game: %v", err)
		shareddiscord.RespondEphemeral(s, i.Interaction, "Failed to save the admin role. Please try again later.")
		return
	}
	shareddiscord.RespondEphemeral(s, i.Interaction, fmt.Sprintf("Guild admin role id set to %s.", roleID))
}

// canManage allows super admins anywhere and the guild admin role in its guild.
func (m *Module) canManage(ctx context.Context, i *discordgo.Interaction) bool {
	user := shareddiscord.InteractionUser(i)
	if user == nil {
		return false
	}
	if m.config.IsSuperAdmin(user.ID) {
		return true
	}
	if i.GuildID == "" || i.Member == nil {
		return false
	}
	roleID, err := m.store.GuildAdminRole(ctx, i.GuildID)
	if err != nil {
		log.Printf("game: %v", err)
		return false
	}
	return shareddiscord.MemberHasRole(i.Member, roleID)
}

func (m *Module) handleAddCharacter(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !m.canManage(ctx, i.Interaction) {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyNoPermission)
		return
	}
	err := shareddiscord.RespondModal(s, i.Interaction, shareddiscord.CharacterModalID, "Add Character",
		discordgo.TextInput{
			CustomID:    "json",
			Label:       "JSON Data",
			Style:       discordgo.TextInputParagraph,
			Placeholder: `{"name": "...", "max_hp": 30, "moves": []}`,
			Required:    true,
			MaxLength:   4000,
		},
	)
	if err != nil {
		log.Printf("game: open character modal: %v", err)
	}
}

func (m *Module) handleCharacterModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !m.canManage(ctx, i.Interaction) {
		shareddiscord.RespondEphemeral(s, i.Interaction, replyNoPermission)
		return
	}

	raw := shareddiscord.ModalValues(i.ModalSubmitData())["json"]
	c, err := game.ParseCharacter([]byte(raw))
	if err != nil {
		shareddiscord.RespondEphemeral(s, i.Interaction, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}
	if user := shareddiscord.InteractionUser(i.Interaction); user != nil && c.OwnerID == "" {
		c.OwnerID = user.ID
	}

	if err := m.store.UpsertCharacter(ctx, c); err != nil {
		log.Printf("game: %v", err)
		shareddiscord.RespondEphemeral(s, i.Interaction, "Failed to save the character. Please try again later.")
		return
	}
	shareddiscord.RespondEphemeral(s, i.Interaction, fmt.Sprintf("✅ Character **%s** saved with %d moves.", c.Name, len(c.Moves)))
}

func (m *Module) handleRoll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	minDice, maxDice, faces := 0, 0, defaultFaces
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "min":
			minDice = int(opt.IntValue())
		case "max":
			maxDice = int(opt.IntValue())
		case "faces":
			faces = int(opt.IntValue())
		}
	}

	roll, err := game.RollRange(minDice, maxDice, faces)
	if err != nil {
		shareddiscord.RespondEphemeral(s, i.Interaction, fmt.Sprintf("❌ %v", err))
		return
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: formatRoll(roll, faces)},
	}); err != nil {
		log.Printf("game: roll reply: %v", err)
	}
}

func formatRoll(r game.Roll, faces int) string {
	parts := make([]string, len(r.Faces))
	for i, f := range r.Faces {
		parts[i] = fmt.Sprint(f)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("🎲 Rolled 0d%d: **0**", faces)
	}
	return fmt.Sprintf("🎲 Rolled %dd%d: [%s] = **%d**", r.Dice, faces, strings.Join(parts, ", "), r.Total)
}

func (m *Module) handleCharacter(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "name" {
			name = strings.TrimSpace(opt.StringValue())
		}
	}

	c, err := m.store.Character(ctx, name)
	if errors.Is(err, game.ErrNotFound) {
		shareddiscord.RespondEphemeral(s, i.Interaction, fmt.Sprintf("❌ No character named %q.", name))
		return
	}
	if err != nil {
		log.Printf("game: %v", err)
		shareddiscord.RespondEphemeral(s, i.Interaction, "Failed to load the character. Please try again later.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{characterEmbed(c)}},
	}); err != nil {
		log.Printf("game: character reply: %v", err)
	}
}

func characterEmbed(c *game.Character) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: c.Name,
		Color: 0x9B59B6,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "HP", Value: fmt.Sprint(c.MaxHP), Inline: true},
			{Name: "Hexa", Value: fmt.Sprint(c.MaxHexa), Inline: true},
			{Name: "Speed", Value: fmt.Sprintf("%d-%d", c.SpeedMin, c.SpeedMax), Inline: true},
		},
	}
	if c.Passive != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Passive", Value: c.Passive})
	}
	if len(c.Resistances) > 0 {
		keys := make([]string, 0, len(c.Resistances))
		for k := range c.Resistances {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, len(keys))
		for i, k := range keys {
			lines[i] = fmt.Sprintf("%s: %g", k, c.Resistances[k])
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Resistances", Value: strings.Join(lines, "\n")})
	}
	if len(c.Moves) > 0 {
		lines := make([]string, len(c.Moves))
		for i, mv := range c.Moves {
			lines[i] = fmt.Sprintf("**%s** (cost %d, %s, %d-%d dice)", mv.Name, mv.Cost, mv.DType, mv.DiceMin, mv.DiceMax)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Moves",
			Value: shareddiscord.Truncate(strings.Join(lines, "\n"), shareddiscord.MaxEmbedFieldLen),
		})
	}
	return embed
}
