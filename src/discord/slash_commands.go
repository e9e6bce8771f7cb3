package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandSuggest         = "suggest"
	CommandSetChannel      = "setchannel"
	CommandSetReviewerRole = "setreviewerrole"
	CommandSetBlockedRole  = "setblockedrole"
	CommandApprove         = "approve"
	CommandReject          = "reject"

	CommandAdminSetGuildRole = "admin_set_guild_role"
	CommandAdminAddCharacter = "admin_add_character"
	CommandRoll              = "roll"
	CommandCharacter         = "character"
)

var adminOnly int64 = discordgo.PermissionAdministrator

func decisionOptions(verb string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "suggestion_id",
			Description: "The suggestion ID to " + verb,
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Optional reason",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "anonymous",
			Description: "Hide your name on the decision",
		},
	}
}

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandSuggest: {
		Name:        CommandSuggest,
		Description: "[SUGGESTIONS] Submit a suggestion",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "image",
				Description: "Optional image attachment",
			},
		},
	},
	CommandSetChannel: {
		Name:                     CommandSetChannel,
		Description:              "[SUGGESTIONS] Set the suggestions channel (Admin only)",
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "The channel for suggestions",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			},
		},
	},
	CommandSetReviewerRole: {
		Name:                     CommandSetReviewerRole,
		Description:              "[SUGGESTIONS] Set the role that can approve/reject suggestions (Admin only)",
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "The reviewer role",
				Required:    true,
			},
		},
	},
	CommandSetBlockedRole: {
		Name:                     CommandSetBlockedRole,
		Description:              "[SUGGESTIONS] Set a role that cannot submit suggestions (Admin only)",
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "The role to block from suggesting",
				Required:    true,
			},
		},
	},
	CommandApprove: {
		Name:        CommandApprove,
		Description: "[SUGGESTIONS] Approve a suggestion (Reviewer only)",
		Options:     decisionOptions("approve"),
	},
	CommandReject: {
		Name:        CommandReject,
		Description: "[SUGGESTIONS] Reject a suggestion (Reviewer only)",
		Options:     decisionOptions("reject"),
	},
	CommandAdminSetGuildRole: {
		Name:        CommandAdminSetGuildRole,
		Description: "[GAME] Set admin role for this guild",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "role_id",
				Description: "Role ID",
				Required:    true,
			},
		},
	},
	CommandAdminAddCharacter: {
		Name:        CommandAdminAddCharacter,
		Description: "[GAME] Add or replace a character from JSON",
	},
	CommandRoll: {
		Name:        CommandRoll,
		Description: "[GAME] Roll between min and max dice",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "min",
				Description: "Fewest dice to roll",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "max",
				Description: "Most dice to roll",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "faces",
				Description: "Faces per die (default 6)",
			},
		},
	},
	CommandCharacter: {
		Name:        CommandCharacter,
		Description: "[GAME] Show a character sheet",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Character name",
				Required:    true,
			},
		},
	},
}

// SuggestionCommands are registered by the suggestions module.
var SuggestionCommands = []string{
	CommandSuggest,
	CommandSetChannel,
	CommandSetReviewerRole,
	CommandSetBlockedRole,
	CommandApprove,
	CommandReject,
}

// GameCommands are registered by the game module.
var GameCommands = []string{
	CommandAdminSetGuildRole,
	CommandAdminAddCharacter,
	CommandRoll,
	CommandCharacter,
}

// CommandDefinition returns the registered definition for name.
func CommandDefinition(name string) (*discordgo.ApplicationCommand, bool) {
	def, ok := commandDefinitions[name]
	return def, ok
}

// RegisterSlashCommands registers the requested slash commands. An empty
// guildID registers them globally. When no command names are provided, all
// known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("discord: session is not ready")
	}

	if len(names) == 0 {
		names = append(append([]string{}, SuggestionCommands...), GameCommands...)
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}

		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("discord: failed to register command %q: %v", name, err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}

	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
