package discord

import (
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// HasRole checks whether a user has a role in a guild. Empty roleID always returns true.
func HasRole(s *discordgo.Session, guildID, userID, roleID string) bool {
	if roleID == "" {
		return true
	}
	member, err := s.GuildMember(guildID, userID)
	if err != nil {
		return false
	}
	return MemberHasRole(member, roleID)
}

// MemberHasRole checks the role list carried on an interaction member.
func MemberHasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	return slices.Contains(member.Roles, roleID)
}

// IsAdministrator reports whether the interaction member holds the
// Administrator permission.
func IsAdministrator(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

// ChannelPermission pairs a permission bit with the name shown to admins.
type ChannelPermission struct {
	Bit  int64
	Name string
}

// PublishPermissions are what the bot needs in a suggestion channel.
var PublishPermissions = []ChannelPermission{
	{discordgo.PermissionSendMessages, "send_messages"},
	{discordgo.PermissionEmbedLinks, "embed_links"},
	{discordgo.PermissionCreatePublicThreads, "create_public_threads"},
	{discordgo.PermissionSendMessagesInThreads, "send_messages_in_threads"},
}

// MissingPermissions returns the names of required permissions absent from granted.
func MissingPermissions(granted int64, required []ChannelPermission) []string {
	if granted&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	var missing []string
	for _, p := range required {
		if granted&p.Bit == 0 {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

// BotMissingPermissions resolves the bot's effective permissions in channelID.
func BotMissingPermissions(s *discordgo.Session, channelID string, required []ChannelPermission) ([]string, error) {
	if s.State == nil || s.State.User == nil {
		return nil, fmt.Errorf("discord: session is not ready")
	}
	granted, err := s.UserChannelPermissions(s.State.User.ID, channelID)
	if err != nil {
		return nil, fmt.Errorf("discord: permissions in %s: %w", channelID, err)
	}
	return MissingPermissions(granted, required), nil
}
