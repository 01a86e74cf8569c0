package verification

import (
	"context"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Member is the part of a guild member the workflow looks at.
type Member struct {
	ID          string
	GuildID     string
	DisplayName string
	Roles       []string
	Bot         bool
}

func (m *Member) HasRole(roleID string) bool {
	return roleID != "" && slices.Contains(m.Roles, roleID)
}

// Gateway is what the workflow needs from the chat platform. Implementations
// map platform failures onto the common sentinels: ErrPermission,
// ErrNotFound and ErrDelivery.
type Gateway interface {
	GuildExists(ctx context.Context, guildID string) (bool, error)
	// ChannelGuild returns the guild that owns channelID.
	ChannelGuild(ctx context.Context, channelID string) (string, error)
	RoleExists(ctx context.Context, guildID, roleID string) (bool, error)
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	AddRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error
	SendDirect(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error
	// SendChannel posts msg and returns the new message id.
	SendChannel(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
}

// Responder delivers ephemeral replies to the member who triggered an
// attempt.
type Responder interface {
	Respond(ctx context.Context, embed *discordgo.MessageEmbed) error
	// Replied reports whether a reply has already been delivered.
	Replied() bool
}

// Interaction is a Responder bound to a component interaction, which can
// also be deferred or answered with a modal.
type Interaction interface {
	Responder
	Defer(ctx context.Context) error
	OpenModal(ctx context.Context, modal *discordgo.InteractionResponseData) error
}
