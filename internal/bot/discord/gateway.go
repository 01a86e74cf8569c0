// Package discord connects the verification workflow to a discordgo
// session: REST and state lookups, interaction replies and event routing.
package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrijs2005/verifybot/internal/bot/verification"
	"github.com/dmitrijs2005/verifybot/internal/common"
)

// restSession is the subset of *discordgo.Session used by SessionGateway.
type restSession interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
}

// SessionGateway implements verification.Gateway. Lookups hit the state
// cache first and fall back to REST.
type SessionGateway struct {
	rest  restSession
	state *discordgo.State
}

var _ verification.Gateway = (*SessionGateway)(nil)

func NewSessionGateway(s *discordgo.Session) *SessionGateway {
	return &SessionGateway{rest: s, state: s.State}
}

func (g *SessionGateway) GuildExists(ctx context.Context, guildID string) (bool, error) {
	if g.state != nil {
		if _, err := g.state.Guild(guildID); err == nil {
			return true, nil
		}
	}
	_, err := g.rest.Guild(guildID, discordgo.WithContext(ctx))
	switch err = mapError(err); {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrPermission):
		return false, nil
	default:
		return false, err
	}
}

func (g *SessionGateway) ChannelGuild(ctx context.Context, channelID string) (string, error) {
	var ch *discordgo.Channel
	if g.state != nil {
		ch, _ = g.state.Channel(channelID)
	}
	if ch == nil {
		var err error
		if ch, err = g.rest.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
			return "", mapError(err)
		}
	}
	if ch.GuildID == "" {
		return "", fmt.Errorf("%w: channel %s is not a guild channel", common.ErrNotFound, channelID)
	}
	return ch.GuildID, nil
}

func (g *SessionGateway) RoleExists(ctx context.Context, guildID, roleID string) (bool, error) {
	if roleID == "" {
		return false, nil
	}
	if g.state != nil {
		if _, err := g.state.Role(guildID, roleID); err == nil {
			return true, nil
		}
	}
	roles, err := g.rest.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, mapError(err)
	}
	return slices.ContainsFunc(roles, func(r *discordgo.Role) bool { return r.ID == roleID }), nil
}

func (g *SessionGateway) Member(ctx context.Context, guildID, userID string) (*verification.Member, error) {
	if g.state != nil {
		if m, err := g.state.Member(guildID, userID); err == nil {
			return toMember(guildID, m), nil
		}
	}
	m, err := g.rest.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	if m.User == nil {
		return nil, fmt.Errorf("%w: member %s has no user", common.ErrNotFound, userID)
	}
	return toMember(guildID, m), nil
}

func (g *SessionGateway) AddRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return mapError(g.rest.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)))
}

func (g *SessionGateway) RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return mapError(g.rest.GuildMemberRoleRemove(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)))
}

func (g *SessionGateway) SendDirect(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error {
	ch, err := g.rest.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = g.rest.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	return mapError(err)
}

func (g *SessionGateway) SendChannel(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error) {
	m, err := g.rest.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return m.ID, nil
}

func (g *SessionGateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return mapError(g.rest.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)))
}

func toMember(guildID string, m *discordgo.Member) *verification.Member {
	if m == nil || m.User == nil {
		return nil
	}
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	return &verification.Member{
		ID:          m.User.ID,
		GuildID:     guildID,
		DisplayName: m.User.String(),
		Roles:       slices.Clone(m.Roles),
		Bot:         m.User.Bot,
	}
}
