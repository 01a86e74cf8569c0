// Package verification implements the member verification workflow: role
// transitions, cooldowns, the captcha challenge, the verified-member ledger
// and the notifications that follow a verification.
package verification

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

// Service holds the per-process workflow state. All methods are safe for
// concurrent use.
type Service struct {
	cfg    *config.Config
	gw     Gateway
	ledger ledger.Repository
	embeds *embeds.Builder
	logger logging.Logger
	now    func() time.Time

	cooldowns *Cooldowns
	analytics *Analytics
	captchas  *Captchas
	locks     *memberLocks

	guildID   atomic.Value
	botUserID atomic.Value
	promptID  atomic.Value
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCaptchas replaces the challenge store.
func WithCaptchas(c *Captchas) Option {
	return func(s *Service) { s.captchas = c }
}

func NewService(cfg *config.Config, gw Gateway, repo ledger.Repository, b *embeds.Builder, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		gw:        gw,
		ledger:    repo,
		embeds:    b,
		logger:    logger,
		now:       time.Now,
		cooldowns: NewCooldowns(time.Duration(cfg.Settings.CooldownSeconds) * time.Second),
		analytics: NewAnalytics(),
		captchas:  NewCaptchas(CaptchaTTL),
		locks:     newMemberLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func loadString(v *atomic.Value) string {
	s, _ := v.Load().(string)
	return s
}

// GuildID is the guild resolved on Ready, or "" before that.
func (s *Service) GuildID() string { return loadString(&s.guildID) }

// PromptMessageID is the id of the last prompt message posted.
func (s *Service) PromptMessageID() string { return loadString(&s.promptID) }

func (s *Service) Analytics() Snapshot { return s.analytics.Snapshot() }

// Ready resolves the guild and posts the verification prompt. It is called
// every time the gateway session becomes ready.
func (s *Service) Ready(ctx context.Context, botUserID string) error {
	s.botUserID.Store(botUserID)

	guildID, err := s.resolveGuild(ctx)
	if err != nil {
		s.logger.Error(ctx, "could not determine guild, set GUILD_ID in config", "error", err)
		return err
	}
	s.guildID.Store(guildID)
	s.logger.Info(ctx, "guild resolved", "guild_id", guildID)

	return s.PostPrompt(ctx)
}

func (s *Service) resolveGuild(ctx context.Context) (string, error) {
	if id := s.cfg.GuildID; id != "" {
		ok, err := s.gw.GuildExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: guild %s, the bot may not be a member", common.ErrNotFound, id)
		}
		return id, nil
	}

	s.logger.Warn(ctx, "GUILD_ID not set, using the verify channel's guild")
	id, err := s.gw.ChannelGuild(ctx, s.cfg.Channels.Verify)
	if err != nil {
		return "", fmt.Errorf("verify channel %s: %w", s.cfg.Channels.Verify, err)
	}
	return id, nil
}

// PostPrompt sends the verification prompt into the verify channel and
// remembers its id for reaction matching.
func (s *Service) PostPrompt(ctx context.Context) error {
	channelID := s.cfg.Channels.Verify
	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{s.embeds.Prompt()}}
	if s.cfg.Settings.VerificationType == config.ModeButton {
		msg.Components = s.embeds.VerifyButton()
	}

	id, err := s.gw.SendChannel(ctx, channelID, msg)
	if err != nil {
		s.logger.Error(ctx, "could not send verification prompt", "channel_id", channelID, "error", err)
		return fmt.Errorf("send prompt: %w", err)
	}
	s.promptID.Store(id)

	if s.cfg.Settings.VerificationType == config.ModeReaction {
		emoji := embeds.ReactionEmoji(s.cfg.ReactionEmoji())
		if err := s.gw.AddReaction(ctx, channelID, id, emoji); err != nil {
			s.logger.Warn(ctx, "could not seed prompt reaction", "message_id", id, "error", err)
		}
	}

	s.logger.Info(ctx, "verification message sent", "message_id", id, "mode", s.cfg.Settings.VerificationType)
	return nil
}

func (s *Service) reply(ctx context.Context, r Responder, embed *discordgo.MessageEmbed) {
	if r == nil {
		return
	}
	if err := r.Respond(ctx, embed); err != nil {
		s.logger.Warn(ctx, "could not deliver reply", "error", err)
	}
}

func (s *Service) sendDM(ctx context.Context, m *Member, embed *discordgo.MessageEmbed) {
	if !s.cfg.Settings.EnableDMNotifications {
		return
	}
	if err := s.gw.SendDirect(ctx, m.ID, embed); err != nil {
		s.logger.Warn(ctx, "could not send DM", "member_id", m.ID, "member", m.DisplayName, "error", err)
	}
}

func (s *Service) postLog(ctx context.Context, embed *discordgo.MessageEmbed) {
	channelID := s.cfg.Channels.Log
	if channelID == "" {
		return
	}
	_, err := s.gw.SendChannel(ctx, channelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
	switch {
	case errors.Is(err, common.ErrNotFound):
		s.logger.Warn(ctx, "log channel not found", "channel_id", channelID)
	case err != nil:
		s.logger.Error(ctx, "could not post to log channel", "channel_id", channelID, "error", err)
	}
}
