package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/common"
)

// HandleButton answers a press of the prompt button: with a captcha modal
// when captcha is enabled, otherwise by verifying right away.
func (s *Service) HandleButton(ctx context.Context, m *Member, guildID string, in Interaction) (Result, error) {
	if s.cfg.Settings.EnableCaptcha {
		ch := s.captchas.Issue(m.ID, s.now())
		if err := in.OpenModal(ctx, s.embeds.CaptchaModal(ch.ID, ch.A, ch.B)); err != nil {
			return s.interactionError(ctx, m, in, fmt.Errorf("open captcha modal: %w", err))
		}
		return Result{Outcome: OutcomeIgnored}, nil
	}

	if err := in.Defer(ctx); err != nil {
		return s.interactionError(ctx, m, in, fmt.Errorf("defer interaction: %w", err))
	}
	return s.Attempt(ctx, AttemptRequest{Member: m, GuildID: guildID, Method: ledger.MethodButton, Responder: in})
}

// SubmitCaptcha checks a modal answer. Input that is not an integer is
// rejected before the challenge is looked up, so it changes no state.
func (s *Service) SubmitCaptcha(ctx context.Context, challengeID, input string, m *Member, guildID string, in Interaction) (Result, error) {
	answer, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		s.reply(ctx, in, s.embeds.StatusKey("captcha.invalid", embeds.ColorError, nil))
		return Result{Outcome: OutcomeIgnored}, fmt.Errorf("%w: captcha answer %q is not a number", common.ErrValidation, input)
	}

	switch err := s.captchas.Check(challengeID, m.ID, answer, s.now()); {
	case errors.Is(err, ErrIncorrectAnswer):
		s.reply(ctx, in, s.embeds.StatusKey("captcha.incorrect", embeds.ColorError, nil))
		return Result{Outcome: OutcomeIgnored}, err
	case err != nil:
		s.reply(ctx, in, s.embeds.StatusKey("captcha.invalid", embeds.ColorError, nil))
		return Result{Outcome: OutcomeIgnored}, err
	}

	if err := in.Defer(ctx); err != nil {
		return s.interactionError(ctx, m, in, fmt.Errorf("defer interaction: %w", err))
	}
	return s.Attempt(ctx, AttemptRequest{Member: m, GuildID: guildID, Method: ledger.MethodCaptcha, Responder: in})
}

func (s *Service) interactionError(ctx context.Context, m *Member, in Interaction, err error) (Result, error) {
	s.logger.Error(ctx, "interaction failed", "member_id", m.ID, "error", err)
	if !in.Replied() {
		s.reply(ctx, in, s.embeds.StatusKey("errors.generic", embeds.ColorError, nil))
	}
	return Result{Outcome: OutcomeFailed}, err
}

// ReactionEvent is a reaction added to some message.
type ReactionEvent struct {
	GuildID   string
	MessageID string
	UserID    string
	// Emoji is in message format: the unicode character or <:name:id>.
	Emoji string
}

// HandleReaction verifies the reacting member when the reaction is the
// configured emoji on the prompt message. Everything else is ignored.
func (s *Service) HandleReaction(ctx context.Context, ev ReactionEvent) (Result, error) {
	if s.cfg.Settings.VerificationType != config.ModeReaction {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	prompt := s.PromptMessageID()
	if prompt == "" || ev.MessageID != prompt {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if ev.UserID == loadString(&s.botUserID) || ev.GuildID == "" {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if ev.Emoji != s.cfg.ReactionEmoji() {
		return Result{Outcome: OutcomeIgnored}, nil
	}

	m, err := s.gw.Member(ctx, ev.GuildID, ev.UserID)
	if err != nil {
		s.logger.Debug(ctx, "reaction from unknown member", "user_id", ev.UserID, "error", err)
		return Result{Outcome: OutcomeIgnored}, nil
	}
	return s.Attempt(ctx, AttemptRequest{Member: m, GuildID: ev.GuildID, Method: ledger.MethodReaction})
}
