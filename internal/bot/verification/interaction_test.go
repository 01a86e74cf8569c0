package verification

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/common"
)

// issue presses the button and returns the challenge behind the opened modal.
func issue(t *testing.T, h *harness, m *Member) Challenge {
	t.Helper()
	in := &fakeInteraction{}
	res, err := h.svc.HandleButton(context.Background(), m, testGuild, in)
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, res.Outcome)
	require.NotNil(t, in.modal, "captcha modal expected")

	id, ok := embeds.ChallengeID(in.modal.CustomID)
	require.True(t, ok)
	h.svc.captchas.mu.Lock()
	defer h.svc.captchas.mu.Unlock()
	ch, ok := h.svc.captchas.items[id]
	require.True(t, ok)
	return ch
}

func TestHandleButton_WithoutCaptchaVerifies(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Settings.EnableCaptcha = false })
	m := h.gw.addMember("42")
	in := &fakeInteraction{}

	res, err := h.svc.HandleButton(context.Background(), m, testGuild, in)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, res.Outcome)
	assert.True(t, in.deferred)
	assert.Nil(t, in.modal)
	assert.Equal(t, h.text("verification.successful", nil), in.lastReply())
	assert.Equal(t, ledger.MethodButton, h.ledgerRecords(t)[0].Method)
}

func TestHandleButton_DeferFailure(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Settings.EnableCaptcha = false })
	in := &fakeInteraction{deferErr: errors.New("unknown interaction")}

	res, err := h.svc.HandleButton(context.Background(), h.gw.addMember("42"), testGuild, in)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, h.text("errors.generic", nil), in.lastReply())
	assert.Empty(t, h.gw.roleCalls)
}

func TestHandleButton_OpensCaptchaModal(t *testing.T) {
	h := newHarness(t, nil)
	m := h.gw.addMember("42")

	ch := issue(t, h, m)
	assert.Equal(t, "42", ch.MemberID)
	assert.Empty(t, h.gw.roleCalls)
}

func TestSubmitCaptcha_CorrectAnswerVerifies(t *testing.T) {
	h := newHarness(t, nil)
	m := h.gw.addMember("42")
	ch := issue(t, h, m)
	in := &fakeInteraction{}

	res, err := h.svc.SubmitCaptcha(context.Background(), ch.ID, " "+strconv.Itoa(ch.Answer())+" ", m, testGuild, in)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, res.Outcome)
	assert.True(t, in.deferred)
	assert.Equal(t, ledger.MethodCaptcha, h.ledgerRecords(t)[0].Method)
	assert.Equal(t, 1, h.svc.Analytics().VerificationMethods["captcha"])
}

func TestSubmitCaptcha_OnlyExactSumIsAccepted(t *testing.T) {
	h := newHarness(t, nil)
	m := h.gw.addMember("42")

	for _, delta := range []int{-1, 1, 10} {
		ch := issue(t, h, m)
		in := &fakeInteraction{}
		res, err := h.svc.SubmitCaptcha(context.Background(), ch.ID, strconv.Itoa(ch.Answer()+delta), m, testGuild, in)
		require.ErrorIs(t, err, ErrIncorrectAnswer)
		assert.Equal(t, OutcomeIgnored, res.Outcome)
		assert.Equal(t, h.text("captcha.incorrect", nil), in.lastReply())

		// the challenge is consumed, even the right answer is now rejected
		in = &fakeInteraction{}
		_, err = h.svc.SubmitCaptcha(context.Background(), ch.ID, strconv.Itoa(ch.Answer()), m, testGuild, in)
		require.ErrorIs(t, err, common.ErrValidation)
		assert.Equal(t, h.text("captcha.invalid", nil), in.lastReply())
	}
	assert.Empty(t, h.ledgerRecords(t))
	assert.Empty(t, h.gw.roleCalls)
}

func TestSubmitCaptcha_NonIntegerLeavesNoState(t *testing.T) {
	h := newHarness(t, nil)
	m := h.gw.addMember("42")
	ch := issue(t, h, m)

	for _, input := range []string{"abc", "", "4.5", "1e2"} {
		in := &fakeInteraction{}
		res, err := h.svc.SubmitCaptcha(context.Background(), ch.ID, input, m, testGuild, in)
		require.ErrorIs(t, err, common.ErrValidation, input)
		assert.Equal(t, OutcomeIgnored, res.Outcome)
		assert.Equal(t, h.text("captcha.invalid", nil), in.lastReply())
		assert.False(t, in.deferred)
	}

	assert.Zero(t, h.svc.cooldowns.Remaining("42", h.clock.Now()))
	assert.Empty(t, h.ledgerRecords(t))
	assert.Equal(t, 1, h.svc.captchas.len(), "challenge survives invalid input")

	res, err := h.svc.SubmitCaptcha(context.Background(), ch.ID, strconv.Itoa(ch.Answer()), m, testGuild, &fakeInteraction{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, res.Outcome)
}

func TestSubmitCaptcha_ForeignOrExpiredChallenge(t *testing.T) {
	h := newHarness(t, nil)
	owner := h.gw.addMember("42")
	other := h.gw.addMember("43")
	ch := issue(t, h, owner)

	_, err := h.svc.SubmitCaptcha(context.Background(), ch.ID, strconv.Itoa(ch.Answer()), other, testGuild, &fakeInteraction{})
	require.ErrorIs(t, err, common.ErrValidation)

	h.clock.Advance(CaptchaTTL + 1)
	in := &fakeInteraction{}
	_, err = h.svc.SubmitCaptcha(context.Background(), ch.ID, strconv.Itoa(ch.Answer()), owner, testGuild, in)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, h.text("captcha.invalid", nil), in.lastReply())
	assert.Empty(t, h.ledgerRecords(t))
}

func TestHandleReaction(t *testing.T) {
	mode := func(c *config.Config) { c.Settings.VerificationType = config.ModeReaction }

	t.Run("verifies on prompt emoji", func(t *testing.T) {
		h := newHarness(t, mode)
		h.gw.addMember("42", unverifiedRole)
		h.svc.promptID.Store("777")

		res, err := h.svc.HandleReaction(context.Background(), ReactionEvent{
			GuildID: testGuild, MessageID: "777", UserID: "42", Emoji: "✅",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerified, res.Outcome)
		assert.Equal(t, ledger.MethodReaction, h.ledgerRecords(t)[0].Method)
	})

	ignored := []struct {
		name   string
		mutate func(*config.Config)
		ev     ReactionEvent
	}{
		{"button mode", nil, ReactionEvent{GuildID: testGuild, MessageID: "777", UserID: "42", Emoji: "✅"}},
		{"other message", mode, ReactionEvent{GuildID: testGuild, MessageID: "778", UserID: "42", Emoji: "✅"}},
		{"bot itself", mode, ReactionEvent{GuildID: testGuild, MessageID: "777", UserID: botUser, Emoji: "✅"}},
		{"wrong emoji", mode, ReactionEvent{GuildID: testGuild, MessageID: "777", UserID: "42", Emoji: "❌"}},
		{"no guild", mode, ReactionEvent{MessageID: "777", UserID: "42", Emoji: "✅"}},
		{"unknown member", mode, ReactionEvent{GuildID: testGuild, MessageID: "777", UserID: "404", Emoji: "✅"}},
	}
	for _, tc := range ignored {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.mutate)
			h.gw.addMember("42")
			h.svc.promptID.Store("777")

			res, err := h.svc.HandleReaction(context.Background(), tc.ev)
			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, res.Outcome)
			assert.Empty(t, h.gw.roleCalls)
		})
	}

	t.Run("custom emoji", func(t *testing.T) {
		h := newHarness(t, func(c *config.Config) {
			mode(c)
			c.Settings.ButtonEmoji = "<:gopher:123>"
		})
		h.gw.addMember("42")
		h.svc.promptID.Store("777")

		res, err := h.svc.HandleReaction(context.Background(), ReactionEvent{
			GuildID: testGuild, MessageID: "777", UserID: "42", Emoji: "<:gopher:123>",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeVerified, res.Outcome)
	})
}
