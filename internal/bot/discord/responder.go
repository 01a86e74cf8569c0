package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrijs2005/verifybot/internal/bot/verification"
)

type interactionSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// responder answers one interaction. The first reply uses the interaction
// response; once the interaction is acknowledged, replies become ephemeral
// follow-ups.
type responder struct {
	s  interactionSession
	in *discordgo.Interaction

	mu      sync.Mutex
	acked   bool
	replied bool
}

var _ verification.Interaction = (*responder)(nil)

func newResponder(s interactionSession, in *discordgo.Interaction) *responder {
	return &responder{s: s, in: in}
}

func (r *responder) Respond(ctx context.Context, embed *discordgo.MessageEmbed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.acked {
		_, err = r.s.FollowupMessageCreate(r.in, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx))
	} else {
		err = r.s.InteractionRespond(r.in, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
				Flags:  discordgo.MessageFlagsEphemeral,
			},
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		return mapError(err)
	}
	r.acked, r.replied = true, true
	return nil
}

func (r *responder) Replied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replied
}

func (r *responder) Defer(ctx context.Context) error {
	return r.ack(ctx, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (r *responder) OpenModal(ctx context.Context, modal *discordgo.InteractionResponseData) error {
	return r.ack(ctx, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
}

func (r *responder) ack(ctx context.Context, resp *discordgo.InteractionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.s.InteractionRespond(r.in, resp, discordgo.WithContext(ctx)); err != nil {
		return mapError(err)
	}
	r.acked = true
	return nil
}
