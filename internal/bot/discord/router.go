package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/verification"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

// HandlerTimeout bounds the gateway calls made while handling one event.
const HandlerTimeout = 15 * time.Second

// Router feeds gateway events into the verification service. discordgo runs
// each handler in its own goroutine.
type Router struct {
	svc     *verification.Service
	logger  logging.Logger
	timeout time.Duration
}

func NewRouter(svc *verification.Service, logger logging.Logger) *Router {
	return &Router{svc: svc, logger: logger, timeout: HandlerTimeout}
}

// Register adds the router's handlers to s and returns a func that removes
// them.
func (r *Router) Register(s *discordgo.Session) func() {
	removers := []func(){
		s.AddHandler(r.onReady),
		s.AddHandler(r.onInteraction),
		s.AddHandler(r.onReactionAdd),
		s.AddHandler(r.onMemberAdd),
	}
	return func() {
		for _, rm := range removers {
			rm()
		}
	}
}

func (r *Router) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *Router) onReady(s *discordgo.Session, ev *discordgo.Ready) {
	ctx, cancel := r.context()
	defer cancel()

	r.logger.Info(ctx, "bot logged in", "user", ev.User.String(), "guilds", len(ev.Guilds))
	if err := r.svc.Ready(ctx, ev.User.ID); err != nil {
		r.logger.Error(ctx, "verification workflow is idle", "error", err)
		return
	}
	r.logger.Info(ctx, "bot is ready")
}

func (r *Router) onInteraction(s *discordgo.Session, ev *discordgo.InteractionCreate) {
	r.dispatchInteraction(s, ev.Interaction)
}

func (r *Router) dispatchInteraction(s interactionSession, in *discordgo.Interaction) {
	if in.GuildID == "" || in.Member == nil {
		return
	}
	m := toMember(in.GuildID, in.Member)
	if m == nil {
		return
	}

	ctx, cancel := r.context()
	defer cancel()

	var (
		res verification.Result
		err error
	)
	switch in.Type {
	case discordgo.InteractionMessageComponent:
		if in.MessageComponentData().CustomID != embeds.VerifyButtonID {
			return
		}
		res, err = r.svc.HandleButton(ctx, m, in.GuildID, newResponder(s, in))
	case discordgo.InteractionModalSubmit:
		data := in.ModalSubmitData()
		id, ok := embeds.ChallengeID(data.CustomID)
		if !ok {
			return
		}
		answer := textInputValue(data.Components, embeds.CaptchaInputID)
		res, err = r.svc.SubmitCaptcha(ctx, id, answer, m, in.GuildID, newResponder(s, in))
	default:
		return
	}
	r.logger.Debug(ctx, "interaction handled", "member_id", m.ID, "outcome", string(res.Outcome), "error", err)
}

func (r *Router) onReactionAdd(s *discordgo.Session, ev *discordgo.MessageReactionAdd) {
	ctx, cancel := r.context()
	defer cancel()

	res, err := r.svc.HandleReaction(ctx, verification.ReactionEvent{
		GuildID:   ev.GuildID,
		MessageID: ev.MessageID,
		UserID:    ev.UserID,
		Emoji:     ev.Emoji.MessageFormat(),
	})
	if res.Outcome != verification.OutcomeIgnored {
		r.logger.Debug(ctx, "reaction handled", "user_id", ev.UserID, "outcome", string(res.Outcome), "error", err)
	}
}

func (r *Router) onMemberAdd(s *discordgo.Session, ev *discordgo.GuildMemberAdd) {
	m := toMember(ev.GuildID, ev.Member)
	if m == nil {
		return
	}
	ctx, cancel := r.context()
	defer cancel()

	if err := r.svc.HandleMemberJoin(ctx, m); err != nil {
		r.logger.Debug(ctx, "member join handled with error", "member_id", m.ID, "error", err)
	}
}

// textInputValue finds the value of the text input customID in a modal
// submission.
func textInputValue(components []discordgo.MessageComponent, customID string) string {
	for _, c := range components {
		var children []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			children = row.Components
		case discordgo.ActionsRow:
			children = row.Components
		case *discordgo.TextInput:
			if row.CustomID == customID {
				return row.Value
			}
		}
		for _, child := range children {
			switch in := child.(type) {
			case *discordgo.TextInput:
				if in.CustomID == customID {
					return in.Value
				}
			case discordgo.TextInput:
				if in.CustomID == customID {
					return in.Value
				}
			}
		}
	}
	return ""
}
