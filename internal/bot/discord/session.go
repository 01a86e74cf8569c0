package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Intents the workflow depends on: guild state, member joins, prompt
// reactions and interactions.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsDirectMessages

// NewSession creates an unopened bot session.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true
	return s, nil
}

type userFetcher interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// CheckToken asks the API for the bot's own user. A rejected token yields
// common.ErrInvalidToken.
func CheckToken(ctx context.Context, s userFetcher) (*discordgo.User, error) {
	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
