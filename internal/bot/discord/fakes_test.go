package discord

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
)

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "test"},
	}
}

type roleOp struct {
	op, guildID, userID, roleID string
}

type fakeRest struct {
	mu sync.Mutex

	guilds   map[string]*discordgo.Guild
	channels map[string]*discordgo.Channel
	roles    map[string][]*discordgo.Role
	members  map[string]*discordgo.Member

	roleErr error
	dmErr   error
	sendErr error

	roleOps   []roleOp
	messages  map[string][]*discordgo.MessageSend
	reactions []string
	nextID    int
}

func newFakeRest() *fakeRest {
	return &fakeRest{
		guilds:   map[string]*discordgo.Guild{},
		channels: map[string]*discordgo.Channel{},
		roles:    map[string][]*discordgo.Role{},
		members:  map[string]*discordgo.Member{},
		messages: map[string][]*discordgo.MessageSend{},
		nextID:   9000,
	}
}

func (f *fakeRest) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.guilds[guildID]; ok {
		return g, nil
	}
	return nil, restErr(http.StatusNotFound, codeUnknownGuild)
}

func (f *fakeRest) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.channels[channelID]; ok {
		return c, nil
	}
	return nil, restErr(http.StatusNotFound, codeUnknownChannel)
}

func (f *fakeRest) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[guildID], nil
}

func (f *fakeRest) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[userID]; ok {
		return m, nil
	}
	return nil, restErr(http.StatusNotFound, codeUnknownMember)
}

func (f *fakeRest) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleOps = append(f.roleOps, roleOp{"add", guildID, userID, roleID})
	return f.roleErr
}

func (f *fakeRest) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleOps = append(f.roleOps, roleOp{"remove", guildID, userID, roleID})
	return f.roleErr
}

func (f *fakeRest) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeRest) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.messages[channelID] = append(f.messages[channelID], data)
	f.nextID++
	return &discordgo.Message{ID: strconv.Itoa(f.nextID), ChannelID: channelID}, nil
}

func (f *fakeRest) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, channelID+"/"+messageID+"/"+emojiID)
	return nil
}

func (f *fakeRest) sent(channelID string) []*discordgo.MessageSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[channelID]
}

type fakeInteractions struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	err       error
}

func (f *fakeInteractions) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeInteractions) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.followups = append(f.followups, data)
	return &discordgo.Message{ID: "followup"}, nil
}
