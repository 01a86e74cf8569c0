package verification

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/i18n"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

const (
	testGuild      = "100"
	verifyChannel  = "200"
	logChannel     = "201"
	verifiedRole   = "300"
	unverifiedRole = "301"
	botUser        = "999"
)

type roleCall struct {
	op, userID, roleID, reason string
}

type sentMessage struct {
	channelID string
	msg       *discordgo.MessageSend
}

type fakeGateway struct {
	mu sync.Mutex

	guilds   map[string]bool
	channels map[string]string
	roles    map[string]bool
	members  map[string]*Member

	addErr    error
	removeErr error
	dmErr     error
	sendErr   map[string]error

	roleCalls []roleCall
	dms       map[string][]*discordgo.MessageEmbed
	sent      []sentMessage
	reactions []string
	nextID    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		guilds:   map[string]bool{testGuild: true},
		channels: map[string]string{verifyChannel: testGuild, logChannel: testGuild},
		roles:    map[string]bool{verifiedRole: true, unverifiedRole: true},
		members:  map[string]*Member{},
		sendErr:  map[string]error{},
		dms:      map[string][]*discordgo.MessageEmbed{},
		nextID:   5000,
	}
}

func (g *fakeGateway) GuildExists(ctx context.Context, guildID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.guilds[guildID], nil
}

func (g *fakeGateway) ChannelGuild(ctx context.Context, channelID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.channels[channelID]; ok {
		return id, nil
	}
	return "", common.ErrNotFound
}

func (g *fakeGateway) RoleExists(ctx context.Context, guildID, roleID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roles[roleID], nil
}

func (g *fakeGateway) Member(ctx context.Context, guildID, userID string) (*Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *m
	cp.Roles = slices.Clone(m.Roles)
	return &cp, nil
}

func (g *fakeGateway) AddRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roleCalls = append(g.roleCalls, roleCall{"add", userID, roleID, reason})
	if g.addErr != nil {
		return g.addErr
	}
	if m, ok := g.members[userID]; ok && !m.HasRole(roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (g *fakeGateway) RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roleCalls = append(g.roleCalls, roleCall{"remove", userID, roleID, reason})
	if g.removeErr != nil {
		return g.removeErr
	}
	if m, ok := g.members[userID]; ok {
		m.Roles = slices.DeleteFunc(m.Roles, func(r string) bool { return r == roleID })
	}
	return nil
}

func (g *fakeGateway) SendDirect(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dmErr != nil {
		return g.dmErr
	}
	g.dms[userID] = append(g.dms[userID], embed)
	return nil
}

func (g *fakeGateway) SendChannel(ctx context.Context, channelID string, msg *discordgo.MessageSend) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sendErr[channelID]; err != nil {
		return "", err
	}
	if _, ok := g.channels[channelID]; !ok {
		return "", common.ErrNotFound
	}
	g.sent = append(g.sent, sentMessage{channelID, msg})
	g.nextID++
	return strconv.Itoa(g.nextID), nil
}

func (g *fakeGateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reactions = append(g.reactions, fmt.Sprintf("%s/%s/%s", channelID, messageID, emoji))
	return nil
}

func (g *fakeGateway) addMember(id string, roles ...string) *Member {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := &Member{ID: id, GuildID: testGuild, DisplayName: "user" + id, Roles: roles}
	g.members[id] = m
	cp := *m
	cp.Roles = slices.Clone(roles)
	return &cp
}

func (g *fakeGateway) memberRoles(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.members[id].Roles)
}

func (g *fakeGateway) sentTo(channelID string) []*discordgo.MessageSend {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*discordgo.MessageSend
	for _, s := range g.sent {
		if s.channelID == channelID {
			out = append(out, s.msg)
		}
	}
	return out
}

func (g *fakeGateway) dmsTo(userID string) []*discordgo.MessageEmbed {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.dms[userID])
}

type fakeInteraction struct {
	mu       sync.Mutex
	replies  []*discordgo.MessageEmbed
	deferred bool
	modal    *discordgo.InteractionResponseData

	deferErr error
	modalErr error
}

func (f *fakeInteraction) Respond(ctx context.Context, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, embed)
	return nil
}

func (f *fakeInteraction) Replied() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies) > 0
}

func (f *fakeInteraction) Defer(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deferErr != nil {
		return f.deferErr
	}
	f.deferred = true
	return nil
}

func (f *fakeInteraction) OpenModal(ctx context.Context, modal *discordgo.InteractionResponseData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modalErr != nil {
		return f.modalErr
	}
	f.modal = modal
	return nil
}

func (f *fakeInteraction) lastReply() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1].Description
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	svc     *Service
	gw      *fakeGateway
	repo    ledger.Repository
	clock   *fakeClock
	cfg     *config.Config
	catalog *i18n.Catalog
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerName = "Gophers"
	cfg.GuildID = testGuild
	cfg.Channels = config.Channels{Verify: verifyChannel, Log: logChannel}
	cfg.Roles = config.Roles{Verify: verifiedRole, Unverified: unverifiedRole}
	cfg.Settings.ButtonEmoji = "✅"
	cfg.Settings.CooldownSeconds = 30
	return cfg
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	catalog, err := i18n.LoadDir("../../../locales", "en", logging.Discard())
	require.NoError(t, err)

	dir := t.TempDir()
	repo, err := ledger.OpenJSONFile(context.Background(), dir, filepath.Join(dir, "verified_users.json"), logging.Discard())
	require.NoError(t, err)

	clock := newFakeClock()
	gw := newFakeGateway()
	b := embeds.NewBuilder(catalog, cfg).WithClock(clock.Now)
	svc := NewService(cfg, gw, repo, b, logging.Discard(), WithClock(clock.Now))
	svc.guildID.Store(testGuild)
	svc.botUserID.Store(botUser)

	return &harness{svc: svc, gw: gw, repo: repo, clock: clock, cfg: cfg, catalog: catalog}
}

func (h *harness) text(key string, params map[string]any) string {
	return h.catalog.Get(key, params)
}

func (h *harness) ledgerRecords(t *testing.T) []ledger.Record {
	t.Helper()
	recs, err := h.repo.ListAll(context.Background())
	require.NoError(t, err)
	return recs
}
