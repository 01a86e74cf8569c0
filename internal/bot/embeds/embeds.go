// Package embeds renders the bot's Discord messages from catalog strings.
package embeds

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/i18n"
)

// Embed colors.
const (
	ColorSuccess = 0x00FF00
	ColorError   = 0xFF0000
	ColorWarning = 0xFFFF00
	ColorInfo    = 0x0099FF
)

const (
	// VerifyButtonID is the custom id of the prompt button.
	VerifyButtonID = "verify_now"
	// CaptchaPrefix prefixes the custom id of captcha modals.
	CaptchaPrefix = "captcha:"
	// CaptchaInputID is the custom id of the answer field inside the modal.
	CaptchaInputID = "captcha_answer"
)

type Builder struct {
	catalog    *i18n.Catalog
	serverName string
	links      config.Links
	emoji      string
	now        func() time.Time
}

func NewBuilder(catalog *i18n.Catalog, cfg *config.Config) *Builder {
	return &Builder{
		catalog:    catalog,
		serverName: cfg.ServerName,
		links:      cfg.Links,
		emoji:      cfg.Settings.ButtonEmoji,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for embed timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) text(key string, params map[string]any) string {
	return b.catalog.Get(key, params)
}

func (b *Builder) server() map[string]any {
	return map[string]any{"server_name": b.serverName}
}

// Status is the short ephemeral reply used for every workflow outcome.
func (b *Builder) Status(description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       color,
		Timestamp:   b.now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: b.text("welcome_embed.footer", b.server())},
	}
}

// StatusKey resolves key and wraps it in a Status embed.
func (b *Builder) StatusKey(key string, color int, params map[string]any) *discordgo.MessageEmbed {
	return b.Status(b.text(key, params), color)
}

// Prompt is the message posted into the verify channel.
func (b *Builder) Prompt() *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       b.text("welcome_embed.title", b.server()),
		Description: b.text("welcome_embed.description", nil),
		Color:       ColorInfo,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  b.text("welcome_embed.field_title", nil),
			Value: b.text("welcome_embed.field_content", nil),
		}},
	}
	if b.links.VerifyImage != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: b.links.VerifyImage}
	}
	if t := b.links.Thumbnail; t != "" && !strings.EqualFold(t, "none") {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t}
	}
	return e
}

// VerifyButton is the single-row component attached to the prompt in button mode.
func (b *Builder) VerifyButton() []discordgo.MessageComponent {
	btn := discordgo.Button{
		Label:    b.text("verification.button_label", nil),
		Style:    discordgo.SuccessButton,
		CustomID: VerifyButtonID,
	}
	if b.emoji != "" {
		btn.Emoji = ComponentEmoji(b.emoji)
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{btn}},
	}
}

var customEmoji = regexp.MustCompile(`^<(a?):([A-Za-z0-9_]+):(\d+)>$`)

// ComponentEmoji accepts a unicode emoji or a custom one written as <:name:id>.
func ComponentEmoji(s string) *discordgo.ComponentEmoji {
	if m := customEmoji.FindStringSubmatch(s); m != nil {
		return &discordgo.ComponentEmoji{Name: m[2], ID: m[3], Animated: m[1] == "a"}
	}
	return &discordgo.ComponentEmoji{Name: s}
}

// ReactionEmoji converts s to the form MessageReactionAdd expects.
func ReactionEmoji(s string) string {
	if m := customEmoji.FindStringSubmatch(s); m != nil {
		return m[2] + ":" + m[3]
	}
	return s
}

func (b *Builder) VerifySuccessDM() *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       b.text("dm_notifications.verify_success.title", nil),
		Description: b.text("dm_notifications.verify_success.description", b.server()),
		Color:       ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  b.text("dm_notifications.verify_success.features_title", nil),
			Value: b.text("dm_notifications.verify_success.features_content", nil),
		}},
		Footer: &discordgo.MessageEmbedFooter{Text: b.text("dm_notifications.verify_success.footer", b.server())},
	}
	b.serverIcon(e)
	return e
}

func (b *Builder) WelcomeBackDM() *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       b.text("dm_notifications.welcome_back.title", nil),
		Description: b.text("dm_notifications.welcome_back.description", b.server()),
		Color:       ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{{
			Name:  b.text("dm_notifications.welcome_back.status_title", nil),
			Value: b.text("dm_notifications.welcome_back.status_content", nil),
		}},
		Footer: &discordgo.MessageEmbedFooter{Text: b.text("dm_notifications.welcome_back.footer", b.server())},
	}
	b.serverIcon(e)
	return e
}

func (b *Builder) serverIcon(e *discordgo.MessageEmbed) {
	if b.links.ServerIcon != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: b.links.ServerIcon}
	}
}

// VerifiedLog is posted to the staff log channel after a verification.
func (b *Builder) VerifiedLog(mention, name string, method ledger.Method, at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: b.text("logging.user_verified.title", nil),
		Description: b.text("logging.user_verified.description", map[string]any{
			"user_mention": mention,
			"user_name":    name,
			"method":       method.Title(),
			"timestamp":    at.Unix(),
		}),
		Color: ColorSuccess,
	}
}

// RestoredLog is posted when a previously verified member rejoins. Records
// without a verification time get the description without a timestamp.
func (b *Builder) RestoredLog(mention, name string, prev ledger.Record) *discordgo.MessageEmbed {
	method := string(prev.Method)
	if method == "" {
		method = "Unknown"
	}
	params := map[string]any{
		"user_mention": mention,
		"user_name":    name,
		"method":       method,
	}
	key := "logging.auto_restoration.description_no_time"
	if !prev.VerifiedAt.IsZero() {
		key = "logging.auto_restoration.description"
		params["previous_timestamp"] = prev.VerifiedAt.Unix()
	}
	return &discordgo.MessageEmbed{
		Title:       b.text("logging.auto_restoration.title", nil),
		Description: b.text(key, params),
		Color:       ColorInfo,
	}
}

// CaptchaModal asks for num1+num2. The challenge id travels in the modal's custom id.
func (b *Builder) CaptchaModal(challengeID string, num1, num2 int) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: CaptchaPrefix + challengeID,
		Title:    b.text("captcha.title", nil),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    CaptchaInputID,
					Label:       b.text("captcha.question", map[string]any{"num1": num1, "num2": num2}),
					Style:       discordgo.TextInputShort,
					Placeholder: b.text("captcha.placeholder", nil),
					Required:    true,
					MinLength:   1,
					MaxLength:   3,
				},
			}},
		},
	}
}

// ChallengeID extracts the challenge id from a modal custom id.
func ChallengeID(customID string) (string, bool) {
	id, ok := strings.CutPrefix(customID, CaptchaPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Mention formats a user mention.
func Mention(userID string) string {
	if _, err := strconv.ParseUint(userID, 10, 64); err != nil {
		return userID
	}
	return "<@" + userID + ">"
}
