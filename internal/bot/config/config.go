// Package config loads the bot settings document. Sources are applied in
// order: built-in defaults, the JSON(C) config file, then command-line flags.
// The result is read-only for the lifetime of the process.
package config

import (
	"fmt"

	"github.com/dmitrijs2005/verifybot/internal/common"
)

// Verification modes.
const (
	ModeButton   = "button"
	ModeReaction = "reaction"
)

// Ledger backends.
const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
)

// PlaceholderToken is the value shipped in the sample config.
const PlaceholderToken = "YOUR_DISCORD_BOT_TOKEN"

// ErrNoToken is returned by Validate when the token is empty or still the
// placeholder.
var ErrNoToken = fmt.Errorf("%w: bot token is not configured", common.ErrConfiguration)

type Channels struct {
	Verify string
	Log    string
}

type Roles struct {
	Verify     string
	Unverified string
}

type Links struct {
	VerifyImage string
	Thumbnail   string
	ServerIcon  string
}

type Settings struct {
	DefaultLanguage       string
	VerificationType      string
	ButtonEmoji           string
	CooldownSeconds       int
	EnableCaptcha         bool
	EnableDMNotifications bool
	AutoRoleRestoration   bool
}

// S3 configures the optional ledger snapshot mirror. An empty Bucket
// disables it.
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Key       string
}

type Data struct {
	Folder            string
	VerifiedUsersFile string
	Backend           string
	DatabaseDSN       string
	S3                S3
}

// Config holds runtime settings for the bot.
type Config struct {
	Token      string
	GuildID    string
	ServerName string
	Channels   Channels
	Roles      Roles
	Links      Links
	Settings   Settings
	Data       Data

	LanguagesDir string
	LogFile      string
	LogLevel     string
}

// LoadDefaults populates Config with the values the bot assumes when the
// config file leaves a key out.
func (c *Config) LoadDefaults() {
	c.Settings = Settings{
		DefaultLanguage:       "en",
		VerificationType:      ModeButton,
		CooldownSeconds:       30,
		EnableCaptcha:         true,
		EnableDMNotifications: true,
		AutoRoleRestoration:   true,
	}
	c.Data = Data{
		Folder:            "data",
		VerifiedUsersFile: "data/verified_users.json",
		Backend:           BackendJSON,
		S3:                S3{Region: "us-east-1", Key: "verified_users.json"},
	}
	c.LanguagesDir = "locales"
	c.LogFile = "bot.log"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the config file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasToken reports whether a real token is configured.
func (c *Config) HasToken() bool {
	return c.Token != "" && c.Token != PlaceholderToken
}

// ReactionEmoji is the emoji seeded on the prompt in reaction mode.
func (c *Config) ReactionEmoji() string {
	if c.Settings.ButtonEmoji == "" {
		return "✅"
	}
	return c.Settings.ButtonEmoji
}

// Validate checks values that cannot be repaired by defaults. A missing
// token is reported first so a fresh sample config gets a helpful hint.
func (c *Config) Validate() error {
	if !c.HasToken() {
		return ErrNoToken
	}
	switch c.Settings.VerificationType {
	case ModeButton, ModeReaction:
	default:
		return fmt.Errorf("%w: SETTINGS.verification_type must be %q or %q, got %q",
			common.ErrConfiguration, ModeButton, ModeReaction, c.Settings.VerificationType)
	}
	if c.Settings.CooldownSeconds < 0 {
		return fmt.Errorf("%w: SETTINGS.verification_cooldown must not be negative", common.ErrConfiguration)
	}
	if c.Channels.Verify == "" {
		return fmt.Errorf("%w: CHANNELS.verify is required", common.ErrConfiguration)
	}
	if c.Roles.Verify == "" {
		return fmt.Errorf("%w: ROLES.verify is required", common.ErrConfiguration)
	}
	switch c.Data.Backend {
	case BackendJSON:
		if c.Data.VerifiedUsersFile == "" {
			return fmt.Errorf("%w: DATA.verified_users_file is required", common.ErrConfiguration)
		}
	case BackendPostgres:
		if c.Data.DatabaseDSN == "" {
			return fmt.Errorf("%w: DATA.database_dsn is required for the postgres backend", common.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown DATA.backend %q", common.ErrConfiguration, c.Data.Backend)
	}
	return nil
}
