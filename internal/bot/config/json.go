package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/flagx"
)

// DefaultPath is read when no -c/-config flag is given.
const DefaultPath = "config.json"

// JsonConfig mirrors the settings document. Pointer fields distinguish an
// absent key from an explicit zero so defaults survive partial files.
type JsonConfig struct {
	Token      string    `json:"TOKEN"`
	GuildID    Snowflake `json:"GUILD_ID"`
	ServerName string    `json:"SERVER_NAME"`

	Channels struct {
		Verify Snowflake `json:"verify"`
		Log    Snowflake `json:"log"`
	} `json:"CHANNELS"`

	Roles struct {
		Verify     Snowflake `json:"verify"`
		Unverified Snowflake `json:"unverified"`
	} `json:"ROLES"`

	Links struct {
		VerifyImage string `json:"verify_image"`
		Thumbnail   string `json:"thumbnail"`
		ServerIcon  string `json:"server_icon"`
	} `json:"LINKS"`

	Settings struct {
		DefaultLanguage       *string `json:"default_language"`
		VerificationType      *string `json:"verification_type"`
		ButtonEmoji           *string `json:"button_emoji"`
		VerificationCooldown  *int    `json:"verification_cooldown"`
		EnableCaptcha         *bool   `json:"enable_captcha"`
		EnableDMNotifications *bool   `json:"enable_dm_notifications"`
		AutoRoleRestoration   *bool   `json:"auto_role_restoration"`
	} `json:"SETTINGS"`

	Data struct {
		Folder            *string `json:"folder"`
		VerifiedUsersFile *string `json:"verified_users_file"`
		Backend           *string `json:"backend"`
		DatabaseDSN       string  `json:"database_dsn"`
		S3                struct {
			Bucket    string  `json:"bucket"`
			Region    *string `json:"region"`
			Endpoint  string  `json:"endpoint"`
			AccessKey string  `json:"access_key"`
			SecretKey string  `json:"secret_key"`
			Key       *string `json:"key"`
		} `json:"s3"`
	} `json:"DATA"`

	LanguagesDir *string `json:"LANGUAGES_DIR"`
	LogFile      *string `json:"LOG_FILE"`
	LogLevel     *string `json:"LOG_LEVEL"`
}

// parseJson reads the config file selected by -c/-config (config.json by
// default) and overlays its values on config. Comments and trailing commas
// are allowed. A missing or malformed file is a configuration error.
func parseJson(config *Config) error {
	path := flagx.ConfigPath(DefaultPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: config file %s: %v", common.ErrConfiguration, path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
		return fmt.Errorf("%w: invalid JSON in %s: %v", common.ErrConfiguration, path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	config.Token = c.Token
	config.GuildID = string(c.GuildID)
	config.ServerName = c.ServerName

	config.Channels = Channels{Verify: string(c.Channels.Verify), Log: string(c.Channels.Log)}
	config.Roles = Roles{Verify: string(c.Roles.Verify), Unverified: string(c.Roles.Unverified)}
	config.Links = Links{
		VerifyImage: c.Links.VerifyImage,
		Thumbnail:   c.Links.Thumbnail,
		ServerIcon:  c.Links.ServerIcon,
	}

	s := &config.Settings
	setString(&s.DefaultLanguage, c.Settings.DefaultLanguage)
	setString(&s.VerificationType, c.Settings.VerificationType)
	setString(&s.ButtonEmoji, c.Settings.ButtonEmoji)
	if c.Settings.VerificationCooldown != nil {
		s.CooldownSeconds = *c.Settings.VerificationCooldown
	}
	setBool(&s.EnableCaptcha, c.Settings.EnableCaptcha)
	setBool(&s.EnableDMNotifications, c.Settings.EnableDMNotifications)
	setBool(&s.AutoRoleRestoration, c.Settings.AutoRoleRestoration)

	d := &config.Data
	setString(&d.Folder, c.Data.Folder)
	setString(&d.VerifiedUsersFile, c.Data.VerifiedUsersFile)
	setString(&d.Backend, c.Data.Backend)
	d.DatabaseDSN = c.Data.DatabaseDSN
	d.S3.Bucket = c.Data.S3.Bucket
	setString(&d.S3.Region, c.Data.S3.Region)
	d.S3.Endpoint = c.Data.S3.Endpoint
	d.S3.AccessKey = c.Data.S3.AccessKey
	d.S3.SecretKey = c.Data.S3.SecretKey
	setString(&d.S3.Key, c.Data.S3.Key)

	setString(&config.LanguagesDir, c.LanguagesDir)
	setString(&config.LogFile, c.LogFile)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
