package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

const appName = "dm-archiver"

// ScheduleLayout is the accepted layout of the daily schedule time.
const ScheduleLayout = "15:04"

type Config struct {
	Twitter       TwitterConfig       `toml:"twitter"`
	Schedule      ScheduleConfig      `toml:"schedule"`
	Database      DatabaseConfig      `toml:"database"`
	Options       OptionsConfig       `toml:"options"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type TwitterConfig struct {
	ConsumerKey       string `toml:"consumer_key"`
	ConsumerSecret    string `toml:"consumer_secret"`
	AccessToken       string `toml:"access_token"`
	AccessTokenSecret string `toml:"access_token_secret"`
	APIBaseURL        string `toml:"api_base_url"`
}

type ScheduleConfig struct {
	Time       string `toml:"time"` // HH:MM, 24h
	Timezone   string `toml:"timezone"`
	RunOnStart bool   `toml:"run_on_start"`
}

type DatabaseConfig struct {
	Connector string `toml:"connector"`
}

type OptionsConfig struct {
	PageSize          int      `toml:"page_size"`
	MaxPages          int      `toml:"max_pages"`
	PostHosts         []string `toml:"post_hosts"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	LogDir            string   `toml:"log_dir"`
	LogLevel          string   `toml:"log_level"`
}

type NotificationsConfig struct {
	Enabled          bool   `toml:"enabled"`
	SystemNotify     bool   `toml:"system_notify"`
	DiscordWebhook   string `toml:"discord_webhook"`
	DiscordMentionID string `toml:"discord_mention_id"` // user id, or role:<id>
	NotifyOn         string `toml:"notify_on"`          // "changes" or "always"
}

// envKeys maps a setting to the environment variables it is read from, in
// order of preference. The lower-case names are the ones the first version
// of the bot used.
var envKeys = map[string][]string{
	"consumer_key":        {"CONSUMER_KEY", "consumer_key"},
	"consumer_secret":     {"CONSUMER_SECRET", "consumer_secret"},
	"access_token":        {"ACCESS_TOKEN", "access_token"},
	"access_token_secret": {"ACCESS_TOKEN_SECRET", "access_token_secret"},
	"schedule_time":       {"SCHEDULE_TIME_EVERY_DAY", "schedule_time_every_day"},
	"schedule_timezone":   {"SCHEDULE_TIMEZONE"},
	"db_connector":        {"DB_CONNECTOR", "db_connector"},
	"log_level":           {"LOG_LEVEL"},
	"api_base_url":        {"TWITTER_API_BASE_URL"},
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		configDir, err = os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(configDir, ".config")
		}
	} else {
		configDir, err = os.UserConfigDir()
	}
	if err != nil {
		return "."
	}

	return filepath.Join(configDir, appName)
}

// GetConfigPath returns ./config.toml when present, the per-user config file otherwise.
func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}
	return filepath.Join(GetConfigDir(), "config.toml")
}

// Load builds the configuration from the TOML file at configPath (skipped when
// it does not exist), an optional .env file and the process environment, in
// that order, then validates it.
func Load(configPath string) (*Config, error) {
	cfg := CreateDefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if _, err := toml.DecodeFile(configPath, cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", configPath, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	get := func(name string, dst *string) {
		for _, key := range envKeys[name] {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	get("consumer_key", &c.Twitter.ConsumerKey)
	get("consumer_secret", &c.Twitter.ConsumerSecret)
	get("access_token", &c.Twitter.AccessToken)
	get("access_token_secret", &c.Twitter.AccessTokenSecret)
	get("api_base_url", &c.Twitter.APIBaseURL)
	get("schedule_time", &c.Schedule.Time)
	get("schedule_timezone", &c.Schedule.Timezone)
	get("db_connector", &c.Database.Connector)
	get("log_level", &c.Options.LogLevel)

	if v, ok := lookup("PAGE_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Options.PageSize = n
		}
	}
}

func (c *Config) applyDefaults() {
	c.Twitter.ConsumerKey = strings.TrimSpace(c.Twitter.ConsumerKey)
	c.Twitter.ConsumerSecret = strings.TrimSpace(c.Twitter.ConsumerSecret)
	c.Twitter.AccessToken = strings.TrimSpace(c.Twitter.AccessToken)
	c.Twitter.AccessTokenSecret = strings.TrimSpace(c.Twitter.AccessTokenSecret)
	c.Schedule.Time = strings.TrimSpace(c.Schedule.Time)

	if c.Twitter.APIBaseURL == "" {
		c.Twitter.APIBaseURL = DefaultAPIBaseURL
	}
	if c.Options.PageSize <= 0 {
		c.Options.PageSize = 20
	}
	if c.Options.MaxPages <= 0 {
		c.Options.MaxPages = 1
	}
	if c.Options.RequestsPerSecond <= 0 {
		c.Options.RequestsPerSecond = 1
	}
	if c.Options.LogDir == "" {
		c.Options.LogDir = filepath.Join(GetConfigDir(), ".logs")
	}
	if c.Options.LogLevel == "" {
		c.Options.LogLevel = "info"
	}
	if c.Notifications.NotifyOn == "" {
		c.Notifications.NotifyOn = "changes"
	}
}

// Validate reports every missing or malformed mandatory setting. The keys of
// the returned validation.Errors are the environment variable names.
func (c *Config) Validate() error {
	errs := validation.Errors{
		"CONSUMER_KEY":            validation.Validate(c.Twitter.ConsumerKey, validation.Required),
		"CONSUMER_SECRET":         validation.Validate(c.Twitter.ConsumerSecret, validation.Required),
		"ACCESS_TOKEN":            validation.Validate(c.Twitter.AccessToken, validation.Required),
		"ACCESS_TOKEN_SECRET":     validation.Validate(c.Twitter.AccessTokenSecret, validation.Required),
		"SCHEDULE_TIME_EVERY_DAY": validation.Validate(c.Schedule.Time, validation.Required, validation.By(clockTime)),
		"DB_CONNECTOR":            validation.Validate(c.Database.Connector, validation.Required),
		"SCHEDULE_TIMEZONE":       validation.Validate(c.Schedule.Timezone, validation.By(timezone)),
		"notify_on":               validation.Validate(c.Notifications.NotifyOn, validation.In("changes", "always")),
	}
	return errs.Filter()
}

func clockTime(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(ScheduleLayout, s); err != nil {
		return errors.New("must be a time of day in HH:MM format")
	}
	return nil
}

func timezone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown time zone %q", s)
	}
	return nil
}

// ScheduleClock returns the hour and minute of the daily run.
func (c *Config) ScheduleClock() (hour, minute int, err error) {
	t, err := time.Parse(ScheduleLayout, c.Schedule.Time)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schedule time %q: %w", c.Schedule.Time, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Location returns the schedule location, the local zone when unset.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return "[REDACTED]"
	}
	c.Twitter.ConsumerKey = redact(c.Twitter.ConsumerKey)
	c.Twitter.ConsumerSecret = redact(c.Twitter.ConsumerSecret)
	c.Twitter.AccessToken = redact(c.Twitter.AccessToken)
	c.Twitter.AccessTokenSecret = redact(c.Twitter.AccessTokenSecret)
	c.Notifications.DiscordWebhook = redact(c.Notifications.DiscordWebhook)
	if i := strings.Index(c.Database.Connector, "@"); i >= 0 {
		if j := strings.Index(c.Database.Connector, "://"); j >= 0 && j < i {
			c.Database.Connector = c.Database.Connector[:j+3] + "[REDACTED]" + c.Database.Connector[i:]
		}
	}
	return c
}
