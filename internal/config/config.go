package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "24h" parse naturally.
type Duration time.Duration

// UnmarshalYAML parses Go duration syntax from the config file.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "IPO_ALERT_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	botTokenEnv       = "BOT_TOKEN"
	chatIDEnv         = "CHAT_ID"
	sourceBaseURLEnv  = "NSE_BASE_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Source        SourceConfig       `yaml:"source"`
	Notifications NotificationConfig `yaml:"notifications"`
	Alerts        AlertConfig        `yaml:"alerts"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes where the offering state ledger lives.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when reconciliation passes run.
type SchedulerConfig struct {
	Period       Duration       `yaml:"period"`
	InitialDelay Duration       `yaml:"initialDelay"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourceConfig groups settings for the upstream issue list.
type SourceConfig struct {
	BaseURL      string   `yaml:"baseUrl"`
	APIPath      string   `yaml:"apiPath"`
	WarmupDelay  Duration `yaml:"warmupDelay"`
	FetchTimeout Duration `yaml:"fetchTimeout"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send and edit messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// AlertConfig tunes which offerings are worth alerting on.
type AlertConfig struct {
	MinIssueSizeCr float64 `yaml:"minIssueSizeCr"`
}

// LoggingConfig controls log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	// The file is decoded over the defaults: keys absent from the file keep
	// their default values, while explicit zeros (threshold 0, zero initial
	// delay) land as written.
	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(botTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(chatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(sourceBaseURLEnv); v != "" {
		c.Source.BaseURL = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "ipo.db"},
		Scheduler: SchedulerConfig{
			Period:       Duration(24 * time.Hour),
			InitialDelay: Duration(5 * time.Second),
			Timezone:     defaultTimezone,
			location:     tz,
		},
		Source: SourceConfig{
			BaseURL:      "https://www.nseindia.com",
			APIPath:      "/api/ipo-current-issue",
			WarmupDelay:  Duration(time.Second),
			FetchTimeout: Duration(20 * time.Second),
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Alerts:  AlertConfig{MinIssueSizeCr: 500},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
