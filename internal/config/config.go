package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mailbot/")
	v.AddConfigPath("$HOME/.mailbot")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAILBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Triage defaults
	v.SetDefault("triage.scorer", "rules")
	v.SetDefault("triage.rules_file", "")
	v.SetDefault("triage.model_path", "")
	v.SetDefault("triage.min_ticket_confidence", 0.6)
	v.SetDefault("triage.ack_enabled", false)
	v.SetDefault("triage.sender_policy", true)

	// Polling defaults
	v.SetDefault("poll.interval", "2m")
	v.SetDefault("poll.workers", 0)

	// Source defaults
	v.SetDefault("source.type", "imap")
	v.SetDefault("source.maildir_path", "./mail")

	// IMAP defaults
	v.SetDefault("imap.server", "")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.folder", "INBOX")
	v.SetDefault("imap.since_days", 7)
	v.SetDefault("imap.unseen_only", true)

	// SMTP defaults
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "support@embassyaviation.example")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/mailbot.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/mailbot?parseTime=true")
	v.SetDefault("store.cleanup_frequency", "1h")
	v.SetDefault("store.dedupe_ttl", "168h")

	// Reports defaults
	v.SetDefault("reports.dir", "./reports")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_address", "0.0.0.0:9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
