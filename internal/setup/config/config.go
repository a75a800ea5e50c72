package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrMissingToken          = errors.New("discord token is not set")
	ErrMissingGuildID        = errors.New("discord guild id is not set")
)

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// configFiles are loaded in order, each under its own key.
var configFiles = []string{"common", "bot"}

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
}

// CommonConfig contains configuration shared between the bot and the db tool.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Uptrace    Uptrace    `koanf:"uptrace"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version  int      `koanf:"version"`
	Discord  Discord  `koanf:"discord"`
	Points   Points   `koanf:"points"`
	Reports  Reports  `koanf:"reports"`
	Calendar Calendar `koanf:"calendar"`
	Alerts   Alerts   `koanf:"alerts"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Uptrace configures trace export. Tracing stays local when DSN is empty.
type Uptrace struct {
	DSN         string `koanf:"dsn"`
	Environment string `koanf:"environment"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Bot token for authentication.
	Token string `koanf:"token"`
	// Guild the command catalogue is published to.
	GuildID uint64 `koanf:"guild_id"`
}

// Points configures message scoring.
type Points struct {
	// Skip scoring of guild messages entirely.
	Disabled bool `koanf:"disabled"`
	// Seconds the leaderboard is cached in Redis.
	LeaderboardCacheSeconds int `koanf:"leaderboard_cache_seconds"`
}

// Reports configures the pending report registry.
type Reports struct {
	// Minutes a report stays resolvable.
	TTLMinutes int `koanf:"ttl_minutes"`
	// Minutes between expiry sweeps.
	SweepMinutes int `koanf:"sweep_minutes"`
	// Reports held before the oldest are evicted.
	MaxReports int `koanf:"max_reports"`
}

// Calendar configures the Google Calendar sync command.
type Calendar struct {
	// API key with Calendar read access.
	APIKey string `koanf:"api_key"`
	// Calendar to mirror into guild events.
	CalendarID string `koanf:"calendar_id"`
	// Maximum events fetched per sync.
	MaxEvents int64 `koanf:"max_events"`
	// Days ahead to look for events.
	LookaheadDays int `koanf:"lookahead_days"`
}

// Alerts configures posting error logs to the guild error channel.
type Alerts struct {
	Enabled bool `koanf:"enabled"`
	// Minimum level forwarded (error, dpanic, panic, fatal).
	MinLevel string `koanf:"min_level"`
	// Entries buffered before new ones are dropped.
	QueueSize int `koanf:"queue_size"`
}

// ReportTTL returns the configured report lifetime.
func (r Reports) ReportTTL() time.Duration {
	return time.Duration(r.TTLMinutes) * time.Minute
}

// SweepInterval returns the configured sweep interval.
func (r Reports) SweepInterval() time.Duration {
	return time.Duration(r.SweepMinutes) * time.Minute
}

// LeaderboardTTL returns how long leaderboards are cached.
func (p Points) LeaderboardTTL() time.Duration {
	return time.Duration(p.LeaderboardCacheSeconds) * time.Second
}

// DefaultSearchPaths lists the directories searched for config files.
func DefaultSearchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".peechi",
		homeDir + "/.peechi/config",
		"/etc/peechi/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	paths, err := DefaultSearchPaths()
	if err != nil {
		return nil, "", err
	}

	return LoadConfigFrom(paths)
}

// LoadConfigFrom loads every config file from the first path that has it.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if _, err := os.Stat(configPath); err != nil {
				continue
			}

			section := koanf.New(".")
			if err := section.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, "", fmt.Errorf("failed to parse %s: %w", configPath, err)
			}

			if err := k.MergeAt(section, configName); err != nil {
				return nil, "", fmt.Errorf("failed to merge %s: %w", configPath, err)
			}

			configLoaded = true

			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	return &config, usedConfigPath, nil
}

// ValidateBot checks the settings the bot cannot start without.
func (c *Config) ValidateBot() error {
	if c.Bot.Discord.Token == "" {
		return ErrMissingToken
	}

	if c.Bot.Discord.GuildID == 0 {
		return ErrMissingGuildID
	}

	return nil
}

// applyDefaults fills in zero values with working defaults.
func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = "info"
	}
	if c.Common.Debug.MaxLogsToKeep <= 0 {
		c.Common.Debug.MaxLogsToKeep = 10
	}
	if c.Common.Debug.MaxLogLines <= 0 {
		c.Common.Debug.MaxLogLines = 10000
	}
	if c.Bot.Points.LeaderboardCacheSeconds <= 0 {
		c.Bot.Points.LeaderboardCacheSeconds = 30
	}
	if c.Bot.Reports.TTLMinutes <= 0 {
		c.Bot.Reports.TTLMinutes = 30
	}
	if c.Bot.Reports.SweepMinutes <= 0 {
		c.Bot.Reports.SweepMinutes = 10
	}
	if c.Bot.Reports.MaxReports <= 0 {
		c.Bot.Reports.MaxReports = 1000
	}
	if c.Bot.Calendar.MaxEvents <= 0 {
		c.Bot.Calendar.MaxEvents = 20
	}
	if c.Bot.Calendar.LookaheadDays <= 0 {
		c.Bot.Calendar.LookaheadDays = 31
	}
	if c.Bot.Alerts.MinLevel == "" {
		c.Bot.Alerts.MinLevel = "error"
	}
	if c.Bot.Alerts.QueueSize <= 0 {
		c.Bot.Alerts.QueueSize = 100
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf("%w: %s.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, name, current, expected)
	}

	return nil
}
