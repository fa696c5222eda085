package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	DiscordToken  string           `yaml:"discord_token"`
	Environment   string           `yaml:"environment"`
	LogLevel      string           `yaml:"log_level"`
	Mode          string           `yaml:"mode"`
	RulePreset    string           `yaml:"rule_preset"`
	RetentionDays int              `yaml:"retention_days"`
	Database      DatabaseConfig   `yaml:"database"`
	Health        HealthConfig     `yaml:"health"`
	Automod       AutomodConfig    `yaml:"automod"`
	Attachments   AttachmentConfig `yaml:"attachments"`
	Strikes       StrikeConfig     `yaml:"strikes"`
	Actions       ActionConfig     `yaml:"actions"`
	Notifications NotifyConfig     `yaml:"notifications"`
	Redis         RedisConfig      `yaml:"redis"`
	NATS          NATSConfig       `yaml:"nats"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type AutomodConfig struct {
	// WordlistPath replaces the embedded wordlist when set.
	WordlistPath         string   `yaml:"wordlist_path"`
	LinkExemptChannels   []string `yaml:"link_exempt_channels"`
	BotsChannelID        string   `yaml:"bots_channel_id"`
	AdvertiseChannelID   string   `yaml:"advertise_channel_id"`
	InviteTimeoutSeconds int      `yaml:"invite_timeout_seconds"`
	NoticePrefix         string   `yaml:"notice_prefix"`
	CensorNicknames      bool     `yaml:"censor_nicknames"`
}

type AttachmentConfig struct {
	Enabled        bool     `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxBytes       int64    `yaml:"max_bytes"`
	MaxConcurrent  int      `yaml:"max_concurrent"`
	Hosts          []string `yaml:"hosts"`
}

type StrikeConfig struct {
	ExpiryDays int `yaml:"expiry_days"`
	// Threshold is the active strike total that times a member out. Zero
	// takes the value from the rule preset.
	Threshold int `yaml:"threshold"`
}

type ActionConfig struct {
	Enabled        bool `yaml:"enabled"`
	TimeoutMinutes int  `yaml:"timeout_minutes"`
}

type NotifyConfig struct {
	ChannelWarnEnabled bool        `yaml:"channel_warn_enabled"`
	DMWarnEnabled      bool        `yaml:"dm_warn_enabled"`
	AuditToChannel     bool        `yaml:"audit_to_channel"`
	AuditChannelID     string      `yaml:"audit_channel_id"`
	EmbedColors        EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Action  int `yaml:"action"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

type RedisConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Addr             string `yaml:"addr"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	InviteTTLMinutes int    `yaml:"invite_ttl_minutes"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`
}

func DefaultConfig() Config {
	return Config{
		Environment:   EnvProduction,
		LogLevel:      "info",
		Mode:          "normal",
		RulePreset:    "medium",
		RetentionDays: 14,
		Database:      DatabaseConfig{Driver: "sqlite", DSN: "/data/warden.db"},
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		Automod: AutomodConfig{
			InviteTimeoutSeconds: 5,
			NoticePrefix:         "⛔",
			CensorNicknames:      true,
		},
		Attachments: AttachmentConfig{
			Enabled:        true,
			TimeoutSeconds: 10,
			MaxBytes:       1 << 20,
			MaxConcurrent:  4,
			Hosts:          []string{"cdn.discordapp.com", "media.discordapp.net"},
		},
		Strikes: StrikeConfig{ExpiryDays: 30},
		Actions: ActionConfig{Enabled: false, TimeoutMinutes: 10},
		Notifications: NotifyConfig{
			ChannelWarnEnabled: true,
			DMWarnEnabled:      true,
			AuditToChannel:     false,
			EmbedColors: EmbedColors{
				Action:  0xF59E0B,
				Warning: 0xEF4444,
				Error:   0xF97316,
			},
		},
		Redis: RedisConfig{Enabled: false, Addr: "localhost:6379", InviteTTLMinutes: 360},
		NATS:  NATSConfig{Enabled: false, URL: "nats://localhost:4222", Name: "warden"},
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}

	cfg.Environment = normalizeEnvironment(cfg.Environment)
	cfg.Mode = normalizeMode(cfg.Mode)
	cfg.RulePreset = normalizePreset(cfg.RulePreset)
	applyPreset(&cfg)

	return cfg, nil
}

func (c Config) Production() bool {
	return c.Environment == EnvProduction
}

func (c Config) AuditOnly() bool {
	return c.Mode == "audit"
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.Environment = envString("WARDEN_ENV", cfg.Environment)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Mode = envString("MODE", cfg.Mode)
	cfg.RulePreset = envString("RULE_PRESET", cfg.RulePreset)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Database.Driver = envString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envString("DATABASE_PATH", cfg.Database.DSN)
	cfg.Database.DSN = envString("DATABASE_URL", cfg.Database.DSN)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Automod.WordlistPath = envString("WORDLIST_PATH", cfg.Automod.WordlistPath)
	cfg.Automod.LinkExemptChannels = envList("LINK_EXEMPT_CHANNELS", cfg.Automod.LinkExemptChannels)
	cfg.Automod.BotsChannelID = envString("BOTS_CHANNEL_ID", cfg.Automod.BotsChannelID)
	cfg.Automod.AdvertiseChannelID = envString("ADVERTISE_CHANNEL_ID", cfg.Automod.AdvertiseChannelID)
	cfg.Automod.InviteTimeoutSeconds = envInt("INVITE_TIMEOUT_SECONDS", cfg.Automod.InviteTimeoutSeconds)
	cfg.Automod.NoticePrefix = envString("NOTICE_PREFIX", cfg.Automod.NoticePrefix)
	cfg.Automod.CensorNicknames = envBool("CENSOR_NICKNAMES", cfg.Automod.CensorNicknames)
	cfg.Attachments.Enabled = envBool("ATTACHMENT_SCAN_ENABLED", cfg.Attachments.Enabled)
	cfg.Attachments.TimeoutSeconds = envInt("ATTACHMENT_TIMEOUT_SECONDS", cfg.Attachments.TimeoutSeconds)
	cfg.Attachments.MaxBytes = int64(envInt("ATTACHMENT_MAX_BYTES", int(cfg.Attachments.MaxBytes)))
	cfg.Attachments.MaxConcurrent = envInt("ATTACHMENT_MAX_CONCURRENT", cfg.Attachments.MaxConcurrent)
	cfg.Attachments.Hosts = envList("ATTACHMENT_HOSTS", cfg.Attachments.Hosts)
	cfg.Strikes.ExpiryDays = envInt("STRIKE_EXPIRY_DAYS", cfg.Strikes.ExpiryDays)
	cfg.Strikes.Threshold = envInt("STRIKE_THRESHOLD", cfg.Strikes.Threshold)
	cfg.Actions.Enabled = envBool("ACTIONS_ENABLED", cfg.Actions.Enabled)
	cfg.Actions.TimeoutMinutes = envInt("ACTIONS_TIMEOUT_MINUTES", cfg.Actions.TimeoutMinutes)
	cfg.Notifications.ChannelWarnEnabled = envBool("CHANNEL_WARN_ENABLED", cfg.Notifications.ChannelWarnEnabled)
	cfg.Notifications.DMWarnEnabled = envBool("DM_WARN_ENABLED", cfg.Notifications.DMWarnEnabled)
	cfg.Notifications.AuditToChannel = envBool("AUDIT_TO_CHANNEL", cfg.Notifications.AuditToChannel)
	cfg.Notifications.AuditChannelID = envString("AUDIT_CHANNEL_ID", cfg.Notifications.AuditChannelID)
	cfg.Notifications.EmbedColors.Action = envInt("EMBED_COLOR_ACTION", cfg.Notifications.EmbedColors.Action)
	cfg.Notifications.EmbedColors.Warning = envInt("EMBED_COLOR_WARNING", cfg.Notifications.EmbedColors.Warning)
	cfg.Notifications.EmbedColors.Error = envInt("EMBED_COLOR_ERROR", cfg.Notifications.EmbedColors.Error)
	cfg.Redis.Enabled = envBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.InviteTTLMinutes = envInt("INVITE_CACHE_TTL_MINUTES", cfg.Redis.InviteTTLMinutes)
	cfg.NATS.Enabled = envBool("NATS_ENABLED", cfg.NATS.Enabled)
	cfg.NATS.URL = envString("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Name = envString("NATS_NAME", cfg.NATS.Name)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

// envList reads a comma separated list, dropping empty items.
func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeEnvironment(value string) string {
	switch strings.ToLower(value) {
	case "development", "dev", "test":
		return EnvDevelopment
	default:
		return EnvProduction
	}
}

func normalizeMode(value string) string {
	switch strings.ToLower(value) {
	case "audit":
		return "audit"
	default:
		return "normal"
	}
}

func normalizePreset(value string) string {
	switch strings.ToLower(value) {
	case "low", "medium", "high":
		return strings.ToLower(value)
	default:
		return "medium"
	}
}

// applyPreset fills the strike threshold from the preset unless one was
// configured explicitly.
func applyPreset(cfg *Config) {
	if cfg.Strikes.Threshold > 0 {
		return
	}
	switch cfg.RulePreset {
	case "low":
		cfg.Strikes.Threshold = 15
	case "high":
		cfg.Strikes.Threshold = 6
	default:
		cfg.Strikes.Threshold = 10
	}
}
