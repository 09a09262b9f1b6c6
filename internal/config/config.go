package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	OIDC    OIDCConfig    `mapstructure:"oidc"`
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Discord DiscordConfig `mapstructure:"discord"`
	Roster  RosterConfig  `mapstructure:"roster"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"baseURL"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver string `mapstructure:"driver"` // "mysql" or "sqlite3"
	DSN    string `mapstructure:"dsn"`
}

// OIDCConfig holds OIDC client configuration.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// CacheConfig holds the SQLite response cache configuration.
type CacheConfig struct {
	FilePath string        `mapstructure:"file_path"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DiscordConfig holds the directory service client configuration.
type DiscordConfig struct {
	BotToken      string        `mapstructure:"bot_token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	CDNURL        string        `mapstructure:"cdn_url"`
}

// RosterConfig holds moderator roster settings.
type RosterConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// AuthConfig holds authorization settings.
type AuthConfig struct {
	ModelPath  string   `mapstructure:"model_path"`
	Admins     []string `mapstructure:"admins"`     // OIDC subjects granted the admin role at startup
	Moderators []string `mapstructure:"moderators"` // OIDC subjects granted the moderator role at startup
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.baseURL", "http://localhost:8080")
	viper.SetDefault("db.driver", "mysql")
	viper.SetDefault("db.dsn", "aternotes:aternotes@tcp(localhost:3306)/aternotes?parseTime=true&clientFoundRows=true")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("session.lifetime", 24)
	viper.SetDefault("cache.file_path", "cache.db")
	viper.SetDefault("cache.ttl", time.Minute)
	viper.SetDefault("discord.timeout", 10*time.Second)
	viper.SetDefault("discord.rate_per_second", 1.0)
	viper.SetDefault("discord.burst", 5)
	viper.SetDefault("discord.cdn_url", "https://cdn.discordapp.com")
	viper.SetDefault("roster.cooldown", 6*time.Hour)
	viper.SetDefault("auth.model_path", "auth_model.conf")

	// Set up viper to read from config file
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/aternotes/")
	viper.AddConfigPath("$HOME/.aternotes")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	viper.SetEnvPrefix("ATERNOTES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal the config into the Config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
