// Package config loads runtime configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Nikhil-Doal/tracker/internal/analytics"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	AI        AIConfig
	Analytics AnalyticsConfig
	Digest    DigestConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds either a direct DSN or Cloud SQL socket settings.
type DatabaseConfig struct {
	URL                    string
	InstanceConnectionName string
	User                   string
	Password               string
	Name                   string
	MaxConnections         int
	MaxIdleConnections     int
	MigrateOnStart         bool
}

// AuthConfig holds token signing and password hashing parameters.
type AuthConfig struct {
	SecretKey          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BcryptCost         int
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// AIConfig selects and parameterizes the text generation provider.
type AIConfig struct {
	Provider        string // openai, anthropic, static or none
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         time.Duration
	MaxTokens       int
}

// AnalyticsConfig parameterizes dwell-time estimation and scoring.
type AnalyticsConfig struct {
	ActivityGapMinutes float64
	ProductiveDomains  []string
	SocialDomains      []string
}

// DigestConfig controls the background daily summary job.
type DigestConfig struct {
	Enabled  bool
	Interval time.Duration
}

const (
	defaultPort            = "5000"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultMaxConnections     = 25
	defaultMaxIdleConnections = 5

	defaultSecretKey          = "dev-secret-key-change-in-production"
	defaultAccessTokenExpiry  = time.Hour
	defaultRefreshTokenExpiry = 30 * 24 * time.Hour
	defaultBcryptCost         = 12

	defaultCORSOrigins = "http://localhost:3000"

	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultAITimeout      = 30 * time.Second
	defaultAIMaxTokens    = 1024

	defaultDigestInterval = time.Hour

	envFile = ".env"
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided. Variables from a .env file in the working
// directory are used when the process environment does not set them.
func Load() (Config, error) {
	v := newViper()

	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getString(v, "PORT", "")
	if port == "" {
		port = getString(v, "SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:                    getString(v, "DATABASE_URL", ""),
			InstanceConnectionName: getString(v, "INSTANCE_CONNECTION_NAME", ""),
			User:                   getString(v, "DB_USER", ""),
			Password:               getString(v, "DB_PASSWORD", ""),
			Name:                   getString(v, "DB_NAME", ""),
			MaxConnections:         defaultMaxConnections,
			MaxIdleConnections:     defaultMaxIdleConnections,
			MigrateOnStart:         true,
		},
		Auth: AuthConfig{
			SecretKey:          getString(v, "JWT_SECRET_KEY", defaultSecretKey),
			AccessTokenExpiry:  defaultAccessTokenExpiry,
			RefreshTokenExpiry: defaultRefreshTokenExpiry,
			BcryptCost:         defaultBcryptCost,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getString(v, "CORS_ORIGINS", defaultCORSOrigins)),
		},
		AI: AIConfig{
			OpenAIAPIKey:    getString(v, "OPENAI_API_KEY", ""),
			OpenAIModel:     getString(v, "OPENAI_MODEL", defaultOpenAIModel),
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", defaultAnthropicModel),
			Timeout:         defaultAITimeout,
			MaxTokens:       defaultAIMaxTokens,
		},
		Analytics: AnalyticsConfig{
			ActivityGapMinutes: analytics.DefaultGapMinutes,
			ProductiveDomains:  analytics.DefaultProductiveDomains,
			SocialDomains:      analytics.DefaultSocialDomains,
		},
		Digest: DigestConfig{
			Interval: defaultDigestInterval,
		},
	}

	durations := []struct {
		key  string
		dest *time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout},
		{"JWT_ACCESS_TOKEN_EXPIRES", &cfg.Auth.AccessTokenExpiry},
		{"JWT_REFRESH_TOKEN_EXPIRES", &cfg.Auth.RefreshTokenExpiry},
		{"AI_TIMEOUT_SECONDS", &cfg.AI.Timeout},
		{"DIGEST_INTERVAL_SECONDS", &cfg.Digest.Interval},
	}
	for _, d := range durations {
		if raw := getString(v, d.key, ""); raw != "" {
			parsed, err := parseSeconds(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dest = parsed
		}
	}

	ints := []struct {
		key  string
		dest *int
	}{
		{"DB_MAX_CONNECTIONS", &cfg.Database.MaxConnections},
		{"DB_MAX_IDLE_CONNECTIONS", &cfg.Database.MaxIdleConnections},
		{"AI_MAX_TOKENS", &cfg.AI.MaxTokens},
	}
	for _, n := range ints {
		if raw := getString(v, n.key, ""); raw != "" {
			parsed, err := parsePositiveInt(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", n.key, err)
			}
			*n.dest = parsed
		}
	}

	bools := []struct {
		key  string
		dest *bool
	}{
		{"DB_MIGRATE_ON_START", &cfg.Database.MigrateOnStart},
		{"DIGEST_ENABLED", &cfg.Digest.Enabled},
	}
	for _, b := range bools {
		if raw := getString(v, b.key, ""); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: must be a boolean", b.key)
			}
			*b.dest = parsed
		}
	}

	if raw := getString(v, "BCRYPT_COST", ""); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil || cost < 4 || cost > 31 {
			return Config{}, fmt.Errorf("invalid BCRYPT_COST: must be between 4 and 31")
		}
		cfg.Auth.BcryptCost = cost
	}

	if raw := getString(v, "LOG_LEVEL", ""); raw != "" {
		level, err := parseLogLevel(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if raw := getString(v, "LOG_FORMAT", ""); raw != "" {
		switch raw {
		case "json", "text":
			cfg.Logging.Format = raw
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	provider, err := parseProvider(getString(v, "AI_PROVIDER", ""), cfg.AI)
	if err != nil {
		return Config{}, fmt.Errorf("invalid AI_PROVIDER: %w", err)
	}
	cfg.AI.Provider = provider

	if raw := getString(v, "ACTIVITY_GAP_MINUTES", ""); raw != "" {
		gap, err := strconv.ParseFloat(raw, 64)
		if err != nil || gap <= 0 {
			return Config{}, fmt.Errorf("invalid ACTIVITY_GAP_MINUTES: must be a positive number")
		}
		cfg.Analytics.ActivityGapMinutes = gap
	}
	if raw := getString(v, "PRODUCTIVE_DOMAINS", ""); raw != "" {
		cfg.Analytics.ProductiveDomains = splitList(raw)
	}
	if raw := getString(v, "SOCIAL_DOMAINS", ""); raw != "" {
		cfg.Analytics.SocialDomains = splitList(raw)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine
	v.AutomaticEnv()
	return v
}

func getString(v *viper.Viper, key, fallback string) string {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		return value
	}
	return fallback
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return n, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}

// parseProvider resolves the AI provider. When unset, the first provider with
// an API key wins, OpenAI first.
func parseProvider(raw string, ai AIConfig) (string, error) {
	switch strings.ToLower(raw) {
	case "":
		switch {
		case ai.OpenAIAPIKey != "":
			return "openai", nil
		case ai.AnthropicAPIKey != "":
			return "anthropic", nil
		default:
			return "none", nil
		}
	case "openai", "anthropic", "static", "none":
		return strings.ToLower(raw), nil
	default:
		return "", fmt.Errorf("must be one of openai, anthropic, static, none")
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
