// Package config provides application configuration management.
// Values come from a JSON or YAML config file, then environment variables
// (optionally seeded from a .env file), with environment variables winning.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
)

// DefaultConfigPath is read when no --config flag is given. A missing file is not an error.
const DefaultConfigPath = "config/default.json"

// Default values for optional settings.
const (
	DefaultPort              = "3978"
	DefaultGraphAPIURL       = "https://graph.facebook.com/v2.6"
	DefaultAuthorizationCode = "1234567890"

	DefaultSendRateLimit  = 40.0 // Send API calls per second, shared by all users
	DefaultUserRateBurst  = 20.0 // inbound events a sender may burst
	DefaultUserRateRefill = 1.0  // inbound events per second per sender
)

// ValidationMode selects which keys must be present.
type ValidationMode int

const (
	// ServerMode requires every key the webhook server needs.
	ServerMode ValidationMode = iota
	// SetupMode only requires the page token used to register thread settings.
	SetupMode
)

// Config holds all application configuration
type Config struct {
	// Messenger platform
	AppSecret       string // Signs webhook bodies (X-Hub-Signature)
	ValidationToken string // Compared against hub.verify_token
	PageAccessToken string // Send API and profile lookup credential
	ServerURL       string // Public base URL; prefixes asset and authorize URLs

	// Stats service
	ServerLOL string // Base URL of the summoner lookup service
	APIKey    string

	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Outbound
	GraphAPIURL     string
	OutboundTimeout time.Duration

	// Webhook
	WebhookTimeout    time.Duration
	AuthorizationCode string // Appended to redirect_uri by /authorize

	// Rate limits (zero disables the limiter)
	SendRateLimit  float64
	UserRateBurst  float64
	UserRateRefill float64

	// Sentry (empty DSN = disabled)
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack (empty token = disabled)
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics basic auth (empty password = no auth)
	MetricsUsername string
	MetricsPassword string
}

// Load reads configuration for the webhook server.
func Load(path string) (*Config, error) {
	return LoadForMode(path, ServerMode)
}

// LoadForMode reads configuration and validates it for the given mode.
func LoadForMode(path string, mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	k, err := readSources(path)
	if err != nil {
		return nil, err
	}
	src := source{k: k}

	cfg := &Config{
		AppSecret:       src.str(EnvAppSecret, ""),
		ValidationToken: src.str(EnvValidationToken, ""),
		PageAccessToken: src.str(EnvPageAccessToken, ""),
		ServerURL:       strings.TrimRight(src.str(EnvServerURL, ""), "/"),
		ServerLOL:       strings.TrimRight(src.str(EnvServerLOL, ""), "/"),
		APIKey:          src.str(EnvAPIKey, ""),

		Port:            src.str(EnvPort, DefaultPort),
		LogLevel:        src.str(EnvLogLevel, "info"),
		ShutdownTimeout: src.duration(EnvShutdownTimeout, GracefulShutdown),

		GraphAPIURL:     strings.TrimRight(src.str(EnvGraphAPIURL, DefaultGraphAPIURL), "/"),
		OutboundTimeout: src.duration(EnvOutboundTimeout, OutboundRequest),

		WebhookTimeout:    src.duration(EnvWebhookTimeout, WebhookProcessing),
		AuthorizationCode: src.str(EnvAuthorizationCode, DefaultAuthorizationCode),

		SendRateLimit:  src.float(EnvSendRateLimit, DefaultSendRateLimit),
		UserRateBurst:  src.float(EnvUserRateBurst, DefaultUserRateBurst),
		UserRateRefill: src.float(EnvUserRateRefill, DefaultUserRateRefill),

		SentryDSN:         src.str(EnvSentryDSN, ""),
		SentryEnvironment: src.str(EnvSentryEnvironment, "production"),
		SentrySampleRate:  src.float(EnvSentrySampleRate, 1.0),

		BetterStackToken:    src.str(EnvBetterStackToken, ""),
		BetterStackEndpoint: src.str(EnvBetterStackEndpoint, ""),

		MetricsUsername: src.str(EnvMetricsUsername, "prometheus"),
		MetricsPassword: src.str(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readSources layers the config file and the environment into one koanf instance.
func readSources(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// Only known variables with non-empty values override the file.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		fileKey, ok := fileKeys[key]
		if !ok || value == "" {
			return "", nil
		}
		return fileKey, value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	return k, nil
}

// source reads typed values by environment variable name.
type source struct {
	k *koanf.Koanf
}

func (s source) str(envKey, defaultValue string) string {
	if value := strings.TrimSpace(s.k.String(fileKeys[envKey])); value != "" {
		return value
	}
	return defaultValue
}

func (s source) duration(envKey string, defaultValue time.Duration) time.Duration {
	if value := s.str(envKey, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (s source) float(envKey string, defaultValue float64) float64 {
	if value := s.str(envKey, ""); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks required keys for mode and the sanity of optional ones.
// Every missing key is reported, not just the first.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var missing []error
	required := []struct {
		key   string
		value string
	}{
		{EnvPageAccessToken, c.PageAccessToken},
	}
	if mode == ServerMode {
		required = append(required,
			struct{ key, value string }{EnvAppSecret, c.AppSecret},
			struct{ key, value string }{EnvValidationToken, c.ValidationToken},
			struct{ key, value string }{EnvServerURL, c.ServerURL},
			struct{ key, value string }{EnvServerLOL, c.ServerLOL},
			struct{ key, value string }{EnvAPIKey, c.APIKey},
		)
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, fmt.Errorf("%s is required", r.key))
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %w", domerrors.ErrConfigMissing, errors.Join(missing...)))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.OutboundTimeout <= 0 {
		errs = append(errs, fmt.Errorf("OUTBOUND_TIMEOUT must be positive, got %v", c.OutboundTimeout))
	}
	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %v", c.WebhookTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.SendRateLimit < 0 || c.UserRateBurst < 0 || c.UserRateRefill < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be within [0, 1], got %v", c.SentrySampleRate))
	}

	return errors.Join(errs...)
}

// MetricsAuthEnabled reports whether /metrics requires basic auth.
func (c *Config) MetricsAuthEnabled() bool {
	return c.MetricsPassword != ""
}
