package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8000
	DefaultProfile        = ProfileDev
	DefaultVersion        = "0.1.0"
	DefaultKeyEnv         = "SIGNALAPI_API_KEY"
	DefaultHeader         = "X-API-Key"
	DefaultStreamInterval = 30 * time.Second
	DefaultLogLevel       = "info"
)

// Deployment profiles. The profile selects the default CORS allow-list and
// whether the welcome route at "/" is served.
const (
	ProfileDev  = "dev"
	ProfileProd = "prod"
)

// DevOrigins and ProdOrigins are the CORS allow-lists used when
// server.cors.allowed_origins is empty.
var (
	DevOrigins  = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	ProdOrigins = []string{"https://inonewetrust.app", "https://www.inonewetrust.app"}
)

// Config holds the configuration parsed from the `server:` section of the
// config file.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket stream listen on (default 8000).
	HTTPPort int `yaml:"http_port"`

	// Profile is one of: dev | prod.
	Profile string `yaml:"profile"`

	// Version is reported by GET /health.
	Version string `yaml:"version"`

	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Stream    StreamConfig    `yaml:"stream"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Log       LogConfig       `yaml:"log"`
}

// AuthConfig controls the shared-secret guard on protected endpoints.
type AuthConfig struct {
	// KeyEnv is the name of the environment variable that holds the shared secret.
	// An unset or empty variable disables the guard.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the client sends the key in.
	// Defaults to "X-API-Key" if empty.
	Header string `yaml:"header"`
}

// Key returns the shared secret resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultHeader
}

// CORSConfig holds the cross-origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig configures the process-wide token bucket in front of the
// API. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// StreamConfig controls the /stream WebSocket broadcast.
type StreamConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// TracingConfig toggles the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig sets the slog level: debug | info | warn | error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Origins returns the configured allow-list, or the profile default when
// none is configured.
func (s ServerConfig) Origins() []string {
	if len(s.CORS.AllowedOrigins) > 0 {
		return s.CORS.AllowedOrigins
	}
	if s.Profile == ProfileProd {
		return ProdOrigins
	}
	return DevOrigins
}

// Load reads and parses the config file at path, returning the server
// configuration. An empty path yields the defaults. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Profile:  DefaultProfile,
			Version:  DefaultVersion,
			Auth: AuthConfig{
				KeyEnv: DefaultKeyEnv,
			},
			Stream: StreamConfig{
				Interval: DefaultStreamInterval,
			},
			Log: LogConfig{
				Level: DefaultLogLevel,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Profile {
	case ProfileDev, ProfileProd:
	default:
		return fmt.Errorf("server.profile %q unknown: want dev|prod", s.Profile)
	}
	if s.RateLimit.RPS < 0 {
		return fmt.Errorf("server.rate_limit.rps must not be negative")
	}
	if s.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit.burst must not be negative")
	}
	if s.Stream.Interval <= 0 {
		return fmt.Errorf("server.stream.interval must be positive")
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("server.log.level %q unknown: want debug|info|warn|error", s.Log.Level)
	}
	return nil
}
