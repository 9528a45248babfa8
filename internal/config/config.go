// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/api-gateway/config.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config            string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host              string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port              int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel          string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	CORSOrigin        string `kong:"name='cors-origin',help='Allowed CORS origin (overrides config).',env='CORS_ORIGIN'"`
	WeatherURL        string `kong:"name='weather-url',help='Weather service base URL.',env='WEATHER_SERVICE_URL'"`
	AuthURL           string `kong:"name='auth-url',help='Auth service base URL.',env='AUTH_SERVICE_URL'"`
	CacheURL          string `kong:"name='cache-url',help='Cache service base URL.',env='CACHE_SERVICE_URL'"`
	AlertURL          string `kong:"name='alert-url',help='Alert service base URL.',env='ALERT_SERVICE_URL'"`
	WeatherPathPrefix string `kong:"name='weather-path-prefix',help='Sub-path prepended to weather upstream paths.',env='WEATHER_PATH_PREFIX'"`

	RateLimitWindowMS    int `kong:"name='rate-limit-window-ms',help='Rate limit window in milliseconds, rounded up to whole seconds (overrides config).',env='RATE_LIMIT_WINDOW_MS'"`
	RateLimitMaxRequests int `kong:"name='rate-limit-max-requests',help='Requests allowed per client per window (overrides config).',env='RATE_LIMIT_MAX_REQUESTS'"`
}

// Config is the top-level application configuration. It is read once at
// startup and never mutated afterwards.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Services ServicesConfig `toml:"services"`
	Upstream UpstreamConfig `toml:"upstream"`
	Health   HealthConfig   `toml:"health"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (3000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	CORSOrigin   string          `toml:"cors_origin"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting as a window and a
// maximum number of requests within it.
type RateLimitConfig struct {
	// Enabled defaults to true; only an explicit "enabled = false" turns the
	// limiter off.
	Enabled       *bool `toml:"enabled"`
	WindowSeconds int   `toml:"window_seconds"`
	MaxRequests   int   `toml:"max_requests"`
}

// On reports whether rate limiting is active.
func (r RateLimitConfig) On() bool {
	return r.Enabled == nil || *r.Enabled
}

// Window returns the rate limit window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// ServicesConfig holds the base URL of every backend service.
type ServicesConfig struct {
	Weather           string `toml:"weather"`
	Auth              string `toml:"auth"`
	Cache             string `toml:"cache"`
	Alert             string `toml:"alert"`
	WeatherPathPrefix string `toml:"weather_path_prefix"`
}

// UpstreamConfig holds outbound connection settings.
type UpstreamConfig struct {
	TimeoutSeconds       int `toml:"timeout_seconds"`
	HealthTimeoutSeconds int `toml:"health_timeout_seconds"`
	IdleConnections      int `toml:"idle_connections"`
}

// Timeout returns the proxy dispatch timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// HealthTimeout returns the per-probe health check timeout.
func (u UpstreamConfig) HealthTimeout() time.Duration {
	return time.Duration(u.HealthTimeoutSeconds) * time.Second
}

// HealthConfig controls the health aggregator.
type HealthConfig struct {
	// Sequential probes services one at a time instead of in parallel.
	Sequential bool `toml:"sequential"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/api-gateway/config.toml then configs/config.toml, and falls back to
// built-in defaults if neither exists.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.CORSOrigin != "" {
		c.Server.CORSOrigin = cli.CORSOrigin
	}
	if cli.WeatherURL != "" {
		c.Services.Weather = cli.WeatherURL
	}
	if cli.AuthURL != "" {
		c.Services.Auth = cli.AuthURL
	}
	if cli.CacheURL != "" {
		c.Services.Cache = cli.CacheURL
	}
	if cli.AlertURL != "" {
		c.Services.Alert = cli.AlertURL
	}
	if cli.WeatherPathPrefix != "" {
		c.Services.WeatherPathPrefix = cli.WeatherPathPrefix
	}
	if cli.RateLimitWindowMS != 0 {
		c.Server.RateLimit.WindowSeconds = msToSeconds(cli.RateLimitWindowMS)
	}
	if cli.RateLimitMaxRequests != 0 {
		c.Server.RateLimit.MaxRequests = cli.RateLimitMaxRequests
	}
}

// msToSeconds rounds a positive millisecond count up to whole seconds.
// Negative input maps to -1 so validate rejects it.
func msToSeconds(ms int) int {
	if ms < 0 {
		return -1
	}
	return (ms + 999) / 1000
}

func (c *Config) validate() error {
	// Service URLs: optional (defaults apply), but must be absolute http(s).
	for name, raw := range map[string]string{
		"weather": c.Services.Weather,
		"auth":    c.Services.Auth,
		"cache":   c.Services.Cache,
		"alert":   c.Services.Alert,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("services.%s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("services.%s must use http or https; got %q", name, raw)
		}
		if u.Host == "" {
			return fmt.Errorf("services.%s must include a host; got %q", name, raw)
		}
	}
	if p := c.Services.WeatherPathPrefix; p != "" && p[0] != '/' {
		return fmt.Errorf("services.weather_path_prefix must start with '/'; got %q", p)
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.HealthTimeoutSeconds < 0 {
		return fmt.Errorf("upstream.health_timeout_seconds must be non-negative; got %d", c.Upstream.HealthTimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Server.RateLimit.WindowSeconds < 0 {
		return fmt.Errorf("server.rate_limit.window_seconds must be non-negative; got %d", c.Server.RateLimit.WindowSeconds)
	}
	if c.Server.RateLimit.MaxRequests < 0 {
		return fmt.Errorf("server.rate_limit.max_requests must be non-negative; got %d", c.Server.RateLimit.MaxRequests)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if p == "/" {
			return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, "/")
		}
		for _, reserved := range []string{"/api", "/health", "/healthz"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = "http://localhost:3005"
	}
	if c.Server.RateLimit.Enabled == nil {
		on := true
		c.Server.RateLimit.Enabled = &on
	}
	if c.Server.RateLimit.WindowSeconds == 0 {
		c.Server.RateLimit.WindowSeconds = 900
	}
	if c.Server.RateLimit.MaxRequests == 0 {
		c.Server.RateLimit.MaxRequests = 100
	}
	if c.Services.Weather == "" {
		c.Services.Weather = "http://localhost:3001"
	}
	if c.Services.Auth == "" {
		c.Services.Auth = "http://localhost:3002"
	}
	if c.Services.Cache == "" {
		c.Services.Cache = "http://localhost:3003"
	}
	if c.Services.Alert == "" {
		c.Services.Alert = "http://localhost:3004"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 10
	}
	if c.Upstream.HealthTimeoutSeconds == 0 {
		c.Upstream.HealthTimeoutSeconds = 5
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is writable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o022 != 0 {
		logger.Warn("config file is writable by group/others; consider chmod 644",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
