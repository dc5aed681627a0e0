// Package config provides configuration management for the application.
//
// Values are resolved in this order, highest first:
//  1. environment variables (including those loaded from .env)
//  2. the optional YAML file named by CHATHUB_CONFIG (default config.yaml)
//  3. built-in defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the HTTP listen port.
	DefaultPort = "8080"
	// DefaultBodySizeLimit caps request bodies at 10MB.
	DefaultBodySizeLimit int64 = 10 << 20
	// MaxBodySizeLimit is the largest accepted BODY_SIZE_LIMIT (1GB).
	MaxBodySizeLimit int64 = 1 << 30
	// DefaultMetricsEndpoint is where Prometheus metrics are served when enabled.
	DefaultMetricsEndpoint = "/metrics"

	// DefaultContextWindow is the number of most recent messages sent to a vendor.
	DefaultContextWindow = 10
	// DefaultMaxOutputTokens caps every generated reply.
	DefaultMaxOutputTokens = 1024
	// DefaultTemperature is the sampling temperature sent to vendors.
	DefaultTemperature = 0.7

	// DefaultHTTPTimeout bounds a whole vendor call.
	DefaultHTTPTimeout = 600 * time.Second

	configFileEnv     = "CHATHUB_CONFIG"
	defaultConfigFile = "config.yaml"
)

// KnownProviders lists the supported vendors and the environment variables
// holding their credentials.
var KnownProviders = []struct {
	Type      string
	APIKeyEnv string
}{
	{"deepseek", "DEEPSEEK_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"gemini", "GEMINI_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"xai", "XAI_API_KEY"},
}

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Metrics MetricsConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Chat    ChatConfig
	// Providers holds one entry per known vendor, keyed by provider type.
	// Entries exist even without a credential.
	Providers map[string]ProviderConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// MasterKey, when set, is required as a bearer token on /api routes.
	MasterKey     string
	BodySizeLimit int64
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// LogConfig selects the log level and output format ("text", "json" or "" for auto).
type LogConfig struct {
	Level  string
	Format string
}

// HTTPConfig holds the timeouts of the outbound vendor client.
type HTTPConfig struct {
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
}

// ChatConfig holds the generation policy applied to every vendor call.
type ChatConfig struct {
	ContextWindow   int
	MaxOutputTokens int
	Temperature     float64
}

// ProviderConfig holds one vendor's credential.
type ProviderConfig struct {
	Type   string
	APIKey string
	// BaseURL replaces the compiled-in vendor endpoint. Load never sets it;
	// it exists so tests can point an adapter at a local server.
	BaseURL string
}

// fileConfig is the YAML layout. Scalars are kept as strings and go through
// the same parsing as environment variables.
type fileConfig struct {
	Server struct {
		Port          string `yaml:"port"`
		MasterKey     string `yaml:"master_key"`
		BodySizeLimit string `yaml:"body_size_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled  string `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	HTTP struct {
		Timeout               string `yaml:"timeout"`
		ResponseHeaderTimeout string `yaml:"response_header_timeout"`
	} `yaml:"http"`
	Chat struct {
		ContextWindow   string `yaml:"context_window"`
		MaxOutputTokens string `yaml:"max_output_tokens"`
		Temperature     string `yaml:"temperature"`
	} `yaml:"chat"`
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
}

// envKeys maps each environment key to its value in the YAML file.
func (f *fileConfig) envKeys() map[string]string {
	keys := map[string]string{
		"PORT":                         f.Server.Port,
		"CHATHUB_MASTER_KEY":           f.Server.MasterKey,
		"BODY_SIZE_LIMIT":              f.Server.BodySizeLimit,
		"METRICS_ENABLED":              f.Metrics.Enabled,
		"METRICS_ENDPOINT":             f.Metrics.Endpoint,
		"LOG_LEVEL":                    f.Log.Level,
		"LOG_FORMAT":                   f.Log.Format,
		"HTTP_TIMEOUT":                 f.HTTP.Timeout,
		"HTTP_RESPONSE_HEADER_TIMEOUT": f.HTTP.ResponseHeaderTimeout,
		"CHAT_CONTEXT_WINDOW":          f.Chat.ContextWindow,
		"CHAT_MAX_OUTPUT_TOKENS":       f.Chat.MaxOutputTokens,
		"CHAT_TEMPERATURE":             f.Chat.Temperature,
	}
	for _, kp := range KnownProviders {
		if p, ok := f.Providers[kp.Type]; ok {
			keys[kp.APIKeyEnv] = p.APIKey
		}
	}
	return keys
}

// Load reads configuration from .env, the optional YAML file and the environment.
func Load() (*Config, error) {
	// .env is optional; variables already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("BODY_SIZE_LIMIT", strconv.FormatInt(DefaultBodySizeLimit, 10))
	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_ENDPOINT", DefaultMetricsEndpoint)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", DefaultHTTPTimeout.String())
	v.SetDefault("HTTP_RESPONSE_HEADER_TIMEOUT", DefaultHTTPTimeout.String())
	v.SetDefault("CHAT_CONTEXT_WINDOW", DefaultContextWindow)
	v.SetDefault("CHAT_MAX_OUTPUT_TOKENS", DefaultMaxOutputTokens)
	v.SetDefault("CHAT_TEMPERATURE", DefaultTemperature)

	if err := applyConfigFile(v); err != nil {
		return nil, err
	}

	// Enable automatic environment variable reading
	v.AutomaticEnv()

	bodySizeLimit, err := bytes.Parse(v.GetString("BODY_SIZE_LIMIT"))
	if err != nil {
		return nil, fmt.Errorf("invalid BODY_SIZE_LIMIT: %w", err)
	}
	timeout, err := parseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	headerTimeout, err := parseDuration(v.GetString("HTTP_RESPONSE_HEADER_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_RESPONSE_HEADER_TIMEOUT: %w", err)
	}
	contextWindow, err := strconv.Atoi(strings.TrimSpace(v.GetString("CHAT_CONTEXT_WINDOW")))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_CONTEXT_WINDOW: %w", err)
	}
	maxOutputTokens, err := strconv.Atoi(strings.TrimSpace(v.GetString("CHAT_MAX_OUTPUT_TOKENS")))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_MAX_OUTPUT_TOKENS: %w", err)
	}
	temperature, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("CHAT_TEMPERATURE")), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_TEMPERATURE: %w", err)
	}
	metricsEnabled, err := strconv.ParseBool(strings.TrimSpace(v.GetString("METRICS_ENABLED")))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetString("PORT"),
			MasterKey:     v.GetString("CHATHUB_MASTER_KEY"),
			BodySizeLimit: bodySizeLimit,
		},
		Metrics: MetricsConfig{
			Enabled:  metricsEnabled,
			Endpoint: v.GetString("METRICS_ENDPOINT"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		HTTP: HTTPConfig{
			Timeout:               timeout,
			ResponseHeaderTimeout: headerTimeout,
		},
		Chat: ChatConfig{
			ContextWindow:   contextWindow,
			MaxOutputTokens: maxOutputTokens,
			Temperature:     temperature,
		},
		Providers: make(map[string]ProviderConfig, len(KnownProviders)),
	}
	for _, kp := range KnownProviders {
		cfg.Providers[kp.Type] = ProviderConfig{
			Type:   kp.Type,
			APIKey: strings.TrimSpace(v.GetString(kp.APIKeyEnv)),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConfigFile layers the YAML file, if any, over the built-in defaults.
func applyConfigFile(v *viper.Viper) error {
	path := os.Getenv(configFileEnv)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(expandString(string(data))), &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for key, value := range fc.envKeys() {
		if value != "" {
			v.SetDefault(key, value)
		}
	}
	slog.Debug("config file loaded", "path", path)
	return nil
}

// expandString replaces ${VAR} and ${VAR:-default} with environment values.
// An unset ${VAR} without a default is left as-is.
func expandString(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start

		b.WriteString(s[:start])
		expr := s[start+2 : end]
		name, def, hasDefault := strings.Cut(expr, ":-")
		if value, ok := os.LookupEnv(name); ok && value != "" {
			b.WriteString(value)
		} else if hasDefault {
			b.WriteString(def)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}

// parseDuration accepts plain integers (seconds) or Go duration strings ("90s", "10m").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a TCP port number, got %q", c.Server.Port))
	}
	if c.Server.BodySizeLimit <= 0 || c.Server.BodySizeLimit > MaxBodySizeLimit {
		errs = append(errs, fmt.Errorf("BODY_SIZE_LIMIT must be between 1 and %d bytes, got %d", MaxBodySizeLimit, c.Server.BodySizeLimit))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("METRICS_ENDPOINT must start with '/', got %q", c.Metrics.Endpoint))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.HTTP.Timeout <= 0 || c.HTTP.ResponseHeaderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP timeouts must be positive"))
	}
	if c.Chat.ContextWindow <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_CONTEXT_WINDOW must be positive, got %d", c.Chat.ContextWindow))
	}
	if c.Chat.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_MAX_OUTPUT_TOKENS must be positive, got %d", c.Chat.MaxOutputTokens))
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 1 {
		errs = append(errs, fmt.Errorf("CHAT_TEMPERATURE must be between 0 and 1, got %g", c.Chat.Temperature))
	}
	return errors.Join(errs...)
}

// ConfiguredProviders returns the types of vendors that have a credential.
func (c *Config) ConfiguredProviders() []string {
	var out []string
	for _, kp := range KnownProviders {
		if c.Providers[kp.Type].APIKey != "" {
			out = append(out, kp.Type)
		}
	}
	return out
}
