// Package config provides configuration management for the literature connectors.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/literature-connectors/internal/observability"
)

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "LITCONN"

// Config holds all configuration for the literature connectors.
type Config struct {
	// Server contains HTTP API server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Search contains cross-source search settings.
	Search SearchConfig `mapstructure:"search"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP API port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing a response. Fan-out
	// searches wait on upstream retries, so keep it above the source timeouts.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// SearchConfig holds settings for searches spanning several sources.
type SearchConfig struct {
	// MaxConcurrentSources bounds how many sources one search queries at once.
	MaxConcurrentSources int `mapstructure:"max_concurrent_sources"`
}

// PaperSourcesConfig holds configuration for all paper source APIs.
type PaperSourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv PaperSourceConfig `mapstructure:"arxiv"`
	// PubMed contains PubMed E-utilities settings.
	PubMed PubMedConfig `mapstructure:"pubmed"`
	// EuropePMC contains Europe PMC REST API settings.
	EuropePMC PaperSourceConfig `mapstructure:"europepmc"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g. LITCONN_PAPER_SOURCES_PUBMED_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateCapacity is the number of requests allowed per refill window.
	RateCapacity int `mapstructure:"rate_capacity"`
	// RateRefillInterval is the limiter window.
	RateRefillInterval time.Duration `mapstructure:"rate_refill_interval"`
	// MaxAttempts is the retry budget, first attempt included.
	MaxAttempts int `mapstructure:"max_attempts"`
	// RetryDelay is the delay between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// MaxRetryAfter caps server Retry-After hints. Zero applies them as sent.
	MaxRetryAfter time.Duration `mapstructure:"max_retry_after"`
	// MaxResults is the page size used when a search does not set one.
	MaxResults int `mapstructure:"max_results"`
}

// PubMedConfig adds the NCBI caller identification to the common settings.
type PubMedConfig struct {
	PaperSourceConfig `mapstructure:",squash"`
	// Tool is the tool name sent to NCBI with every request.
	Tool string `mapstructure:"tool"`
	// Email is the contact address sent to NCBI with every request.
	Email string `mapstructure:"email"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Observability converts the logging section for observability.NewLogger.
func (c LoggingConfig) Observability() observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		AddSource:  c.AddSource,
		TimeFormat: c.TimeFormat,
	}
}

// Load loads configuration from defaults, an optional YAML file and
// LITCONN_ environment variables. An empty path searches the default
// locations; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/literature-connectors")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets come exclusively from the environment.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.PaperSources.ArXiv.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_ARXIV_API_KEY")
	cfg.PaperSources.PubMed.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_PUBMED_API_KEY")
	cfg.PaperSources.EuropePMC.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_EUROPEPMC_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "literature_connectors")

	v.SetDefault("search.max_concurrent_sources", 3)

	// arXiv asks clients for one request every three seconds.
	setSourceDefaults(v, "arxiv", "https://export.arxiv.org/api", 1, "3s", 100)

	// NCBI allows 3 req/sec without an API key. With a key raise rate_capacity to 10.
	setSourceDefaults(v, "pubmed", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils", 3, "1s", 100)
	v.SetDefault("paper_sources.pubmed.tool", "helixir-litconnect")
	v.SetDefault("paper_sources.pubmed.email", "")

	setSourceDefaults(v, "europepmc", "https://www.ebi.ac.uk/europepmc/webservices/rest", 10, "1s", 25)
}

func setSourceDefaults(v *viper.Viper, name, baseURL string, capacity int, refill string, maxResults int) {
	prefix := "paper_sources." + name + "."
	v.SetDefault(prefix+"enabled", true)
	v.SetDefault(prefix+"base_url", baseURL)
	v.SetDefault(prefix+"timeout", "30s")
	v.SetDefault(prefix+"rate_capacity", capacity)
	v.SetDefault(prefix+"rate_refill_interval", refill)
	v.SetDefault(prefix+"max_attempts", 3)
	v.SetDefault(prefix+"retry_delay", "1s")
	v.SetDefault(prefix+"max_retry_after", "60s")
	v.SetDefault(prefix+"max_results", maxResults)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Search.MaxConcurrentSources < 0 {
		return fmt.Errorf("search max_concurrent_sources must not be negative")
	}

	sources := map[string]PaperSourceConfig{
		"arxiv":     c.PaperSources.ArXiv,
		"pubmed":    c.PaperSources.PubMed.PaperSourceConfig,
		"europepmc": c.PaperSources.EuropePMC,
	}
	for name, src := range sources {
		if err := src.validate(); err != nil {
			return fmt.Errorf("paper source %s: %w", name, err)
		}
	}

	return nil
}

func (c PaperSourceConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RateCapacity <= 0 {
		return fmt.Errorf("rate_capacity must be positive")
	}
	if c.RateRefillInterval <= 0 {
		return fmt.Errorf("rate_refill_interval must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry_delay must be positive")
	}
	if c.MaxRetryAfter < 0 {
		return fmt.Errorf("max_retry_after must not be negative")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive")
	}
	return nil
}
