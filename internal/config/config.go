package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding the config file
const EnvPrefix = "GRIDDASH"

// Config holds the application configuration
type Config struct {
	Source       string         `yaml:"source,omitempty" split_words:"true"`   // CSV path or URL (fallback: predictions.csv)
	Timezone     string         `yaml:"timezone,omitempty" split_words:"true"` // IANA name used to derive hours (fallback: Local)
	LinePoints   int            `yaml:"line_points,omitempty" split_words:"true" validate:"gte=0"`
	FetchTimeout time.Duration  `yaml:"fetch_timeout,omitempty" split_words:"true" validate:"gte=0"`
	HTTP         HTTPConfig     `yaml:"http,omitempty" split_words:"true"`
	Log          LogConfig      `yaml:"log,omitempty" split_words:"true"`
	MQTT         MQTTConfig     `yaml:"mqtt,omitempty" split_words:"true"`
	Snapshot     SnapshotConfig `yaml:"snapshot,omitempty" split_words:"true"`
}

// HTTPConfig holds the dashboard server settings
type HTTPConfig struct {
	Addr            string        `yaml:"addr,omitempty" split_words:"true"` // e.g., ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" split_words:"true" validate:"gte=0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level,omitempty" split_words:"true" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format,omitempty" split_words:"true" validate:"omitempty,oneof=text json"`
}

// MQTTConfig holds MQTT broker configuration for publishing summaries
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled" split_words:"true"`
	Broker      string `yaml:"broker,omitempty" split_words:"true" validate:"required_if=Enabled true"` // e.g., "localhost:1883"
	Username    string `yaml:"username,omitempty" split_words:"true"`
	Password    string `yaml:"password,omitempty" split_words:"true"`
	TopicPrefix string `yaml:"topic_prefix,omitempty" split_words:"true"`
	ClientID    string `yaml:"client_id,omitempty" split_words:"true"`
}

// SnapshotConfig holds headless browser settings for dashboard screenshots
type SnapshotConfig struct {
	Visible bool          `yaml:"visible,omitempty" split_words:"true"`
	Timeout time.Duration `yaml:"timeout,omitempty" split_words:"true" validate:"gte=0"`
	Width   int           `yaml:"width,omitempty" split_words:"true" validate:"gte=0"`
	Height  int           `yaml:"height,omitempty" split_words:"true" validate:"gte=0"`
}

// Load reads the config file, applies environment overrides and validates the result
func Load(configPath string) (*Config, error) {
	cfg, err := readFile(configPath)
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Validate checks field constraints and that the timezone exists
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// May hold MQTT credentials
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetSource returns the CSV source, defaulting to predictions.csv
func (c *Config) GetSource() string {
	if strings.TrimSpace(c.Source) == "" {
		return "predictions.csv"
	}
	return c.Source
}

// Location returns the location used to derive record hours
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetLinePoints returns how many records the line chart shows (default 50)
func (c *Config) GetLinePoints() int {
	if c.LinePoints <= 0 {
		return 50
	}
	return c.LinePoints
}

// GetHTTPAddr returns the dashboard listen address
func (c *Config) GetHTTPAddr() string {
	if c.HTTP.Addr == "" {
		return ":8080"
	}
	return c.HTTP.Addr
}

// GetShutdownTimeout returns how long the server waits for in-flight requests
func (c *Config) GetShutdownTimeout() time.Duration {
	if c.HTTP.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return c.HTTP.ShutdownTimeout
}

// GetLogLevel returns the configured log level name
func (c *Config) GetLogLevel() string {
	if c.Log.Level == "" {
		return "info"
	}
	return c.Log.Level
}

// GetLogFormat returns "text" or "json"
func (c *Config) GetLogFormat() string {
	if c.Log.Format == "" {
		return "text"
	}
	return c.Log.Format
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "griddash"
	}
	return c.MQTT.TopicPrefix
}

// GetClientID returns the MQTT client id
func (c *Config) GetClientID() string {
	if c.MQTT.ClientID == "" {
		return "griddash"
	}
	return c.MQTT.ClientID
}

// GetSnapshotTimeout returns the screenshot deadline (default 1 minute)
func (c *Config) GetSnapshotTimeout() time.Duration {
	if c.Snapshot.Timeout <= 0 {
		return time.Minute
	}
	return c.Snapshot.Timeout
}

// GetSnapshotSize returns the browser viewport size
func (c *Config) GetSnapshotSize() (int, int) {
	w, h := c.Snapshot.Width, c.Snapshot.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 900
	}
	return w, h
}
