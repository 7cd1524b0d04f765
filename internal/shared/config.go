package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultBaseURLEnv names the environment variable holding the generator base URL.
const DefaultBaseURLEnv = "SHORT_VIDEO_API_URL"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Generator GeneratorConfig `toml:"generator"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// GeneratorConfig contains settings for the short-video generator API.
//
// The base URL itself is never stored in the file: it is read from the
// environment variable named by BaseURLEnv on every request.
type GeneratorConfig struct {
	BaseURLEnv     string   `toml:"base_url_env"`
	RequestTimeout Duration `toml:"request_timeout"`
	LookupTimeout  Duration `toml:"lookup_timeout"`
	DeleteTimeout  Duration `toml:"delete_timeout"`
	BatchWorkers   int      `toml:"batch_workers"`
	BatchRate      float64  `toml:"batch_rate"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so it can be written as "15s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// GeneratorBaseURL reads the generator base URL from the environment.
//
// It is looked up on every call so a missing variable is reported on each request instead of being cached.
func (c *Config) GeneratorBaseURL() (string, error) {
	name := c.Generator.BaseURLEnv
	if name == "" {
		name = DefaultBaseURLEnv
	}
	url := strings.TrimSpace(os.Getenv(name))
	if url == "" {
		return "", fmt.Errorf("%w: %s is not configured. Please set it in the environment variables.", ErrMissingConfig, name)
	}
	return strings.TrimRight(url, "/"), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
