package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	envClientID     = "SPOTIFY_CLIENT_ID"
	envClientSecret = "SPOTIFY_CLIENT_SECRET"

	placeholderClientID     = "your_spotify_client_id"
	placeholderClientSecret = "your_spotify_client_secret"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Tables      TablesConfig      `toml:"tables"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
	APIURL       string `toml:"api_url"`
}

// TablesConfig names the input and output CSV tables.
type TablesConfig struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`
}

// PipelineConfig controls budgeting, search parameters and request pacing.
type PipelineConfig struct {
	Goal                     int    `toml:"goal"`
	Market                   string `toml:"market"`
	SearchLimit              int    `toml:"search_limit"`
	RequestsPerWindow        int    `toml:"requests_per_window"`
	WindowSeconds            int    `toml:"window_seconds"`
	DefaultRetryAfterSeconds int    `toml:"default_retry_after_seconds"`
	CountFallback            bool   `toml:"count_fallback"`
	MaxAttempts              int    `toml:"max_attempts"`
}

// Window returns the rate window as a [time.Duration].
func (p PipelineConfig) Window() time.Duration {
	return time.Duration(p.WindowSeconds) * time.Second
}

// DefaultRetryAfter returns the 429 wait used when the response carries no Retry-After header.
func (p PipelineConfig) DefaultRetryAfter() time.Duration {
	return time.Duration(p.DefaultRetryAfterSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
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

// LoadEnvFiles loads .env.local then .env into the process environment.
// Variables already set are never overwritten and missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env.local", ".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides Spotify credentials from SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(envClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(envClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
}

// Validate checks that credentials are present and pipeline values are usable.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientID == placeholderClientID {
		return fmt.Errorf("%w: spotify client_id", ErrMissingCredentials)
	}
	if sp.ClientSecret == "" || sp.ClientSecret == placeholderClientSecret {
		return fmt.Errorf("%w: spotify client_secret", ErrMissingCredentials)
	}

	p := c.Pipeline
	switch {
	case p.Goal <= 0:
		return fmt.Errorf("%w: pipeline.goal must be positive", ErrInvalidConfig)
	case p.RequestsPerWindow <= 0:
		return fmt.Errorf("%w: pipeline.requests_per_window must be positive", ErrInvalidConfig)
	case p.WindowSeconds <= 0:
		return fmt.Errorf("%w: pipeline.window_seconds must be positive", ErrInvalidConfig)
	case p.SearchLimit <= 0 || p.SearchLimit > 50:
		return fmt.Errorf("%w: pipeline.search_limit must be between 1 and 50", ErrInvalidConfig)
	}

	if c.Tables.Input == "" || c.Tables.Output == "" {
		return fmt.Errorf("%w: tables.input and tables.output are required", ErrInvalidConfig)
	}

	return nil
}
