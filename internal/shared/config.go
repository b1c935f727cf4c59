package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	Blacklist   BlacklistConfig   `toml:"blacklist"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// PlaylistsConfig identifies the playlists a reconciliation run operates on.
//
// ReferenceID is the transient intake playlist (the stock Release Radar),
// TargetID is the durable playlist that gets rewritten each run, and StockID
// is the read-only playlist the safety guard forbids writing to.
type PlaylistsConfig struct {
	ReferenceID     string `toml:"reference_id"`
	TargetID        string `toml:"target_id"`
	StockID         string `toml:"stock_id"`
	AllowDuplicates bool   `toml:"allow_duplicates"`
}

// BlacklistConfig locates the artist blacklist file.
type BlacklistConfig struct {
	Path string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Spotify credentials left blank in the file are filled from the environment
// (SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET), loading a .env file if present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.fillFromEnv()
	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.fillFromEnv()
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the playlist identifiers required for a run are present
// and that the target is not the stock playlist.
func (c *Config) Validate() error {
	if c.Playlists.ReferenceID == "" {
		return fmt.Errorf("%w: playlists.reference_id is required", ErrInvalidConfig)
	}
	if c.Playlists.TargetID == "" {
		return fmt.Errorf("%w: playlists.target_id is required", ErrInvalidConfig)
	}
	if c.Playlists.StockID != "" && c.Playlists.TargetID == c.Playlists.StockID {
		return fmt.Errorf("%w: playlists.target_id matches playlists.stock_id", ErrStockTarget)
	}
	return nil
}

// applyDefaults fills settings that must never be blank.
func (c *Config) applyDefaults() {
	if c.Credentials.Spotify.TokenPath == "" {
		c.Credentials.Spotify.TokenPath = "token.json"
	}
}

// fillFromEnv backfills blank Spotify credentials from the environment. A .env
// file in the working directory is loaded first when one exists; failure to
// load it is not an error since the variables may already be exported.
func (c *Config) fillFromEnv() {
	if c.Credentials.Spotify.ClientID != "" && c.Credentials.Spotify.ClientSecret != "" {
		return
	}

	_ = godotenv.Load()

	if c.Credentials.Spotify.ClientID == "" {
		c.Credentials.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		c.Credentials.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
}
