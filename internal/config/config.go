// Package config loads the tracewire configuration file.
//
// Configuration is TOML at ~/.config/tracewire/config.toml (or
// $XDG_CONFIG_HOME/tracewire/config.toml). Every field has a working
// default; a missing file is not an error, so the CLI runs unconfigured
// out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// appName is the application name used for directories.
const appName = "tracewire"

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Assets AssetsConfig `toml:"assets"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	MaxSessions int      `toml:"max_sessions"`
	SessionTTL  duration `toml:"session_ttl"`
}

// CacheConfig configures the render-artifact cache. When RedisAddr is set
// the server uses Redis; otherwise a file cache under Dir.
type CacheConfig struct {
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// StoreConfig configures snapshot and template persistence. When MongoURI
// is set the server uses MongoDB; otherwise msgpack files under Dir.
type StoreConfig struct {
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// AssetsConfig configures the optional remote asset catalog.
type AssetsConfig struct {
	URL string `toml:"url"`
}

// duration wraps time.Duration for TOML string values like "30m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8420",
			MaxSessions: 64,
			SessionTTL:  duration(30 * time.Minute),
		},
		Store: StoreConfig{
			MongoDatabase: appName,
		},
	}
}

// DefaultPath returns the standard config file location
// ($XDG_CONFIG_HOME/tracewire/config.toml, falling back to
// ~/.config/tracewire/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Resolve returns the persistence directory, defaulting to the same
// location the file store uses when none is configured.
func (c StoreConfig) Resolve() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "store"), nil
}

// CacheDir returns the artifact cache directory using the XDG standard
// (~/.cache/tracewire/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the configuration from path, layering it over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the configuration from the standard location.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}
