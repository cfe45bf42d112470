package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":8420" {
		t.Errorf("Addr = %q, want :8420", cfg.Server.Addr)
	}
	if cfg.Server.MaxSessions != 64 {
		t.Errorf("MaxSessions = %d, want 64", cfg.Server.MaxSessions)
	}
	if cfg.Server.SessionTTL.Duration() != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.Server.SessionTTL.Duration())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = "127.0.0.1:9000"
session_ttl = "2h"

[cache]
redis_addr = "localhost:6379"
redis_db = 3

[store]
mongo_uri = "mongodb://localhost:27017"

[assets]
url = "https://assets.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.SessionTTL.Duration() != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.Server.SessionTTL.Duration())
	}
	// Unset fields keep their defaults
	if cfg.Server.MaxSessions != 64 {
		t.Errorf("MaxSessions = %d, want default 64", cfg.Server.MaxSessions)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.RedisDB != 3 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q", cfg.Store.MongoURI)
	}
	if cfg.Store.MongoDatabase != "tracewire" {
		t.Errorf("MongoDatabase = %q, want default tracewire", cfg.Store.MongoDatabase)
	}
	if cfg.Assets.URL != "https://assets.example.com" {
		t.Errorf("Assets.URL = %q", cfg.Assets.URL)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr=:"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed config should error")
	}
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/xdg/tracewire/config.toml" {
		t.Errorf("path = %q", path)
	}
}

func TestCacheDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdgcache")
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdgcache/tracewire" {
		t.Errorf("dir = %q", dir)
	}
}
