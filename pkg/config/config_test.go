package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/layout"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("", false)
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}
	if got := cfg.Collab.ConflictWindow(); got != collab.DefaultWindow {
		t.Errorf("window = %+v, want %+v", got, collab.DefaultWindow)
	}
	if cfg.Layout.DefaultAlgorithm() != layout.Default {
		t.Errorf("algorithm = %q", cfg.Layout.DefaultAlgorithm())
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(`
[layout]
algorithm = "radial"
level_spacing = 240.0

[collab]
window = "3s"
depth = 20
resolver = "manual"

[cache]
backend = "redis"
ttl = "1h"
[cache.redis]
addr = "localhost:6379"

[log]
level = "debug"
format = "json"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Layout.Algorithm != "radial" || cfg.Layout.LevelSpacing != 240 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Layout.SiblingSpacing != layout.DefaultConfig().SiblingSpacing {
		t.Error("unset layout field lost its default")
	}
	if w := cfg.Collab.ConflictWindow(); w.Duration != 3*time.Second || w.Depth != 20 {
		t.Errorf("window = %+v", w)
	}
	if _, ok := cfg.Collab.ConflictResolver().(collab.Manual); !ok {
		t.Errorf("resolver = %T, want collab.Manual", cfg.Collab.ConflictResolver())
	}
	if cfg.Cache.TTL != time.Hour || cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Log.LogLevel().String() != "debug" {
		t.Errorf("level = %v", cfg.Log.LogLevel())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, toml, want string
	}{
		{"unknown key", "[layout]\nalgoritm = \"radial\"\n", "unknown key"},
		{"bad algorithm", "[layout]\nalgorithm = \"spiral\"\n", "must be one of"},
		{"negative spacing", "[layout]\nlevel_spacing = -1.0\n", "spacing"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", "cache.redis.addr is required"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n", "store.mongo.uri is required"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level must be one of"},
		{"syntax", "[layout\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Parse = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}

	missing := filepath.Join(dir, "nope.toml")
	if _, err := Load(missing, true); err != nil {
		t.Errorf("Load(missing, optional) = %v", err)
	}
	if _, err := Load(missing, false); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) = %v, want INVALID_CONFIG", err)
	}
}
