// Package config loads mindweave settings from a TOML file.
//
// Defaults come first and the file overrides them field by field, so a file
// only needs the settings it changes:
//
//	[layout]
//	algorithm = "radial"
//	level_spacing = 240.0
//
//	[collab]
//	window = "3s"
//	depth = 20
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
//
// Unknown keys are rejected so typos do not pass silently. The merged
// configuration is validated with struct tags and then by the owning
// packages (for example [layout.Config.Validate]).
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindweave/pkg/cache"
	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/layout"
	"github.com/matzehuels/mindweave/pkg/store"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "MINDWEAVE_CONFIG"

// Config is the complete configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Collab CollabConfig `toml:"collab"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// LayoutConfig selects the default layout algorithm and its parameters.
type LayoutConfig struct {
	Algorithm string `toml:"algorithm" validate:"omitempty,oneof=mindmap radial tree organic force circle grid"`
	layout.Config
}

// CollabConfig tunes the conflict window.
type CollabConfig struct {
	Window   time.Duration `toml:"window" validate:"gte=0"`
	Depth    int           `toml:"depth" validate:"gte=0"`
	Resolver string        `toml:"resolver" validate:"oneof=last-write-wins manual"`
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend string            `toml:"backend" validate:"oneof=none file redis"`
	Dir     string            `toml:"dir"`
	TTL     time.Duration     `toml:"ttl" validate:"gte=0"`
	Redis   cache.RedisConfig `toml:"redis" validate:"-"`
}

// StoreConfig selects where maps are saved.
type StoreConfig struct {
	Backend string            `toml:"backend" validate:"oneof=memory file mongo"`
	Dir     string            `toml:"dir"`
	Mongo   store.MongoConfig `toml:"mongo" validate:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr" validate:"required"`
	ReadTimeout     time.Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `toml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" validate:"gte=0"`
	Metrics         bool          `toml:"metrics"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json logfmt"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: LayoutConfig{Algorithm: string(layout.Default), Config: layout.DefaultConfig()},
		Collab: CollabConfig{
			Window:   collab.DefaultWindow.Duration,
			Depth:    collab.DefaultWindow.Depth,
			Resolver: "last-write-wins",
		},
		Cache: CacheConfig{Backend: "file", TTL: 24 * time.Hour},
		Store: StoreConfig{Backend: "file", Mongo: store.MongoConfig{Collection: store.DefaultCollection}},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultPath returns ~/.config/mindweave/config.toml, or the value of
// MINDWEAVE_CONFIG when set.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mindweave", "config.toml")
}

// Load reads path over the defaults and validates the result. An empty path
// returns the validated defaults. A missing file is an error unless
// optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown key %s", undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConflictWindow returns the session conflict window.
func (c CollabConfig) ConflictWindow() collab.Window {
	return collab.Window{Duration: c.Window, Depth: c.Depth}
}

// ConflictResolver returns the configured resolver.
func (c CollabConfig) ConflictResolver() collab.ConflictResolver {
	if c.Resolver == "manual" {
		return collab.Manual{}
	}
	return collab.LastWriteWins{}
}

// DefaultAlgorithm returns the configured layout algorithm.
func (c LayoutConfig) DefaultAlgorithm() layout.Algorithm {
	if c.Algorithm == "" {
		return layout.Default
	}
	return layout.Algorithm(c.Algorithm)
}

// LogLevel returns the configured level.
func (c LogConfig) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Formatter returns the configured log formatter.
func (c LogConfig) Formatter() log.Formatter {
	switch c.Format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
