// Package cli implements the mindweave command-line interface.
//
// Maps are kept in the store selected by the configuration file (a directory
// of JSON snapshots by default) and addressed by name. Each command loads the
// named map into an engine, applies its edit or query, and saves the result
// back when the map changed.
//
// # Commands
//
//   - new, add, rm, list: create, edit and enumerate maps
//   - show, search, path: inspect a map
//   - layout, export: position nodes and render DOT, SVG or PNG
//   - validate: check a map or snapshot file for integrity violations
//   - serve: expose a map over the read-only HTTP API
//   - cache: inspect or clear the local layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The level and
// format otherwise come from the [log] section of the configuration.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindweave/pkg/buildinfo"
	"github.com/matzehuels/mindweave/pkg/cache"
	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/config"
	"github.com/matzehuels/mindweave/pkg/engine"
	"github.com/matzehuels/mindweave/pkg/snapshot"
	"github.com/matzehuels/mindweave/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "mindweave"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	userID     string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. Debug takes precedence over the
// level in the configuration file.
func (c *CLI) SetLogLevel(level log.Level) {
	c.verbose = level <= log.DebugLevel
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mindweave edits and lays out collaborative mind maps",
		Long:         `Mindweave is a mind-map engine: a tree of ideas with typed cross-links, a collaborative operation log with undo, automatic layouts and Graphviz export.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&c.userID, "user", defaultUser(), "user ID recorded on edits")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.rmCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration and Backends
// =============================================================================

// loadConfig loads the configuration once. The default path may be missing; an
// explicit --config path may not.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	path, optional := c.configPath, false
	if path == "" {
		path, optional = config.DefaultPath(), true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.SetFormatter(cfg.Log.Formatter())
	if !c.verbose {
		c.Logger.SetLevel(cfg.Log.LogLevel())
	}
	c.cfg = &cfg
	return cfg, nil
}

// openStore opens the configured map store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "mongo":
		return store.DialMongo(ctx, cfg.Store.Mongo)
	default:
		return store.NewFileStore(cfg.Store.Dir)
	}
}

// openCache opens the configured layout cache. A cache that cannot be opened
// is logged and replaced by the null cache.
func (c *CLI) openCache(ctx context.Context, noCache bool) cache.Cache {
	cfg, err := c.loadConfig()
	if err != nil || noCache {
		return cache.NewNullCache()
	}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache()
	case "redis":
		rc, err := cache.DialRedis(ctx, cfg.Cache.Redis)
		if err != nil {
			c.Logger.Warn("redis cache unavailable", "addr", cfg.Cache.Redis.Addr, "err", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache()
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable", "dir", dir, "err", err)
			return cache.NewNullCache()
		}
		return fc
	}
}

// newEngine wraps doc in an engine configured from the conflict window,
// resolver and cache settings. Cache keys are scoped to the map name.
func (c *CLI) newEngine(name string, doc snapshot.Document, lc cache.Cache) (*engine.Engine, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	session := collab.NewSession(
		collab.WithWindow(cfg.Collab.ConflictWindow()),
		collab.WithResolver(cfg.Collab.ConflictResolver()),
		collab.WithLogger(c.Logger),
	)
	opts := []engine.Option{engine.WithLogger(c.Logger), engine.WithSession(session)}
	if lc != nil {
		keyer := cache.NewScopedKeyer(nil, "map:"+name+":")
		opts = append(opts, engine.WithLayoutCache(lc, keyer, cfg.Cache.TTL))
	}
	return engine.FromSnapshot(doc, opts...)
}

// loadMap opens the store and loads the named map into an engine. The caller
// closes the returned store.
func (c *CLI) loadMap(ctx context.Context, name string, lc cache.Cache) (*engine.Engine, store.Store, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	doc, err := st.Get(ctx, name)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	eng, err := c.newEngine(name, doc, lc)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load map %s: %w", name, err)
	}
	c.Logger.Debug("loaded map", "name", name, "nodes", eng.Len(), "branches", len(eng.Branches()))
	return eng, st, nil
}

// saveMap writes the engine's snapshot back under name.
func (c *CLI) saveMap(ctx context.Context, st store.Store, name string, eng *engine.Engine) error {
	if err := st.Put(ctx, name, eng.Snapshot()); err != nil {
		return fmt.Errorf("save map %s: %w", name, err)
	}
	c.Logger.Debug("saved map", "name", name, "version", eng.Version())
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mindweave/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}
