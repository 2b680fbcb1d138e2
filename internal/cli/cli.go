package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/archive"
	"github.com/meshview/meshview/pkg/buildinfo"
	"github.com/meshview/meshview/pkg/cache"
	"github.com/meshview/meshview/pkg/config"
	"github.com/meshview/meshview/pkg/engine"
	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/provider"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "meshview"

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

	// configPath is the value of the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "meshview",
		Short:        "Meshview visualizes radio mesh network topology",
		Long:         `Meshview is a CLI tool for watching, serving, and rendering the live topology of a radio mesh network, including signal quality, multi-hop routes, and bridge links.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to config file (TOML)")

	// Register all subcommands
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config file named by --config, or defaults.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// =============================================================================
// Engine Factory
// =============================================================================

// newEngine wires provider, cache, and archive into an engine per cfg.
// The returned cleanup releases the cache and archive backends.
func (c *CLI) newEngine(ctx context.Context, cfg config.Config, noCache bool) (*engine.Engine, func(), error) {
	ca, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}

	prov, err := provider.NewClient(provider.ClientConfig{
		BaseURL:  cfg.Provider.URL,
		Token:    cfg.Provider.Token,
		Window:   cfg.Provider.Window,
		Timeout:  cfg.Provider.Timeout.Std(),
		Cache:    ca,
		CacheTTL: cfg.Cache.TTL.Std(),
	})
	if err != nil {
		ca.Close()
		return nil, nil, err
	}

	store, err := c.newArchive(ctx, cfg)
	if err != nil {
		ca.Close()
		return nil, nil, err
	}

	eng, err := engine.New(engine.Options{
		Provider: prov,
		Build:    cfg.BuildOptions(),
		MaxHops:  cfg.Refresh.MaxHops,
		Interval: cfg.Refresh.Interval.Std(),
		Archive:  store,
		Logger:   c.Logger,
	})
	if err != nil {
		ca.Close()
		if store != nil {
			_ = store.Close(ctx)
		}
		return nil, nil, err
	}

	cleanup := func() {
		ca.Close()
		if store != nil {
			_ = store.Close(context.Background())
		}
	}
	return eng, cleanup, nil
}

// newCache creates the cache backend per cfg.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// newArchive creates the snapshot store, or nil when archiving is off.
func (c *CLI) newArchive(ctx context.Context, cfg config.Config) (archive.Store, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	if cfg.Archive.MongoURI == "" {
		c.Logger.Warn("archive enabled without mongo_uri, history is kept in memory only")
		return archive.NewMemoryStore(), nil
	}
	return archive.NewMongoStore(ctx, cfg.Archive.MongoURI, cfg.Archive.Database, cfg.Archive.Collection)
}

// openArchive opens the configured archive store for the history command.
// Unlike newArchive it refuses to run without a durable backend.
func (c *CLI) openArchive(ctx context.Context, cfg config.Config) (archive.Store, error) {
	if !cfg.Archive.Enabled {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "archive is disabled, set [archive] enabled = true")
	}
	if cfg.Archive.MongoURI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "history requires [archive] mongo_uri")
	}
	return archive.NewMongoStore(ctx, cfg.Archive.MongoURI, cfg.Archive.Database, cfg.Archive.Collection)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/meshview/).
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
