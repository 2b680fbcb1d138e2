// Package config loads and validates the meshview configuration.
//
// Configuration is a TOML file with sections per concern (provider,
// refresh, filter, cache, archive, api). Every field has a default, so an
// empty file is valid; only the provider URL is required to go online.
// Secrets can be supplied through environment variables so tokens stay out
// of config files:
//
//	MESHVIEW_TOKEN           provider bearer token
//	MESHVIEW_REDIS_PASSWORD  redis cache password
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh/model"
)

// Config is the root configuration.
type Config struct {
	Provider Provider `toml:"provider"`
	Refresh  Refresh  `toml:"refresh"`
	Filter   Filter   `toml:"filter"`
	Cache    CacheCfg `toml:"cache"`
	Archive  Archive  `toml:"archive"`
	API      API      `toml:"api"`
}

// Provider configures the topology backend.
type Provider struct {
	// URL is the API root, e.g. "https://mesh.example.org/api".
	URL string `toml:"url"`

	// Token is the bearer token. Prefer the MESHVIEW_TOKEN env var.
	Token string `toml:"token"`

	// Window is the "last" query window sent to the backend, e.g. "24h".
	Window string `toml:"window"`

	// Timeout bounds one endpoint round trip.
	Timeout duration `toml:"timeout"`
}

// Refresh configures the engine cycle.
type Refresh struct {
	// Interval between automatic refreshes. Zero disables the timer.
	Interval duration `toml:"interval"`

	// MaxHops bounds path searches and reachability expansion.
	MaxHops int `toml:"max_hops"`
}

// Filter configures the snapshot build.
type Filter struct {
	BidirectionalOnly  bool     `toml:"bidirectional_only"`
	IncludeBridge      bool     `toml:"include_bridge"`
	ForceBidirectional bool     `toml:"force_bidirectional"`
	ExcludeMultiHop    bool     `toml:"exclude_multi_hop"`
	NodeWindow         duration `toml:"node_window"`
	LinkWindow         duration `toml:"link_window"`

	// ZeroSignal is "keep" or "suppress" for hops=0 all-zero-metrics links.
	ZeroSignal string `toml:"zero_signal"`
}

// CacheCfg configures response caching.
type CacheCfg struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty uses the user cache dir.
	Dir string `toml:"dir"`

	// TTL is the freshness window for cached responses.
	TTL duration `toml:"ttl"`

	// Redis settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Archive configures snapshot history.
type Archive struct {
	// Enabled turns on per-cycle archiving.
	Enabled bool `toml:"enabled"`

	// MongoURI is the MongoDB connection string. Empty with Enabled uses
	// the in-memory store (history lost on exit).
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`

	// Keep bounds the number of retained records. Zero keeps everything.
	Keep int `toml:"keep"`
}

// API configures the serve command.
type API struct {
	// Listen is the bind address, e.g. ":8080".
	Listen string `toml:"listen"`
}

// duration wraps time.Duration for TOML strings like "30s" or "24h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Provider: Provider{
			Window:  "24h",
			Timeout: duration(15 * time.Second),
		},
		Refresh: Refresh{
			Interval: duration(60 * time.Second),
			MaxHops:  5,
		},
		Filter: Filter{
			IncludeBridge: true,
			ZeroSignal:    string(model.ZeroSignalKeep),
		},
		Cache: CacheCfg{
			Backend: "file",
			TTL:     duration(5 * time.Minute),
		},
		Archive: Archive{
			Database:   "meshview",
			Collection: "snapshots",
		},
		API: API{
			Listen: ":8080",
		},
	}
}

// Load reads the TOML file at path, applies environment overrides, and
// validates. An empty path returns the defaults with env overrides only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MESHVIEW_TOKEN"); v != "" {
		cfg.Provider.Token = v
	}
	if v := os.Getenv("MESHVIEW_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_addr")
	}

	switch model.ZeroSignalPolicy(c.Filter.ZeroSignal) {
	case model.ZeroSignalKeep, model.ZeroSignalSuppress:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "zero_signal must be keep or suppress, got %q", c.Filter.ZeroSignal)
	}

	if c.Refresh.MaxHops < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_hops must not be negative")
	}
	if c.Archive.Enabled && c.Archive.Keep < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "archive keep must not be negative")
	}
	return nil
}

// BuildOptions maps the filter section onto the snapshot build options.
func (c Config) BuildOptions() model.Options {
	return model.Options{
		BidirectionalOnly:  c.Filter.BidirectionalOnly,
		IncludeBridge:      c.Filter.IncludeBridge,
		ForceBidirectional: c.Filter.ForceBidirectional,
		ExcludeMultiHop:    c.Filter.ExcludeMultiHop,
		NodeWindow:         c.Filter.NodeWindow.Std(),
		LinkWindow:         c.Filter.LinkWindow.Std(),
		ZeroSignal:         model.ZeroSignalPolicy(c.Filter.ZeroSignal),
	}
}
