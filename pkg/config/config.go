// Package config loads the optional proctree configuration file.
//
// The file is TOML and every key is optional. Command-line flags override
// values from the file, and the file overrides built-in defaults:
//
//	[view]
//	width = 1280
//	height = 720
//	fill = 0.9
//
//	[tree]
//	engine = "graphviz"
//	guard = "ancestor"
//	root_policy = "virtual"
//
//	[extract]
//	backend = "rows"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "cache.internal:6379"
//
// Unknown keys are rejected so that typos do not go unnoticed.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/proctree/pkg/cache"
	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/pipeline"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config mirrors the config file.
type Config struct {
	View    ViewConfig    `toml:"view"`
	Tree    TreeConfig    `toml:"tree"`
	Extract ExtractConfig `toml:"extract"`
	Cache   CacheConfig   `toml:"cache"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// ViewConfig sets the viewport the tree is fitted into.
type ViewConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Fill   float64 `toml:"fill"`
}

// TreeConfig sets how graphs are reduced and laid out.
type TreeConfig struct {
	Engine     string  `toml:"engine"`
	Guard      string  `toml:"guard"`
	RootPolicy string  `toml:"root_policy"`
	NodeWidth  float64 `toml:"node_width"`
	NodeHeight float64 `toml:"node_height"`
}

// ExtractConfig sets the PDF backend.
type ExtractConfig struct {
	Backend string `toml:"backend"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// DefaultPath returns $XDG_CONFIG_HOME/proctree/config.toml, falling back to
// the platform config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "proctree", FileName), nil
}

// Load reads the config file at path. An empty path loads DefaultPath and
// returns an empty config when that file does not exist; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !explicit {
				return &Config{}, nil
			}
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, perrors.Wrap(perrors.GetCode(err), err, "config %s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates config file contents.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every value the file sets.
func (c *Config) Validate() error {
	opts := c.Options()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if c.Cache.Backend != "" && !slices.Contains(cache.Backends, c.Cache.Backend) {
		return perrors.New(perrors.ErrCodeInvalidConfig, "invalid cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// Options returns pipeline options for the configured values. Unset values
// stay zero so that pipeline defaults apply.
func (c *Config) Options() pipeline.Options {
	return pipeline.Options{
		Guard:      hierarchy.CycleGuard(c.Tree.Guard),
		RootPolicy: hierarchy.RootPolicy(c.Tree.RootPolicy),
		Engine:     c.Tree.Engine,
		NodeWidth:  c.Tree.NodeWidth,
		NodeHeight: c.Tree.NodeHeight,
		Width:      c.View.Width,
		Height:     c.View.Height,
		Fill:       c.View.Fill,
		Backend:    c.Extract.Backend,
	}
}

// CacheOptions returns the options for cache.New.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
	}
}

// OpenCache opens the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	return cache.New(ctx, c.CacheOptions())
}
