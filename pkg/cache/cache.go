// Package cache memoizes layouts and extracted text.
//
// Entries are disposable: every value can be recomputed from its inputs, so
// a miss, an expired entry and a corrupt entry are all treated the same way.
// Three backends implement [Cache]:
//
//   - [FileCache] stores entries under the user cache directory (default)
//   - [RedisCache] stores entries in Redis, for caches shared across machines
//   - [NullCache] stores nothing
//
// Keys come from a [Keyer], which hashes the inputs and options that
// determine a value:
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(cache.Hash(graphJSON), cache.LayoutKeyOpts{Engine: "tidy"})
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	perrors "github.com/matzehuels/proctree/pkg/errors"
)

// Cache stores byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [New].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Backends lists the backend names, default first.
var Backends = []string{BackendFile, BackendRedis, BackendNone}

// DefaultTTL is how long pipeline results are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Options configures [New].
type Options struct {
	Backend   string // file (default), redis or none
	Dir       string // file cache directory, DefaultDir() when empty
	RedisAddr string // host:port of the redis server
	RedisDB   int
}

// New opens the cache backend named in opts.
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = DefaultDir(); err != nil {
				return nil, err
			}
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "open file cache")
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB})
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "connect to redis at %s", opts.RedisAddr)
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown cache backend %q (must be file, redis or none)", opts.Backend)
}

// DefaultDir returns the proctree directory under the user cache directory
// ($XDG_CACHE_HOME on Linux).
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", perrors.Wrap(perrors.ErrCodeInternal, err, "locate cache directory")
	}
	return filepath.Join(base, "proctree"), nil
}
