//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/projgo/projgo/libproj"
)

// Config carries the bridge settings that are usually supplied by the
// deployment environment rather than by code.
type Config struct {
	// PoolCapacity is the context pool ceiling. Defaults to GOMAXPROCS.
	PoolCapacity int `env:"PROJGO_POOL_CAPACITY"`

	// BorrowTimeout bounds the wait for a context when the pool is at
	// capacity. Zero waits indefinitely.
	BorrowTimeout time.Duration `env:"PROJGO_BORROW_TIMEOUT"`

	// SearchPaths lists directories searched for PROJ resource files
	// (proj.db, transformation grids).
	SearchPaths []string `env:"PROJGO_DATA_PATHS" envSeparator:":"`

	// LibraryPath points at the directory holding libproj. It is read by
	// the loader at process start and recorded here for diagnostics.
	LibraryPath string `env:"PROJGO_LIBRARY_PATH"`

	// NativeLogLevel is the PROJ log level installed on pooled contexts.
	NativeLogLevel int32 `env:"PROJGO_NATIVE_LOG_LEVEL"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		PoolCapacity:   runtime.GOMAXPROCS(0),
		NativeLogLevel: libproj.LogError,
	}
}

// ConfigFromEnv reads PROJGO_* environment variables over the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("projgo: parse env: %w", err)
	}
	return cfg, nil
}

// poolOptions translates the config into pool options.
func (c Config) poolOptions() []PoolOption {
	opts := []PoolOption{
		WithCapacity(c.PoolCapacity),
		WithBorrowTimeout(c.BorrowTimeout),
		WithNativeLogLevel(c.NativeLogLevel),
	}
	if len(c.SearchPaths) > 0 {
		opts = append(opts, WithSearchPaths(c.SearchPaths...))
	}
	return opts
}

// NewContextPoolFromEnv builds a pool configured from the environment.
// Options given here override the environment.
func NewContextPoolFromEnv(opts ...PoolOption) (*ContextPool, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewContextPool(append(cfg.poolOptions(), opts...)...)
}
