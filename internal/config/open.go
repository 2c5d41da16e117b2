package config

import (
	"fmt"
	"log/slog"

	"github.com/roach88/aesprefs/internal/backend"
	"github.com/roach88/aesprefs/internal/clock"
	"github.com/roach88/aesprefs/internal/crypt"
	"github.com/roach88/aesprefs/internal/prefs"
)

// OpenRegistry opens the configured backing store.
func (c *Config) OpenRegistry() (backend.Registry, error) {
	switch c.Backend {
	case "memory":
		return backend.NewMemory(), nil
	case "bolt":
		return backend.OpenBolt(c.Path)
	case "sqlite":
		return backend.OpenSQLite(c.Path)
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

// StoreOptions translates the config into prefs options. logger may be nil.
func (c *Config) StoreOptions(logger *slog.Logger) ([]prefs.Option, error) {
	mode, err := prefs.ParseLogMode(c.LogMode)
	if err != nil {
		return nil, err
	}
	kdf, err := crypt.ParseKDF(c.KDF)
	if err != nil {
		return nil, err
	}

	opts := []prefs.Option{
		prefs.WithLogMode(mode),
		prefs.WithKDF(kdf),
		prefs.WithNormalizedKeys(c.NormalizeKeys),
	}
	if logger != nil {
		opts = append(opts, prefs.WithLogger(logger))
	}
	switch c.IVSource {
	case "", "time":
	case "random":
		opts = append(opts, prefs.WithSeedSource(clock.RandomSource{}))
	default:
		return nil, fmt.Errorf("unknown iv source %q", c.IVSource)
	}
	return opts, nil
}
