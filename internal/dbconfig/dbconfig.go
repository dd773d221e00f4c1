// Package dbconfig holds the configuration value that parameterizes a
// kernel.DB, grounded on the layered defaults-then-overrides pattern of the
// teacher's internal/config package. Unlike that package, there is no
// environment or file layer in the kernel itself — that belongs to the
// demo CLI (cmd/entitydb-demo), which loads a dbconfig.Config from viper and
// passes it down.
package dbconfig

import "fmt"

// OptimizeThresholdDefault is the default deletion-count threshold at which
// Optimize will compact an index.
const OptimizeThresholdDefault = 1024

// Config is the compile-time configuration of a kernel.DB. It is immutable
// once passed to kernel.New: mutating a Config after that point has no
// effect on the DB it configured.
type Config struct {
	// MaxAttachedObjectTypes is the bit-width of every mask and the hard
	// ceiling on distinct registered attached-object types. Must be a
	// positive multiple of 64.
	MaxAttachedObjectTypes int

	// UseAttachedObjectDB selects the per-type indices as the query and
	// iteration domain. If false, Query is unavailable (a fatal
	// capability_violation) and ForEach iterates the entity index. The
	// per-type indices are still filled either way; this setting does not
	// stop them from being maintained.
	UseAttachedObjectDB bool

	// UseEntityDB enables the flat entity index used as ForEach's iteration
	// domain when UseAttachedObjectDB is false. While UseAttachedObjectDB is
	// true, ForEach walks the smallest of its argument types' indices even
	// when all of them are empty, and never this index.
	UseEntityDB bool

	// AllowRefCountingOnEntities enables strong entity refcounts and
	// DuplicateTrackingReference.
	AllowRefCountingOnEntities bool

	// OptimizeThreshold is the deletion count an index must exceed before
	// Optimize(force=false) compacts it.
	OptimizeThreshold int64
}

// Option configures a Config being built by New.
type Option func(*Config)

// WithMaxAttachedObjectTypes overrides the default bit width (256).
func WithMaxAttachedObjectTypes(n int) Option {
	return func(c *Config) { c.MaxAttachedObjectTypes = n }
}

// WithAttachedObjectDB toggles the per-type index.
func WithAttachedObjectDB(enabled bool) Option {
	return func(c *Config) { c.UseAttachedObjectDB = enabled }
}

// WithEntityDB toggles the entity index.
func WithEntityDB(enabled bool) Option {
	return func(c *Config) { c.UseEntityDB = enabled }
}

// WithRefCounting toggles strong entity refcounts.
func WithRefCounting(enabled bool) Option {
	return func(c *Config) { c.AllowRefCountingOnEntities = enabled }
}

// WithOptimizeThreshold overrides the default compaction threshold (1024).
func WithOptimizeThreshold(n int64) Option {
	return func(c *Config) { c.OptimizeThreshold = n }
}

// New returns a Config with the documented defaults (256-bit masks, both
// indices enabled, refcounting enabled, 1024 deletion threshold), then
// applies opts in order.
func New(opts ...Option) Config {
	c := Config{
		MaxAttachedObjectTypes:     256,
		UseAttachedObjectDB:        true,
		UseEntityDB:                true,
		AllowRefCountingOnEntities: true,
		OptimizeThreshold:          OptimizeThresholdDefault,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate reports a non-nil error if the configuration is self-inconsistent.
func (c Config) Validate() error {
	if c.MaxAttachedObjectTypes <= 0 || c.MaxAttachedObjectTypes%64 != 0 {
		return fmt.Errorf("dbconfig: max attached-object types must be a positive multiple of 64, got %d", c.MaxAttachedObjectTypes)
	}
	if c.OptimizeThreshold < 0 {
		return fmt.Errorf("dbconfig: optimize threshold must be non-negative, got %d", c.OptimizeThreshold)
	}
	return nil
}
