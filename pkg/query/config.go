package query

import (
	"context"

	"go.uber.org/zap"
)

// DefaultProfile is the profile used when no Security service is configured.
const DefaultProfile = "default"

// Config holds the settings shared by every statement built from it.
// Sub-queries created internally inherit the configuration of their parent.
type Config struct {
	// Strict rejects references to columns the schema does not define.
	Strict bool
	// TablePrefix is prepended to every rendered table name.
	TablePrefix string
	// Inheritance is the initial value of the statement's inheritance flag.
	Inheritance bool
	Logger      *zap.Logger
	Security    Security
	Files       FileStore
}

// Option configures a statement.
type Option func(*Config)

// WithStrict enables or disables strict column validation. Enabled by default.
func WithStrict(strict bool) Option {
	return func(c *Config) {
		c.Strict = strict
	}
}

// WithTablePrefix sets the prefix applied to rendered table names.
func WithTablePrefix(prefix string) Option {
	return func(c *Config) {
		c.TablePrefix = prefix
	}
}

// WithInheritance sets whether parent tables are joined automatically.
// Enabled by default.
func WithInheritance(enabled bool) Option {
	return func(c *Config) {
		c.Inheritance = enabled
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithSecurity sets the profile service consulted for profile tables.
func WithSecurity(s Security) Option {
	return func(c *Config) {
		c.Security = s
	}
}

// WithFiles sets the store used to remove files of deleted or replaced values.
func WithFiles(f FileStore) Option {
	return func(c *Config) {
		c.Files = f
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

func newConfig(opts []Option) Config {
	cfg := Config{Strict: true, Inheritance: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

func (c Config) currentProfile() string {
	if c.Security == nil {
		return DefaultProfile
	}
	if p := c.Security.CurrentProfile(); p != "" {
		return p
	}
	return DefaultProfile
}

func (c Config) checkRules(ctx context.Context, profile string) (bool, error) {
	if c.Security == nil {
		return true, nil
	}
	return c.Security.CheckRules(ctx, profile)
}
