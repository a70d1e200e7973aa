// Package security decides which profiles may write rows owned by another
// profile.
//
// A Checker acts for one current profile. Rows owned by that profile are
// always writable; everything else is decided by a rule, typically a grant
// table read through a query.Connection:
//
//	rule := security.GrantTable(c, "grant", "owner", "grantee")
//	checker := security.NewChecker("alice", security.WithRule(rule),
//	    security.WithCache(security.NewCache(security.WithTTL(time.Minute))))
//	upd := query.NewUpdate(c, query.WithSecurity(checker))
package security

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanadb/yanaq/pkg/query"
)

// RuleFunc reports whether current may write rows owned by target.
type RuleFunc func(ctx context.Context, current, target string) (bool, error)

// Checker implements query.Security.
// Checkers are lightweight and safe to create per request.
type Checker struct {
	profile            string
	rule               RuleFunc
	cache              Cache
	decision           Decision
	useContextDecision bool
	logger             *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithRule sets the rule consulted for foreign profiles. Without a rule
// foreign profiles are denied.
func WithRule(r RuleFunc) Option {
	return func(c *Checker) {
		c.rule = r
	}
}

// WithCache caches rule results, including errors.
func WithCache(cache Cache) Option {
	return func(c *Checker) {
		c.cache = cache
	}
}

// WithDecision sets a decision override that bypasses the rule.
func WithDecision(d Decision) Option {
	return func(c *Checker) {
		c.decision = d
	}
}

// WithContextDecision makes CheckRules consult GetDecisionContext(ctx)
// first. Context decisions are ignored unless this option is set.
func WithContextDecision() Option {
	return func(c *Checker) {
		c.useContextDecision = true
	}
}

// WithLogger logs denials at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChecker creates a checker acting for profile. An empty profile means
// query.DefaultProfile.
func NewChecker(profile string, opts ...Option) *Checker {
	if profile == "" {
		profile = query.DefaultProfile
	}
	c := &Checker{profile: profile, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentProfile returns the profile the checker acts for.
func (c *Checker) CurrentProfile() string {
	return c.profile
}

// CheckRules reports whether the current profile may write rows owned by
// target.
//
// Precedence:
//  1. Context decision, when enabled
//  2. Checker decision
//  3. Ownership: the current profile may always write its own rows
//  4. Cached rule result
//  5. Rule
func (c *Checker) CheckRules(ctx context.Context, target string) (bool, error) {
	if c.useContextDecision {
		switch GetDecisionContext(ctx) {
		case DecisionAllow:
			return true, nil
		case DecisionDeny:
			return false, nil
		}
	}
	switch c.decision {
	case DecisionAllow:
		return true, nil
	case DecisionDeny:
		return false, nil
	}

	if target == "" || target == c.profile {
		return true, nil
	}
	if c.rule == nil {
		c.logger.Debug("foreign profile denied without rule",
			zap.String("profile", c.profile), zap.String("target", target))
		return false, nil
	}

	if c.cache != nil {
		if allowed, err, ok := c.cache.Get(c.profile, target); ok {
			return allowed, err
		}
	}
	allowed, err := c.rule(ctx, c.profile, target)
	if c.cache != nil {
		c.cache.Set(c.profile, target, allowed, err)
	}
	if !allowed && err == nil {
		c.logger.Debug("foreign profile denied",
			zap.String("profile", c.profile), zap.String("target", target))
	}
	return allowed, err
}

// Ensure Checker implements query.Security.
var _ query.Security = (*Checker)(nil)
