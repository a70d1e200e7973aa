package security_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanadb/yanaq/pkg/query"
	"github.com/yanadb/yanaq/pkg/security"
)

func countingRule(allowed bool, err error) (security.RuleFunc, *int) {
	calls := 0
	return func(context.Context, string, string) (bool, error) {
		calls++
		return allowed, err
	}, &calls
}

func TestCheckerOwnership(t *testing.T) {
	ctx := context.Background()
	c := security.NewChecker("alice")
	assert.Equal(t, "alice", c.CurrentProfile())

	ok, err := c.CheckRules(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "own rows are writable")

	ok, err = c.CheckRules(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok, "foreign rows need a rule")

	assert.Equal(t, query.DefaultProfile, security.NewChecker("").CurrentProfile())
}

func TestCheckerRule(t *testing.T) {
	ctx := context.Background()
	rule, calls := countingRule(true, nil)
	c := security.NewChecker("alice", security.WithRule(rule))

	ok, err := c.CheckRules(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckRules(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, *calls, "own profile never consults the rule")
}

func TestCheckerCache(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	rule, calls := countingRule(false, boom)
	cache := security.NewCache()
	c := security.NewChecker("alice", security.WithRule(rule), security.WithCache(cache))

	for range 3 {
		ok, err := c.CheckRules(ctx, "bob")
		assert.False(t, ok)
		assert.ErrorIs(t, err, boom, "errors are cached too")
	}
	assert.Equal(t, 1, *calls)
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	_, _ = c.CheckRules(ctx, "bob")
	assert.Equal(t, 2, *calls)
}

func TestCacheTTL(t *testing.T) {
	cache := security.NewCache(security.WithTTL(time.Millisecond))
	cache.Set("alice", "bob", true, nil)
	time.Sleep(5 * time.Millisecond)

	_, _, ok := cache.Get("alice", "bob")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Size())
}

func TestDecisions(t *testing.T) {
	rule, calls := countingRule(true, nil)

	deny := security.NewChecker("alice", security.WithRule(rule), security.WithDecision(security.DecisionDeny))
	ok, err := deny.CheckRules(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok, "checker decision wins over ownership")

	allow := security.NewChecker("alice", security.WithDecision(security.DecisionAllow))
	ok, err = allow.CheckRules(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	denyCtx := security.WithDecisionContext(context.Background(), security.DecisionDeny)

	ignoring := security.NewChecker("alice", security.WithRule(rule))
	ok, err = ignoring.CheckRules(denyCtx, "bob")
	require.NoError(t, err)
	assert.True(t, ok, "context decisions are opt-in")

	honouring := security.NewChecker("alice", security.WithContextDecision(), security.WithDecision(security.DecisionAllow))
	ok, err = honouring.CheckRules(denyCtx, "bob")
	require.NoError(t, err)
	assert.False(t, ok, "context decision wins over checker decision")

	assert.Equal(t, 1, *calls)
	assert.Equal(t, security.DecisionUnset, security.GetDecisionContext(context.Background()))
}
