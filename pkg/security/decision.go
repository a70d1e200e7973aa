package security

import "context"

// Decision allows bypassing rules for admin tools and tests.
//
// Decisions come from two layers:
//  1. Checker-level: set via WithDecision at construction
//  2. Context-level: set via WithDecisionContext and honoured only by
//     checkers created with WithContextDecision
type Decision int

// decisionContextKey is a custom type for context keys to avoid collisions.
type decisionContextKey struct{}

var decisionKey = decisionContextKey{}

const (
	// DecisionUnset means no override - consult ownership and rules.
	DecisionUnset Decision = iota

	// DecisionAllow always permits the write.
	DecisionAllow

	// DecisionDeny always refuses the write.
	DecisionDeny
)

// WithDecisionContext returns a new context with the given decision.
func WithDecisionContext(ctx context.Context, decision Decision) context.Context {
	return context.WithValue(ctx, decisionKey, decision)
}

// GetDecisionContext retrieves the decision from context.
// Returns DecisionUnset if no decision is set.
func GetDecisionContext(ctx context.Context) Decision {
	if decision, ok := ctx.Value(decisionKey).(Decision); ok {
		return decision
	}
	return DecisionUnset
}
