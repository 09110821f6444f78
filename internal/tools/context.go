package tools

import "context"

// caseIDKey threads the case id through to tools that need to scope a
// collaborator call to the requesting case (e.g. research_query's rate
// limiter) without widening every tool's Execute signature.
type caseIDKey struct{}

// WithCaseID returns a context carrying caseID, set by the orchestrator
// before dispatching tool calls for a node invocation.
func WithCaseID(ctx context.Context, caseID string) context.Context {
	return context.WithValue(ctx, caseIDKey{}, caseID)
}

// CaseIDFromContext retrieves the case id set by WithCaseID, if any.
func CaseIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(caseIDKey{}).(string)
	return id, ok && id != ""
}
