package domain

import "context"

type describerUsageKey struct{}

// DescriberUsage collects describer token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the service writes after each describer call; the handler reads it for response headers.
type DescriberUsage struct {
	TotalTokens int
	Calls       int
}

// NewContextWithUsage returns a context with a describer usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *DescriberUsage) {
	u := &DescriberUsage{}
	return context.WithValue(ctx, describerUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *DescriberUsage {
	u, _ := ctx.Value(describerUsageKey{}).(*DescriberUsage)
	return u
}

// AddTokens records one describer call and its tokens. Safe on a nil receiver.
func (u *DescriberUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Calls++
	}
}

// Used reports whether the describer ran during the request.
func (u *DescriberUsage) Used() bool {
	return u != nil && u.Calls > 0
}
