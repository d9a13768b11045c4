package llmclient

import "context"

type freshKey struct{}

// WithFresh marks ctx so image requests skip memoized results and reach
// the backend. Regeneration uses it: the prompt is unchanged but a new
// image is wanted.
func WithFresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

// IsFresh reports whether ctx was marked with WithFresh.
func IsFresh(ctx context.Context) bool {
	v, _ := ctx.Value(freshKey{}).(bool)
	return v
}
