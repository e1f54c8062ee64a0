package rbac

import "context"

type resolutionContextKey struct{}

// ContextWithResolution stores the request's resolution.
func ContextWithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, res)
}

// ResolutionFromContext returns the stored resolution or a pending one.
func ResolutionFromContext(ctx context.Context) Resolution {
	res, _ := ctx.Value(resolutionContextKey{}).(Resolution)
	return res
}
