// Package context carries request-scoped correlation identifiers.
package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	subdomainKey contextKey = "subdomain"
)

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSubdomain stores the tenant routing key on the context.
func WithSubdomain(ctx context.Context, subdomain string) context.Context {
	return context.WithValue(ctx, subdomainKey, subdomain)
}

// SubdomainFromContext returns the tenant routing key, or "".
func SubdomainFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(subdomainKey).(string)
	return s
}
