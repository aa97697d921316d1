// Package requestcontext carries request-scoped values set by HTTP middleware.
package requestcontext

import "context"

type contextKey int

const (
	keyRequestID contextKey = iota
	keyClientIP
	keyUserAgent
	keyClientDescriptor
	keyAdminActorID
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the request id or "" outside a request.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, keyRequestID)
}

// WithClientMetadata stores the resolved client address, raw user agent and
// the parsed "Browser on OS" descriptor.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, descriptor string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, clientIP)
	ctx = context.WithValue(ctx, keyUserAgent, userAgent)
	return context.WithValue(ctx, keyClientDescriptor, descriptor)
}

func ClientIP(ctx context.Context) string {
	return stringValue(ctx, keyClientIP)
}

func UserAgent(ctx context.Context) string {
	return stringValue(ctx, keyUserAgent)
}

func ClientDescriptor(ctx context.Context) string {
	return stringValue(ctx, keyClientDescriptor)
}

// WithAdminActorID records which operator performed an administrative call.
func WithAdminActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, keyAdminActorID, actorID)
}

func AdminActorID(ctx context.Context) string {
	return stringValue(ctx, keyAdminActorID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
