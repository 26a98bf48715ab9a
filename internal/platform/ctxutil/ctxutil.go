// Package ctxutil carries per-request identity through context.Context.
package ctxutil

import "context"

type (
	traceDataKey struct{}
	authDataKey  struct{}
)

// TraceData identifies one HTTP request across logs and spans.
type TraceData struct {
	TraceID   string
	RequestID string
}

// AuthData is attached by the auth middleware once a bearer token has been verified.
type AuthData struct {
	Subject string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

func WithAuthData(ctx context.Context, ad *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, ad)
}

func GetAuthData(ctx context.Context) *AuthData {
	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		return ad
	}
	return nil
}

// LogFields returns the trace, request and subject key/value pairs present on ctx, ready to append to
// a logger call. Background contexts yield nil.
func LogFields(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	var kv []interface{}
	if td := GetTraceData(ctx); td != nil {
		kv = append(kv, "trace_id", td.TraceID, "request_id", td.RequestID)
	}
	if ad := GetAuthData(ctx); ad != nil {
		kv = append(kv, "subject", ad.Subject)
	}
	return kv
}
