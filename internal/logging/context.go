package logging

import "context"

type contextKey string

const contextFieldsKey contextKey = "microsite.logging.fields"

// ContextWithFields returns a context carrying structured logging fields.
// Fields already stored on the context are kept and overridden key by key.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	existing := ContextFields(ctx)
	merged := make(map[string]any, len(existing)+len(fields))
	for key, value := range existing {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	copied := make(map[string]any, len(fields))
	for key, val := range fields {
		copied[key] = val
	}
	return copied
}

// RequestFields is a shorthand for annotating HTTP request contexts.
func RequestFields(ctx context.Context, requestID, route string) context.Context {
	fields := map[string]any{}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if route != "" {
		fields["route"] = route
	}
	return ContextWithFields(ctx, fields)
}
