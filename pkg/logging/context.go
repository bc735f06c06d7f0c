package logging

import (
	"context"
)

type contextKey string

const (
	TraceIDKey         contextKey = "trace_id"
	MessageIDKey       contextKey = "message_id"
	UniqueMessageIDKey contextKey = "unique_message_id"
	StageKey           contextKey = "stage"
	ServiceNameKey     contextKey = "service_name"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, MessageIDKey, messageID)
}

func WithUniqueMessageID(ctx context.Context, uniqueID string) context.Context {
	return context.WithValue(ctx, UniqueMessageIDKey, uniqueID)
}

// WithStage tags the context with the ingestion stage (Audit, Heartbeat, CustomCheck).
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func GetMessageID(ctx context.Context) string {
	return stringValue(ctx, MessageIDKey)
}

func GetUniqueMessageID(ctx context.Context) string {
	return stringValue(ctx, UniqueMessageIDKey)
}

func GetStage(ctx context.Context) string {
	return stringValue(ctx, StageKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	keys := []contextKey{TraceIDKey, MessageIDKey, UniqueMessageIDKey, StageKey, ServiceNameKey}
	fields := make([]interface{}, 0, len(keys)*2)

	for _, key := range keys {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}

	return fields
}
