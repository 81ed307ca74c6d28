// Package meta carries job and request metadata through context.Context so that
// loggers, tracers and alert providers can enrich what they emit.
package meta

import "context"

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID identifies one unit of work across components.
	TraceID ContextKey = "trace_id"

	// ServiceName identifies the name of current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"

	// QueueName is the queue an item was popped from.
	QueueName ContextKey = "queue_name"

	// OriginQueue is the queue an item was first pushed to.
	OriginQueue ContextKey = "origin_queue"

	// ItemID is the per-queue sequence number of the item being processed.
	ItemID ContextKey = "item_id"

	// Retries is the retry counter of the item being processed.
	Retries ContextKey = "retries"

	// WorkerID identifies the worker instance processing an item.
	WorkerID ContextKey = "worker_id"

	// IPAddress contains the client's IP address of an admin request.
	IPAddress ContextKey = "ip_address"

	// UserAgent contains the user agent string of an admin request.
	UserAgent ContextKey = "user_agent"
)

//nolint:gochecknoglobals // static list of keys extracted for logging
var allKeys = []ContextKey{
	TraceID,
	ServiceName,
	ServiceVersion,
	QueueName,
	OriginQueue,
	ItemID,
	Retries,
	WorkerID,
	IPAddress,
	UserAgent,
}

// InjectMetaToContext adds metadata from the provided map to the context.
// Empty values are skipped.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext returns every known, non-empty metadata value stored in ctx.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range allKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// Find returns the metadata value for key, or an empty string.
func Find(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
