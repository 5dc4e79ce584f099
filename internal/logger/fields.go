package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID or inbound X-Request-ID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldBucket is the bucket the operation targets
	FieldBucket = "bucket"

	// FieldObjectKey is the object key the operation targets
	FieldObjectKey = "object_key"

	// FieldOperation is the storage operation (upload, download, ...)
	FieldOperation = "operation"
)

// Metric fields, attached per entry and used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation or HTTP status
	FieldStatus = "status"
)
