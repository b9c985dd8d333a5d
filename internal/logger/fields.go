package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldPassID is the batch pass ID
	FieldPassID = "pass_id"

	// FieldRecordID is the ingestion record ID
	FieldRecordID = "record_id"

	// FieldContentID is the published content item ID
	FieldContentID = "content_id"

	// FieldPlatform is the source platform identifier
	FieldPlatform = "platform"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldAttempt is the retry attempt index
	FieldAttempt = "attempt"
)
