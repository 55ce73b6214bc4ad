package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldHost      = "host"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID = "user_id"

	// Service
	FieldService = "service"

	// Realtime
	FieldEvent = "event"
	FieldState = "state"
	FieldChat  = "chat_id"

	// Upload
	FieldUploadID   = "upload_id"
	FieldTempID     = "temp_id"
	FieldFileName   = "file_name"
	FieldPartNumber = "part_number"
	FieldParts      = "parts"
)
