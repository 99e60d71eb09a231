package protocol

// OutputMessageType defines the message types a printer writes to a client
type OutputMessageType string

const (
	// Merged records
	OutputRecord OutputMessageType = "log.record" // One record in merge order

	// Lifecycle
	OutputDone OutputMessageType = "merge.done" // Merge complete

	// Errors
	OutputError OutputMessageType = "error"
)

// OutputMessage represents a message to client
type OutputMessage struct {
	Type      OutputMessageType `json:"type"`
	ID        string            `json:"id"`    // Server-generated message ID
	RunID     string            `json:"runId"` // Merge run identifier
	Seq       int               `json:"seq"`   // Position in the merged output, starting at 1
	Payload   any               `json:"payload"`
	Timestamp int64             `json:"timestamp"`
}

// RecordPayload for log.record
type RecordPayload struct {
	Time    string `json:"time"`              // RFC 3339 with nanoseconds
	Message string `json:"message,omitempty"` // Log text, when the record carries one
}

// DonePayload for merge.done
type DonePayload struct {
	Count     int     `json:"count"`     // Records printed
	ElapsedMs int64   `json:"elapsedMs"` // Time between first message and done
	PerSecond float64 `json:"perSecond"` // Records per second
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}
