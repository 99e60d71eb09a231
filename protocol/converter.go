package protocol

import (
	"fmt"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/google/uuid"
)

// RecordToMessage converts a merged record to a log.record message
func RecordToMessage(record core.Record, runID string, seq int) *OutputMessage {
	return &OutputMessage{
		Type:  OutputRecord,
		ID:    generateMessageID(),
		RunID: runID,
		Seq:   seq,
		Payload: RecordPayload{
			Time:    record.Timestamp().Format(time.RFC3339Nano),
			Message: RecordMessage(record),
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewDoneMessage creates a merge.done message
func NewDoneMessage(runID string, count int, elapsed time.Duration) *OutputMessage {
	return &OutputMessage{
		Type:  OutputDone,
		ID:    generateMessageID(),
		RunID: runID,
		Seq:   count,
		Payload: DonePayload{
			Count:     count,
			ElapsedMs: elapsed.Milliseconds(),
			PerSecond: PerSecond(count, elapsed),
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(runID, code, message string, retryable bool) *OutputMessage {
	return &OutputMessage{
		Type:  OutputError,
		ID:    generateMessageID(),
		RunID: runID,
		Payload: ErrorPayload{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// RecordMessage extracts the human readable text of a record
func RecordMessage(record core.Record) string {
	switch r := record.(type) {
	case core.LogEntry:
		return r.Msg
	case *core.LogEntry:
		return r.Msg
	case fmt.Stringer:
		return r.String()
	}
	return ""
}

// PerSecond returns count/elapsed, or 0 when no time elapsed
func PerSecond(count int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}

// generateMessageID generates a unique message ID
func generateMessageID() string {
	return "msg-" + uuid.NewString()
}
