package core

// Event is published by a source producer to the merge arbiter
type Event interface {
	EventType() EventType
	SourceIndex() int
}

// EventType categorizes producer events
type EventType string

const (
	EventTypeRecord  EventType = "record"
	EventTypeDrained EventType = "drained"
	EventTypeError   EventType = "error"
)

// RecordEvent carries the next record of a source
type RecordEvent struct {
	Source int
	Record Record
}

func (e RecordEvent) EventType() EventType {
	return EventTypeRecord
}

func (e RecordEvent) SourceIndex() int {
	return e.Source
}

// DrainedEvent signals that a source is exhausted
type DrainedEvent struct {
	Source int
}

func (e DrainedEvent) EventType() EventType {
	return EventTypeDrained
}

func (e DrainedEvent) SourceIndex() int {
	return e.Source
}

// ErrorEvent reports a failed pull
type ErrorEvent struct {
	Source int
	Error  error
}

func (e ErrorEvent) EventType() EventType {
	return EventTypeError
}

func (e ErrorEvent) SourceIndex() int {
	return e.Source
}
