package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrProtocolViolation is matched by every ProtocolError
var ErrProtocolViolation = errors.New("source protocol violation")

// SourceError reports a failed pull from a source
type SourceError struct {
	Source int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %d: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a source that produced a record older than its previous one
type ProtocolError struct {
	Source   int
	Previous time.Time
	Current  time.Time
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("source %d: timestamp %s precedes previous %s",
		e.Source, e.Current.Format(time.RFC3339Nano), e.Previous.Format(time.RFC3339Nano))
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocolViolation
}
