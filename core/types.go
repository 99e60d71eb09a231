package core

import "time"

// Record is a single log record flowing through a merge.
// Records from one source are expected in non-decreasing timestamp order.
type Record interface {
	Timestamp() time.Time
}

// LogEntry is the concrete record produced by the bundled sources
type LogEntry struct {
	Date time.Time
	Msg  string
}

// Timestamp returns the entry date
func (e LogEntry) Timestamp() time.Time {
	return e.Date
}

// Entry is a record pending in the ordering buffer together with the index
// of the source it was pulled from.
type Entry struct {
	Record Record
	Source int
}

// Less reports whether e sorts before other: earlier timestamp first,
// lower source index on ties.
func (e Entry) Less(other Entry) bool {
	ta, tb := e.Record.Timestamp(), other.Record.Timestamp()
	if ta.Equal(tb) {
		return e.Source < other.Source
	}
	return ta.Before(tb)
}

// MergeMode selects the drain coordinator
type MergeMode string

const (
	MergeModeSync  MergeMode = "sync"
	MergeModeAsync MergeMode = "async"
	MergeModeBoth  MergeMode = "both"
)
