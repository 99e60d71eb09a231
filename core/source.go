package core

import "context"

// Source is a log source that answers without suspending the caller.
// Pop returns a nil Record once the source is exhausted.
type Source interface {
	Pop() (Record, error)

	// Drained reports whether the source is permanently exhausted.
	Drained() bool
}

// AsyncSource is a log source that may suspend the caller before answering.
// PopAsync returns a nil Record once the source is exhausted and must keep
// doing so on every later call.
type AsyncSource interface {
	PopAsync(ctx context.Context) (Record, error)
}

// Printer receives merged records in global timestamp order
type Printer interface {
	// Print is called exactly once per record, in sorted order.
	Print(record Record) error

	// Done is called once after the last Print, only when the merge succeeded.
	Done() error
}
