package sources

import (
	"context"

	"github.com/creastat/logmerge/core"
)

// SliceSource serves records from memory in the order given.
// It satisfies both core.Source and core.AsyncSource.
type SliceSource struct {
	records []core.Record
	next    int
}

// NewSliceSource creates a source over the given records
func NewSliceSource(records ...core.Record) *SliceSource {
	return &SliceSource{records: records}
}

// Pop returns the next record, or nil once every record was served
func (s *SliceSource) Pop() (core.Record, error) {
	if s.next >= len(s.records) {
		return nil, nil
	}
	record := s.records[s.next]
	s.next++
	return record, nil
}

// Drained reports whether every record was served
func (s *SliceSource) Drained() bool {
	return s.next >= len(s.records)
}

// PopAsync is Pop with a cancellation check
func (s *SliceSource) PopAsync(ctx context.Context) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Pop()
}

// Len returns the number of records not yet served
func (s *SliceSource) Len() int {
	return len(s.records) - s.next
}
