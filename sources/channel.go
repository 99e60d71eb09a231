package sources

import (
	"context"

	"github.com/creastat/logmerge/core"
)

// ChannelSource is an asynchronous source fed by another goroutine.
// Closing the channel marks the source exhausted.
type ChannelSource struct {
	records <-chan core.Record
}

// NewChannelSource creates a source reading from records
func NewChannelSource(records <-chan core.Record) *ChannelSource {
	return &ChannelSource{records: records}
}

// PopAsync waits for the next record, channel close or cancellation
func (s *ChannelSource) PopAsync(ctx context.Context) (core.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case record, ok := <-s.records:
		if !ok {
			return nil, nil
		}
		return record, nil
	}
}
