package logmerge

import "time"

// Stats summarizes a finished or aborted merge
type Stats struct {
	// Sources is the number of sources merged
	Sources int

	// Emitted is the number of records handed to the printer
	Emitted int

	// MaxBuffered is the largest ordering buffer occupancy observed
	MaxBuffered int

	// Elapsed is the wall time spent in Merge
	Elapsed time.Duration
}

func (s *Stats) observeBuffer(n int) {
	if n > s.MaxBuffered {
		s.MaxBuffered = n
	}
}
