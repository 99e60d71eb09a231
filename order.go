package logmerge

import (
	"time"

	"github.com/creastat/logmerge/core"
)

// orderChecker detects sources that go back in time.
// A disabled checker accepts everything.
type orderChecker struct {
	enabled bool
	last    []time.Time
	seen    []bool
}

func newOrderChecker(sources int, enabled bool) *orderChecker {
	if !enabled {
		return &orderChecker{}
	}
	return &orderChecker{
		enabled: true,
		last:    make([]time.Time, sources),
		seen:    make([]bool, sources),
	}
}

func (c *orderChecker) check(source int, record core.Record) error {
	if !c.enabled {
		return nil
	}
	ts := record.Timestamp()
	if c.seen[source] && ts.Before(c.last[source]) {
		return &core.ProtocolError{
			Source:   source,
			Previous: c.last[source],
			Current:  ts,
		}
	}
	c.last[source] = ts
	c.seen[source] = true
	return nil
}
