package logmerge

import (
	"context"
	"fmt"
	"runtime"

	"github.com/creastat/logmerge/core"
)

// producer pulls one source and publishes what it gets to the arbiter.
// It does not pull the next record until the arbiter has emitted the
// previous one, so each source has at most one record in flight.
type producer struct {
	index   int
	source  core.AsyncSource
	events  chan<- core.Event
	release chan struct{}
}

func newProducer(index int, source core.AsyncSource, events chan<- core.Event) *producer {
	return &producer{
		index:   index,
		source:  source,
		events:  events,
		release: make(chan struct{}, 1),
	}
}

// run loops pull -> publish -> wait for release until the source drains,
// fails or ctx is cancelled.
func (p *producer) run(ctx context.Context) {
	// Recover from panics in the source
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err := fmt.Errorf("source %d panicked: %v\nStack trace:\n%s", p.index, r, string(buf[:n]))
			p.publish(ctx, core.ErrorEvent{Source: p.index, Error: err})
		}
	}()

	for {
		record, err := p.source.PopAsync(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.publish(ctx, core.ErrorEvent{Source: p.index, Error: err})
			return
		}

		if record == nil {
			p.publish(ctx, core.DrainedEvent{Source: p.index})
			return
		}

		if !p.publish(ctx, core.RecordEvent{Source: p.index, Record: record}) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-p.release:
		}
	}
}

func (p *producer) publish(ctx context.Context, event core.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case p.events <- event:
		return true
	}
}

// resume lets the producer pull its next record. Never blocks: a producer
// waits for at most one release at a time.
func (p *producer) resume() {
	select {
	case p.release <- struct{}{}:
	default:
	}
}
