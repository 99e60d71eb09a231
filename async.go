package logmerge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/google/uuid"
)

// AsyncMergerConfig holds configuration for AsyncMerger
type AsyncMergerConfig struct {
	Logger telemetry.Logger

	// RunID tags every log line of a merge; a random id is used when empty
	RunID string

	// CheckOrder fails the merge with a core.ProtocolError when a source
	// returns a record older than its previous one.
	CheckOrder bool
}

// AsyncMerger merges sources that deliver records at independent rates.
//
// Each source is pulled by its own producer goroutine. The goroutine calling
// Merge is the only owner of the ordering buffer and the quorum counters; it
// folds producer events one at a time and emits the buffer minimum only while
// every live source has a record buffered.
type AsyncMerger struct {
	config AsyncMergerConfig
}

// NewAsyncMerger creates a new asynchronous merger
func NewAsyncMerger(config AsyncMergerConfig) *AsyncMerger {
	return &AsyncMerger{
		config: config,
	}
}

// Name returns the merger name
func (m *AsyncMerger) Name() string {
	return "async_merge"
}

// Merge prints every record of every source in timestamp order and calls
// printer.Done once all sources are drained.
//
// A failed pull aborts the merge with a *core.SourceError. Cancelling ctx
// stops all producers and returns ctx.Err(). In both cases buffered records
// are dropped, Done is not called, and Merge returns only after every
// producer goroutine has exited.
func (m *AsyncMerger) Merge(ctx context.Context, sources []core.AsyncSource, printer core.Printer) (stats Stats, err error) {
	if err := validateMerge(sources, printer); err != nil {
		return stats, err
	}

	start := time.Now()
	stats.Sources = len(sources)
	defer func() {
		stats.Elapsed = time.Since(start)
	}()

	logger := m.config.Logger.WithModule(m.Name())
	runID := m.config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger.Info("Starting async merge", telemetry.String("run_id", runID), telemetry.Int("sources", len(sources)))

	mergeCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	// Every producer has at most one unconsumed event, so publishing never blocks
	events := make(chan core.Event, len(sources))
	producers := make([]*producer, len(sources))
	for i, source := range sources {
		producers[i] = newProducer(i, source, events)
		wg.Add(1)
		go func(p *producer) {
			defer wg.Done()
			p.run(mergeCtx)
		}(producers[i])
	}

	a := &arbiter{
		buffer:    NewOrderingBuffer(len(sources)),
		quorum:    newQuorum(len(sources)),
		order:     newOrderChecker(len(sources), m.config.CheckOrder),
		printer:   printer,
		producers: producers,
		stats:     &stats,
		logger:    logger,
		runID:     runID,
	}
	defer a.buffer.Reset()

	for !a.quorum.exhausted() {
		select {
		case <-mergeCtx.Done():
			logger.Info("Async merge cancelled", telemetry.String("run_id", runID), telemetry.Int("emitted", stats.Emitted))
			return stats, mergeCtx.Err()
		case event := <-events:
			if err := a.handle(event); err != nil {
				logger.Error("Async merge aborted", telemetry.Err(err), telemetry.String("run_id", runID))
				return stats, err
			}
			if err := a.flush(mergeCtx); err != nil {
				logger.Error("Async merge aborted", telemetry.Err(err), telemetry.String("run_id", runID))
				return stats, err
			}
		}
	}

	// No source is live, so whatever is left is safe to emit in order
	if err := a.drain(mergeCtx); err != nil {
		logger.Error("Async merge aborted", telemetry.Err(err), telemetry.String("run_id", runID))
		return stats, err
	}

	if err := printer.Done(); err != nil {
		return stats, fmt.Errorf("printer done: %w", err)
	}

	logger.Info("Async sort complete",
		telemetry.String("run_id", runID),
		telemetry.Int("emitted", stats.Emitted),
		telemetry.Int("max_buffered", stats.MaxBuffered),
	)

	return stats, nil
}

// arbiter is the single-owner merge state folded over producer events
type arbiter struct {
	buffer    *OrderingBuffer
	quorum    *quorum
	order     *orderChecker
	printer   core.Printer
	producers []*producer
	stats     *Stats
	logger    telemetry.Logger
	runID     string
}

func (a *arbiter) handle(event core.Event) error {
	switch e := event.(type) {
	case core.RecordEvent:
		if err := a.order.check(e.Source, e.Record); err != nil {
			return err
		}
		a.buffer.Push(core.Entry{Record: e.Record, Source: e.Source})
		a.stats.observeBuffer(a.buffer.Len())
		a.quorum.arrive(e.Source)

	case core.DrainedEvent:
		a.quorum.drain(e.Source)
		a.logger.Debug("Source drained",
			telemetry.String("run_id", a.runID),
			telemetry.Int("source", e.Source),
			telemetry.Int("live", a.quorum.numLive),
		)

	case core.ErrorEvent:
		return &core.SourceError{Source: e.Source, Err: e.Error}
	}

	return nil
}

// flush emits buffer minimums for as long as the quorum holds
func (a *arbiter) flush(ctx context.Context) error {
	for a.quorum.satisfied() && !a.buffer.IsEmpty() {
		if err := a.emit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// drain emits everything left in the buffer
func (a *arbiter) drain(ctx context.Context) error {
	for !a.buffer.IsEmpty() {
		if err := a.emit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *arbiter) emit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, _ := a.buffer.Pop()
	if err := a.printer.Print(entry.Record); err != nil {
		return fmt.Errorf("print record from source %d: %w", entry.Source, err)
	}
	a.stats.Emitted++

	a.quorum.release(entry.Source)
	a.producers[entry.Source].resume()
	return nil
}
