package logmerge

import (
	"context"
	"fmt"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/google/uuid"
)

// SyncMergerConfig holds configuration for SyncMerger
type SyncMergerConfig struct {
	Logger telemetry.Logger

	// RunID tags every log line of a merge; a random id is used when empty
	RunID string

	// CheckOrder fails the merge with a core.ProtocolError when a source
	// returns a record older than its previous one.
	CheckOrder bool
}

// SyncMerger merges sources that answer Pop without suspending.
// Every source keeps exactly one record in the buffer until it drains, so the
// buffer minimum is always the global minimum.
type SyncMerger struct {
	config SyncMergerConfig
}

// NewSyncMerger creates a new synchronous merger
func NewSyncMerger(config SyncMergerConfig) *SyncMerger {
	return &SyncMerger{
		config: config,
	}
}

// Name returns the merger name
func (m *SyncMerger) Name() string {
	return "sync_merge"
}

// Merge prints every record of every source in timestamp order and calls
// printer.Done once all sources are drained. A failed pull aborts the merge
// with a *core.SourceError and Done is not called.
func (m *SyncMerger) Merge(ctx context.Context, sources []core.Source, printer core.Printer) (stats Stats, err error) {
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
	logger.Info("Starting sync merge", telemetry.String("run_id", runID), telemetry.Int("sources", len(sources)))

	buffer := NewOrderingBuffer(len(sources))
	order := newOrderChecker(len(sources), m.config.CheckOrder)

	pull := func(index int) error {
		record, err := sources[index].Pop()
		if err != nil {
			return &core.SourceError{Source: index, Err: err}
		}
		if record == nil {
			logger.Debug("Source drained", telemetry.String("run_id", runID), telemetry.Int("source", index))
			return nil
		}
		if err := order.check(index, record); err != nil {
			return err
		}
		buffer.Push(core.Entry{Record: record, Source: index})
		stats.observeBuffer(buffer.Len())
		return nil
	}

	// Seed the buffer with one record per source
	for i := range sources {
		if err := pull(i); err != nil {
			logger.Error("Sync merge aborted", telemetry.Err(err), telemetry.String("run_id", runID))
			return stats, err
		}
	}

	for !buffer.IsEmpty() {
		if err := ctx.Err(); err != nil {
			logger.Info("Sync merge cancelled", telemetry.String("run_id", runID), telemetry.Int("emitted", stats.Emitted))
			return stats, err
		}

		entry, _ := buffer.Pop()
		if err := printer.Print(entry.Record); err != nil {
			logger.Error("Failed to print record", telemetry.Err(err), telemetry.String("run_id", runID))
			return stats, fmt.Errorf("print record from source %d: %w", entry.Source, err)
		}
		stats.Emitted++

		// Refill the slot the emitted entry vacated
		if sources[entry.Source].Drained() {
			logger.Debug("Source drained", telemetry.String("run_id", runID), telemetry.Int("source", entry.Source))
			continue
		}
		if err := pull(entry.Source); err != nil {
			logger.Error("Sync merge aborted", telemetry.Err(err), telemetry.String("run_id", runID))
			return stats, err
		}
	}

	if err := printer.Done(); err != nil {
		return stats, fmt.Errorf("printer done: %w", err)
	}

	logger.Info("Sync sort complete",
		telemetry.String("run_id", runID),
		telemetry.Int("emitted", stats.Emitted),
		telemetry.Int("max_buffered", stats.MaxBuffered),
	)

	return stats, nil
}
