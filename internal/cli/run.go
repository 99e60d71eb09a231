package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge"
	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/printers"
	"github.com/creastat/logmerge/protocol"
	"github.com/creastat/logmerge/sources"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// randomStart anchors generated logs so equal seeds print equal output
var randomStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	flags RunConfig

	// Now overrides the printer clock (for testing). Defaults to time.Now.
	Now func() time.Time
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	return newRunCommand(opts)
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	defaults := DefaultRunConfig()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Merge log sources and print them in time order",
		Long: `Merge log sources and print every record in global time order.

Sources are generated from a seed, or read from a sqlite database written by
"logmerge seed". In async mode every pull is delayed by a random duration up
to --max-delay to simulate sources that deliver at their own pace.

Example:
  logmerge run --sources 100 --mode both
  logmerge run --db ./logs.db --mode async --forward ws://localhost:8080/logs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveRunConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMerge(ctx, opts, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.flags.Sources, "sources", defaults.Sources, "number of generated sources")
	f.IntVar(&opts.flags.Records, "records", defaults.Records, "records per generated source")
	f.Uint64Var(&opts.flags.Seed, "seed", defaults.Seed, "seed for generated sources and delays")
	f.StringVar((*string)(&opts.flags.Mode), "mode", string(defaults.Mode), "merge mode (sync|async|both)")
	f.DurationVar(&opts.flags.MaxDelay, "max-delay", defaults.MaxDelay, "upper bound of the simulated pull delay in async mode")
	f.DurationVar(&opts.flags.MaxStep, "max-step", defaults.MaxStep, "upper bound of the gap between generated records")
	f.BoolVar(&opts.flags.CheckOrder, "check-order", defaults.CheckOrder, "fail when a source goes back in time")
	f.StringVar(&opts.flags.Database, "db", defaults.Database, "read sources from this sqlite database instead of generating them")
	f.StringVar(&opts.flags.Forward, "forward", defaults.Forward, "also stream records to this WebSocket URL")

	return cmd
}

// resolveRunConfig layers changed flags over the config file over the defaults
func resolveRunConfig(cmd *cobra.Command, opts *RunOptions) (RunConfig, error) {
	cfg, err := LoadRunConfig(opts.Config)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	f := cmd.Flags()
	if f.Changed("sources") {
		cfg.Sources = opts.flags.Sources
	}
	if f.Changed("records") {
		cfg.Records = opts.flags.Records
	}
	if f.Changed("seed") {
		cfg.Seed = opts.flags.Seed
	}
	if f.Changed("mode") {
		cfg.Mode = opts.flags.Mode
	}
	if f.Changed("max-delay") {
		cfg.MaxDelay = opts.flags.MaxDelay
	}
	if f.Changed("max-step") {
		cfg.MaxStep = opts.flags.MaxStep
	}
	if f.Changed("check-order") {
		cfg.CheckOrder = opts.flags.CheckOrder
	}
	if f.Changed("db") {
		cfg.Database = opts.flags.Database
	}
	if f.Changed("forward") {
		cfg.Forward = opts.flags.Forward
	}

	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid run configuration", err)
	}
	return cfg, nil
}

func runMerge(ctx context.Context, opts *RunOptions, cfg RunConfig, out io.Writer) error {
	logger := newLogger(opts.RootOptions)

	var store *sources.Store
	if cfg.Database != "" {
		if _, err := os.Stat(cfg.Database); err != nil {
			return WrapExitError(ExitCommandError, "database not found", err)
		}
		s, err := sources.OpenStore(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer s.Close()
		store = s
	}

	if cfg.Mode == core.MergeModeSync || cfg.Mode == core.MergeModeBoth {
		if err := runOnce(ctx, opts, cfg, store, core.MergeModeSync, out, logger); err != nil {
			return err
		}
	}
	if cfg.Mode == core.MergeModeAsync || cfg.Mode == core.MergeModeBoth {
		if err := runOnce(ctx, opts, cfg, store, core.MergeModeAsync, out, logger); err != nil {
			return err
		}
	}
	return nil
}

func runOnce(ctx context.Context, opts *RunOptions, cfg RunConfig, store *sources.Store, mode core.MergeMode, out io.Writer, logger telemetry.Logger) error {
	runID := uuid.NewString()

	srcs, err := buildSources(ctx, cfg, store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build sources", err)
	}

	printer, closePrinter, err := buildPrinter(opts, cfg, runID, out, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build printer", err)
	}
	defer closePrinter()

	var stats logmerge.Stats
	switch mode {
	case core.MergeModeSync:
		merger := logmerge.NewSyncMerger(logmerge.SyncMergerConfig{
			Logger:     logger,
			RunID:      runID,
			CheckOrder: cfg.CheckOrder,
		})
		stats, err = merger.Merge(ctx, srcs, printer)

	case core.MergeModeAsync:
		async := make([]core.AsyncSource, len(srcs))
		for i, src := range srcs {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
			async[i] = sources.NewDelayedSource(src, sources.RandomDelay(cfg.MaxDelay, rng))
		}
		merger := logmerge.NewAsyncMerger(logmerge.AsyncMergerConfig{
			Logger:     logger,
			RunID:      runID,
			CheckOrder: cfg.CheckOrder,
		})
		stats, err = merger.Merge(ctx, async, printer)
	}
	if err != nil {
		if opts.Format == "json" {
			reportError(out, runID, err)
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("%s merge failed", mode), err)
	}

	logger.WithModule("cli").Info("Merge finished",
		telemetry.String("run_id", runID),
		telemetry.String("mode", string(mode)),
		telemetry.Int("emitted", stats.Emitted),
		telemetry.Int("max_buffered", stats.MaxBuffered),
	)
	return nil
}

// reportError writes a failed merge as an error message for JSON consumers
func reportError(out io.Writer, runID string, err error) {
	code := "merge_failed"
	var sourceErr *core.SourceError
	switch {
	case errors.Is(err, core.ErrProtocolViolation):
		code = "protocol_violation"
	case errors.As(err, &sourceErr):
		code = "source_failed"
	case errors.Is(err, context.Canceled):
		code = "cancelled"
	}
	_ = json.NewEncoder(out).Encode(protocol.NewErrorMessage(runID, code, err.Error(), code == "source_failed"))
}

// buildSources returns fresh sources for one merge run
func buildSources(ctx context.Context, cfg RunConfig, store *sources.Store) ([]core.Source, error) {
	if store != nil {
		ids, err := store.SourceIDs(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]core.Source, len(ids))
		for i, id := range ids {
			out[i] = store.Source(id, 0)
		}
		return out, nil
	}

	generated := sources.NewRandomSources(cfg.Sources, sources.RandomConfig{
		Records: cfg.Records,
		Start:   randomStart,
		MaxStep: cfg.MaxStep,
	}, cfg.Seed)
	out := make([]core.Source, len(generated))
	for i, src := range generated {
		out[i] = src
	}
	return out, nil
}

// buildPrinter returns the stdout printer, fanned out to a WebSocket when forwarding is set
func buildPrinter(opts *RunOptions, cfg RunConfig, runID string, out io.Writer, logger telemetry.Logger) (core.Printer, func(), error) {
	writer := printers.NewWriterPrinter(printers.WriterPrinterConfig{
		Writer: out,
		Format: printers.Format(opts.Format),
		RunID:  runID,
		Logger: logger,
		Now:    opts.Now,
	})
	if cfg.Forward == "" {
		return writer, func() {}, nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.Forward, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.Forward, err)
	}

	fanout := printers.NewFanOutPrinter(printers.FanOutConfig{
		ErrorPolicy: printers.ErrorPolicyIsolated,
		Branches: []core.Printer{
			writer,
			printers.NewWebSocketPrinter(printers.WebSocketPrinterConfig{
				Conn:   conn,
				RunID:  runID,
				Logger: logger,
			}),
		},
		Logger: logger,
	})
	return fanout, func() { conn.Close() }, nil
}
