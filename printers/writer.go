package printers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/protocol"
)

// ErrOutOfOrder is returned by Print when a record is older than the one before it
var ErrOutOfOrder = errors.New("records are not printed in chronological order")

// Format selects how WriterPrinter renders records
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// WriterPrinterConfig holds WriterPrinter configuration
type WriterPrinterConfig struct {
	Writer io.Writer
	Format Format
	RunID  string
	Logger telemetry.Logger

	// Now overrides the clock used for the summary; defaults to time.Now
	Now func() time.Time
}

// WriterPrinter writes one line per record and a summary on Done.
// It rejects records that go back in time.
type WriterPrinter struct {
	config  WriterPrinterConfig
	start   time.Time
	last    time.Time
	printed int
}

// NewWriterPrinter creates a printer writing to config.Writer
func NewWriterPrinter(config WriterPrinterConfig) *WriterPrinter {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Format == "" {
		config.Format = FormatText
	}
	return &WriterPrinter{
		config: config,
		start:  config.Now(),
	}
}

// Name returns the printer name
func (p *WriterPrinter) Name() string {
	return "writer_printer"
}

// Print writes record
func (p *WriterPrinter) Print(record core.Record) error {
	ts := record.Timestamp()
	if p.printed > 0 && ts.Before(p.last) {
		return fmt.Errorf("%w: %s after %s", ErrOutOfOrder,
			ts.Format(time.RFC3339Nano), p.last.Format(time.RFC3339Nano))
	}
	p.last = ts
	p.printed++

	switch p.config.Format {
	case FormatJSON:
		return p.writeJSON(protocol.RecordToMessage(record, p.config.RunID, p.printed))
	default:
		_, err := fmt.Fprintf(p.config.Writer, "%s %s\n", ts.UTC().Format(time.RFC3339Nano), protocol.RecordMessage(record))
		return err
	}
}

// Done writes the summary
func (p *WriterPrinter) Done() error {
	elapsed := p.config.Now().Sub(p.start)

	p.config.Logger.WithModule(p.Name()).Debug("Printer done",
		telemetry.String("run_id", p.config.RunID),
		telemetry.Int("printed", p.printed),
	)

	switch p.config.Format {
	case FormatJSON:
		return p.writeJSON(protocol.NewDoneMessage(p.config.RunID, p.printed, elapsed))
	default:
		_, err := fmt.Fprintf(p.config.Writer,
			"***********************************\n"+
				"Logs printed:\t\t %d\n"+
				"Time taken (s):\t\t %.3f\n"+
				"Logs/s:\t\t\t %.1f\n"+
				"***********************************\n",
			p.printed, elapsed.Seconds(), protocol.PerSecond(p.printed, elapsed))
		return err
	}
}

// Printed returns the number of records written
func (p *WriterPrinter) Printed() int {
	return p.printed
}

func (p *WriterPrinter) writeJSON(msg *protocol.OutputMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}
	data = append(data, '\n')
	_, err = p.config.Writer.Write(data)
	return err
}
