package printers

import (
	"errors"
	"fmt"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
)

// ErrorPolicy defines how fan-out handles a failing branch
type ErrorPolicy string

const (
	// ErrorPolicyCancelAll fails the whole print when one branch fails (default)
	ErrorPolicyCancelAll ErrorPolicy = "cancel-all"

	// ErrorPolicyIsolated drops a failing branch and keeps printing to the others
	ErrorPolicyIsolated ErrorPolicy = "isolated"
)

// ErrAllBranchesFailed is returned by an isolated fan-out once no branch is left
var ErrAllBranchesFailed = errors.New("all fan-out branches failed")

// FanOutConfig configures a FanOutPrinter
type FanOutConfig struct {
	ErrorPolicy ErrorPolicy
	Branches    []core.Printer
	Logger      telemetry.Logger
}

// FanOutPrinter copies every record to several printers, in branch order
type FanOutPrinter struct {
	config FanOutConfig
	failed []bool
}

// NewFanOutPrinter creates a new fan-out printer
func NewFanOutPrinter(config FanOutConfig) *FanOutPrinter {
	if config.ErrorPolicy == "" {
		config.ErrorPolicy = ErrorPolicyCancelAll
	}
	return &FanOutPrinter{
		config: config,
		failed: make([]bool, len(config.Branches)),
	}
}

// Name returns the printer name
func (f *FanOutPrinter) Name() string {
	return "fanout_printer"
}

// Print forwards record to every healthy branch
func (f *FanOutPrinter) Print(record core.Record) error {
	return f.each(func(p core.Printer) error { return p.Print(record) })
}

// Done forwards completion to every healthy branch
func (f *FanOutPrinter) Done() error {
	return f.each(func(p core.Printer) error { return p.Done() })
}

func (f *FanOutPrinter) each(call func(core.Printer) error) error {
	logger := f.config.Logger.WithModule(f.Name())

	for i, branch := range f.config.Branches {
		if f.failed[i] {
			continue
		}
		err := call(branch)
		if err == nil {
			continue
		}

		if f.config.ErrorPolicy == ErrorPolicyCancelAll {
			return fmt.Errorf("fan-out branch %d: %w", i, err)
		}

		// For ErrorPolicyIsolated the branch is dropped and the others continue
		logger.Error("Fan-out branch failed, dropping it", telemetry.Err(err), telemetry.Int("branch", i))
		f.failed[i] = true
	}

	if f.healthy() == 0 && len(f.config.Branches) > 0 {
		return ErrAllBranchesFailed
	}
	return nil
}

// healthy returns the number of branches still receiving records
func (f *FanOutPrinter) healthy() int {
	n := 0
	for _, failed := range f.failed {
		if !failed {
			n++
		}
	}
	return n
}
