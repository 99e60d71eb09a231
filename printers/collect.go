package printers

import (
	"sync"

	"github.com/creastat/logmerge/core"
)

// Collector keeps every printed record in memory
type Collector struct {
	mu        sync.Mutex
	records   []core.Record
	doneCalls int
	printErr  error
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// FailWith makes every following Print return err
func (c *Collector) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printErr = err
}

// Print appends record
func (c *Collector) Print(record core.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.printErr != nil {
		return c.printErr
	}
	c.records = append(c.records, record)
	return nil
}

// Done counts completion calls
func (c *Collector) Done() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doneCalls++
	return nil
}

// Records returns a copy of the printed records
func (c *Collector) Records() []core.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Record, len(c.records))
	copy(out, c.records)
	return out
}

// DoneCalls returns how many times Done was called
func (c *Collector) DoneCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doneCalls
}
