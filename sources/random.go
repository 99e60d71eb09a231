package sources

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/creastat/logmerge/core"
)

// RandomConfig configures a RandomSource
type RandomConfig struct {
	// Records is the number of entries the source yields
	Records int

	// Start is the earliest possible first entry date
	Start time.Time

	// MaxStep bounds the gap between consecutive entries
	MaxStep time.Duration

	// Name prefixes every message
	Name string
}

// RandomSource yields a fixed number of entries with strictly
// non-decreasing, randomly spaced dates.
type RandomSource struct {
	config  RandomConfig
	rng     *rand.Rand
	last    time.Time
	emitted int
}

// NewRandomSource creates a seeded random source; equal seeds give equal sequences
func NewRandomSource(config RandomConfig, seed uint64) *RandomSource {
	if config.MaxStep <= 0 {
		config.MaxStep = time.Hour
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &RandomSource{
		config: config,
		rng:    rng,
		last:   config.Start.Add(time.Duration(rng.Int64N(int64(config.MaxStep)))),
	}
}

// Pop returns the next generated entry, or nil once Records entries were served
func (s *RandomSource) Pop() (core.Record, error) {
	if s.Drained() {
		return nil, nil
	}

	if s.emitted > 0 {
		s.last = s.last.Add(time.Duration(s.rng.Int64N(int64(s.config.MaxStep))))
	}
	s.emitted++

	return core.LogEntry{
		Date: s.last,
		Msg:  fmt.Sprintf("%s entry %d", s.config.Name, s.emitted),
	}, nil
}

// Drained reports whether every entry was served
func (s *RandomSource) Drained() bool {
	return s.emitted >= s.config.Records
}

// NewRandomSources builds count random sources named "source-<i>" whose
// seeds derive from seed, so the same arguments always give the same logs.
func NewRandomSources(count int, config RandomConfig, seed uint64) []*RandomSource {
	out := make([]*RandomSource, count)
	for i := range out {
		c := config
		c.Name = fmt.Sprintf("source-%d", i)
		out[i] = NewRandomSource(c, seed+uint64(i)*1_000_003)
	}
	return out
}
