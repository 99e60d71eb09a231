package logmerge

import (
	"fmt"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/logmerge/core"
)

func newTestLogger() telemetry.Logger {
	return telemetry.New(telemetry.Config{Level: "error"})
}

// entries builds one source's records at the given unix seconds
func entries(source int, seconds ...int64) []core.Record {
	out := make([]core.Record, len(seconds))
	for i, s := range seconds {
		out[i] = core.LogEntry{
			Date: time.Unix(s, 0).UTC(),
			Msg:  fmt.Sprintf("s%d-%d", source, i),
		}
	}
	return out
}

// seconds extracts unix seconds from records
func seconds(records []core.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.Timestamp().Unix()
	}
	return out
}

// failingSource serves records and then fails instead of draining
type failingSource struct {
	records []core.Record
	err     error
	next    int
}

func (s *failingSource) Pop() (core.Record, error) {
	if s.next >= len(s.records) {
		return nil, s.err
	}
	r := s.records[s.next]
	s.next++
	return r, nil
}

func (s *failingSource) Drained() bool {
	return false
}
