package logmerge

import (
	"sort"
	"testing"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOrderingBufferPopsByTimestamp(t *testing.T) {
	buffer := NewOrderingBuffer(3)
	assert.True(t, buffer.IsEmpty())

	buffer.Push(core.Entry{Record: core.LogEntry{Date: time.Unix(30, 0)}, Source: 0})
	buffer.Push(core.Entry{Record: core.LogEntry{Date: time.Unix(10, 0)}, Source: 1})
	buffer.Push(core.Entry{Record: core.LogEntry{Date: time.Unix(20, 0)}, Source: 2})
	require.Equal(t, 3, buffer.Len())

	peeked, ok := buffer.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, peeked.Source)
	assert.Equal(t, 3, buffer.Len(), "peek must not remove")

	var order []int
	for !buffer.IsEmpty() {
		entry, ok := buffer.Pop()
		require.True(t, ok)
		order = append(order, entry.Source)
	}
	assert.Equal(t, []int{1, 2, 0}, order)

	_, ok = buffer.Pop()
	assert.False(t, ok)
	_, ok = buffer.Peek()
	assert.False(t, ok)
}

func TestOrderingBufferBreaksTiesBySourceIndex(t *testing.T) {
	buffer := NewOrderingBuffer(4)
	ts := time.Unix(100, 0)
	for _, source := range []int{3, 1, 2, 0} {
		buffer.Push(core.Entry{Record: core.LogEntry{Date: ts}, Source: source})
	}

	var order []int
	for !buffer.IsEmpty() {
		entry, _ := buffer.Pop()
		order = append(order, entry.Source)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestOrderingBufferReset(t *testing.T) {
	buffer := NewOrderingBuffer(2)
	buffer.Push(core.Entry{Record: core.LogEntry{Date: time.Unix(1, 0)}, Source: 0})
	buffer.Push(core.Entry{Record: core.LogEntry{Date: time.Unix(2, 0)}, Source: 1})

	buffer.Reset()
	assert.True(t, buffer.IsEmpty())
	assert.Equal(t, 0, buffer.Len())
}

// For any set of entries, popping the buffer SHALL yield them sorted by (timestamp, source).
func TestPropertyOrderingBufferSorts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(rt, "n")
		buffer := NewOrderingBuffer(n)
		pushed := make([]core.Entry, n)
		for i := range pushed {
			pushed[i] = core.Entry{
				Record: core.LogEntry{Date: time.Unix(rapid.Int64Range(0, 10).Draw(rt, "ts"), 0)},
				Source: i,
			}
			buffer.Push(pushed[i])
		}

		sort.SliceStable(pushed, func(i, j int) bool { return pushed[i].Less(pushed[j]) })

		for i, want := range pushed {
			got, ok := buffer.Pop()
			if !ok {
				rt.Fatalf("buffer empty after %d pops, expected %d", i, n)
			}
			if got.Source != want.Source {
				rt.Fatalf("pop %d: got source %d, want %d", i, got.Source, want.Source)
			}
		}
		if !buffer.IsEmpty() {
			rt.Fatalf("buffer not empty after popping every entry")
		}
	})
}
