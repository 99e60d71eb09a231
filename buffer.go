package logmerge

import (
	"container/heap"

	"github.com/creastat/logmerge/core"
)

// OrderingBuffer is a min-heap of pending entries ordered by timestamp, with
// ties broken by source index. It does not limit how many entries one source
// holds; the coordinators keep that to at most one.
type OrderingBuffer struct {
	entries entryHeap
}

// NewOrderingBuffer creates a buffer sized for the given number of sources
func NewOrderingBuffer(capacity int) *OrderingBuffer {
	return &OrderingBuffer{
		entries: make(entryHeap, 0, capacity),
	}
}

// Push inserts an entry
func (b *OrderingBuffer) Push(entry core.Entry) {
	heap.Push(&b.entries, entry)
}

// Peek returns the minimum entry without removing it
func (b *OrderingBuffer) Peek() (core.Entry, bool) {
	if len(b.entries) == 0 {
		return core.Entry{}, false
	}
	return b.entries[0], true
}

// Pop removes and returns the minimum entry
func (b *OrderingBuffer) Pop() (core.Entry, bool) {
	if len(b.entries) == 0 {
		return core.Entry{}, false
	}
	return heap.Pop(&b.entries).(core.Entry), true
}

// Len returns the number of buffered entries
func (b *OrderingBuffer) Len() int {
	return len(b.entries)
}

// IsEmpty reports whether the buffer holds no entries
func (b *OrderingBuffer) IsEmpty() bool {
	return len(b.entries) == 0
}

// Reset drops every buffered entry
func (b *OrderingBuffer) Reset() {
	clear(b.entries)
	b.entries = b.entries[:0]
}

type entryHeap []core.Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(core.Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = core.Entry{}
	*h = old[:n-1]
	return entry
}
