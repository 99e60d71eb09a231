package sources

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func entryAt(sec int64, msg string) core.LogEntry {
	return core.LogEntry{Date: time.Unix(sec, 0).UTC(), Msg: msg}
}

func TestSliceSourceServesInOrderThenDrains(t *testing.T) {
	src := NewSliceSource(entryAt(1, "a"), entryAt(2, "b"))
	assert.False(t, src.Drained())
	assert.Equal(t, 2, src.Len())

	r, err := src.Pop()
	require.NoError(t, err)
	assert.Equal(t, "a", r.(core.LogEntry).Msg)

	r, err = src.PopAsync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", r.(core.LogEntry).Msg)
	assert.True(t, src.Drained())

	for range 3 {
		r, err = src.Pop()
		require.NoError(t, err)
		assert.Nil(t, r, "an exhausted source keeps answering nil")
	}
}

func TestSliceSourcePopAsyncHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSliceSource(entryAt(1, "a")).PopAsync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelayedSourceWaits(t *testing.T) {
	src := NewDelayedSource(NewSliceSource(entryAt(1, "a")), FixedDelay(20*time.Millisecond))

	start := time.Now()
	r, err := src.PopAsync(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	start = time.Now()
	r, err = src.PopAsync(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Less(t, time.Since(start), 20*time.Millisecond, "a drained source answers immediately")
}

func TestDelayedSourceCancelledWhileWaiting(t *testing.T) {
	src := NewDelayedSource(NewSliceSource(entryAt(1, "a")), FixedDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := src.PopAsync(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRandomDelayStaysInRange(t *testing.T) {
	delay := RandomDelay(5*time.Millisecond, rand.New(rand.NewPCG(1, 2)))
	for range 100 {
		d := delay()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 5*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), RandomDelay(0, nil)())
}

func TestChannelSource(t *testing.T) {
	ch := make(chan core.Record, 1)
	src := NewChannelSource(ch)

	ch <- entryAt(1, "a")
	r, err := src.PopAsync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", r.(core.LogEntry).Msg)

	close(ch)
	r, err = src.PopAsync(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestChannelSourceCancelled(t *testing.T) {
	src := NewChannelSource(make(chan core.Record))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.PopAsync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailAfter(t *testing.T) {
	errBoom := errors.New("boom")
	src := FailAfter(NewSliceSource(entryAt(1, "a")), errBoom)

	r, err := src.PopAsync(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, r)

	_, err = src.PopAsync(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

// For any seed and configuration, a random source SHALL yield exactly Records
// non-decreasing entries and equal seeds SHALL give equal sequences.
func TestPropertyRandomSourceIsSortedAndDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		config := RandomConfig{
			Records: rapid.IntRange(0, 40).Draw(rt, "records"),
			Start:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			MaxStep: time.Duration(rapid.Int64Range(1, int64(time.Hour)).Draw(rt, "step")),
			Name:    "src",
		}
		seed := rapid.Uint64().Draw(rt, "seed")

		a := NewRandomSource(config, seed)
		b := NewRandomSource(config, seed)

		var prev time.Time
		for i := 0; i < config.Records; i++ {
			ra, err := a.Pop()
			if err != nil || ra == nil {
				rt.Fatalf("pop %d: record %v, err %v", i, ra, err)
			}
			rb, _ := b.Pop()
			if ra != rb {
				rt.Fatalf("pop %d: equal seeds diverged: %v vs %v", i, ra, rb)
			}
			if i > 0 && ra.Timestamp().Before(prev) {
				rt.Fatalf("pop %d: %v before %v", i, ra.Timestamp(), prev)
			}
			if ra.Timestamp().Before(config.Start) {
				rt.Fatalf("pop %d: %v before start", i, ra.Timestamp())
			}
			prev = ra.Timestamp()
		}

		if !a.Drained() {
			rt.Fatalf("source not drained after %d records", config.Records)
		}
		if r, _ := a.Pop(); r != nil {
			rt.Fatalf("drained source returned %v", r)
		}
	})
}

func TestNewRandomSourcesNamesAndSeeds(t *testing.T) {
	srcs := NewRandomSources(3, RandomConfig{Records: 2, MaxStep: time.Minute}, 42)
	require.Len(t, srcs, 3)

	first, _ := srcs[0].Pop()
	second, _ := srcs[1].Pop()
	assert.Equal(t, "source-0 entry 1", first.(core.LogEntry).Msg)
	assert.Equal(t, "source-1 entry 1", second.(core.LogEntry).Msg)
}
