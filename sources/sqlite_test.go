package sources

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func drainAsync(t *testing.T, src core.AsyncSource) []core.LogEntry {
	t.Helper()
	var out []core.LogEntry
	for {
		r, err := src.PopAsync(context.Background())
		require.NoError(t, err)
		if r == nil {
			return out
		}
		out = append(out, r.(core.LogEntry))
	}
}

func TestStoreImportAndRead(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	n, err := store.Import(ctx, 3, NewSliceSource(entryAt(10, "a"), entryAt(20, "b")))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = store.Import(ctx, 1, NewSliceSource(entryAt(5, "c")))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := store.SourceIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)

	got := drainAsync(t, store.Source(3, 0))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Msg)
	assert.True(t, got[0].Date.Equal(time.Unix(10, 0)))
	assert.Equal(t, "b", got[1].Msg)
}

func TestSQLiteSourcePagesAcrossEqualTimestamps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	records := []core.Record{
		entryAt(1, "r0"), entryAt(2, "r1"), entryAt(2, "r2"),
		entryAt(2, "r3"), entryAt(3, "r4"), entryAt(4, "r5"),
	}
	_, err := store.Import(ctx, 0, NewSliceSource(records...))
	require.NoError(t, err)

	// A page size that splits the run of equal timestamps and divides the total evenly
	got := drainAsync(t, store.Source(0, 2))

	var msgs []string
	for _, e := range got {
		msgs = append(msgs, e.Msg)
	}
	assert.Equal(t, []string{"r0", "r1", "r2", "r3", "r4", "r5"}, msgs)
}

func TestSQLiteSourceSyncInterface(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Import(context.Background(), 0, NewSliceSource(entryAt(1, "a")))
	require.NoError(t, err)

	var src core.Source = store.Source(0, 10)
	assert.False(t, src.Drained())

	r, err := src.Pop()
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.True(t, src.Drained(), "a short page marks the source done")

	r, err = src.Pop()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestSQLiteSourceUnknownID(t *testing.T) {
	store := openTestStore(t)
	assert.Empty(t, drainAsync(t, store.Source(99, 0)))
}

func TestSQLiteSourceCancelled(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Source(0, 0).PopAsync(ctx)
	assert.Error(t, err)
}
