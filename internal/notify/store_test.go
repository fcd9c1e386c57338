package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_PutFirstWriterWins(t *testing.T) {
	store := NewStore()

	first := Record{JobID: "abc123", Title: "Song A", AudioURL: "http://x/a.mp3"}
	second := Record{JobID: "abc123", Title: "Song B", AudioURL: "http://x/b.mp3"}

	require.True(t, store.Put("abc123", first))
	require.False(t, store.Put("abc123", second))

	got, ok := store.Get("abc123")
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestStore_GetAbsent(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("missing")
	require.False(t, ok)
}

func TestStore_Partition(t *testing.T) {
	store := NewStore()
	store.Put("a", Record{JobID: "a", Title: "A"})
	store.Put("c", Record{JobID: "c", Title: "C"})

	found, pending := store.Partition([]string{"a", "b", "c", "d"})
	require.Len(t, found, 2)
	require.Equal(t, "a", found[0].JobID)
	require.Equal(t, "c", found[1].JobID)
	require.Equal(t, []string{"b", "d"}, pending)
}

func TestStore_ConcurrentPutSameKey(t *testing.T) {
	store := NewStore()

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Put("contended", Record{JobID: "contended", Title: fmt.Sprintf("writer-%d", n)})
		}(i)
	}
	wg.Wait()

	// Exactly one record is visible and it matches one of the writers.
	got, ok := store.Get("contended")
	require.True(t, ok)
	require.Contains(t, got.Title, "writer-")

	// Subsequent writes are still rejected.
	require.False(t, store.Put("contended", Record{JobID: "contended", Title: "late"}))
	again, _ := store.Get("contended")
	require.Equal(t, got, again)
}
