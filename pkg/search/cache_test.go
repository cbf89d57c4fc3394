package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache_SetGet(t *testing.T) {
	cache := NewResponseCache(8, time.Minute, nil)

	results := []ScoredItem{{Item: UserItem{ID: "1", Name: "Alice"}, Score: 1.5}}
	cache.Set("alice", CategoryAll, results)

	got, err := cache.Get("alice", CategoryAll)
	require.NoError(t, err)
	assert.Equal(t, results, got)

	// Key normalization: case and surrounding whitespace are ignored.
	got, err = cache.Get("  ALICE ", CategoryAll)
	require.NoError(t, err)
	assert.Equal(t, results, got)
}

func TestResponseCache_Miss(t *testing.T) {
	cache := NewResponseCache(8, time.Minute, nil)

	_, err := cache.Get("alice", CategoryAll)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestResponseCache_CategoryMismatch(t *testing.T) {
	cache := NewResponseCache(8, time.Minute, nil)

	cache.Set("alice", CategoryAll, []ScoredItem{})

	_, err := cache.Get("alice", string(ModuleMessages))
	assert.ErrorIs(t, err, ErrCacheMiss, "category mismatch is a miss")
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	cache := NewResponseCache(8, 50*time.Millisecond, nil)

	cache.Set("alice", CategoryAll, []ScoredItem{})

	_, err := cache.Get("alice", CategoryAll)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)

	_, err = cache.Get("alice", CategoryAll)
	assert.ErrorIs(t, err, ErrCacheMiss, "expired entries are swept")
}

func TestResponseCache_CapacityBound(t *testing.T) {
	cache := NewResponseCache(2, time.Minute, nil)

	cache.Set("a", CategoryAll, []ScoredItem{})
	cache.Set("b", CategoryAll, []ScoredItem{})
	cache.Set("c", CategoryAll, []ScoredItem{})

	assert.Equal(t, 2, cache.Len(), "capacity bound evicts beyond TTL")

	// The least recently used entry went first.
	_, err := cache.Get("a", CategoryAll)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestResponseCache_LastWriterWins(t *testing.T) {
	cache := NewResponseCache(8, time.Minute, nil)

	cache.Set("alice", CategoryAll, []ScoredItem{{Item: UserItem{ID: "1"}}})
	cache.Set("alice", CategoryAll, []ScoredItem{{Item: UserItem{ID: "2"}}})

	got, err := cache.Get("alice", CategoryAll)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Item.CanonicalID())
}

// A cache hit hands out a copy; callers mutating their response must
// not rewrite the stored entry.
func TestResponseCache_GetReturnsCopy(t *testing.T) {
	cache := NewResponseCache(8, time.Minute, nil)
	cache.Set("alice", CategoryAll, []ScoredItem{
		{Item: UserItem{ID: "1", Name: "Alice"}, Score: 1.5},
		{Item: UserItem{ID: "2", Name: "Alina"}, Score: 1.0},
	})

	got, err := cache.Get("alice", CategoryAll)
	require.NoError(t, err)
	got[0] = ScoredItem{Item: UserItem{ID: "9", Name: "Zara"}, Score: 0.1}

	again, err := cache.Get("alice", CategoryAll)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, "1", again[0].Item.CanonicalID())
	assert.Equal(t, 1.5, again[0].Score)
}
