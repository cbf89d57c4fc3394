package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMerger() *Merger {
	return NewMerger(newTestScorer(), DefaultWeights(), nil)
}

func TestMerger_LocalFirst(t *testing.T) {
	merger := newTestMerger()
	query := NewQueryParser().Parse("ali")

	local := []ScoredItem{
		{Item: ChatItem{ID: "c1", Title: "alicante", Tag: ModuleChannels, Source: OriginLocal}},
		{Item: UserItem{ID: "1", Name: "Alina", Source: OriginLocal}},
	}
	remote := []Item{
		UserItem{ID: "2", Name: "Alice", Source: OriginRemote},
		MessageItem{ID: "m1", Text: "ali said hi", Source: OriginRemote},
	}

	merged := merger.Merge(local, remote, query, 0)
	require.Len(t, merged, 4)

	// Local results lead, in their local order, unscored.
	assert.Equal(t, "c1", merged[0].Item.CanonicalID())
	assert.Equal(t, "1", merged[1].Item.CanonicalID())

	// Remote results follow in rank order.
	assert.Equal(t, OriginRemote, merged[2].Item.Origin())
	assert.GreaterOrEqual(t, merged[2].Score, merged[3].Score)
}

// No remote item survives with a dedup key already present locally.
func TestMerger_LocalCollisionDropped(t *testing.T) {
	merger := newTestMerger()
	query := NewQueryParser().Parse("ali")

	local := []ScoredItem{
		{Item: UserItem{ID: "1", Name: "Alice", Source: OriginLocal}},
	}
	remote := []Item{
		// Same human under a different id and module origin.
		UserItem{ID: "42", Name: "alice", Source: OriginRemote},
		UserItem{ID: "2", Name: "Alina", Source: OriginRemote},
	}

	merged := merger.Merge(local, remote, query, 0)
	require.Len(t, merged, 2)
	assert.Equal(t, "1", merged[0].Item.CanonicalID())
	assert.Equal(t, "2", merged[1].Item.CanonicalID())

	keys := map[string]int{}
	for _, item := range merged {
		keys[item.Item.DedupKey()]++
	}
	for key, count := range keys {
		assert.Equal(t, 1, count, "duplicate dedup key %q in merged output", key)
	}
}

func TestMerger_RemoteDuplicatesCollapse(t *testing.T) {
	merger := newTestMerger()
	query := NewQueryParser().Parse("alice")

	// The same person arrives from the users module and as a remote
	// one-to-one chat; the normalized-name key collapses them.
	remote := []Item{
		ChatItem{ID: "c9", Title: "Alice", TypeCode: chatTypeOneToOne, Tag: ModuleUsers, Source: OriginRemote},
		UserItem{ID: "2", Name: "alice ", Source: OriginRemote},
	}

	merged := merger.Merge(nil, remote, query, 0)
	require.Len(t, merged, 1)
}

func TestMerger_MaxResultsCap(t *testing.T) {
	merger := newTestMerger()
	query := NewQueryParser().Parse("ali")

	local := []ScoredItem{
		{Item: UserItem{ID: "1", Name: "Alina", Source: OriginLocal}},
	}
	remote := []Item{
		UserItem{ID: "2", Name: "Alice", Source: OriginRemote},
		UserItem{ID: "3", Name: "Alison", Source: OriginRemote},
	}

	merged := merger.Merge(local, remote, query, 2)
	require.Len(t, merged, 2)
	assert.Equal(t, "1", merged[0].Item.CanonicalID(), "the cap never displaces local results")
}

func TestMerger_NonMatchingRemoteDropped(t *testing.T) {
	merger := newTestMerger()
	query := NewQueryParser().Parse("zzz")

	remote := []Item{
		UserItem{ID: "2", Name: "Alice", Source: OriginRemote},
	}

	merged := merger.Merge(nil, remote, query, 0)
	assert.Empty(t, merged)
}
