package search

// Merger ranks remote records and concatenates them after the local
// results, deduplicated within the remote set and against the local
// set. Local results are never reordered or overridden by remote
// results.
type Merger struct {
	scorer  *Scorer
	weights WeightTable
	keyFn   func(ScoredItem) string
}

// NewMerger creates a merger. keyFn may be nil, in which case each
// item's own module-specific dedup key is used.
func NewMerger(scorer *Scorer, weights WeightTable, keyFn func(ScoredItem) string) *Merger {
	if keyFn == nil {
		keyFn = DefaultDedupKey
	}
	return &Merger{scorer: scorer, weights: weights, keyFn: keyFn}
}

// Merge produces the final ordered list: all local results in their
// local order, then the ranked, deduplicated remote results whose
// dedup keys do not collide with any local result. maxResults <= 0
// means no cap.
func (m *Merger) Merge(local []ScoredItem, remote []Item, query *ParsedQuery, maxResults int) []ScoredItem {
	ranked := m.scorer.Rank(remote, query, m.weights)
	ranked = DeduplicateBy(ranked, m.keyFn)

	localKeys := make(map[string]bool, len(local))
	for _, item := range local {
		localKeys[m.keyFn(item)] = true
	}

	merged := make([]ScoredItem, 0, len(local)+len(ranked))
	merged = append(merged, local...)
	for _, item := range ranked {
		if localKeys[m.keyFn(item)] {
			continue
		}
		merged = append(merged, item)
	}

	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}
