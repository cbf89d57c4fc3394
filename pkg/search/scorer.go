package search

import (
	"math"
	"sort"
	"strings"
)

// MatchType classifies how a keyword matched a field. Strength order:
// exact > startsWith > afterSpace > middle.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchStartsWith MatchType = "startsWith"
	MatchAfterSpace MatchType = "afterSpace"
	MatchMiddle     MatchType = "middle"
)

// ScoreMatch is a classified match with its raw score.
type ScoreMatch struct {
	Type  MatchType
	Score float64
}

// ScoreConfig holds the per-classification match scores.
type ScoreConfig struct {
	Exact      float64
	StartsWith float64
	AfterSpace float64
	Middle     float64
}

// DefaultScoreConfig returns the default match scores.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Exact:      1.5,
		StartsWith: 1.0,
		AfterSpace: 0.6,
		Middle:     0.3,
	}
}

// WeightTable maps module tags to positive score multipliers.
type WeightTable map[Module]float64

// DefaultWeights returns the built-in module weight table.
func DefaultWeights() WeightTable {
	return WeightTable{
		ModuleUsers:    2.0,
		ModuleChannels: 1.5,
		ModuleChats:    1.5,
		ModuleBots:     1.2,
		ModuleThreads:  1.1,
		ModuleMessages: 1.0,
		ModuleFiles:    1.0,
	}
}

// Weight returns the multiplier for a module, defaulting to 1 when the
// module is unknown or the configured weight is not positive.
func (w WeightTable) Weight(m Module) float64 {
	if weight, ok := w[m]; ok && weight > 0 {
		return weight
	}
	return 1
}

// Scorer scores candidate items against parsed queries.
type Scorer struct {
	config ScoreConfig
}

// NewScorer creates a scorer with the given match scores.
func NewScorer(config ScoreConfig) *Scorer {
	return &Scorer{config: config}
}

// DetectMatch classifies how keyword matches field. Both operands are
// trimmed and compared case-insensitively; an empty operand never
// matches. Returns nil when there is no match.
func (s *Scorer) DetectMatch(keyword, field string) *ScoreMatch {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	field = strings.ToLower(strings.TrimSpace(field))
	if keyword == "" || field == "" {
		return nil
	}

	switch {
	case field == keyword:
		return &ScoreMatch{Type: MatchExact, Score: s.config.Exact}
	case strings.HasPrefix(field, keyword):
		return &ScoreMatch{Type: MatchStartsWith, Score: s.config.StartsWith}
	case strings.Contains(field, " "+keyword):
		return &ScoreMatch{Type: MatchAfterSpace, Score: s.config.AfterSpace}
	case strings.Contains(field, keyword):
		return &ScoreMatch{Type: MatchMiddle, Score: s.config.Middle}
	}
	return nil
}

// BestFieldMatch evaluates keyword against every field and keeps the
// highest-scoring match. Ties resolve to the first field seen.
func (s *Scorer) BestFieldMatch(keyword string, fields []string) *ScoreMatch {
	var best *ScoreMatch
	for _, field := range fields {
		match := s.DetectMatch(keyword, field)
		if match == nil {
			continue
		}
		if best == nil || match.Score > best.Score {
			best = match
		}
	}
	return best
}

// ScoreQuery finds the best match for a query against a field set.
// With more than one keyword the whole phrase is also scored as a
// single unit, and the stronger of phrase-level and best-keyword wins;
// a multi-word phrase hit is rewarded without penalizing a strong
// single-keyword hit.
func (s *Scorer) ScoreQuery(keywords []string, phrase string, fields []string) *ScoreMatch {
	var best *ScoreMatch
	for _, keyword := range keywords {
		match := s.BestFieldMatch(keyword, fields)
		if match == nil {
			continue
		}
		if best == nil || match.Score > best.Score {
			best = match
		}
	}

	if len(keywords) > 1 {
		if phraseMatch := s.BestFieldMatch(phrase, fields); phraseMatch != nil {
			if best == nil || phraseMatch.Score > best.Score {
				best = phraseMatch
			}
		}
	}

	return best
}

// ComputeScore produces the final weighted score for an item, rounded
// to 6 decimal places. The boolean is false when no field matched any
// keyword or the phrase, meaning the item is excluded.
func (s *Scorer) ComputeScore(keywords []string, phrase string, fields []string, weight float64) (ScoreMatch, float64, bool) {
	match := s.ScoreQuery(keywords, phrase, fields)
	if match == nil {
		return ScoreMatch{}, 0, false
	}
	if weight <= 0 {
		weight = 1
	}
	return *match, round6(match.Score * weight), true
}

// Rank scores every candidate against the query, drops non-matches and
// sorts descending by final score. Equal scores keep discovery order.
func (s *Scorer) Rank(items []Item, query *ParsedQuery, weights WeightTable) []ScoredItem {
	ranked := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		match, score, ok := s.ComputeScore(query.Keywords, query.Phrase, item.DisplayFields(), weights.Weight(item.Module()))
		if !ok {
			continue
		}
		ranked = append(ranked, ScoredItem{
			Item:       item,
			Score:      score,
			Match:      match.Type,
			MatchScore: match.Score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// DeduplicateBy collapses items sharing a key, keeping the highest
// scorer of each group (first seen on a tie), and re-sorts the result
// descending by score.
func DeduplicateBy(items []ScoredItem, keyFn func(ScoredItem) string) []ScoredItem {
	best := make(map[string]int, len(items))
	out := make([]ScoredItem, 0, len(items))

	for _, item := range items {
		key := keyFn(item)
		if idx, seen := best[key]; seen {
			if item.Score > out[idx].Score {
				out[idx] = item
			}
			continue
		}
		best[key] = len(out)
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// DefaultDedupKey is the default dedup key function: the item's own
// module-specific key.
func DefaultDedupKey(item ScoredItem) string {
	return item.Item.DedupKey()
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
