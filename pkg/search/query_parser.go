package search

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultFilterTokens is the recognized filter-token vocabulary.
// Keys are matched case-insensitively.
var DefaultFilterTokens = []string{
	"from", "to", "in", "after", "before", "on",
	"filenamehas", "linkhas", "filehas", "fileobject",
}

// ParsedQuery is the structured form of a raw search input. It is
// immutable once produced; re-parse when the raw text changes.
type ParsedQuery struct {
	// Raw is the original input text.
	Raw string `json:"raw"`

	// Phrase is the text left after filter-token removal, with
	// whitespace collapsed and trimmed.
	Phrase string `json:"phrase"`

	// Keywords are the whitespace-separated words of Phrase, in order.
	Keywords []string `json:"keywords"`

	// Filters maps recognized filter keys (lowercased) to their
	// values, with any leading @ or # stripped from the value.
	Filters map[string]string `json:"filters"`
}

// IsEmpty reports whether the query carries no keywords and no filters.
func (q *ParsedQuery) IsEmpty() bool {
	return len(q.Keywords) == 0 && len(q.Filters) == 0
}

// IsMultiWord reports whether the query has two or more keywords.
func (q *ParsedQuery) IsMultiWord() bool {
	return len(q.Keywords) >= 2
}

// NeedsServerFetch signals that the query is worth a remote round
// trip: the phrase reaches minLen or any filter is present. Advisory
// only; callers decide whether to act on it.
func (q *ParsedQuery) NeedsServerFetch(minLen int) bool {
	return len([]rune(q.Phrase)) >= minLen || len(q.Filters) > 0
}

// Serialize renders the query as its canonical text form: the phrase
// followed by the filters sorted lexicographically by key, each as
// "key:value", space-joined. Re-parsing the result reproduces the
// same keywords and filters.
func (q *ParsedQuery) Serialize() string {
	parts := make([]string, 0, len(q.Filters)+1)
	if q.Phrase != "" {
		parts = append(parts, q.Phrase)
	}

	keys := make([]string, 0, len(q.Filters))
	for key := range q.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+":"+q.Filters[key])
	}

	return strings.Join(parts, " ")
}

// QueryParser extracts filter tokens and free text from raw input.
type QueryParser struct {
	filterPattern *regexp.Regexp
	tokens        map[string]bool
}

// NewQueryParser creates a parser over the default filter vocabulary.
func NewQueryParser() *QueryParser {
	return NewQueryParserWithTokens(DefaultFilterTokens)
}

// NewQueryParserWithTokens creates a parser over a custom vocabulary.
func NewQueryParserWithTokens(tokens []string) *QueryParser {
	// Pattern to match filters: key:value with no whitespace in value.
	filterPattern := regexp.MustCompile(`([\w-]+):(\S+)`)

	recognized := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		recognized[strings.ToLower(token)] = true
	}

	return &QueryParser{
		filterPattern: filterPattern,
		tokens:        recognized,
	}
}

// Parse parses raw input into a ParsedQuery. Parsing never fails;
// malformed input degrades to an empty or partial parse. Tokens whose
// key is not in the vocabulary stay in the free text untouched, and a
// repeated key keeps its last occurrence.
func (p *QueryParser) Parse(raw string) *ParsedQuery {
	query := &ParsedQuery{
		Raw:     raw,
		Filters: make(map[string]string),
	}

	// Remove recognized filter tokens, collecting them as we go.
	clean := p.filterPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := p.filterPattern.FindStringSubmatch(match)
		key := strings.ToLower(sub[1])
		if !p.tokens[key] {
			return match // unrecognized key stays in the text
		}
		query.Filters[key] = strings.TrimLeft(sub[2], "@#")
		return ""
	})

	// Whatever is left, whitespace-collapsed, is the phrase.
	query.Keywords = strings.Fields(clean)
	query.Phrase = strings.Join(query.Keywords, " ")

	return query
}
