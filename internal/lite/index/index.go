// Package index holds the TF-IDF inverted index of the lite engine and the
// builder that produces it from the catalog.
package index

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/document"
)

// MinPrefixLength is the shortest query token tried as a prefix.
const MinPrefixLength = 3

// minPrefixMultiplier is the floor applied to prefix match weights.
const minPrefixMultiplier = 0.5

// Index is an immutable snapshot of the catalog. Once returned by a Builder
// or decoded from a cache it must not be modified.
type Index struct {
	Documents map[int64]map[string]int     `json:"documents"`
	Terms     map[string]map[int64]float64 `json:"terms"`
	Metadata  map[int64]document.Document  `json:"metadata"`
	Limit     int                          `json:"limit"`
	BuiltAt   time.Time                    `json:"built_at"`

	sorted []string
}

// Match is an index term a query token resolved to.
type Match struct {
	Term       string
	Multiplier float64
}

// Stats summarises an index.
type Stats struct {
	IndexedCount int
	TermCount    int
	BuiltAt      time.Time
}

// New returns an empty, sealed index.
func New(limit int, builtAt time.Time) *Index {
	idx := &Index{
		Documents: make(map[int64]map[string]int),
		Terms:     make(map[string]map[int64]float64),
		Metadata:  make(map[int64]document.Document),
		Limit:     limit,
		BuiltAt:   builtAt,
	}
	return idx.Seal()
}

// Seal derives the sorted term list used for prefix lookup. It must be
// called after decoding an index; nil maps are replaced with empty ones.
func (idx *Index) Seal() *Index {
	if idx.Documents == nil {
		idx.Documents = make(map[int64]map[string]int)
	}
	if idx.Terms == nil {
		idx.Terms = make(map[string]map[int64]float64)
	}
	if idx.Metadata == nil {
		idx.Metadata = make(map[int64]document.Document)
	}
	idx.sorted = make([]string, 0, len(idx.Terms))
	for term := range idx.Terms {
		idx.sorted = append(idx.sorted, term)
	}
	sort.Strings(idx.sorted)
	return idx
}

// Match resolves a query token to index terms: the identical term with
// multiplier 1.0, and for tokens of at least MinPrefixLength runes every
// other term starting with it, weighted by len(token)/len(term) with a
// floor of 0.5.
func (idx *Index) Match(token string) []Match {
	var matches []Match
	if _, ok := idx.Terms[token]; ok {
		matches = append(matches, Match{Term: token, Multiplier: 1.0})
	}
	tokenLen := utf8.RuneCountInString(token)
	if tokenLen < MinPrefixLength {
		return matches
	}
	start := sort.SearchStrings(idx.sorted, token)
	for _, term := range idx.sorted[start:] {
		if !strings.HasPrefix(term, token) {
			break
		}
		if term == token {
			continue
		}
		m := float64(tokenLen) / float64(utf8.RuneCountInString(term))
		if m < minPrefixMultiplier {
			m = minPrefixMultiplier
		}
		matches = append(matches, Match{Term: term, Multiplier: m})
	}
	return matches
}

// Weight returns the tf-idf weight of term in doc, zero when absent.
func (idx *Index) Weight(term string, docID int64) float64 {
	return idx.Terms[term][docID]
}

// Len reports the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.Metadata)
}

// Empty reports whether the index holds no documents.
func (idx *Index) Empty() bool {
	return len(idx.Metadata) == 0
}

// Stats summarizes the index.
func (idx *Index) Stats() Stats {
	return Stats{
		IndexedCount: len(idx.Metadata),
		TermCount:    len(idx.Terms),
		BuiltAt:      idx.BuiltAt,
	}
}
