// Package ranker scores lite index documents against expanded query tokens
// and orders them.
package ranker

import (
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/document"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/index"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/tokenizer"
)

const (
	BrandBoost    = 1.5
	CategoryBoost = 1.3
	InStockBoost  = 1.2
	RecencyBoost  = 1.1

	// RecencyWindow is how young a product must be to get RecencyBoost.
	RecencyWindow = 30 * 24 * time.Hour
)

// ScoredDoc is a ranked document with its boosted score.
type ScoredDoc struct {
	DocID int64   `json:"doc_id"`
	Score float64 `json:"score"`
}

// Score sums weight(term, doc) * multiplier over every (token, matched
// term) pair. Every matched document gets an entry, even at zero weight.
func Score(idx *index.Index, tokens []string) map[int64]float64 {
	scores := make(map[int64]float64)
	for _, token := range tokens {
		for _, m := range idx.Match(token) {
			for docID, weight := range idx.Terms[m.Term] {
				scores[docID] += weight * m.Multiplier
			}
		}
	}
	return scores
}

// QueryText is the lowercase space-joined form of the expanded tokens that
// brand and category boosts are matched against.
func QueryText(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Boost applies the multiplicative boosts to score in a fixed order: brand,
// first matching category, in stock, recency.
func Boost(score float64, doc document.Document, queryText string, now time.Time) float64 {
	if brand := tokenizer.Normalize(strings.TrimSpace(doc.Brand)); brand != "" && strings.Contains(queryText, brand) {
		score *= BrandBoost
	}
	for _, category := range doc.Categories {
		c := tokenizer.Normalize(strings.TrimSpace(category))
		if c != "" && strings.Contains(queryText, c) {
			score *= CategoryBoost
			break
		}
	}
	if doc.StockStatus.InStock() {
		score *= InStockBoost
	}
	if !doc.CreatedAt.IsZero() && now.Sub(doc.CreatedAt) < RecencyWindow {
		score *= RecencyBoost
	}
	return score
}

// Rank scores, boosts and orders idx's documents for tokens. Ties are
// broken by ascending document id. A limit <= 0 returns every match.
func Rank(idx *index.Index, tokens []string, now time.Time, limit int) []ScoredDoc {
	scores := Score(idx, tokens)
	if len(scores) == 0 {
		return nil
	}
	queryText := QueryText(tokens)
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		doc, ok := idx.Metadata[docID]
		if !ok {
			continue
		}
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: Boost(score, doc, queryText, now),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// IDs returns the document ids of docs in order.
func IDs(docs []ScoredDoc) []int64 {
	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID
	}
	return ids
}
