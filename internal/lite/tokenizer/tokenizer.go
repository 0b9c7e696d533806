// Package tokenizer provides text tokenisation for the lite search engine.
// It strips HTML, lower-cases input, folds diacritics to their base Latin
// letters, splits on non-alphanumeric boundaries and removes stop-words.
package tokenizer

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinTokenLength is the shortest token, in runes, that survives tokenisation.
const MinTokenLength = 2

var stripPolicy = bluemonday.StrictPolicy()

// Tokenizer turns free text into normalised search terms. It is safe for
// concurrent use; the stop-word set is never modified after New.
type Tokenizer struct {
	stopWords map[string]struct{}
}

// New returns a Tokenizer that drops the given stop-words. Stop-words are
// normalised the same way as input text, so "fără" and "FARA" are equal.
func New(stopWords []string) *Tokenizer {
	t := &Tokenizer{stopWords: make(map[string]struct{}, len(stopWords))}
	for _, w := range stopWords {
		w = Normalize(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		t.stopWords[w] = struct{}{}
	}
	return t
}

// Tokenize breaks text into lowercased, diacritic-free terms with HTML,
// short tokens and stop-words removed. Order of appearance is preserved and
// duplicates are kept, so callers can count term frequency.
func (t *Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = Normalize(StripHTML(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) < MinTokenLength {
			continue
		}
		if t.IsStopWord(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// IsStopWord reports whether an already normalised word is a stop-word.
func (t *Tokenizer) IsStopWord(word string) bool {
	_, ok := t.stopWords[word]
	return ok
}

// Normalize lower-cases text and folds diacritics (ă→a, î→i, ș→s, ț→t, ...).
func Normalize(text string) string {
	return Fold(strings.ToLower(text))
}

// Fold removes combining marks after canonical decomposition. Both the
// comma-below (ș, ț) and the legacy cedilla (ş, ţ) forms fold to s and t.
func Fold(text string) string {
	if isASCII(text) {
		return text
	}
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, text)
	if err != nil {
		return text
	}
	return folded
}

// StripHTML removes every tag and decodes entities, leaving plain text.
// Tags are replaced by a space so adjacent block contents do not fuse.
func StripHTML(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}
	text = strings.ReplaceAll(text, "<", " <")
	return html.UnescapeString(stripPolicy.Sanitize(text))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
