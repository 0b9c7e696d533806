// Package lexicon holds the stop-word and synonym tables of the lite engine
// and expands query tokens with their synonyms.
package lexicon

import (
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
)

// DefaultStopwords is the built-in bilingual (English and Romanian) list.
var DefaultStopwords = []string{
	// English
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has",
	"in", "is", "it", "its", "of", "on", "or", "that", "the", "to", "was",
	"were", "will", "with", "this", "but", "not", "no", "so", "can", "all",
	"any", "our", "your", "you",
	// Romanian
	"si", "sau", "de", "la", "cu", "pe", "in", "din", "pentru", "un", "una",
	"unei", "unui", "este", "sunt", "care", "ce", "mai", "fara", "prin",
	"al", "ale", "lui", "ca", "se", "nu",
}

// DefaultSynonyms maps a term to the terms a query for it should also match.
// Entries are bilingual so a Romanian query finds English product names and
// the other way round.
var DefaultSynonyms = map[string][]string{
	"casti":      {"headphones", "earphones", "headset"},
	"headphones": {"casti", "earphones", "headset"},
	"telefon":    {"phone", "smartphone", "mobil"},
	"phone":      {"telefon", "smartphone"},
	"smartphone": {"telefon", "phone"},
	"laptop":     {"notebook", "ultrabook"},
	"notebook":   {"laptop"},
	"televizor":  {"tv", "television"},
	"tv":         {"televizor", "television"},
	"incarcator": {"charger", "adaptor"},
	"charger":    {"incarcator", "adapter"},
	"husa":       {"case", "cover"},
	"case":       {"husa", "cover"},
	"pantofi":    {"shoes", "incaltaminte"},
	"shoes":      {"pantofi", "sneakers"},
	"tricou":     {"tshirt", "shirt"},
	"tshirt":     {"tricou"},
	"geanta":     {"bag", "backpack"},
	"bag":        {"geanta"},
	"ceas":       {"watch", "smartwatch"},
	"watch":      {"ceas", "smartwatch"},
	"tastatura":  {"keyboard"},
	"keyboard":   {"tastatura"},
	"mouse":      {"soarece"},
	"frigider":   {"fridge", "refrigerator"},
	"fridge":     {"frigider", "refrigerator"},
	"wireless":   {"bluetooth", "fara fir"},
	"bluetooth":  {"wireless"},
	"boxa":       {"speaker", "difuzor"},
	"speaker":    {"boxa", "difuzor"},
	"imprimanta": {"printer"},
	"printer":    {"imprimanta"},
	"aspirator":  {"vacuum"},
	"vacuum":     {"aspirator"},
	"cafetiera":  {"coffee", "espressor"},
	"espressor":  {"coffee", "cafetiera"},
	"monitor":    {"display", "ecran"},
	"ecran":      {"display", "monitor", "screen"},
	"jucarie":    {"toy", "jucarii"},
	"toy":        {"jucarie"},
	"cosmetice":  {"cosmetics", "makeup"},
	"parfum":     {"perfume", "fragrance"},
	"perfume":    {"parfum"},
	"bicicleta":  {"bike", "bicycle"},
	"bike":       {"bicicleta", "bicycle"},

	"electrocasnice": {"appliances"},
}

// Lexicon is the immutable pair of tables one engine instance works with.
type Lexicon struct {
	tokenizer *tokenizer.Tokenizer
	synonyms  map[string][]string
}

// New builds a Lexicon from configuration. A non-empty stop-word list or
// synonym map in cfg replaces the corresponding built-in table.
func New(cfg config.LiteConfig) *Lexicon {
	stopwords := DefaultStopwords
	if len(cfg.Stopwords) > 0 {
		stopwords = cfg.Stopwords
	}
	synonyms := DefaultSynonyms
	if len(cfg.Synonyms) > 0 {
		synonyms = cfg.Synonyms
	}
	return NewWithTables(stopwords, synonyms)
}

// NewWithTables builds a Lexicon from explicit tables. Keys and values are
// normalised with the lexicon's own tokenizer; multi-word synonyms
// contribute every token they contain.
func NewWithTables(stopwords []string, synonyms map[string][]string) *Lexicon {
	tok := tokenizer.New(stopwords)
	l := &Lexicon{
		tokenizer: tok,
		synonyms:  make(map[string][]string, len(synonyms)),
	}
	for key, values := range synonyms {
		normKey := tokenizer.Normalize(key)
		if normKey == "" {
			continue
		}
		expanded := l.synonyms[normKey]
		for _, v := range values {
			expanded = append(expanded, tok.Tokenize(v)...)
		}
		if len(expanded) > 0 {
			l.synonyms[normKey] = expanded
		}
	}
	return l
}

// Tokenizer returns the tokenizer configured with this lexicon's stop-words.
func (l *Lexicon) Tokenizer() *tokenizer.Tokenizer {
	return l.tokenizer
}

// Synonyms returns the normalised synonyms of a single token.
func (l *Lexicon) Synonyms(token string) []string {
	return l.synonyms[token]
}

// Expand returns the de-duplicated union of tokens and their synonyms in
// first-seen order. It is applied to queries only, never to documents.
func (l *Lexicon) Expand(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens)*2)
	result := make([]string, 0, len(tokens)*2)
	add := func(term string) {
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		result = append(result, term)
	}
	for _, token := range tokens {
		add(token)
		for _, syn := range l.synonyms[token] {
			add(syn)
		}
	}
	return result
}

// TokenizeQuery tokenizes and expands a raw query string.
func (l *Lexicon) TokenizeQuery(query string) []string {
	return l.Expand(l.tokenizer.Tokenize(query))
}
