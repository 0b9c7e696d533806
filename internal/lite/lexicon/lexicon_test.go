package lexicon

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestExpandAddsSynonymsOnce(t *testing.T) {
	lex := NewWithTables(nil, map[string][]string{
		"casti":      {"headphones", "earphones"},
		"headphones": {"casti"},
	})

	got := lex.Expand([]string{"casti", "headphones", "casti"})
	assert.Equal(t, []string{"casti", "headphones", "earphones"}, got)
}

func TestExpandWithoutSynonyms(t *testing.T) {
	lex := NewWithTables(nil, nil)
	assert.Equal(t, []string{"lamp", "desk"}, lex.Expand([]string{"lamp", "desk"}))
	assert.Nil(t, lex.Expand(nil))
}

func TestSynonymTablesAreNormalized(t *testing.T) {
	lex := NewWithTables([]string{"de"}, map[string][]string{
		"Căști": {"Head-Phones", "căști de urechi"},
	})

	assert.Equal(t, []string{"head", "phones", "casti", "urechi"}, lex.Synonyms("casti"))
}

func TestTokenizeQuery(t *testing.T) {
	lex := New(config.LiteConfig{})

	got := lex.TokenizeQuery("Căști pentru telefon")
	assert.Contains(t, got, "casti")
	assert.Contains(t, got, "headphones")
	assert.Contains(t, got, "telefon")
	assert.Contains(t, got, "smartphone")
	assert.NotContains(t, got, "pentru")
}

func TestConfigOverridesReplaceDefaults(t *testing.T) {
	lex := New(config.LiteConfig{
		Stopwords: []string{"cheap"},
		Synonyms:  map[string][]string{"sofa": {"couch"}},
	})

	assert.Equal(t, []string{"the", "sofa", "couch"}, lex.TokenizeQuery("the cheap sofa"))
	assert.Empty(t, lex.Synonyms("casti"))
}

func TestDefaultTablesLoad(t *testing.T) {
	lex := New(config.LiteConfig{})
	assert.True(t, lex.Tokenizer().IsStopWord("the"))
	assert.True(t, lex.Tokenizer().IsStopWord("fara"))
	assert.Contains(t, lex.Synonyms("wireless"), "bluetooth")
	assert.Contains(t, lex.Synonyms("wireless"), "fir")
}
