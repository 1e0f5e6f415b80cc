package services

import (
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KeywordExtractor pulls salient nouns out of query text with a
// part-of-speech tagger. Only common and proper nouns longer than two
// runes survive the filter; for text the tagger cannot segment into
// nouns (most non-Japanese input) the result is empty and keyword
// scoring degrades to zero.
type KeywordExtractor struct {
	tok *tokenizer.Tokenizer
}

// POS classes retained by the filter.
const (
	posNoun       = "名詞"
	posNounCommon = "一般"
	posNounProper = "固有名詞"
)

// minKeywordRunes is the exclusive lower bound on keyword length.
const minKeywordRunes = 2

// NewKeywordExtractor creates an extractor backed by the IPA dictionary.
func NewKeywordExtractor() (*KeywordExtractor, error) {
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &KeywordExtractor{tok: tok}, nil
}

// Extract returns the deduplicated salient keywords of the given texts,
// in first-seen order.
func (e *KeywordExtractor) Extract(texts []string) []string {
	seen := make(map[string]bool)
	var keywords []string

	for _, text := range texts {
		for _, token := range e.tok.Tokenize(text) {
			features := token.Features()
			if len(features) < 2 || features[0] != posNoun {
				continue
			}
			if features[1] != posNounCommon && features[1] != posNounProper {
				continue
			}
			if utf8.RuneCountInString(token.Surface) <= minKeywordRunes {
				continue
			}
			if !seen[token.Surface] {
				seen[token.Surface] = true
				keywords = append(keywords, token.Surface)
			}
		}
	}
	return keywords
}
