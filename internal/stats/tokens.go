// Package stats measures how much a compact document saves over its source.
package stats

import (
	"strings"
	"unicode/utf8"
)

// Tokenizer counts tokens in text. Real model tokenizers live outside this
// module; callers can plug one in.
type Tokenizer interface {
	Count(text string) int
}

// EstimateTokenizer approximates model tokens as one per four runes.
type EstimateTokenizer struct{}

// Count uses rune count (not byte count) so non-ASCII text is not inflated.
func (EstimateTokenizer) Count(text string) int {
	return CountTokens(text)
}

// CountTokens estimates the token count of text as runes/4.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return utf8.RuneCountInString(text) / 4
}

// TokenStats holds before/after token counts.
type TokenStats struct {
	Before int
	After  int
}

// Saved returns the number of tokens saved.
func (s TokenStats) Saved() int {
	return s.Before - s.After
}

// PercentReduction returns the percentage reduction (0-100). It is negative
// when the result grew.
func (s TokenStats) PercentReduction() float64 {
	if s.Before == 0 {
		return 0
	}
	return float64(s.Saved()) / float64(s.Before) * 100
}

// TextStats describes one text.
type TextStats struct {
	Lines  int
	Chars  int
	Tokens int
}

// Measure counts lines, characters and tokens. A nil tokenizer means the
// estimate.
func Measure(text string, tok Tokenizer) TextStats {
	if tok == nil {
		tok = EstimateTokenizer{}
	}
	lines := 0
	if text != "" {
		lines = strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
	}
	return TextStats{
		Lines:  lines,
		Chars:  utf8.RuneCountInString(text),
		Tokens: tok.Count(text),
	}
}

// Compare reports the token change from original to encoded.
func Compare(original, encoded string, tok Tokenizer) TokenStats {
	return TokenStats{
		Before: Measure(original, tok).Tokens,
		After:  Measure(encoded, tok).Tokens,
	}
}

var tokenizers = map[string]Tokenizer{
	"estimate": EstimateTokenizer{},
}

// TokenizerByName returns a tokenizer by its config name.
func TokenizerByName(name string) (Tokenizer, bool) {
	tok, ok := tokenizers[name]
	return tok, ok
}
