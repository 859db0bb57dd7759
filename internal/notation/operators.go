package notation

import (
	"sort"
	"strings"
)

// Operator symbols.
const (
	If        = "?"
	Unless    = "?!"
	Then      = "->"
	Otherwise = ";"
	And       = "+"
	Or        = "|"
	Never     = "!!"
	Must      = "*"
	Means     = "::"
	See       = "@>"
	Produces  = "=>"
)

// Operator is one entry of the logical grammar.
type Operator struct {
	Symbol string
	Name   string
	// Phrase is the natural-language wording the decoder emits.
	Phrase string
	// Cues are the phrases the encoder recognizes for this operator.
	Cues []string
	// Binary operators need content on both sides.
	Binary bool
}

var operators = []Operator{
	{Symbol: Unless, Name: "unless", Phrase: "unless", Cues: []string{"if not", "unless"}},
	{Symbol: Then, Name: "then", Phrase: "then", Cues: []string{"then"}, Binary: true},
	{Symbol: Never, Name: "never", Phrase: "never", Cues: []string{"never", "do not", "don't", "must not", "should not", "cannot", "can't", "avoid"}},
	{Symbol: Means, Name: "means", Phrase: "means", Cues: []string{"means", "is defined as", "stands for"}, Binary: true},
	{Symbol: See, Name: "see", Phrase: "see", Cues: []string{"see", "refer to"}},
	{Symbol: Produces, Name: "produces", Phrase: "results in", Cues: []string{"results in", "leads to", "produces"}, Binary: true},
	{Symbol: If, Name: "if", Phrase: "if", Cues: []string{"if", "when", "whenever"}},
	{Symbol: Otherwise, Name: "otherwise", Phrase: "otherwise", Cues: []string{"otherwise", "else"}},
	{Symbol: And, Name: "and", Phrase: "and", Cues: []string{"and", "as well as", "along with", "plus"}, Binary: true},
	{Symbol: Or, Name: "or", Phrase: "or", Cues: []string{"or", "alternatively"}, Binary: true},
	{Symbol: Must, Name: "must", Phrase: "must", Cues: []string{"must", "always", "ensure", "make sure", "important"}},
}

var (
	bySymbol = make(map[string]Operator, len(operators))
	byCue    = make(map[string]string)
	// symbols sorted longest first for greedy scanning.
	symbols []string
)

func init() {
	for _, op := range operators {
		bySymbol[op.Symbol] = op
		symbols = append(symbols, op.Symbol)
		for _, cue := range op.Cues {
			byCue[normalizeTerm(cue)] = op.Symbol
		}
	}
	sort.SliceStable(symbols, func(i, j int) bool { return len(symbols[i]) > len(symbols[j]) })
}

// Operators returns the grammar in scan order.
func Operators() []Operator {
	out := make([]Operator, len(operators))
	copy(out, operators)
	return out
}

// LookupOperator returns the symbol for a natural-language cue.
func LookupOperator(phrase string) (string, bool) {
	symbol, ok := byCue[normalizeTerm(phrase)]
	return symbol, ok
}

// ExpandOperator returns the natural-language wording for a symbol.
func ExpandOperator(symbol string) (string, bool) {
	op, ok := bySymbol[symbol]
	if !ok {
		return "", false
	}
	return op.Phrase, true
}

// OperatorBySymbol returns the full operator definition for a symbol.
func OperatorBySymbol(symbol string) (Operator, bool) {
	op, ok := bySymbol[symbol]
	return op, ok
}

// MatchOperator returns the longest operator symbol at the start of s.
func MatchOperator(s string) (string, bool) {
	for _, sym := range symbols {
		if strings.HasPrefix(s, sym) {
			return sym, true
		}
	}
	return "", false
}

// IsBinary reports whether symbol joins two operands.
func IsBinary(symbol string) bool {
	return bySymbol[symbol].Binary
}

// ContainsOperatorChar reports whether s holds a character that can start an
// operator symbol. Text like that must be quoted to be read literally.
func ContainsOperatorChar(s string) bool {
	if strings.ContainsAny(s, "?;+|*") {
		return true
	}
	for _, sym := range symbols {
		if len(sym) > 1 && strings.Contains(s, sym) {
			return true
		}
	}
	return false
}
