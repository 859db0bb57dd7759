package encoder

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/HartBrook/cpf/internal/notation"
)

type tokKind int

const (
	wordTok tokKind = iota
	opTok
	punctTok
	litTok   // protected text, restored verbatim
	openTok  // grouping parenthesis
	closeTok // grouping parenthesis
)

type tok struct {
	text  string
	kind  tokKind
	space bool // preceded by whitespace
}

func (t tok) operand() bool {
	return t.kind == wordTok || t.kind == litTok
}

func (t tok) binary() bool {
	return t.kind == opTok && notation.IsBinary(t.text)
}

func (t tok) connector() bool {
	return t.kind == opTok && (t.text == notation.And || t.text == notation.Or)
}

func (t tok) isWord(words ...string) bool {
	if t.kind != wordTok {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

const (
	litOpen  = '\uE000'
	litClose = '\uE001'
)

// literals holds protected spans while a line is being compressed.
type literals []string

func (l *literals) add(text string) string {
	*l = append(*l, text)
	return string(litOpen) + strconv.Itoa(len(*l)-1) + string(litClose)
}

func (l literals) restore(s string) string {
	if len(l) == 0 {
		return s
	}
	var b strings.Builder
	for {
		start := strings.IndexRune(s, litOpen)
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexRune(s[start:], litClose)
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		idx, err := strconv.Atoi(s[start+utf8.RuneLen(litOpen) : start+end])
		if err == nil && idx < len(l) {
			b.WriteString(l[idx])
		}
		s = s[start+end+utf8.RuneLen(litClose):]
	}
}

// lex splits compressed-in-progress text into tokens.
func lex(s string) []tok {
	var out []tok
	space := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			space = true
			i += size
			continue
		case r == litOpen:
			end := strings.IndexRune(s[i:], litClose)
			if end < 0 {
				end = len(s) - i - utf8.RuneLen(litClose)
			}
			stop := i + end + utf8.RuneLen(litClose)
			out = append(out, tok{text: s[i:stop], kind: litTok, space: space})
			i = stop
		case notation.IsWordRune(r):
			start := i
			i += size
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if notation.IsWordRune(r) {
					i += size
					continue
				}
				if (r == '-' || r == '\'' || r == '.') && i+size < len(s) {
					next, _ := utf8.DecodeRuneInString(s[i+size:])
					if notation.IsWordRune(next) {
						i += size
						continue
					}
				}
				break
			}
			out = append(out, tok{text: s[start:i], kind: wordTok, space: space})
		default:
			if sym, ok := notation.MatchOperator(s[i:]); ok {
				out = append(out, tok{text: sym, kind: opTok, space: space})
				i += len(sym)
			} else {
				out = append(out, tok{text: string(r), kind: punctTok, space: space})
				i += size
			}
		}
		space = false
	}
	return out
}

// render joins tokens. Binary operators and grouping parentheses take no
// surrounding space; prefix operators bind to what follows.
func render(toks []tok) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.space && spaced(toks[i-1], t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func spaced(prev, cur tok) bool {
	switch {
	case prev.kind == opTok, prev.kind == openTok, prev.kind == closeTok:
		return false
	case cur.binary(), cur.kind == openTok, cur.kind == closeTok:
		return false
	}
	return true
}
