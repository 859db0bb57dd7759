package notation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is a run of a line that is either a backtick literal or notation.
type Segment struct {
	Text    string
	Literal bool // Text includes the surrounding backticks
}

// Segments splits a line on backtick spans. An unclosed backtick makes the
// rest of the line literal.
func Segments(line string) []Segment {
	var out []Segment
	for line != "" {
		start := strings.IndexByte(line, '`')
		if start < 0 {
			out = append(out, Segment{Text: line})
			break
		}
		if start > 0 {
			out = append(out, Segment{Text: line[:start]})
		}
		end := strings.IndexByte(line[start+1:], '`')
		if end < 0 {
			out = append(out, Segment{Text: line[start:], Literal: true})
			break
		}
		stop := start + 1 + end + 1
		out = append(out, Segment{Text: line[start:stop], Literal: true})
		line = line[stop:]
	}
	return out
}

// Unquoted returns line with every backtick literal blanked out, keeping
// byte offsets intact.
func Unquoted(line string) string {
	var b strings.Builder
	for _, seg := range Segments(line) {
		if seg.Literal {
			b.WriteString(strings.Repeat(" ", len(seg.Text)))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Masked returns line with every backtick literal replaced by underscores
// of the same length. Unlike Unquoted, a literal still counts as content
// next to an operator.
func Masked(line string) string {
	var b strings.Builder
	for _, seg := range Segments(line) {
		if seg.Literal {
			b.WriteString(strings.Repeat("_", len(seg.Text)))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Piece is a word run or the text between word runs.
type Piece struct {
	Text string
	Word bool
}

// IsWordRune reports whether r can be part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// joiner runes stay inside a word when they sit between two word runes,
// so kebab-case, don't and file.go are single words.
func isJoiner(r rune) bool {
	return r == '-' || r == '\'' || r == '.'
}

// Pieces splits notation text into words and separators.
func Pieces(s string) []Piece {
	var out []Piece
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		start := i
		if IsWordRune(r) {
			i += size
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if IsWordRune(r) {
					i += size
					continue
				}
				if isJoiner(r) && i+size < len(s) {
					next, _ := utf8.DecodeRuneInString(s[i+size:])
					if IsWordRune(next) {
						i += size
						continue
					}
				}
				break
			}
			out = append(out, Piece{Text: s[start:i], Word: true})
			continue
		}
		for i < len(s) {
			r, size = utf8.DecodeRuneInString(s[i:])
			if IsWordRune(r) {
				break
			}
			i += size
		}
		out = append(out, Piece{Text: s[start:i]})
	}
	return out
}

// IsPathLike reports whether a whitespace-delimited chunk reads as a file
// path or URL. Words inside such chunks are never abbreviated.
func IsPathLike(chunk string) bool {
	return strings.ContainsAny(chunk, `/\`)
}
