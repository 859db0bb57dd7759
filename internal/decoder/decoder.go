// Package decoder expands compact prompt documents back into readable
// markdown.
//
// Decoding is lossy in wording but keeps every operator and every
// abbreviated term: each symbol becomes its phrase and each token its term.
// Exact and blob content is written out untouched.
package decoder

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/notation"
)

// Options control a single decode.
type Options struct {
	// Table is the base abbreviation table. Defaults to notation.Builtin().
	Table *notation.Table
	// Abbreviations extend Table. Entries whose token is already bound are
	// ignored.
	Abbreviations []notation.Abbreviation
}

// Decoder turns documents into text.
type Decoder struct {
	table *notation.Table
}

// New prepares a decoder.
func New(opts Options) *Decoder {
	base := opts.Table
	if base == nil {
		base = notation.Builtin()
	}
	table, _ := base.Extend(opts.Abbreviations)
	return &Decoder{table: table}
}

// Decode expands doc into markdown.
func Decode(doc *document.Document, opts Options) string {
	return New(opts).Decode(doc)
}

// sectionPrefixes frame a heading by what kind of block it introduces.
var sectionPrefixes = map[document.Sigil]string{
	document.Priority: "Priorities",
	document.Negation: "Restrictions",
	document.Sequence: "Steps",
	document.Tone:     "Tone",
	document.Exact:    "Exact Requirements",
	document.Zone:     "Scope",
}

// Decode expands doc into markdown. Constant blocks are not rendered; their
// bindings apply to the blocks that follow them.
func (d *Decoder) Decode(doc *document.Document) string {
	r := &renderer{
		doc:     doc,
		table:   d.table,
		aliases: make(map[string]string),
		caser:   cases.Title(language.English),
	}

	var b strings.Builder
	if title := r.docTitle(); title != "" {
		fmt.Fprintf(&b, "# %s\n", title)
	}
	rendered := 0
	for _, block := range doc.Blocks {
		if block.Sigil == document.Constant {
			r.define(block)
			continue
		}
		body := r.block(block)
		if len(body) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		// A blob continues the section before it.
		if block.Sigil != document.Blob {
			fmt.Fprintf(&b, "## %s\n\n", r.heading(block))
		}
		for _, line := range body {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		rendered++
	}

	slog.Debug("decoded document", "id", doc.Meta.ID, "blocks", rendered)
	return b.String()
}

// renderer holds the scope of one decode.
type renderer struct {
	doc     *document.Document
	table   *notation.Table
	aliases map[string]string // $name -> value
	caser   cases.Caser
}

func (r *renderer) docTitle() string {
	if r.doc.Meta.Title != "" {
		return r.doc.Meta.Title
	}
	return r.titleOf(r.doc.Meta.ID)
}

// define brings the bindings of a constant block into scope.
func (r *renderer) define(block document.Block) {
	var extra []notation.Abbreviation
	for _, line := range block.Lines {
		consts, _ := document.ParseConstantLine(line)
		for _, c := range consts {
			if c.IsAlias() {
				r.aliases[c.Name] = c.Value
				continue
			}
			extra = append(extra, notation.Abbreviation{Term: c.Value, Token: c.Name})
		}
	}
	if len(extra) > 0 {
		r.table, _ = r.table.Extend(extra)
	}
}

func (r *renderer) titleOf(id string) string {
	words := strings.FieldsFunc(id, func(c rune) bool { return c == '-' || c == '_' || c == '.' })
	return r.caser.String(strings.Join(words, " "))
}

func (r *renderer) heading(block document.Block) string {
	title := r.titleOf(block.ID)
	prefix, ok := sectionPrefixes[block.Sigil]
	lead, _, _ := strings.Cut(prefix, " ")
	if !ok || strings.Contains(strings.ToLower(title), strings.ToLower(lead)) {
		return title
	}
	return prefix + ": " + title
}

// refTitle names the block a reference points at.
func (r *renderer) refTitle(sigil, id string) string {
	if s, ok := document.ParseSigil(sigil); ok {
		if block, found := r.doc.Block(s, id); found {
			return r.heading(block)
		}
	} else if blocks := r.doc.FindByID(id); len(blocks) > 0 {
		return r.heading(blocks[0])
	}
	return r.titleOf(id)
}

var numberPattern = regexp.MustCompile(`^#(\d+)\s+(.*)$`)

func (r *renderer) block(block document.Block) []string {
	switch block.Sigil {
	case document.Blob:
		return fence(block)
	case document.Exact:
		return append([]string(nil), block.Lines...)
	}

	numbered := block.Sigil == document.Sequence || block.Sigil == document.Priority
	var out []string
	n := 0
	for _, line := range block.Lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		num := ""
		if m := numberPattern.FindStringSubmatch(line); m != nil {
			num, line = m[1], m[2]
		}
		text := r.sentence(line, block.Sigil)
		if text == "" {
			continue
		}
		switch {
		case num != "":
			n, _ = strconv.Atoi(num)
			out = append(out, num+". "+text)
		case numbered:
			n++
			out = append(out, strconv.Itoa(n)+". "+text)
		default:
			out = append(out, "- "+text)
		}
	}
	return out
}

// fence wraps blob content in a code fence long enough not to be closed by
// the content itself.
func fence(block document.Block) []string {
	lang := strings.ToLower(strings.TrimRight(block.Label, "_"))
	if lang == "code" {
		lang = ""
	}
	marker := "```"
	for hasFence(block.Lines, marker) {
		marker += "`"
	}
	out := []string{marker + lang}
	out = append(out, block.Lines...)
	return append(out, marker)
}

func hasFence(lines []string, marker string) bool {
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			return true
		}
	}
	return false
}

var (
	refTarget      = `(?:([A-Z]):)?([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`
	refLinePattern = regexp.MustCompile(`^@>` + refTarget + `\.?$`)
	refPattern     = regexp.MustCompile(`^` + refTarget)
	preferPattern  = regexp.MustCompile(`^prefer\((.+)\)>(.+)$`)
)

// sentence renders one line. Clauses split on top-level ';' read left to
// right, each after the first as an "otherwise" branch.
func (r *renderer) sentence(line string, sigil document.Sigil) string {
	if m := refLinePattern.FindStringSubmatch(line); m != nil {
		return "See " + r.refTitle(m[1], m[2]) + "."
	}
	var parts []string
	for _, clause := range splitTop(line, notation.Otherwise) {
		text := r.clause(strings.TrimSpace(clause), sigil)
		if text == "" {
			continue
		}
		if len(parts) > 0 {
			text = "Otherwise, " + text
		}
		parts = append(parts, punctuate(capitalize(text)))
	}
	return strings.Join(parts, " ")
}

func (r *renderer) clause(s string, sigil document.Sigil) string {
	if !strings.HasPrefix(s, notation.If) {
		return r.statement(s, sigil)
	}
	keyword, body := "if", strings.TrimPrefix(s, notation.If)
	if strings.HasPrefix(s, notation.Unless) {
		keyword, body = "unless", strings.TrimPrefix(s, notation.Unless)
	}
	cond, action, found := cutTop(body, notation.Then)
	out := keyword + " " + r.fragment(cond, sigil)
	if !found {
		return out
	}
	then := r.statement(action, sigil)
	if then == "" {
		return out
	}
	if keyword == "unless" {
		return out + ", " + then
	}
	return out + ", then " + then
}

// statement renders a clause with no condition of its own.
func (r *renderer) statement(s string, sigil document.Sigil) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, notation.Never):
		return r.operator(notation.Never, sigil) + " " + r.statement(strings.TrimPrefix(s, notation.Never), sigil)
	case strings.HasPrefix(s, notation.Must):
		// Under "must" a negation always reads "never".
		return "you must " + r.statement(strings.TrimPrefix(s, notation.Must), document.Rule)
	}
	if m := preferPattern.FindStringSubmatch(s); m != nil {
		return "prefer " + r.fragment(m[1], sigil) + " over " + r.fragment(m[2], sigil)
	}
	if key, value, found := cutTop(s, notation.Means); found && strings.TrimSpace(key) != "" && strings.TrimSpace(value) != "" {
		return "**" + r.fragment(key, sigil) + "**: " + r.fragment(value, sigil)
	}
	return r.fragment(s, sigil)
}

// operator returns the wording for a symbol. Negation blocks give the
// imperative "do NOT".
func (r *renderer) operator(symbol string, sigil document.Sigil) string {
	if symbol == notation.Never && sigil == document.Negation {
		return "do NOT"
	}
	phrase, _ := notation.ExpandOperator(symbol)
	return phrase
}

var comparisons = []struct{ symbol, phrase string }{
	{">=", "at least"},
	{"<=", "at most"},
	{">", "more than"},
	{"<", "less than"},
}

// fragment expands operators, aliases and abbreviations in s. Backtick
// spans and paths pass through untouched.
func (r *renderer) fragment(s string, sigil document.Sigil) string {
	p := &phrase{}
	for _, seg := range notation.Segments(strings.TrimSpace(s)) {
		if seg.Literal {
			p.word(seg.Text)
			continue
		}
		r.scan(p, seg.Text, sigil)
	}
	return p.String()
}

func (r *renderer) scan(p *phrase, text string, sigil document.Sigil) {
	for i := 0; i < len(text); {
		rest := text[i:]
		c, size := utf8.DecodeRuneInString(rest)

		if unicode.IsSpace(c) {
			p.space = true
			i += size
			continue
		}
		if strings.HasPrefix(rest, notation.See) {
			if m := refPattern.FindStringSubmatch(rest[len(notation.See):]); m != nil {
				p.op("see")
				p.word(r.refTitle(m[1], m[2]))
				i += len(notation.See) + len(m[0])
				continue
			}
		}
		if n := comparison(rest); n >= 0 {
			p.op(comparisons[n].phrase)
			i += len(comparisons[n].symbol)
			continue
		}
		if c == '$' {
			name := "$" + wordRun(rest[1:])
			if value, ok := r.aliases[name]; ok {
				p.word(value)
			} else {
				p.word(name)
			}
			i += len(name)
			continue
		}
		if c == '(' {
			if end := closingParen(rest); end > 0 {
				inner := rest[1:end]
				if hasTop(inner, notation.And) || hasTop(inner, notation.Or) {
					p.space = true
					r.scan(p, inner, sigil)
					p.space = true
					i += end + 1
					continue
				}
			}
		}
		if sym, ok := notation.MatchOperator(rest); ok {
			p.op(r.operator(sym, sigil))
			i += len(sym)
			continue
		}
		if notation.IsWordRune(c) || strings.ContainsRune(`/\.~`, c) {
			run := pathRun(rest)
			if notation.IsPathLike(run) {
				p.word(run)
			} else {
				r.words(p, run)
			}
			i += len(run)
			continue
		}
		p.word(string(c))
		i += size
	}
}

// words expands the tokens of a run that is not a path. A word right after
// a dot is an extension or a dotfile and stays as written.
func (r *renderer) words(p *phrase, run string) {
	dotted := false
	for _, piece := range notation.Pieces(run) {
		if !piece.Word {
			p.word(piece.Text)
			dotted = strings.HasSuffix(piece.Text, ".")
			continue
		}
		if term, ok := r.table.Expand(piece.Text); ok && !dotted {
			p.word(term)
		} else {
			p.word(piece.Text)
		}
		dotted = false
	}
}

func comparison(s string) int {
	for i, c := range comparisons {
		if strings.HasPrefix(s, c.symbol) {
			return i
		}
	}
	return -1
}

func wordRun(s string) string {
	end := 0
	for end < len(s) {
		c, size := utf8.DecodeRuneInString(s[end:])
		if !notation.IsWordRune(c) {
			break
		}
		end += size
	}
	return s[:end]
}

// pathRun returns the run of word and path characters at the start of s.
// A colon only continues the run ahead of a slash, as in URLs.
func pathRun(s string) string {
	end := 0
	for end < len(s) {
		c, size := utf8.DecodeRuneInString(s[end:])
		next := byte(0)
		if end+size < len(s) {
			next = s[end+size]
		}
		switch {
		case notation.IsWordRune(c), strings.ContainsRune(`/\.~_'`, c):
		case c == '-' && next != '>':
		case c == ':' && (next == '/' || next == '\\'):
		default:
			return s[:end]
		}
		end += size
	}
	return s
}

// closingParen returns the index of the parenthesis that closes s[0].
func closingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// topLevel returns the offsets of sep outside backticks and parentheses.
func topLevel(s, sep string) []int {
	var idx []int
	depth := 0
	quoted := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '`':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && strings.HasPrefix(s[i:], sep):
			idx = append(idx, i)
			i += len(sep) - 1
		}
	}
	return idx
}

func splitTop(s, sep string) []string {
	var out []string
	last := 0
	for _, i := range topLevel(s, sep) {
		out = append(out, s[last:i])
		last = i + len(sep)
	}
	return append(out, s[last:])
}

func cutTop(s, sep string) (string, string, bool) {
	idx := topLevel(s, sep)
	if len(idx) == 0 {
		return s, "", false
	}
	return s[:idx[0]], s[idx[0]+len(sep):], true
}

func hasTop(s, sep string) bool {
	return len(topLevel(s, sep)) > 0
}

func capitalize(s string) string {
	c, size := utf8.DecodeRuneInString(s)
	if !unicode.IsLower(c) {
		return s
	}
	return string(unicode.ToUpper(c)) + s[size:]
}

func punctuate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s[len(s)-1:], ".!?:") {
		return s
	}
	return s + "."
}

// phrase accumulates rendered text. Words keep the spacing of the source;
// operator phrases always stand apart.
type phrase struct {
	b     strings.Builder
	space bool
}

func (p *phrase) word(s string) {
	if p.b.Len() > 0 && p.space {
		p.b.WriteByte(' ')
	}
	p.b.WriteString(s)
	p.space = false
}

func (p *phrase) op(s string) {
	p.space = true
	p.word(s)
	p.space = true
}

func (p *phrase) String() string {
	return strings.TrimSpace(p.b.String())
}
