// Package validator checks compact prompt documents for structural and
// semantic problems.
//
// Every check runs and every finding is reported. Findings are values, not
// errors: the only error ValidateText returns is a parse failure.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/notation"
)

// Severity ranks a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind names the check a violation came from.
type Kind string

const (
	MissingHeaderField   Kind = "missing-header-field"
	InvalidHeaderField   Kind = "invalid-header-field"
	UnknownSigil         Kind = "unknown-sigil"
	InvalidBlockID       Kind = "invalid-block-id"
	DuplicateBlock       Kind = "duplicate-block"
	UnresolvedReference  Kind = "unresolved-reference"
	AmbiguousReference   Kind = "ambiguous-reference"
	BlobMarker           Kind = "blob-marker"
	AbbreviationConflict Kind = "abbreviation-conflict"
	MalformedConstant    Kind = "malformed-constant"
	UndefinedConstant    Kind = "undefined-constant"
	OperatorPosition     Kind = "operator-position"
	NestedConditional    Kind = "nested-conditional"
	EmptyBlock           Kind = "empty-block"
	ContentShape         Kind = "content-shape"
)

// Violation is one finding.
type Violation struct {
	Kind     Kind
	Severity Severity
	Sigil    document.Sigil // zero for document-level findings
	BlockID  string
	Line     int // 0 when the document was not parsed from text
	Message  string
}

func (v Violation) String() string {
	var b strings.Builder
	if v.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", v.Line)
	}
	if v.Sigil != 0 {
		fmt.Fprintf(&b, "@%s:%s: ", v.Sigil, v.BlockID)
	}
	fmt.Fprintf(&b, "%s: %s [%s]", v.Severity, v.Message, v.Kind)
	return b.String()
}

// Options control validation.
type Options struct {
	// Table is the built-in abbreviation table @C blocks may not contradict.
	// Defaults to notation.Builtin().
	Table *notation.Table
}

// Validator runs every check against a document.
type Validator struct {
	table *notation.Table
}

// New prepares a validator.
func New(opts Options) *Validator {
	table := opts.Table
	if table == nil {
		table = notation.Builtin()
	}
	return &Validator{table: table}
}

// Validate checks doc with the built-in table.
func Validate(doc *document.Document) []Violation {
	return New(Options{}).Validate(doc)
}

// ValidateText parses raw loosely and validates the result. A document
// that cannot be parsed at all is returned as an error.
func ValidateText(raw string) ([]Violation, error) {
	doc, err := document.ParseLoose(raw)
	if err != nil {
		return nil, err
	}
	return Validate(doc), nil
}

// IsValid reports whether raw parses and has no error-severity violations.
func IsValid(raw string) bool {
	violations, err := ValidateText(raw)
	return err == nil && !HasErrors(violations)
}

// IsValidDocument reports whether doc has no error-severity violations.
func IsValidDocument(doc *document.Document) bool {
	return !HasErrors(Validate(doc))
}

// HasErrors reports whether any violation is an error.
func HasErrors(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate runs every check. Results are ordered by line, stable within a
// line.
func (v *Validator) Validate(doc *document.Document) []Violation {
	c := &checker{table: v.table, doc: doc}
	c.header()
	c.blocks()
	c.constants()
	c.content()
	sort.SliceStable(c.out, func(i, j int) bool { return c.out[i].Line < c.out[j].Line })
	return c.out
}

type checker struct {
	table *notation.Table
	doc   *document.Document
	out   []Violation
}

func (c *checker) add(kind Kind, severity Severity, block *document.Block, line int, format string, args ...any) {
	v := Violation{Kind: kind, Severity: severity, Line: line, Message: fmt.Sprintf(format, args...)}
	if block != nil {
		v.Sigil = block.Sigil
		v.BlockID = block.ID
	}
	c.out = append(c.out, v)
}

func (c *checker) header() {
	if c.doc.Version != "" && !document.SupportedVersion(c.doc.Version) {
		c.add(InvalidHeaderField, SeverityError, nil, 1, "unsupported version %q", c.doc.Version)
	}
	switch meta := c.doc.Meta; {
	case meta.ID == "":
		c.add(MissingHeaderField, SeverityError, nil, 2, "metadata has no document id")
	case !document.ValidID(meta.ID):
		c.add(InvalidHeaderField, SeverityError, nil, 2, "document id %q must be letters, digits, '.', '_' or '-'", meta.ID)
	}
	if c.doc.Meta.Title == "" {
		c.add(MissingHeaderField, SeverityError, nil, 2, "metadata has no title")
	}
	for _, f := range []struct{ name, value string }{
		{"title", c.doc.Meta.Title},
		{"source", c.doc.Meta.Source},
		{"timestamp", c.doc.Meta.Timestamp},
	} {
		if strings.ContainsAny(f.value, "|\r\n") || f.value != strings.TrimSpace(f.value) {
			c.add(InvalidHeaderField, SeverityError, nil, 2, "metadata %s %q cannot hold '|', line breaks or surrounding spaces", f.name, f.value)
		}
	}
}

func (c *checker) blocks() {
	seen := make(map[document.Key]int)
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		line := b.Pos.Line
		if !b.Sigil.Known() {
			c.add(UnknownSigil, SeverityError, b, line, "unknown sigil %q (known: %s)", b.Sigil.String(), knownSigils())
		}
		if !document.ValidID(b.ID) {
			c.add(InvalidBlockID, SeverityError, b, line, "invalid block id %q", b.ID)
		}
		if first, dup := seen[b.Key()]; dup {
			c.add(DuplicateBlock, SeverityError, b, line, "duplicate block @%s (first defined on line %d)", b.Key(), first)
		} else {
			seen[b.Key()] = line
		}
		if len(b.Lines) == 0 && b.Sigil != document.Blob {
			c.add(EmptyBlock, SeverityWarning, b, line, "block has no content")
		}
		if b.Sigil == document.Blob {
			c.blob(b)
		} else {
			c.shape(b)
		}
	}
}

// shape reports content lines of blocks built in memory that would read
// back differently from text.
func (c *checker) shape(b *document.Block) {
	last := len(b.Lines) - 1
	for i, line := range b.Lines {
		lineNo := b.LineNumber(i)
		switch {
		case strings.ContainsAny(line, "\r\n"):
			c.add(ContentShape, SeverityError, b, lineNo, "content line %d holds a line break", i+1)
		case strings.TrimSpace(line) == "" && (i == 0 || i == last):
			c.add(ContentShape, SeverityError, b, lineNo, "block content cannot start or end with a blank line")
		case line != strings.TrimRight(line, " \t"):
			c.add(ContentShape, SeverityError, b, lineNo, "content line %d has trailing whitespace", i+1)
		case document.IsBlockHeader(line):
			c.add(ContentShape, SeverityError, b, lineNo, "content line %q reads as a block header; use a blob", strings.TrimSpace(line))
		}
	}
}

func knownSigils() string {
	var names []string
	for _, s := range document.Sigils() {
		names = append(names, s.String())
	}
	return strings.Join(names, " ")
}

// blob checks markers of blocks that were built in memory; the parser
// already rejects bad markers in text.
func (c *checker) blob(b *document.Block) {
	if !document.ValidLabel(b.Label) {
		c.add(BlobMarker, SeverityError, b, b.Pos.Line, "invalid blob label %q", b.Label)
		return
	}
	closer := b.Label + document.BlobClose
	for i, line := range b.Lines {
		if strings.TrimSpace(line) == closer {
			c.add(BlobMarker, SeverityError, b, b.LineNumber(i), "blob content closes the blob early at %q", closer)
		}
		if strings.ContainsAny(line, "\r\n") {
			c.add(ContentShape, SeverityError, b, b.LineNumber(i), "content line %d holds a line break", i+1)
		}
	}
}

// constants checks @C bindings: syntax, and that no binding changes the
// meaning of a built-in or earlier token.
func (c *checker) constants() {
	defined := make(map[string]string)
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		if b.Sigil != document.Constant {
			continue
		}
		for j, line := range b.Lines {
			lineNo := b.LineNumber(j)
			consts, ok := document.ParseConstantLine(line)
			if !ok {
				c.add(MalformedConstant, SeverityError, b, lineNo, "constant line %q is not name::value", strings.TrimSpace(line))
			}
			for _, k := range consts {
				if !notation.ValidToken(k.Name) {
					c.add(MalformedConstant, SeverityError, b, lineNo, "constant name %q is not a valid token", k.Name)
					continue
				}
				if term, builtin := c.table.Expand(k.Name); builtin && !sameTerm(term, k.Value) {
					c.add(AbbreviationConflict, SeverityError, b, lineNo, "%q already means %q, not %q", k.Name, term, k.Value)
					continue
				}
				if prev, again := defined[k.Name]; again && !sameTerm(prev, k.Value) {
					c.add(AbbreviationConflict, SeverityError, b, lineNo, "%q is redefined from %q to %q", k.Name, prev, k.Value)
					continue
				}
				defined[k.Name] = k.Value
			}
		}
	}
}

func sameTerm(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

var (
	refTarget    = regexp.MustCompile(`^(?:([A-Z]):)?([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)
	aliasPattern = regexp.MustCompile(`\$[A-Za-z0-9][A-Za-z0-9_]*`)
	numberPrefix = regexp.MustCompile(`^#\d+\s+`)
	preferPrefix = regexp.MustCompile(`^prefer\(`)
)

// content checks references, aliases and operator placement line by line.
func (c *checker) content() {
	aliases := make(map[string]bool)
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		switch {
		case b.Sigil == document.Constant:
			for _, line := range b.Lines {
				consts, _ := document.ParseConstantLine(line)
				for _, k := range consts {
					if k.IsAlias() {
						aliases[k.Name] = true
					}
				}
			}
			continue
		case b.Sigil.Verbatim(), !b.Sigil.Known():
			continue
		}
		for j, line := range b.Lines {
			text := strings.TrimSpace(notation.Unquoted(line))
			if text == "" {
				continue
			}
			lineNo := b.LineNumber(j)
			text = numberPrefix.ReplaceAllString(text, "")
			c.references(b, lineNo, text)
			for _, name := range aliasPattern.FindAllString(text, -1) {
				if !aliases[name] {
					c.add(UndefinedConstant, SeverityError, b, lineNo, "%s is not defined by an earlier @C block", name)
				}
			}
			c.operators(b, lineNo, numberPrefix.ReplaceAllString(strings.TrimSpace(notation.Masked(line)), ""))
		}
	}
}

func (c *checker) references(b *document.Block, line int, text string) {
	for rest := text; ; {
		i := strings.Index(rest, notation.See)
		if i < 0 {
			return
		}
		rest = rest[i+len(notation.See):]
		m := refTarget.FindStringSubmatch(rest)
		if m == nil {
			c.add(OperatorPosition, SeverityError, b, line, "%s needs a block reference", notation.See)
			continue
		}
		rest = rest[len(m[0]):]
		if m[1] != "" {
			sigil, _ := document.ParseSigil(m[1])
			if _, ok := c.doc.Block(sigil, m[2]); !ok {
				c.add(UnresolvedReference, SeverityError, b, line, "reference @%s:%s does not match any block", m[1], m[2])
			}
			continue
		}
		switch n := len(c.doc.FindByID(m[2])); {
		case n == 0:
			c.add(UnresolvedReference, SeverityError, b, line, "reference %q does not match any block", m[2])
		case n > 1:
			c.add(AmbiguousReference, SeverityError, b, line, "reference %q matches %d blocks; add a sigil", m[2], n)
		}
	}
}

// operators checks that binary operators have content on both sides and
// that conditions only open a clause or follow "->".
func (c *checker) operators(b *document.Block, line int, text string) {
	text = preferPrefix.ReplaceAllString(text, "prefer ")
	for _, clause := range strings.Split(text, notation.Otherwise) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			c.add(OperatorPosition, SeverityError, b, line, "empty clause around %q", notation.Otherwise)
			continue
		}
		conditions := 0
		for i := 0; i < len(clause); {
			sym, ok := notation.MatchOperator(clause[i:])
			if !ok {
				i++
				continue
			}
			before := strings.TrimSpace(clause[:i])
			after := strings.TrimSpace(clause[i+len(sym):])
			switch {
			case notation.IsBinary(sym):
				if before == "" || after == "" || endsWithOperator(before) {
					c.add(OperatorPosition, SeverityError, b, line, "%q needs content on both sides", sym)
				}
			case sym == notation.If || sym == notation.Unless:
				conditions++
				if before != "" && !strings.HasSuffix(before, notation.Then) {
					c.add(OperatorPosition, SeverityError, b, line, "%q must open a clause or follow %q", sym, notation.Then)
				}
				if after == "" || startsWithBinary(after) {
					c.add(OperatorPosition, SeverityError, b, line, "%q has no condition", sym)
				}
			case sym == notation.Never || sym == notation.Must:
				if after == "" {
					c.add(OperatorPosition, SeverityError, b, line, "%q has nothing to apply to", sym)
				}
			}
			i += len(sym)
		}
		if conditions > 1 {
			c.add(NestedConditional, SeverityWarning, b, line, "clause holds %d conditions; split it with %q", conditions, notation.Otherwise)
		}
	}
}

func endsWithOperator(s string) bool {
	for _, op := range notation.Operators() {
		if op.Binary && strings.HasSuffix(s, op.Symbol) {
			return true
		}
	}
	return false
}

func startsWithBinary(s string) bool {
	sym, ok := notation.MatchOperator(s)
	return ok && notation.IsBinary(sym)
}
