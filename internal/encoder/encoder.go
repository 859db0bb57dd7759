// Package encoder compresses natural-language prompts into compact prompt
// documents.
//
// Encoding is deterministic: the same input and Options always produce the
// same document. The caller supplies the timestamp.
package encoder

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/markdown"
	"github.com/HartBrook/cpf/internal/notation"
)

// Options control a single encode.
type Options struct {
	ID        string // Document id; derived from the title when empty
	Title     string // Document title; taken from the first heading when empty
	Source    string // Where the text came from, e.g. a file name
	Timestamp string // Written to metadata as given

	// Table is the base abbreviation table. Defaults to notation.Builtin().
	Table *notation.Table
	// Abbreviations extend Table for this encode. Those that are used are
	// written to an @C:abbreviations block so the document decodes on its own.
	Abbreviations []notation.Abbreviation

	// SkipPreprocess leaves whitespace, duplicate bullets and wordy openers
	// as they are.
	SkipPreprocess bool

	// Paths at least AliasMinLength bytes long that occur AliasMinCount
	// times or more are replaced by $aliases. Zero means the default.
	AliasMinLength int
	AliasMinCount  int
}

// Encoder turns prose into documents.
type Encoder struct {
	opts      Options
	table     *notation.Table
	custom    map[string]string // token -> term for caller-supplied abbreviations
	conflicts []notation.Conflict
}

// New prepares an encoder. Custom abbreviations that clash with the base
// table are skipped and reported by Conflicts.
func New(opts Options) *Encoder {
	base := opts.Table
	if base == nil {
		base = notation.Builtin()
	}
	table, conflicts := base.Extend(opts.Abbreviations)
	custom := make(map[string]string)
	for _, a := range opts.Abbreviations {
		if _, known := base.Expand(a.Token); known {
			continue
		}
		custom[a.Token] = a.Term
	}
	if opts.AliasMinLength <= 0 {
		opts.AliasMinLength = defaultAliasMinLength
	}
	if opts.AliasMinCount <= 0 {
		opts.AliasMinCount = defaultAliasMinCount
	}
	return &Encoder{opts: opts, table: table, custom: custom, conflicts: conflicts}
}

// Conflicts lists the custom abbreviations that were rejected.
func (e *Encoder) Conflicts() []notation.Conflict {
	return e.conflicts
}

// Encode compresses text into a document.
func Encode(text string, opts Options) *document.Document {
	return New(opts).Encode(text)
}

// unit is one planned block before its lines are compressed.
type unit struct {
	sigil document.Sigil
	id    string
	label string
	lines []string
}

// Encode compresses text into a document.
func (e *Encoder) Encode(text string) *document.Document {
	if !e.opts.SkipPreprocess {
		var stats markdown.PreprocessStats
		text, stats = markdown.Preprocess(text)
		slog.Debug("preprocessed input",
			"blank_lines", stats.BlankLinesRemoved,
			"duplicates", stats.DuplicatesRemoved,
			"phrases", stats.PhrasesRewritten)
	}

	sections := markdown.Split(text)
	meta := e.metadata(sections)
	units := e.plan(sections)

	c := &compressor{
		table:   e.table,
		refs:    make(map[string]document.Key),
		aliases: make(map[string]string),
		used:    make(map[string]bool),
	}
	for _, u := range units {
		if u.header == "" || u.sigil == document.Blob {
			continue
		}
		slug := markdown.Slugify(u.header)
		if _, exists := c.refs[slug]; !exists {
			c.refs[slug] = document.Key{Sigil: u.sigil, ID: u.id}
		}
	}
	aliases := findPathAliases(text, e.opts.AliasMinLength, e.opts.AliasMinCount)
	for _, a := range aliases {
		c.aliases[a.Path] = a.Name
	}

	var blocks []document.Block
	for _, u := range units {
		blocks = append(blocks, e.build(c, u))
	}

	var constants []document.Block
	if lines := usedAliases(aliases, c.used); len(lines) > 0 {
		constants = append(constants, document.Block{Sigil: document.Constant, ID: "paths", Lines: lines})
	}
	if lines := e.usedCustom(c.used); len(lines) > 0 {
		constants = append(constants, document.Block{Sigil: document.Constant, ID: "abbreviations", Lines: lines})
	}

	slog.Debug("encoded document", "id", meta.ID, "blocks", len(blocks), "constants", len(constants))
	return document.New(meta, append(constants, blocks...)...)
}

func (e *Encoder) metadata(sections []markdown.Section) document.Metadata {
	title := e.opts.Title
	if title == "" {
		title = markdown.StripEmphasis(markdown.Title(sections))
	}
	if title == "" {
		title = "Untitled"
	}
	id := e.opts.ID
	if id == "" {
		id = markdown.SlugifyMax(title, 40)
	}
	if id == "" {
		id = "prompt"
	}
	return document.Metadata{
		ID:        metaField(id),
		Title:     metaField(title),
		Source:    metaField(e.opts.Source),
		Timestamp: metaField(e.opts.Timestamp),
	}
}

// metaField keeps a value on one line and free of field separators.
func metaField(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.Join(strings.Fields(s), " ")
}

// planned is a unit plus the heading it came from, used for references.
type planned struct {
	unit
	header string
}

// plan decides the blocks: one per headed section with prose, one per
// paragraph of heading-less input, and a blob per fenced code block.
func (e *Encoder) plan(sections []markdown.Section) []planned {
	hasHeadings := false
	for _, s := range sections {
		if s.Header != "" {
			hasHeadings = true
			break
		}
	}

	ids := make(map[string]int)
	unique := func(id string) string {
		ids[id]++
		if n := ids[id]; n > 1 {
			return fmt.Sprintf("%s-%d", id, n)
		}
		return id
	}

	var out []planned
	part := 0
	for _, s := range sections {
		var prose []string
		var code []markdown.Chunk
		for _, chunk := range markdown.Chunks(s.Lines) {
			if chunk.Code {
				code = append(code, chunk)
				continue
			}
			prose = append(prose, chunk.Lines...)
		}

		base := markdown.SlugifyMax(s.Header, 50)
		switch {
		case s.Header == "" && !hasHeadings:
			for _, para := range markdown.Paragraphs(prose) {
				part++
				out = append(out, e.proseUnit("", unique(fmt.Sprintf("part-%d", part)), para))
			}
			base = "part"
		case s.Header == "":
			if len(markdown.Paragraphs(prose)) > 0 {
				out = append(out, e.proseUnit("", unique("preamble"), prose))
			}
			base = "preamble"
		default:
			if base == "" {
				base = "section"
			}
			if len(markdown.Paragraphs(prose)) > 0 {
				out = append(out, e.proseUnit(s.Header, unique(base), prose))
			}
		}

		for i, chunk := range code {
			out = append(out, planned{unit: unit{
				sigil: document.Blob,
				id:    unique(fmt.Sprintf("%s-code-%d", base, i+1)),
				label: blobLabel(chunk),
				lines: chunk.Lines,
			}})
		}
	}
	return out
}

func (e *Encoder) proseUnit(header, id string, lines []string) planned {
	return planned{
		unit:   unit{sigil: Classify(header, lines), id: id, lines: lines},
		header: header,
	}
}

var labelCleanPattern = regexp.MustCompile(`[^A-Z0-9_]+`)

// blobLabel names a code blob after its language and makes sure no line of
// the body can close it early.
func blobLabel(chunk markdown.Chunk) string {
	label := labelCleanPattern.ReplaceAllString(strings.ToUpper(chunk.Lang), "_")
	if label == "" {
		label = "CODE"
	}
	for closes(chunk.Lines, label) {
		label += "_"
	}
	return label
}

func closes(lines []string, label string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) == label+document.BlobClose {
			return true
		}
	}
	return false
}

var blockHeaderLike = regexp.MustCompile(`^@[A-Z]:`)

// build compresses one planned unit into a block.
func (e *Encoder) build(c *compressor, p planned) document.Block {
	block := document.Block{Sigil: p.sigil, ID: p.id, Label: p.label}
	switch p.sigil {
	case document.Blob:
		block.Lines = append(block.Lines, p.lines...)
	case document.Exact:
		for _, line := range p.lines {
			if text := strings.TrimSpace(markdown.StripBullet(line)); text != "" {
				block.Lines = append(block.Lines, text)
			}
		}
		for _, line := range block.Lines {
			if blockHeaderLike.MatchString(line) {
				// Exact text that looks like a block header only survives
				// inside a blob.
				block.Sigil = document.Blob
				block.Label = blobLabel(markdown.Chunk{Lang: "exact", Lines: block.Lines})
				break
			}
		}
	default:
		for _, line := range p.lines {
			block.Lines = append(block.Lines, c.line(line)...)
		}
	}
	return block
}

func usedAliases(aliases []pathAlias, used map[string]bool) []string {
	var lines []string
	for _, a := range aliases {
		if used[a.Name] {
			lines = append(lines, a.Name+notation.Means+a.Path)
		}
	}
	return lines
}

// usedCustom lists the caller's abbreviations that made it into the output.
func (e *Encoder) usedCustom(used map[string]bool) []string {
	var lines []string
	for _, a := range e.table.Entries() {
		if term, ok := e.custom[a.Token]; ok && used[a.Token] && term == a.Term {
			lines = append(lines, a.Token+notation.Means+a.Term)
		}
	}
	return lines
}
