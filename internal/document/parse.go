package document

import (
	"regexp"
	"strings"
)

// blockHeaderPattern matches an @SIGIL:id line.
var blockHeaderPattern = regexp.MustCompile(`^@([A-Z]):(.*)$`)

// IsBlockHeader reports whether line would be read as an @SIGIL:id header.
func IsBlockHeader(line string) bool {
	return blockHeaderPattern.MatchString(strings.TrimSpace(line))
}

// Parse reads a document and enforces the full grammar: known sigils,
// well-formed ids and unique (sigil, id) pairs.
func Parse(raw string) (*Document, error) {
	p := &parser{strict: true}
	return p.parse(raw)
}

// ParseLoose reads a document but accepts unknown sigils, odd ids and
// duplicate blocks so that a validator can report them all at once.
// Structural problems such as a missing header or an unclosed blob still
// fail.
func ParseLoose(raw string) (*Document, error) {
	p := &parser{strict: false}
	return p.parse(raw)
}

type parser struct {
	strict bool
	lines  []string
	seen   map[Key]int
}

func (p *parser) parse(raw string) (*Document, error) {
	p.lines = splitLines(raw)
	p.seen = make(map[Key]int)

	i := 0
	for i < len(p.lines) && strings.TrimSpace(p.lines[i]) == "" {
		i++
	}
	if i >= len(p.lines) {
		return nil, formatErrorf(0, "empty document")
	}

	version, err := parseHeader(strings.TrimSpace(p.lines[i]), i+1)
	if err != nil {
		return nil, err
	}
	i++

	if i >= len(p.lines) || !strings.HasPrefix(strings.TrimSpace(p.lines[i]), MetaPrefix) {
		return nil, formatErrorf(i+1, "expected metadata line starting with %q", MetaPrefix)
	}
	meta, err := parseMetadata(strings.TrimSpace(p.lines[i]), i+1)
	if err != nil {
		return nil, err
	}
	i++

	if i >= len(p.lines) || strings.TrimSpace(p.lines[i]) != Separator {
		return nil, formatErrorf(i+1, "expected %q after metadata", Separator)
	}
	i++

	doc := &Document{Version: version, Meta: meta}
	for i < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, CommentPrefix) {
			i++
			continue
		}
		m := blockHeaderPattern.FindStringSubmatch(trimmed)
		if m == nil {
			return nil, formatErrorf(i+1, "content outside of a block: %q", trimmed)
		}
		block, next, err := p.parseBlock(i, Sigil(m[1][0]), strings.TrimSpace(m[2]))
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, block)
		i = next
	}
	return doc, nil
}

func parseHeader(line string, lineNo int) (string, error) {
	format, version, found := strings.Cut(line, "|")
	if format != Format {
		return "", formatErrorf(lineNo, "missing %s header", Format+"|"+Version)
	}
	if !found || version == "" {
		return "", formatErrorf(lineNo, "header has no version")
	}
	if !SupportedVersion(version) {
		return "", formatErrorf(lineNo, "unsupported version %q", version)
	}
	return version, nil
}

func parseMetadata(line string, lineNo int) (Metadata, error) {
	fields := strings.Split(strings.TrimPrefix(line, MetaPrefix), "|")
	if len(fields) > 4 {
		return Metadata{}, formatErrorf(lineNo, "metadata has %d fields, want at most 4", len(fields))
	}
	for len(fields) < 4 {
		fields = append(fields, "")
	}
	return Metadata{
		ID:        strings.TrimSpace(fields[0]),
		Title:     strings.TrimSpace(fields[1]),
		Source:    strings.TrimSpace(fields[2]),
		Timestamp: strings.TrimSpace(fields[3]),
	}, nil
}

func (p *parser) parseBlock(start int, sigil Sigil, id string) (Block, int, error) {
	lineNo := start + 1
	if p.strict {
		if !sigil.Known() {
			return Block{}, 0, formatErrorf(lineNo, "unknown sigil %q", sigil.String())
		}
		if !ValidID(id) {
			return Block{}, 0, formatErrorf(lineNo, "invalid block id %q", id)
		}
		if first, dup := p.seen[Key{sigil, id}]; dup {
			return Block{}, 0, formatErrorf(lineNo, "duplicate block @%s:%s (first defined on line %d)", sigil, id, first)
		}
	}
	if _, dup := p.seen[Key{sigil, id}]; !dup {
		p.seen[Key{sigil, id}] = lineNo
	}

	block := Block{Sigil: sigil, ID: id, Pos: Position{Line: lineNo}}
	if sigil == Blob {
		return p.parseBlob(block, start+1)
	}

	i := start + 1
	for i < len(p.lines) {
		line := p.lines[i]
		if IsBlockHeader(line) {
			break
		}
		if len(block.Lines) == 0 && strings.TrimSpace(line) == "" {
			i++
			continue
		}
		if len(block.Lines) == 0 {
			block.Pos.Content = i + 1
		}
		block.Lines = append(block.Lines, strings.TrimRight(line, " \t"))
		i++
	}
	for len(block.Lines) > 0 && block.Lines[len(block.Lines)-1] == "" {
		block.Lines = block.Lines[:len(block.Lines)-1]
	}
	return block, i, nil
}

// parseBlob reads a <<LABEL ... LABEL>> body. Content between the markers
// is kept exactly.
func (p *parser) parseBlob(block Block, i int) (Block, int, error) {
	for i < len(p.lines) && strings.TrimSpace(p.lines[i]) == "" {
		i++
	}
	if i >= len(p.lines) || !strings.HasPrefix(strings.TrimSpace(p.lines[i]), BlobOpen) {
		return Block{}, 0, formatErrorf(block.Pos.Line, "blob @%s:%s must open with %sLABEL", block.Sigil, block.ID, BlobOpen)
	}
	label := strings.TrimPrefix(strings.TrimSpace(p.lines[i]), BlobOpen)
	if !ValidLabel(label) {
		return Block{}, 0, formatErrorf(i+1, "invalid blob label %q", label)
	}
	openLine := i + 1
	block.Label = label
	block.Pos.Content = i + 2
	closer := label + BlobClose
	i++
	for i < len(p.lines) {
		if strings.TrimSpace(p.lines[i]) == closer {
			return block, i + 1, nil
		}
		block.Lines = append(block.Lines, p.lines[i])
		i++
	}
	return Block{}, 0, formatErrorf(openLine, "unclosed blob @%s:%s, missing %q", block.Sigil, block.ID, closer)
}

// splitLines normalizes line endings and drops the final newline.
func splitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}
