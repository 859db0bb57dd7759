// Package document models a compact prompt document and converts it to and
// from its text form.
//
// A document is a header, a metadata line, a separator and a sequence of
// typed blocks:
//
//	CPF|v1
//	M|id|title|source|timestamp
//	---
//
//	@R:mod-first
//	?mnt(mod|plg)exists->recommend
package document

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	Format        = "CPF"
	Version       = "v1"
	MetaPrefix    = "M|"
	Separator     = "---"
	CommentPrefix = "//"
	BlobOpen      = "<<"
	BlobClose     = ">>"
)

// supportedVersions lists the format versions this package reads.
var supportedVersions = map[string]bool{Version: true}

// SupportedVersion reports whether v can be parsed.
func SupportedVersion(v string) bool {
	return supportedVersions[v]
}

var (
	idPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	labelPattern = regexp.MustCompile(`^[A-Z0-9_]*$`)
)

// ValidID reports whether id is a legal block identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ValidLabel reports whether label can delimit a blob body.
func ValidLabel(label string) bool {
	return labelPattern.MatchString(label)
}

// Metadata is the M| line of a document.
type Metadata struct {
	ID        string
	Title     string
	Source    string
	Timestamp string
}

// Position locates a block in its source text. Blocks built in memory have
// a zero Position.
type Position struct {
	Line    int // Line of the @SIGIL:id header
	Content int // Line of the first content line
}

// Key identifies a block within a document.
type Key struct {
	Sigil Sigil
	ID    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Sigil, k.ID)
}

// Block is a typed unit of content.
type Block struct {
	Sigil Sigil
	ID    string
	Label string // Blob delimiter label; unused by other sigils
	Lines []string
	Pos   Position
}

// Key returns the block's identity.
func (b Block) Key() Key {
	return Key{Sigil: b.Sigil, ID: b.ID}
}

// LineNumber maps a content line index to its source line, or 0 when the
// block was not parsed from text.
func (b Block) LineNumber(i int) int {
	if b.Pos.Content == 0 {
		return 0
	}
	return b.Pos.Content + i
}

// Document is a parsed or built compact prompt.
type Document struct {
	Version string
	Meta    Metadata
	Blocks  []Block
}

// New returns a current-version document holding copies of blocks.
func New(meta Metadata, blocks ...Block) *Document {
	d := &Document{Version: Version, Meta: meta}
	for _, b := range blocks {
		d.Blocks = append(d.Blocks, cloneBlock(b))
	}
	return d
}

// Block returns the block with the given sigil and id.
func (d *Document) Block(sigil Sigil, id string) (Block, bool) {
	for _, b := range d.Blocks {
		if b.Sigil == sigil && b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// FindByID returns every block whose id matches, regardless of sigil.
func (d *Document) FindByID(id string) []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.ID == id {
			out = append(out, b)
		}
	}
	return out
}

// BlocksBySigil returns the blocks of one kind in document order.
func (d *Document) BlocksBySigil(sigil Sigil) []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Sigil == sigil {
			out = append(out, b)
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{Version: d.Version, Meta: d.Meta}
	for _, b := range d.Blocks {
		out.Blocks = append(out.Blocks, cloneBlock(b))
	}
	return out
}

func cloneBlock(b Block) Block {
	lines := make([]string, len(b.Lines))
	copy(lines, b.Lines)
	b.Lines = lines
	return b
}

// Equal reports whether two documents carry the same content. Source
// positions are ignored, and an empty version counts as the current one.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	if versionOrDefault(a.Version) != versionOrDefault(b.Version) || a.Meta != b.Meta {
		return false
	}
	if len(a.Blocks) != len(b.Blocks) {
		return false
	}
	for i := range a.Blocks {
		x, y := a.Blocks[i], b.Blocks[i]
		if x.Sigil != y.Sigil || x.ID != y.ID {
			return false
		}
		if x.Sigil == Blob && x.Label != y.Label {
			return false
		}
		if len(x.Lines) != len(y.Lines) {
			return false
		}
		for j := range x.Lines {
			if x.Lines[j] != y.Lines[j] {
				return false
			}
		}
	}
	return true
}

func versionOrDefault(v string) string {
	if v == "" {
		return Version
	}
	return v
}

// Binding is one name::value entry from a @C block.
type Binding struct {
	Name    string
	Value   string
	BlockID string
	Line    int
}

// IsAlias reports whether the binding is a $name path alias rather than an
// abbreviation.
func (c Binding) IsAlias() bool {
	return strings.HasPrefix(c.Name, "$")
}

// ParseConstantLine splits a @C line into its bindings. Bindings are
// separated by ';' and written name::value. ok is false when any binding
// is malformed; the well-formed ones are still returned.
func ParseConstantLine(line string) ([]Binding, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, true
	}
	var out []Binding
	ok := true
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "::")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !found || name == "" || value == "" {
			ok = false
			continue
		}
		out = append(out, Binding{Name: name, Value: value})
	}
	return out, ok
}

// Constants collects the well-formed bindings of every @C block in order.
func (d *Document) Constants() []Binding {
	var out []Binding
	for _, b := range d.BlocksBySigil(Constant) {
		for i, line := range b.Lines {
			consts, _ := ParseConstantLine(line)
			for _, c := range consts {
				c.BlockID = b.ID
				c.Line = b.LineNumber(i)
				out = append(out, c)
			}
		}
	}
	return out
}
