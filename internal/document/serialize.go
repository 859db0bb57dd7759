package document

import (
	"fmt"
	"strings"
)

// Serialize renders d in canonical text form. Parse(Serialize(d)) yields a
// document Equal to d for any d that passes validation.
func Serialize(d *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s|%s\n", Format, versionOrDefault(d.Version))
	fmt.Fprintf(&b, "%s%s|%s|%s|%s\n", MetaPrefix, d.Meta.ID, d.Meta.Title, d.Meta.Source, d.Meta.Timestamp)
	b.WriteString(Separator + "\n")

	for _, block := range d.Blocks {
		fmt.Fprintf(&b, "\n@%s:%s\n", block.Sigil, block.ID)
		if block.Sigil == Blob {
			b.WriteString(BlobOpen + block.Label + "\n")
			for _, line := range block.Lines {
				b.WriteString(line + "\n")
			}
			b.WriteString(block.Label + BlobClose + "\n")
			continue
		}
		for _, line := range block.Lines {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
