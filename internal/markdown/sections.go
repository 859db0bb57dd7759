// Package markdown splits natural-language prompts into the pieces the
// encoder works on: headed sections, paragraphs and fenced code.
package markdown

import (
	"regexp"
	"strings"
)

// Section is a heading-delimited part of a markdown document.
type Section struct {
	Header string // Heading text without the leading #'s; empty before the first heading
	Level  int    // 1-6, or 0 for text before the first heading
	Lines  []string
}

// HasContent reports whether the section has any non-blank line.
func (s Section) HasContent() bool {
	for _, line := range s.Lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// headingPattern matches ATX headings, with optional closing #'s.
var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+#+)?\s*$`)

// fencePattern matches the opening or closing line of a fenced code block.
var fencePattern = regexp.MustCompile("^\\s*(```+|~~~+)\\s*([A-Za-z0-9_+.-]*)")

// Split breaks content into sections at every heading. Headings inside
// fenced code are not treated as section breaks. Text before the first
// heading becomes a section with an empty Header.
func Split(content string) []Section {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var sections []Section
	current := Section{}
	fence := ""

	for _, line := range strings.Split(content, "\n") {
		if m := fencePattern.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
			case strings.HasPrefix(m[1], fence) && m[2] == "":
				fence = ""
			}
			current.Lines = append(current.Lines, line)
			continue
		}
		if fence == "" {
			if m := headingPattern.FindStringSubmatch(line); m != nil {
				if current.Header != "" || current.HasContent() {
					sections = append(sections, trimSection(current))
				}
				current = Section{Header: strings.TrimSpace(m[2]), Level: len(m[1])}
				continue
			}
		}
		current.Lines = append(current.Lines, line)
	}
	if current.Header != "" || current.HasContent() {
		sections = append(sections, trimSection(current))
	}
	return sections
}

func trimSection(s Section) Section {
	start, end := 0, len(s.Lines)
	for start < end && strings.TrimSpace(s.Lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(s.Lines[end-1]) == "" {
		end--
	}
	s.Lines = s.Lines[start:end]
	return s
}

// Title returns the text of the first heading, preferring a level-1
// heading when there is one.
func Title(sections []Section) string {
	first := ""
	for _, s := range sections {
		if s.Level == 1 {
			return s.Header
		}
		if first == "" && s.Header != "" {
			first = s.Header
		}
	}
	return first
}

// Chunk is a run of prose or a fenced code block.
type Chunk struct {
	Code  bool
	Lang  string // Info string of a code fence, e.g. "bash"
	Lines []string
}

// Chunks separates prose from fenced code, preserving order. Fence lines
// themselves are dropped; an unterminated fence runs to the end.
func Chunks(lines []string) []Chunk {
	var out []Chunk
	var prose []string
	flush := func() {
		if len(prose) > 0 {
			out = append(out, Chunk{Lines: prose})
			prose = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		m := fencePattern.FindStringSubmatch(lines[i])
		if m == nil {
			prose = append(prose, lines[i])
			continue
		}
		flush()
		code := Chunk{Code: true, Lang: m[2]}
		for i++; i < len(lines); i++ {
			if c := fencePattern.FindStringSubmatch(lines[i]); c != nil && strings.HasPrefix(c[1], m[1]) && c[2] == "" {
				break
			}
			code.Lines = append(code.Lines, lines[i])
		}
		out = append(out, code)
	}
	flush()
	return out
}

// Paragraphs splits prose lines on blank lines. Blank-only input yields no
// paragraphs.
func Paragraphs(lines []string) [][]string {
	var out [][]string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}
