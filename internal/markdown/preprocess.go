package markdown

import (
	"regexp"
	"strings"
)

// PreprocessStats tracks what changes were made during preprocessing.
type PreprocessStats struct {
	BlankLinesRemoved int
	DuplicatesRemoved int
	PhrasesRewritten  int
}

// Changed reports whether preprocessing altered anything.
func (s PreprocessStats) Changed() bool {
	return s.BlankLinesRemoved+s.DuplicatesRemoved+s.PhrasesRewritten > 0
}

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// Preprocess performs deterministic cleanup before encoding. It normalizes
// whitespace, drops repeated bullets within a section and rewrites wordy
// sentence openers. Fenced code is never touched.
func Preprocess(content string) (string, PreprocessStats) {
	var stats PreprocessStats

	content = strings.ReplaceAll(content, "\r\n", "\n")

	blanksBefore := countBlankLines(content)
	content = blankRunPattern.ReplaceAllString(content, "\n\n")
	stats.BlankLinesRemoved = blanksBefore - countBlankLines(content)

	lines := strings.Split(content, "\n")
	lines, stats.DuplicatesRemoved = removeDuplicateBullets(lines)
	lines, stats.PhrasesRewritten = rewriteOpeners(lines)
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n", stats
}

func countBlankLines(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			count++
		}
	}
	return count
}

// forEachProse calls fn for every line outside fenced code. fn returns the
// replacement line and whether to keep it.
func forEachProse(lines []string, fn func(line string) (string, bool)) []string {
	out := lines[:0:0]
	fence := ""
	for _, line := range lines {
		if m := fencePattern.FindStringSubmatch(line); m != nil {
			if fence == "" {
				fence = m[1]
			} else if strings.HasPrefix(m[1], fence) && m[2] == "" {
				fence = ""
			}
			out = append(out, line)
			continue
		}
		if fence != "" {
			out = append(out, line)
			continue
		}
		if replaced, keep := fn(line); keep {
			out = append(out, replaced)
		}
	}
	return out
}

// removeDuplicateBullets drops exact repeats of a bullet within one section.
func removeDuplicateBullets(lines []string) ([]string, int) {
	seen := make(map[string]bool)
	removed := 0
	out := forEachProse(lines, func(line string) (string, bool) {
		if headingPattern.MatchString(line) {
			seen = make(map[string]bool)
			return line, true
		}
		if !IsBullet(line) {
			return line, true
		}
		key := strings.TrimSpace(StripBullet(line))
		if seen[key] {
			removed++
			return "", false
		}
		seen[key] = true
		return line, true
	})
	return out, removed
}

// openers are wordy sentence starts and their short replacements. Openers
// that carry an obligation become "Always" or "Ensure" so the meaning
// survives; the rest are dropped.
var openers = []struct {
	phrase      string
	replacement string
}{
	{"You should always ", "Always "},
	{"You should ", ""},
	{"Always make sure to ", "Always "},
	{"Please make sure to ", "Always "},
	{"Make sure to ", "Always "},
	{"Be sure to ", "Always "},
	{"Make sure that ", "Ensure "},
	{"Please ensure that ", "Ensure "},
	{"Please ensure ", "Ensure "},
	{"It is important to ", "Always "},
	{"It's important to ", "Always "},
	{"Remember to always ", "Always "},
	{"Don't forget to ", "Always "},
	{"Remember to ", ""},
	{"Please ", ""},
}

var listPrefixPattern = regexp.MustCompile(`^(\s*(?:[-*+]|\d+[.)])\s+)`)

// rewriteOpeners applies at most one opener rewrite per line.
func rewriteOpeners(lines []string) ([]string, int) {
	count := 0
	out := forEachProse(lines, func(line string) (string, bool) {
		prefix := listPrefixPattern.FindString(line)
		rest := line[len(prefix):]
		lower := strings.ToLower(rest)
		for _, o := range openers {
			if !strings.HasPrefix(lower, strings.ToLower(o.phrase)) {
				continue
			}
			remaining := rest[len(o.phrase):]
			if remaining == "" {
				break
			}
			count++
			if o.replacement == "" {
				return prefix + strings.ToUpper(remaining[:1]) + remaining[1:], true
			}
			return prefix + o.replacement + remaining, true
		}
		return line, true
	})
	return out, count
}
