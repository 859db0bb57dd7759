package markdown

import (
	"regexp"
	"strings"
)

var (
	bulletPattern    = regexp.MustCompile(`^\s*[-*+]\s+`)
	numberedPattern  = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.*)$`)
	strongPattern    = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	emphasisPattern  = regexp.MustCompile(`(^|[^\w*])\*([^*\s][^*]*?)\*`)
	slugStripPattern = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugDashPattern  = regexp.MustCompile(`[\s-]+`)
)

// Slugify converts text to a lowercase dash-separated identifier.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(StripEmphasis(text)))
	s = slugStripPattern.ReplaceAllString(s, " ")
	s = slugDashPattern.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-")
}

// SlugifyMax is Slugify cut to at most n bytes without a trailing dash.
func SlugifyMax(text string, n int) string {
	s := Slugify(text)
	if len(s) > n {
		s = strings.TrimRight(s[:n], "-")
	}
	return s
}

// StripBullet removes a leading list marker ("- ", "* ", "+ ").
func StripBullet(line string) string {
	return bulletPattern.ReplaceAllString(line, "")
}

// IsBullet reports whether line starts with a list marker.
func IsBullet(line string) bool {
	return bulletPattern.MatchString(line)
}

// Numbered splits "3. text" into its number and text.
func Numbered(line string) (string, string, bool) {
	m := numberedPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// StripEmphasis removes **strong**, __strong__ and *emphasis* markers.
// Backtick spans are left alone.
func StripEmphasis(text string) string {
	var b strings.Builder
	for i, part := range strings.Split(text, "`") {
		if i > 0 {
			b.WriteByte('`')
		}
		if i%2 == 1 {
			b.WriteString(part)
			continue
		}
		part = strongPattern.ReplaceAllString(part, "$2")
		part = emphasisPattern.ReplaceAllString(part, "$1$2")
		b.WriteString(part)
	}
	return b.String()
}

// IsTableRow reports whether line is part of a pipe table.
func IsTableRow(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}
