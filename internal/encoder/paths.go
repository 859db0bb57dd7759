package encoder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HartBrook/cpf/internal/notation"
)

const (
	defaultAliasMinLength = 30
	defaultAliasMinCount  = 2
)

var aliasNamePattern = regexp.MustCompile(`[^A-Za-z0-9]+`)

// pathAlias binds a $name to a long path that repeats in the source.
type pathAlias struct {
	Name string
	Path string
}

// findPathAliases returns aliases for every path of at least minLength
// bytes that appears minCount times or more, in order of first use. Paths
// inside backtick spans and paths that contain operator characters are
// never aliased.
func findPathAliases(text string, minLength, minCount int) []pathAlias {
	counts := make(map[string]int)
	var order []string
	for _, line := range strings.Split(text, "\n") {
		for _, seg := range notation.Segments(line) {
			if seg.Literal {
				continue
			}
			for _, chunk := range strings.Fields(seg.Text) {
				core, _ := splitTrailing(chunk)
				core = strings.Trim(core, `()"'`)
				core, _ = splitTrailing(core)
				if len(core) < minLength || !notation.IsPathLike(core) || notation.ContainsOperatorChar(core) || strings.HasPrefix(core, "$") {
					continue
				}
				if counts[core] == 0 {
					order = append(order, core)
				}
				counts[core]++
			}
		}
	}

	taken := make(map[string]bool)
	var out []pathAlias
	for _, path := range order {
		if counts[path] < minCount {
			continue
		}
		name := aliasName(path, taken)
		taken[name] = true
		out = append(out, pathAlias{Name: name, Path: path})
	}
	return out
}

// aliasName derives a short unique $name from the last path segment.
func aliasName(path string, taken map[string]bool) string {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	base := "path"
	for i := len(segments) - 1; i >= 0; i-- {
		s := strings.Trim(aliasNamePattern.ReplaceAllString(strings.ToLower(segments[i]), "_"), "_")
		if s != "" && s != "." {
			base = s
			break
		}
	}
	if base[0] >= '0' && base[0] <= '9' {
		base = "p" + base
	}
	name := "$" + base
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("$%s%d", base, n)
	}
	return name
}
