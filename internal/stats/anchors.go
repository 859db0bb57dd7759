package stats

import (
	"regexp"
	"sort"
	"strings"
)

// Anchors are the specifics of a prompt that must survive compression.
type Anchors struct {
	Strict []string // paths, commands, code names: must be kept exactly
	Soft   []string // tool names: may be rephrased, worth a warning
}

// All returns every anchor, sorted.
func (a *Anchors) All() []string {
	all := make([]string, 0, len(a.Strict)+len(a.Soft))
	all = append(all, a.Strict...)
	all = append(all, a.Soft...)
	sort.Strings(all)
	return all
}

// ExtractAnchors finds the anchors of a source prompt.
func ExtractAnchors(content string) *Anchors {
	result := &Anchors{}
	seen := make(map[string]bool)
	add := func(list *[]string, found []string) {
		for _, a := range found {
			if !seen[a] {
				*list = append(*list, a)
				seen[a] = true
			}
		}
	}

	add(&result.Soft, toolNames(content))
	add(&result.Strict, filePaths(content))
	add(&result.Strict, commands(content))
	add(&result.Strict, codeNames(content))

	sort.Strings(result.Strict)
	sort.Strings(result.Soft)
	return result
}

// AnchorReport says which anchors of the source were found in the result.
type AnchorReport struct {
	Preserved     []string
	MissingStrict []string
	MissingSoft   []string
}

// HasStrictFailures returns true if any strict anchor is missing.
func (r *AnchorReport) HasStrictFailures() bool {
	return len(r.MissingStrict) > 0
}

// CheckAnchors looks for the anchors of original in result, ignoring case.
// Pass decoded text as result so aliases and abbreviations are expanded.
func CheckAnchors(original, result string) *AnchorReport {
	anchors := ExtractAnchors(original)
	lower := strings.ToLower(result)

	report := &AnchorReport{}
	for _, a := range anchors.Strict {
		if strings.Contains(lower, strings.ToLower(a)) {
			report.Preserved = append(report.Preserved, a)
		} else {
			report.MissingStrict = append(report.MissingStrict, a)
		}
	}
	for _, a := range anchors.Soft {
		if strings.Contains(lower, strings.ToLower(a)) {
			report.Preserved = append(report.Preserved, a)
		} else {
			report.MissingSoft = append(report.MissingSoft, a)
		}
	}
	return report
}

// knownTools are development tools prompts commonly name.
var knownTools = []string{
	"pytest", "ruff", "black", "mypy", "poetry", "pip", "uv",
	"gofmt", "goimports", "golangci-lint",
	"npm", "yarn", "pnpm", "eslint", "prettier", "vitest", "jest", "tsc",
	"cargo", "clippy",
	"composer", "phpcs", "phpunit", "wp-cli",
	"git", "docker", "make", "curl",
}

var wordBoundary = regexp.MustCompile(`[^a-z0-9-]`)

func toolNames(content string) []string {
	words := make(map[string]bool)
	for _, w := range wordBoundary.Split(strings.ToLower(content), -1) {
		words[w] = true
	}
	var found []string
	for _, tool := range knownTools {
		if words[tool] {
			found = append(found, tool)
		}
	}
	return found
}

var (
	pathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[\s"'(])(/[a-zA-Z][a-zA-Z0-9_\-./]*)`),
		regexp.MustCompile(`(?:^|[\s"'(])(\.\./[a-zA-Z0-9_\-./]+|\./[a-zA-Z0-9_\-./]+)`),
		regexp.MustCompile(`(?:^|[\s"'(])(~/[a-zA-Z0-9_\-./]+)`),
		regexp.MustCompile(`(?:^|[\s"'(])([a-zA-Z0-9_\-]+(?:/[a-zA-Z0-9_\-.]+)+)`),
		regexp.MustCompile(`(?:^|[\s"'(])(\.[a-zA-Z][a-zA-Z0-9_\-]+(?:\.[a-zA-Z]+)?)`),
		regexp.MustCompile(`(?:^|[\s"'(])([a-zA-Z][a-zA-Z0-9_\-]*\.(?:yaml|yml|json|toml|md|txt|py|go|ts|js|rs|php))`),
	}
	versionLike = regexp.MustCompile(`^v?\d+\.\d+`)
)

func filePaths(content string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, pattern := range pathPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			path := strings.TrimRight(strings.Trim(m[1], `"'`), ".")
			if len(path) < 2 || versionLike.MatchString(path) || seen[path] {
				continue
			}
			found = append(found, path)
			seen[path] = true
		}
	}
	return found
}

var backtickPattern = regexp.MustCompile("`([^`\n]+)`")

// commands are backtick spans that start with a known tool.
func commands(content string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, m := range backtickPattern.FindAllStringSubmatch(content, -1) {
		cmd := strings.TrimSpace(m[1])
		if looksLikeCommand(cmd) && !seen[cmd] {
			found = append(found, cmd)
			seen[cmd] = true
		}
	}
	return found
}

func looksLikeCommand(s string) bool {
	if len(s) < 2 || len(s) > 100 {
		return false
	}
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false
	}
	for _, tool := range knownTools {
		if fields[0] == tool {
			return true
		}
	}
	switch fields[0] {
	case "go", "python", "bash", "sh", "wp", "php":
		return len(fields) > 1
	}
	return false
}

var (
	codeBlockPattern   = regexp.MustCompile("(?s)```[a-zA-Z]*\n(.*?)```")
	definitionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:def|class)\s+([a-zA-Z_][a-zA-Z0-9_]*)`),
		regexp.MustCompile(`func\s+([a-zA-Z_][a-zA-Z0-9_]*)`),
		regexp.MustCompile(`function\s+([a-zA-Z_][a-zA-Z0-9_]*)`),
	}
)

// codeNames are function and class names defined in fenced code.
func codeNames(content string) []string {
	var found []string
	for _, block := range codeBlockPattern.FindAllStringSubmatch(content, -1) {
		for _, pattern := range definitionPatterns {
			for _, m := range pattern.FindAllStringSubmatch(block[1], -1) {
				found = append(found, m[1])
			}
		}
	}
	return found
}
