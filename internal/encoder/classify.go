package encoder

import (
	"regexp"
	"strings"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/markdown"
)

// classifier recognizes one block kind, first by heading and then by the
// shape of the content.
type classifier struct {
	sigil  document.Sigil
	header *regexp.Regexp
	body   func(lines []string) bool
}

var (
	exactHeader    = regexp.MustCompile(`(?i)\b(exact|verbatim|literal|required (?:text|strings?|output))`)
	zoneHeader     = regexp.MustCompile(`(?i)(boundar|\bscope|\bzones?\b|\bpaths?\b|workspace|director|folder)`)
	toneHeader     = regexp.MustCompile(`(?i)\b(tone|personality|voice|character|persona|communication style|writing style)\b`)
	negationHeader = regexp.MustCompile(`(?i)(restriction|prohibit|forbidden|don.t|avoid|\bnever\b|quality.gate|do not)`)
	priorityHeader = regexp.MustCompile(`(?i)(priorit|hierarchy|ranking|precedence)`)
	sequenceHeader = regexp.MustCompile(`(?i)\b(steps?|sequence|workflow|procedure|process|after|before|how to)\b`)
)

var (
	exactLinePattern    = regexp.MustCompile("(?i)(^(exactly|verbatim)\\b|\\b(must|shall)\\s+(be|equal|match|read|say)\\s+(exactly\\s+)?[\"'`])")
	pathRefPattern      = regexp.MustCompile("(?:^|[\\s`(])(?:(?:~|\\.{1,2})?/[\\w.*-]+|[\\w.*-]+/(?:[\\w.*-]+/)+|[\\w.*-]+/[\\w.*-]*\\.\\w+|[\\w.-]+/(?:$|[\\s`),]))")
	toneLinePattern     = regexp.MustCompile(`(?i)^(you are|act as|be\b|sound\b|speak\b|write in|respond in|your (tone|voice|persona))`)
	negationLinePattern = regexp.MustCompile(`(?i)^(do\s+not|don'?t|never|avoid|must\s+not|should\s+not|cannot|can'?t|no\s)\b`)
	rankingLinePattern  = regexp.MustCompile(`(?i)\b(most important|least important|highest|lowest|top priority|above all|ranked?)\b`)
	ordinalLinePattern  = regexp.MustCompile(`(?i)^(first|second|third|then|next|after that|afterwards|finally|lastly|step \d+)\b`)
)

// classifiers are tried in order; the first match wins.
var classifiers = []classifier{
	{document.Exact, exactHeader, func(l []string) bool { return share(l, exactLinePattern.MatchString) > 0.5 }},
	{document.Zone, zoneHeader, func(l []string) bool { return share(l, pathRefPattern.MatchString) > 0.5 }},
	{document.Tone, toneHeader, func(l []string) bool { return share(l, toneLinePattern.MatchString) > 0.5 }},
	{document.Negation, negationHeader, func(l []string) bool { return share(l, negationLinePattern.MatchString) > 0.6 }},
	{document.Priority, priorityHeader, looksRanked},
	{document.Sequence, sequenceHeader, looksSequential},
}

// Classify picks the sigil for a section from its heading and its lines.
// Heading cues outrank content cues; anything unrecognized is a Rule.
func Classify(header string, lines []string) document.Sigil {
	if header != "" {
		for _, c := range classifiers {
			if c.header.MatchString(header) {
				return c.sigil
			}
		}
	}
	content := prose(lines)
	if len(content) == 0 {
		return document.Rule
	}
	for _, c := range classifiers {
		if c.body(content) {
			return c.sigil
		}
	}
	return document.Rule
}

// prose returns the non-blank lines with list markers and emphasis removed.
func prose(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, markdown.StripEmphasis(markdown.StripBullet(line)))
	}
	return out
}

func share(lines []string, match func(string) bool) float64 {
	if len(lines) == 0 {
		return 0
	}
	n := 0
	for _, line := range lines {
		if _, text, ok := markdown.Numbered(line); ok {
			line = text
		}
		if match(line) {
			n++
		}
	}
	return float64(n) / float64(len(lines))
}

func numberedShare(lines []string) float64 {
	n := 0
	for _, line := range lines {
		if _, _, ok := markdown.Numbered(line); ok {
			n++
		}
	}
	return float64(n) / float64(len(lines))
}

// looksRanked is a numbered list of things rather than actions, or a list
// that talks in terms of rank.
func looksRanked(lines []string) bool {
	if numberedShare(lines) > 0.6 && share(lines, startsImperative) < 0.5 {
		return true
	}
	return share(lines, rankingLinePattern.MatchString) > 0.5
}

// looksSequential is a numbered list of actions, or prose that walks
// through an order.
func looksSequential(lines []string) bool {
	if numberedShare(lines) > 0.4 && share(lines, startsImperative) >= 0.5 {
		return true
	}
	return share(lines, ordinalLinePattern.MatchString) > 0.5
}

// imperativeVerbs are verbs that open an instruction.
var imperativeVerbs = map[string]bool{
	"add": true, "analyze": true, "apply": true, "ask": true, "avoid": true,
	"build": true, "call": true, "check": true, "choose": true, "clean": true,
	"commit": true, "compare": true, "configure": true, "confirm": true, "create": true,
	"define": true, "delete": true, "deploy": true, "describe": true, "document": true,
	"do": true, "ensure": true, "explain": true, "extract": true, "fetch": true,
	"find": true, "fix": true, "follow": true, "format": true, "generate": true,
	"identify": true, "implement": true, "include": true, "install": true, "keep": true,
	"list": true, "load": true, "log": true, "make": true, "merge": true,
	"move": true, "open": true, "prefer": true, "prepare": true, "push": true,
	"read": true, "recommend": true, "refactor": true, "remove": true, "rename": true,
	"report": true, "request": true, "resolve": true, "restart": true, "return": true,
	"review": true, "run": true, "save": true, "search": true, "set": true,
	"ship": true, "start": true, "stop": true, "submit": true, "summarize": true,
	"test": true, "update": true, "use": true, "validate": true, "verify": true,
	"wait": true, "write": true,
}

func startsImperative(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToLower(strings.Trim(fields[0], ".,:;!?`*_\"'"))
	return imperativeVerbs[word]
}
