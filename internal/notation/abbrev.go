// Package notation holds the fixed vocabulary of the compact prompt format:
// the abbreviation table and the operator grammar.
//
// Both are immutable once built. A Table may be shared freely between
// goroutines; extending it returns a new Table and leaves the receiver as is.
package notation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Abbreviation pairs a full term with its short token.
type Abbreviation struct {
	Term  string // Full word or phrase, e.g. "pull request"
	Token string // Short form, e.g. "pr"
}

// Conflict describes an attempt to bind a token that already stands for a
// different term.
type Conflict struct {
	Token    string
	Existing string // Term the token already expands to
	Proposed string // Term the caller tried to bind
}

func (c Conflict) String() string {
	return fmt.Sprintf("%q already means %q, cannot redefine it as %q", c.Token, c.Existing, c.Proposed)
}

// tokenPattern is the shape of a legal token. Tokens prefixed with $ are
// document constants (path aliases).
var tokenPattern = regexp.MustCompile(`^\$?[A-Za-z0-9][A-Za-z0-9_]*$`)

// ValidToken reports whether s can be used as an abbreviation token.
func ValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// Table maps terms to tokens and back.
// Term lookups are case-insensitive; token lookups are case-sensitive.
type Table struct {
	entries  []Abbreviation
	byTerm   map[string]string // normalized term -> token
	byToken  map[string]string // token -> term
	maxWords int
}

// NewTable builds a table from entries. When two entries share a term or a
// token the first one wins, so tables are always a bijection.
func NewTable(entries []Abbreviation) *Table {
	t := &Table{
		byTerm:  make(map[string]string, len(entries)),
		byToken: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		t.add(e)
	}
	return t
}

func (t *Table) add(e Abbreviation) bool {
	key := normalizeTerm(e.Term)
	if key == "" || e.Token == "" {
		return false
	}
	if _, ok := t.byToken[e.Token]; ok {
		return false
	}
	t.byToken[e.Token] = e.Term
	if _, ok := t.byTerm[key]; !ok {
		t.byTerm[key] = e.Token
		if n := len(strings.Fields(key)); n > t.maxWords {
			t.maxWords = n
		}
	}
	t.entries = append(t.entries, e)
	return true
}

// Lookup returns the token for a term, ignoring case and extra whitespace.
func (t *Table) Lookup(term string) (string, bool) {
	token, ok := t.byTerm[normalizeTerm(term)]
	return token, ok
}

// Expand returns the term a token stands for. Matching is exact.
func (t *Table) Expand(token string) (string, bool) {
	term, ok := t.byToken[token]
	return term, ok
}

// Match finds the longest term at the start of words and returns its token
// together with the number of words consumed.
func (t *Table) Match(words []string) (string, int, bool) {
	n := min(t.maxWords, len(words))
	for ; n > 0; n-- {
		if token, ok := t.Lookup(strings.Join(words[:n], " ")); ok {
			return token, n, true
		}
	}
	return "", 0, false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries sorted by term.
func (t *Table) Entries() []Abbreviation {
	out := make([]Abbreviation, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Term) < strings.ToLower(out[j].Term)
	})
	return out
}

// Extend returns a new table holding the receiver's entries plus extra.
// An entry whose token is already bound to a different term is rejected and
// reported as a Conflict. Re-stating an existing mapping is not a conflict.
func (t *Table) Extend(extra []Abbreviation) (*Table, []Conflict) {
	out := NewTable(t.entries)
	var conflicts []Conflict
	for _, e := range extra {
		if existing, ok := out.byToken[e.Token]; ok {
			if !strings.EqualFold(normalizeTerm(existing), normalizeTerm(e.Term)) {
				conflicts = append(conflicts, Conflict{Token: e.Token, Existing: existing, Proposed: e.Term})
			}
			continue
		}
		out.add(e)
	}
	return out, conflicts
}

// Conflicts reports which of extra would be rejected by Extend.
func (t *Table) Conflicts(extra []Abbreviation) []Conflict {
	_, conflicts := t.Extend(extra)
	return conflicts
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}
