package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_IsBijection(t *testing.T) {
	table := Builtin()
	require.Equal(t, len(builtinAbbreviations), table.Len(), "builtin entries must not collide")

	for _, e := range table.Entries() {
		token, ok := table.Lookup(e.Term)
		require.True(t, ok, "term %q should be found", e.Term)
		assert.Equal(t, e.Token, token)

		term, ok := table.Expand(e.Token)
		require.True(t, ok, "token %q should expand", e.Token)
		assert.Equal(t, e.Term, term)

		assert.True(t, ValidToken(e.Token), "token %q should be well formed", e.Token)
	}
}

func TestTable_Lookup(t *testing.T) {
	table := Builtin()

	tests := []struct {
		name  string
		term  string
		want  string
		found bool
	}{
		{"lowercase", "module", "mod", true},
		{"mixed case", "Module", "mod", true},
		{"proper noun", "wordpress", "wp", true},
		{"multi word", "pull request", "pr", true},
		{"extra whitespace", "  pull   request ", "pr", true},
		{"unknown", "banana", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Lookup(tt.term)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_ExpandIsCaseSensitive(t *testing.T) {
	table := Builtin()

	term, ok := table.Expand("mod")
	require.True(t, ok)
	assert.Equal(t, "module", term)

	_, ok = table.Expand("MOD")
	assert.False(t, ok)
}

func TestTable_MatchPrefersLongestTerm(t *testing.T) {
	table := Builtin()

	token, n, ok := table.Match([]string{"dependency", "injection", "everywhere"})
	require.True(t, ok)
	assert.Equal(t, "di", token)
	assert.Equal(t, 2, n)

	token, n, ok = table.Match([]string{"dependency", "graph"})
	require.True(t, ok)
	assert.Equal(t, "dep", token)
	assert.Equal(t, 1, n)

	_, _, ok = table.Match([]string{"graph"})
	assert.False(t, ok)
}

func TestTable_Extend(t *testing.T) {
	base := Builtin()

	extended, conflicts := base.Extend([]Abbreviation{
		{Term: "kubernetes", Token: "k8s"},
		{Term: "monitoring", Token: "mod"},
		{Term: "Module", Token: "mod"},
	})

	require.Len(t, conflicts, 1)
	assert.Equal(t, "mod", conflicts[0].Token)
	assert.Equal(t, "module", conflicts[0].Existing)
	assert.Equal(t, "monitoring", conflicts[0].Proposed)
	assert.Contains(t, conflicts[0].String(), "cannot redefine")

	token, ok := extended.Lookup("Kubernetes")
	require.True(t, ok)
	assert.Equal(t, "k8s", token)

	term, ok := extended.Expand("mod")
	require.True(t, ok)
	assert.Equal(t, "module", term, "builtin mapping must survive")

	_, ok = base.Lookup("kubernetes")
	assert.False(t, ok, "receiver must not change")
}

func TestTable_ExtendKeepsExistingTermMapping(t *testing.T) {
	extended, conflicts := Builtin().Extend([]Abbreviation{{Term: "module", Token: "mdl"}})
	assert.Empty(t, conflicts)

	term, ok := extended.Expand("mdl")
	require.True(t, ok)
	assert.Equal(t, "module", term)

	token, _ := extended.Lookup("module")
	assert.Equal(t, "mod", token, "encoding keeps the first binding")
}

func TestEverydayTokens(t *testing.T) {
	for token := range everydayTokens {
		_, ok := Builtin().Expand(token)
		assert.True(t, ok, "%q is not a built-in token", token)
	}
	assert.True(t, IsEverydayToken("min"))
	assert.False(t, IsEverydayToken("app"))
	assert.False(t, IsEverydayToken("Min"))
}

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken("k8s"))
	assert.True(t, ValidToken("$wp_root"))
	assert.False(t, ValidToken(""))
	assert.False(t, ValidToken("two words"))
	assert.False(t, ValidToken("a|b"))
	assert.False(t, ValidToken("_x"))
}
