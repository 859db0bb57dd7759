package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"simple text", "hello world", 2},
		{"notation", "?mnt(mod|plg)exists->recommend", 7},
		{"unicode counts runes", "Hello 世界 emoji 🎉", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountTokens(tt.content))
			assert.Equal(t, tt.want, EstimateTokenizer{}.Count(tt.content))
		})
	}
}

func TestTokenStats(t *testing.T) {
	s := TokenStats{Before: 200, After: 50}
	assert.Equal(t, 150, s.Saved())
	assert.InDelta(t, 75.0, s.PercentReduction(), 0.001)

	assert.Equal(t, 0.0, TokenStats{}.PercentReduction())
	assert.Less(t, TokenStats{Before: 10, After: 20}.PercentReduction(), 0.0)
}

func TestMeasure(t *testing.T) {
	got := Measure("one\ntwo\nthree\n", nil)
	assert.Equal(t, TextStats{Lines: 3, Chars: 14, Tokens: 3}, got)

	assert.Equal(t, TextStats{}, Measure("", nil))
}

type wordTokenizer struct{}

func (wordTokenizer) Count(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

func TestCompare_UsesTokenizer(t *testing.T) {
	got := Compare("if a module exists then recommend it", "?mod exists->recommend", wordTokenizer{})
	assert.Equal(t, TokenStats{Before: 7, After: 2}, got)
}

func TestTokenizerByName(t *testing.T) {
	tok, ok := TokenizerByName("estimate")
	require.True(t, ok)
	assert.Equal(t, CountTokens("hello world, again"), tok.Count("hello world, again"))

	_, ok = TokenizerByName("tiktoken")
	assert.False(t, ok)
}

func TestExtractAnchors(t *testing.T) {
	content := "Use `git commit -s` and run pytest.\n" +
		"Code lives in wp-content/plugins/custom-module/src and config in ./etc/app.yaml.\n" +
		"Keep .env out of git.\n" +
		"```python\ndef calculate_total(items):\n    return 1\n```\n"

	anchors := ExtractAnchors(content)
	assert.Contains(t, anchors.Strict, "git commit -s")
	assert.Contains(t, anchors.Strict, "wp-content/plugins/custom-module/src")
	assert.Contains(t, anchors.Strict, "./etc/app.yaml")
	assert.Contains(t, anchors.Strict, ".env")
	assert.Contains(t, anchors.Strict, "calculate_total")
	assert.Contains(t, anchors.Soft, "pytest")
	assert.Contains(t, anchors.Soft, "git")
	assert.NotContains(t, anchors.All(), "v1.2")
}

func TestCheckAnchors(t *testing.T) {
	original := "Run `npm test` before pushing. Edit src/app/main.go only. Lint with eslint."
	result := "- Run `npm test` before pushing.\n- Edit src/app/main.go only.\n"

	report := CheckAnchors(original, result)
	assert.False(t, report.HasStrictFailures())
	assert.Contains(t, report.Preserved, "npm test")
	assert.Contains(t, report.Preserved, "src/app/main.go")
	assert.Equal(t, []string{"eslint"}, report.MissingSoft)

	report = CheckAnchors(original, "- Run tests.")
	assert.True(t, report.HasStrictFailures())
}
