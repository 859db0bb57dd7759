package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/errors"
	"github.com/HartBrook/cpf/internal/github"
)

const samplePrompt = `# Plugin Rules

## Decision Rules

- If a maintained module or plugin exists, then recommend it.
- Never commit secrets or credentials.
- Check the frobnicator before every release.

## Workflow

1. Run ` + "`make test`" + `.
2. Open a pull request.
`

// isolate points HOME at a temp dir so config and cache stay out of the
// real home directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CPF_CONFIG", "")
	return home
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var cpfErr *errors.CPFError
	require.True(t, stderrors.As(err, &cpfErr), "want %s, got %v", code, err)
	assert.Equal(t, code, cpfErr.Code)
}

func fixedNow(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "cpf", cmd.Use)
	for _, name := range []string{"encode", "decode", "validate", "stats", "abbrev", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
		assert.NotEmpty(t, sub.Short)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestNewEncodeCmd_Flags(t *testing.T) {
	cmd := NewEncodeCmd(&globalOptions{})

	for _, flag := range []string{"output", "abbrev", "id", "title", "repo", "path", "ref", "no-cache", "no-preprocess"} {
		require.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")
	assert.False(t, noCache)
}

func TestEncode_Stdin(t *testing.T) {
	isolate(t)
	fixedNow(t)

	stdout, _, err := execute(t, samplePrompt, "encode")
	require.NoError(t, err)

	doc, err := document.Parse(stdout)
	require.NoError(t, err)
	assert.Equal(t, document.Metadata{
		ID:        "plugin-rules",
		Title:     "Plugin Rules",
		Source:    "stdin",
		Timestamp: "2026-01-02T03:04:05Z",
	}, doc.Meta)
	assert.Contains(t, stdout, "?mnt(mod|plg)exists->recommend")
	assert.Contains(t, stdout, "`make test`")
}

func TestEncode_FileToOutput(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "CLAUDE.md", samplePrompt)
	out := filepath.Join(dir, "nested", "CLAUDE.cpf")

	stdout, stderr, err := execute(t, "", "encode", in, "-o", out, "--id", "plugins", "--title", "Plugins")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Encoded "+in+" to "+out)
	assert.Contains(t, stderr, "smaller")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "CPF|v1\nM|plugins|Plugins|"+in+"|"))
}

func TestEncode_CustomAbbreviations(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	abbrev := writeFile(t, dir, "abbrev.yaml", "frobnicator: frob\nmonitoring: mod\n")

	stdout, stderr, err := execute(t, samplePrompt, "encode", "--abbrev", abbrev)
	require.NoError(t, err)

	assert.Contains(t, stdout, "@C:abbreviations\nfrob::frobnicator\n")
	assert.Contains(t, stdout, "frob")
	assert.Contains(t, stderr, "Skipped abbreviation")
	assert.Contains(t, stderr, "monitoring")
}

func TestEncode_ConfigAbbreviations(t *testing.T) {
	home := isolate(t)
	cfgDir := filepath.Join(home, ".config", "cpf")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	writeFile(t, cfgDir, "config.yaml", "abbreviations:\n  frobnicator: frob\n")

	stdout, _, err := execute(t, samplePrompt, "encode")
	require.NoError(t, err)
	assert.Contains(t, stdout, "frob::frobnicator")
}

func TestEncode_ArgumentErrors(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "encode", "--path", "CLAUDE.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--path needs --repo")

	_, _, err = execute(t, "", "encode", "x.md", "--repo", "acme/prompts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")

	_, _, err = execute(t, "", "encode", "--repo", "nope")
	requireCode(t, err, errors.ErrInvalidRepo)

	_, _, err = execute(t, "", "encode", filepath.Join(t.TempDir(), "missing.md"))
	requireCode(t, err, errors.ErrInputReadFailed)

	_, _, err = execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "encode")
	requireCode(t, err, errors.ErrConfigNotFound)
}

type fakeFetcher struct {
	calls   int
	content string
	err     error
}

func (f *fakeFetcher) FetchFile(ctx context.Context, owner, repo, path, ref string) (*github.FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &github.FetchResult{Content: f.content, SHA: "abc123"}, nil
}

func useFetcher(t *testing.T, f *fakeFetcher) {
	t.Helper()
	orig := newFetcher
	newFetcher = func() (fileFetcher, error) { return f, nil }
	t.Cleanup(func() { newFetcher = orig })
}

func TestEncode_Remote(t *testing.T) {
	isolate(t)
	f := &fakeFetcher{content: samplePrompt}
	useFetcher(t, f)

	stdout, stderr, err := execute(t, "", "encode", "--repo", "acme/prompts", "--path", "agents/CLAUDE.md")
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Contains(t, stdout, "M|plugin-rules|Plugin Rules|acme/prompts/agents/CLAUDE.md|")
	assert.Contains(t, stderr, "untrusted source: acme/prompts")

	// Fresh cache: no second fetch.
	_, _, err = execute(t, "", "encode", "--repo", "acme/prompts", "--path", "agents/CLAUDE.md")
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	_, _, err = execute(t, "", "encode", "--repo", "acme/prompts", "--path", "agents/CLAUDE.md", "--no-cache")
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestEncode_RemoteUsesConfiguredSource(t *testing.T) {
	home := isolate(t)
	cfgDir := filepath.Join(home, ".config", "cpf")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	writeFile(t, cfgDir, "config.yaml", "source: acme/prompts\ntrusted:\n  - acme\n")
	useFetcher(t, &fakeFetcher{content: samplePrompt})

	stdout, stderr, err := execute(t, "", "encode", "--path", "CLAUDE.md")
	require.NoError(t, err)
	assert.Contains(t, stdout, "|acme/prompts/CLAUDE.md|")
	assert.NotContains(t, stderr, "untrusted")
}

func TestEncode_RemoteFailure(t *testing.T) {
	isolate(t)
	f := &fakeFetcher{content: samplePrompt}
	useFetcher(t, f)

	_, _, err := execute(t, "", "encode", "--repo", "acme/prompts")
	require.NoError(t, err)

	// A failed refetch falls back to the cached copy.
	f.err = stderrors.New("network down")
	stdout, stderr, err := execute(t, "", "encode", "--repo", "acme/prompts", "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, stdout, "CPF|v1")
	assert.Contains(t, stderr, "using cached copy")

	_, _, err = execute(t, "", "encode", "--repo", "acme/other")
	requireCode(t, err, errors.ErrGitHubFetchFailed)
}

const sampleCPF = `CPF|v1
M|rules|Rules|rules.md|2026-01-01T00:00:00Z
---

@R:decision-rules
?mnt(mod|plg)exists->recommend
!!commit secrets|credentials

@B:build
<<BASH
make test
BASH>>
`

func TestDecode(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, sampleCPF, "decode")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "# Rules\n"))
	assert.Contains(t, stdout, "## Decision Rules\n")
	assert.Contains(t, stdout, "- If maintained module or plugin exists, then recommend.\n")
	assert.Contains(t, stdout, "- Never commit secrets or credentials.\n")
	assert.Contains(t, stdout, "```bash\nmake test\n```\n")
}

func TestDecode_ToFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "rules.cpf", sampleCPF)
	out := filepath.Join(dir, "rules.md")

	_, stderr, err := execute(t, "", "decode", in, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Decoded")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Rules")
}

func TestDecode_Malformed(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "# just markdown\n", "decode")
	requireCode(t, err, errors.ErrFormatInvalid)

	_, _, err = execute(t, sampleCPF+"\n@R:decision-rules\nx\n", "decode")
	requireCode(t, err, errors.ErrFormatInvalid)
}

func TestValidate(t *testing.T) {
	isolate(t)

	t.Run("valid", func(t *testing.T) {
		stdout, _, err := execute(t, sampleCPF, "validate")
		require.NoError(t, err)
		assert.Contains(t, stdout, "stdin is valid")
	})

	t.Run("errors", func(t *testing.T) {
		stdout, _, err := execute(t, sampleCPF+"\n@R:decision-rules\n->x\n", "validate")
		requireCode(t, err, errors.ErrValidationFailed)
		assert.Contains(t, stdout, "line 14:")
		assert.Contains(t, stdout, "[duplicate-block]")
		assert.Contains(t, stdout, "[operator-position]")
		assert.Contains(t, stdout, "2 errors, 0 warnings")
	})

	t.Run("warnings", func(t *testing.T) {
		raw := sampleCPF + "\n@R:nested\n?x->?y->z\n"

		stdout, _, err := execute(t, raw, "validate")
		require.NoError(t, err)
		assert.Contains(t, stdout, "[nested-conditional]")
		assert.Contains(t, stdout, "0 errors, 1 warning")

		_, _, err = execute(t, raw, "validate", "--strict")
		requireCode(t, err, errors.ErrValidationFailed)
	})

	t.Run("unparseable", func(t *testing.T) {
		_, _, err := execute(t, "M|x|X||\n---\n", "validate")
		requireCode(t, err, errors.ErrFormatInvalid)
	})
}

func TestStats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	original := writeFile(t, dir, "CLAUDE.md", samplePrompt)

	encoded, _, err := execute(t, samplePrompt, "encode")
	require.NoError(t, err)
	cpf := writeFile(t, dir, "CLAUDE.cpf", encoded)

	stdout, _, err := execute(t, "", "stats", cpf)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Blocks")
	assert.Contains(t, stdout, "Tokens")
	assert.NotContains(t, stdout, "Original tokens")

	stdout, _, err = execute(t, "", "stats", cpf, "--original", original)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Original tokens")
	assert.Contains(t, stdout, "Saved")
	assert.Contains(t, stdout, "anchors preserved")
}

func TestStats_NeedsFile(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "", "stats")
	assert.Error(t, err)
}

func TestAbbrev(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "abbrev")
	require.NoError(t, err)
	assert.Contains(t, stdout, "configuration")
	assert.Contains(t, stdout, "abbreviations")

	stdout, _, err = execute(t, "", "abbrev", "Configuration", "pr", "zzz")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration → cfg")
	assert.Contains(t, stdout, "pr → pull request")
	assert.Contains(t, stdout, `No abbreviation for "zzz"`)

	stdout, _, err = execute(t, "", "abbrev", "?!", "=>")
	require.NoError(t, err)
	assert.Contains(t, stdout, "?! → unless")
	assert.Contains(t, stdout, "=> → results in")

	stdout, _, err = execute(t, "", "abbrev", "--operators")
	require.NoError(t, err)
	assert.Contains(t, stdout, "?!")
	assert.Contains(t, stdout, "unless")
	assert.Contains(t, stdout, "results in")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "cpf dev\n", stdout)
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, errors.FormatInvalid("x.cpf", stderrors.New("line 1: missing header")))

	assert.Contains(t, buf.String(), "x.cpf is not a valid CPF document: line 1: missing header")
	assert.Contains(t, buf.String(), "cpf validate")

	buf.Reset()
	reportError(&buf, stderrors.New("plain"))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
