package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/notation"
)

const sampleEnglish = `# Test Rules

## Decision Rules

- If a maintained module exists: recommend it and link to it.
- If a module exists but is abandoned: code a custom solution and explain why.
- If no module exists: code the solution from scratch.
- Do NOT reinvent the wheel.
- Always check for existing solutions first.

## Default Priorities

1. Stability and security
2. Performance and caching
3. Maintainability
4. Developer experience

## Coding Standards

- Follow WordPress coding standards.
- Prefer hooks and filters over core edits.
- Avoid expensive queries in loops.
- Never commit secrets or credentials.
`

func TestEncode_SampleDocument(t *testing.T) {
	doc := Encode(sampleEnglish, Options{Source: "test.md", Timestamp: "2026-01-01T00:00:00Z"})

	assert.Equal(t, document.Metadata{
		ID:        "test-rules",
		Title:     "Test Rules",
		Source:    "test.md",
		Timestamp: "2026-01-01T00:00:00Z",
	}, doc.Meta)
	require.Len(t, doc.Blocks, 3)

	rules := requireBlock(t, doc, document.Rule, "decision-rules")
	assert.Equal(t, []string{
		"?mnt mod exists->recommend+link to",
		"?mod exists but is abd->code custom solution+explain why",
		"?no mod exists->code solution from scratch",
		"!!reinvent wheel",
		"*chk for existing solutions first",
	}, rules.Lines)

	priorities := requireBlock(t, doc, document.Priority, "default-priorities")
	assert.Equal(t, []string{"#1 stab+sec", "#2 perf+caching", "#3 mntb", "#4 dx"}, priorities.Lines)

	standards := requireBlock(t, doc, document.Rule, "coding-standards")
	assert.Equal(t, []string{
		"Follow wp coding standards",
		"prefer(hooks+filters)>core edits",
		"!!expensive queries in loops",
		"!!commit secrets|credentials",
	}, standards.Lines)
}

func TestEncode_ConditionalWithGroupedConnective(t *testing.T) {
	doc := Encode("If a maintained module or plugin exists, then recommend it.", Options{})

	require.Len(t, doc.Blocks, 1)
	block := doc.Blocks[0]
	assert.Equal(t, document.Rule, block.Sigil)
	assert.Equal(t, "part-1", block.ID)
	assert.Equal(t, []string{"?mnt(mod|plg)exists->recommend"}, block.Lines)
}

func TestEncode_Statements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unless", "Unless a module exists, code the solution.", "?!mod exists->code solution"},
		{"if not", "If not cached, fetch the configuration.", "?!cached->fetch cfg"},
		{"negated condition flips", "If you do not know, ask.", "?!know->ask"},
		{"trailing condition", "Use the cache when available.", "?avail->Use cch"},
		{"check if is not a condition", "Check if the file exists.", "chk if file exists"},
		{"otherwise", "If tests pass, merge; otherwise fix them.", "?tests pass->merge;fix"},
		{"otherwise if chain", "If p, do x, otherwise if q, do y.", "?p->do x;?q->do y"},
		{"never inside condition action", "If in production, never log secrets.", "?in prod->!!log secrets"},
		{"must", "Make sure to validate input.", "*validate input"},
		{"definition", "**Git:** use conventional commits", "Git::use conventional commits"},
		{"emphasis key folds", "**Important:** back up the database", "*back up db"},
		{"means", "DX means developer experience.", "DX::dx"},
		{"then chain", "Build the app, then deploy it.", "Build app->deploy"},
		{"results in", "Skipping tests leads to regressions.", "Skipping tests=>regressions"},
		{"comparison", "Keep coverage at least 80%.", "Keep coverage >= 80%"},
		{"backticks are literal", "Run `make test && echo ok` before pushing.", "Run `make test && echo ok` before pushing"},
		{"operator characters get quoted", "Write C++ and Rust.", "Write `C++`+Rust"},
		{"question mark dropped", "Why does it fail?", "Why does fail"},
		{"paths untouched", "Edit src/module/config.go only.", "Edit src/module/config.go only"},
		{"dollar words quoted", "Read $HOME first.", "Read `$HOME` first"},
		{"list commas", "Check logs, metrics, and traces.", "chk logs+metrics+traces"},
		{"email addresses are literal", "Email me at a@b.com.", "Email me at `a@b.com`"},
		{"one letter local part survives", "Write to a@b.com or x@y.org", "Write to `a@b.com`|`x@y.org`"},
		{"key value pairs are literal", "Set mode=fast first.", "Set `mode=fast` first"},
		{"everyday word that is a token", "Wait 5 min before retrying.", "Wait 5 `min` before retrying"},
		{"term still abbreviates", "Set the minimum timeout.", "Set min timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Encode(tt.input, Options{SkipPreprocess: true})
			require.Len(t, doc.Blocks, 1)
			require.Len(t, doc.Blocks[0].Lines, 1)
			assert.Equal(t, tt.want, doc.Blocks[0].Lines[0])
		})
	}
}

func TestEncode_SentencesKeepTheirOwnConditions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trailing condition in second sentence", "Never log secrets. Retry if the request fails.", []string{"!!log secrets", "?rqst fails->Retry"}},
		{"when in second sentence", "Always use TLS. Deploy when the tests pass.", []string{"*use TLS", "?tests pass->Deploy"}},
		{"otherwise stays with its condition", "If tests pass, merge. Otherwise, fix them.", []string{"?tests pass->merge;fix"}},
		{"period inside backticks", "Run `make lint. Then test` now.", []string{"Run `make lint. Then test` now"}},
		{"abbreviation is not a sentence end", "Use a queue, e.g. Redis.", []string{"Use queue, e.g. Redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Encode(tt.input, Options{SkipPreprocess: true})
			require.Len(t, doc.Blocks, 1)
			assert.Equal(t, tt.want, doc.Blocks[0].Lines)
		})
	}
}

func TestEncode_PlainSentencesShareALine(t *testing.T) {
	doc := Encode("Read the logs. Fix the bug.", Options{SkipPreprocess: true})
	require.Len(t, doc.Blocks, 1)
	require.Len(t, doc.Blocks[0].Lines, 1)
	assert.Contains(t, doc.Blocks[0].Lines[0], ". ")
}

func TestEncode_NumberedLineWithSeveralSentences(t *testing.T) {
	doc := Encode("## Steps\n\n1. Build the app. Deploy if the tests pass.\n", Options{})
	block := requireBlock(t, doc, document.Sequence, "steps")
	require.Len(t, block.Lines, 2)
	assert.True(t, strings.HasPrefix(block.Lines[0], "#1 "))
	assert.True(t, strings.HasPrefix(block.Lines[1], notation.If))
}

func TestEncode_SequenceKeepsNumbers(t *testing.T) {
	doc := Encode(`## After Completing

1. Remove this item from the backlog.
2. Commit and push all changes.
`, Options{})

	block := requireBlock(t, doc, document.Sequence, "after-completing")
	assert.Equal(t, []string{"#1 Remove item from backlog", "#2 Commit+push all changes"}, block.Lines)
}

func TestEncode_NegationSection(t *testing.T) {
	doc := Encode(`## Quality Gate

- Do NOT commit secrets or credentials.
- Never leave debug code behind.
- Avoid broad dependency upgrades.
`, Options{})

	block := requireBlock(t, doc, document.Negation, "quality-gate")
	assert.Equal(t, []string{"!!commit secrets|credentials", "!!leave debug code behind", "!!broad dep upgrades"}, block.Lines)
}

func TestEncode_EmptySectionsSkipped(t *testing.T) {
	doc := Encode("# Title\n\n## Empty Section\n\n## Has Content\n\n- Something here.\n", Options{})

	assert.Empty(t, doc.FindByID("empty-section"))
	assert.Len(t, doc.FindByID("has-content"), 1)
}

func TestEncode_DuplicateHeadingsGetUniqueIDs(t *testing.T) {
	doc := Encode("## Notes\n\n- first\n\n## Notes\n\n- second\n", Options{})

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "notes", doc.Blocks[0].ID)
	assert.Equal(t, "notes-2", doc.Blocks[1].ID)
}

func TestEncode_HeadinglessInputSplitsIntoParts(t *testing.T) {
	doc := Encode("You are a concise assistant.\n\nIf unsure, ask.\n", Options{})

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, document.Tone, doc.Blocks[0].Sigil)
	assert.Equal(t, "part-1", doc.Blocks[0].ID)
	assert.Equal(t, document.Rule, doc.Blocks[1].Sigil)
	assert.Equal(t, "part-2", doc.Blocks[1].ID)
	assert.Equal(t, []string{"?unsure->ask"}, doc.Blocks[1].Lines)
	assert.Equal(t, "Untitled", doc.Meta.Title)
	assert.Equal(t, "untitled", doc.Meta.ID)
}

func TestEncode_CodeBecomesBlob(t *testing.T) {
	doc := Encode("## Build\n\nRun the build:\n\n```bash\nmake build\nBASH>>\n```\n", Options{})

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, document.Rule, doc.Blocks[0].Sigil)
	assert.Equal(t, []string{"Run build"}, doc.Blocks[0].Lines)

	blob := doc.Blocks[1]
	assert.Equal(t, document.Blob, blob.Sigil)
	assert.Equal(t, "build-code-1", blob.ID)
	assert.Equal(t, "BASH_", blob.Label, "label must not collide with body")
	assert.Equal(t, []string{"make build", "BASH>>"}, blob.Lines)
}

func TestEncode_ExactSectionIsVerbatim(t *testing.T) {
	doc := Encode("## Exact Output\n\n- Reply with `DONE` | nothing else.\n", Options{})

	block := requireBlock(t, doc, document.Exact, "exact-output")
	assert.Equal(t, []string{"Reply with `DONE` | nothing else."}, block.Lines)
}

func TestEncode_References(t *testing.T) {
	doc := Encode(`## Restrictions

- Never commit secrets.

## Workflow

- See the Restrictions section before pushing.
`, Options{})

	block := requireBlock(t, doc, document.Sequence, "workflow")
	assert.Equal(t, []string{"@>N:restrictions before pushing"}, block.Lines)
}

func TestEncode_PathAliases(t *testing.T) {
	input := `## Layout

- Put code in wp-content/plugins/custom-module/src only.
- Never edit files outside wp-content/plugins/custom-module/src.
`
	doc := Encode(input, Options{})

	paths := requireBlock(t, doc, document.Constant, "paths")
	assert.Equal(t, []string{"$src::wp-content/plugins/custom-module/src"}, paths.Lines)
	assert.Equal(t, document.Constant, doc.Blocks[0].Sigil, "constants come first")

	layout := doc.FindByID("layout")
	require.Len(t, layout, 1)
	assert.Equal(t, []string{"Put code in $src only", "!!edit files outside $src"}, layout[0].Lines)
}

func TestEncode_CustomAbbreviations(t *testing.T) {
	enc := New(Options{Abbreviations: []notation.Abbreviation{
		{Term: "frobnicator", Token: "frob"},
		{Term: "monitoring", Token: "mod"},
	}})

	require.Len(t, enc.Conflicts(), 1)
	assert.Equal(t, "mod", enc.Conflicts()[0].Token)

	doc := enc.Encode("## Custom\n\n- Check the frobnicator.\n")
	block := requireBlock(t, doc, document.Rule, "custom")
	assert.Equal(t, []string{"chk frob"}, block.Lines)

	abbrevs := requireBlock(t, doc, document.Constant, "abbreviations")
	assert.Equal(t, []string{"frob::frobnicator"}, abbrevs.Lines)
}

func TestEncode_UnusedCustomAbbreviationsAreNotWritten(t *testing.T) {
	doc := Encode("## Custom\n\n- Nothing special.\n", Options{
		Abbreviations: []notation.Abbreviation{{Term: "frobnicator", Token: "frob"}},
	})
	assert.Empty(t, doc.BlocksBySigil(document.Constant))
}

func TestEncode_OptionsOverrideMetadata(t *testing.T) {
	doc := Encode(sampleEnglish, Options{ID: "my-doc", Title: "My | Document"})
	assert.Equal(t, "my-doc", doc.Meta.ID)
	assert.Equal(t, "My / Document", doc.Meta.Title)
}

func TestEncode_IsDeterministic(t *testing.T) {
	opts := Options{Timestamp: "2026-01-01T00:00:00Z"}
	first := document.Serialize(Encode(sampleEnglish, opts))
	second := document.Serialize(Encode(sampleEnglish, opts))
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "CPF|v1\nM|test-rules|Test Rules||2026-01-01T00:00:00Z\n---\n"))
}

func TestEncode_OutputParses(t *testing.T) {
	out := document.Serialize(Encode(sampleEnglish, Options{}))
	doc, err := document.Parse(out)
	require.NoError(t, err)
	assert.Len(t, doc.Blocks, 3)
}

func requireBlock(t *testing.T, doc *document.Document, sigil document.Sigil, id string) document.Block {
	t.Helper()
	block, ok := doc.Block(sigil, id)
	require.True(t, ok, "missing @%s:%s in\n%s", sigil, id, document.Serialize(doc))
	return block
}
