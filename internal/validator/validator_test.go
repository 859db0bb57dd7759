package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/encoder"
)

const validCPF = `CPF|v1
M|test-rules|Test Rules|test.md|2026-01-01T00:00:00Z
---

@C:paths
$src::wp-content/plugins/custom-module/src

@C:abbreviations
frob::frobnicator

@R:decision-rules
?mnt(mod|plg)exists->recommend
?tests pass->merge;fix
?!mod exists->code solution
prefer(hooks+filters)>core edits
Git::use conventional commits
Keep coverage >= 80%
*chk for existing solutions first
Run ` + "`make test && echo ok; ?`" + ` before pushing
Put code in $src only
chk frob
@>N:restrictions

@N:restrictions
!!commit secrets|credentials
?in prod->!!log secrets

@P:default-priorities
#1 stab+sec
#2 perf+caching

@X:exact-output
Reply with -> nothing | else

@B:raw
<<RAW
?notreal->
RAW>>
`

func TestValidate_ValidDocument(t *testing.T) {
	violations, err := ValidateText(validCPF)
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.True(t, IsValid(validCPF))
}

func TestValidate_EncodedOutputIsValid(t *testing.T) {
	doc := encoder.Encode(`# Rules

## Decision Rules

- If a maintained module or plugin exists, then recommend it.
- Never commit secrets.

## Workflow

1. Run the tests.
2. See the Decision Rules section before pushing.
`, encoder.Options{Source: "rules.md"})

	assert.Empty(t, Validate(doc))
	assert.True(t, IsValidDocument(doc))
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		kind     Kind
		severity Severity
		line     int
	}{
		{"duplicate block", "@R:mod-first\na\n\n@R:mod-first\nb\n", DuplicateBlock, SeverityError, 7},
		{"unknown sigil", "@Q:odd\na\n", UnknownSigil, SeverityError, 4},
		{"invalid block id", "@R:-bad\na\n", InvalidBlockID, SeverityError, 4},
		{"unresolved reference", "@R:a\n@>R:nope\n", UnresolvedReference, SeverityError, 5},
		{"unresolved bare reference", "@R:a\nsee @>nope first\n", UnresolvedReference, SeverityError, 5},
		{"ambiguous reference", "@R:shared\nx\n\n@N:shared\n!!y\n\n@S:go\n@>shared\n", AmbiguousReference, SeverityError, 11},
		{"reference without target", "@R:a\nsee @>\n", OperatorPosition, SeverityError, 5},
		{"builtin conflict", "@C:abbreviations\nmod::monitoring\n", AbbreviationConflict, SeverityError, 5},
		{"redefinition", "@C:one\nx1::foo\n\n@C:two\nx1::bar\n", AbbreviationConflict, SeverityError, 8},
		{"malformed constant", "@C:bad\nnovalue\n", MalformedConstant, SeverityError, 5},
		{"bad constant name", "@C:bad\nnot a token::value\n", MalformedConstant, SeverityError, 5},
		{"undefined constant", "@R:a\nedit $nope\n", UndefinedConstant, SeverityError, 5},
		{"constant used before definition", "@R:a\nedit $src\n\n@C:paths\n$src::src/a/b\n", UndefinedConstant, SeverityError, 5},
		{"then without left side", "@R:a\n->deploy\n", OperatorPosition, SeverityError, 5},
		{"then without right side", "@R:a\nbuild->\n", OperatorPosition, SeverityError, 5},
		{"doubled operator", "@R:a\na++b\n", OperatorPosition, SeverityError, 5},
		{"condition mid clause", "@R:a\nrun?tests\n", OperatorPosition, SeverityError, 5},
		{"condition without body", "@R:a\n?->go\n", OperatorPosition, SeverityError, 5},
		{"never without body", "@R:a\n!!\n", OperatorPosition, SeverityError, 5},
		{"empty clause", "@R:a\n?x->y;;z\n", OperatorPosition, SeverityError, 5},
		{"nested conditional", "@R:a\n?x->?y->z\n", NestedConditional, SeverityWarning, 5},
		{"empty block", "@R:empty\n\n@R:full\nx\n", EmptyBlock, SeverityWarning, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := ValidateText("CPF|v1\nM|doc|Doc||\n---\n" + tt.body)
			require.NoError(t, err)
			v := find(violations, tt.kind)
			require.NotNil(t, v, "no %s in %v", tt.kind, violations)
			assert.Equal(t, tt.severity, v.Severity)
			assert.Equal(t, tt.line, v.Line)
		})
	}
}

func TestValidate_LiteralOperands(t *testing.T) {
	for _, line := range []string{"Write `a`+`b`", "Use `x`|`y`", "`a`::`b`", "?`ready`->`ship`"} {
		t.Run(line, func(t *testing.T) {
			violations, err := ValidateText("CPF|v1\nM|doc|Doc||\n---\n@R:a\n" + line + "\n")
			require.NoError(t, err)
			assert.Empty(t, violations)
		})
	}

	violations, err := ValidateText("CPF|v1\nM|doc|Doc||\n---\n@R:a\nWrite `a`+\n")
	require.NoError(t, err)
	assert.NotNil(t, find(violations, OperatorPosition))
}

func TestValidate_EncodedLiteralsAreValid(t *testing.T) {
	for _, input := range []string{"Write `a` and `b`.", "Use `x` or `y`.", "Mail a@b.com or x@y.org."} {
		doc := encoder.Encode(input, encoder.Options{})
		assert.Empty(t, Validate(doc), document.Serialize(doc))
	}
}

func TestValidate_UnknownSigilListsKnownOnes(t *testing.T) {
	violations, err := ValidateText("CPF|v1\nM|doc|Doc||\n---\n@Q:odd\na\n")
	require.NoError(t, err)
	v := find(violations, UnknownSigil)
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "known: R P N S T X Z C B")
}

func TestValidate_ReportsEverything(t *testing.T) {
	violations, err := ValidateText("CPF|v1\nM|doc|||\n---\n@Q:x\n$nope\n\n@R:a\n->\n")
	require.NoError(t, err)

	assert.NotNil(t, find(violations, MissingHeaderField))
	assert.NotNil(t, find(violations, UnknownSigil))
	assert.NotNil(t, find(violations, OperatorPosition))
	for i := 1; i < len(violations); i++ {
		assert.LessOrEqual(t, violations[i-1].Line, violations[i].Line)
	}
}

func TestValidate_WarningsKeepDocumentValid(t *testing.T) {
	raw := "CPF|v1\nM|doc|Doc||\n---\n@R:a\n?x->?y->z\n"
	violations, err := ValidateText(raw)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, NestedConditional, violations[0].Kind)
	assert.True(t, IsValid(raw))
}

func TestValidate_Header(t *testing.T) {
	doc := document.New(document.Metadata{ID: "bad id!"}, document.Block{Sigil: document.Rule, ID: "a", Lines: []string{"x"}})
	doc.Version = "v9"

	violations := Validate(doc)
	assert.NotNil(t, find(violations, InvalidHeaderField))
	missing := find(violations, MissingHeaderField)
	require.NotNil(t, missing)
	assert.Contains(t, missing.Message, "title")
}

func TestValidate_BuiltBlobMarkers(t *testing.T) {
	doc := document.New(document.Metadata{ID: "doc", Title: "Doc"},
		document.Block{Sigil: document.Blob, ID: "early", Label: "RAW", Lines: []string{"x", "RAW>>", "y"}},
		document.Block{Sigil: document.Blob, ID: "label", Label: "raw", Lines: []string{"x"}},
	)

	var markers []Violation
	for _, v := range Validate(doc) {
		if v.Kind == BlobMarker {
			markers = append(markers, v)
		}
	}
	require.Len(t, markers, 2)
	assert.Equal(t, "early", markers[0].BlockID)
	assert.Equal(t, "label", markers[1].BlockID)
}

func TestValidate_BuiltShapesThatDoNotReadBack(t *testing.T) {
	rule := func(lines ...string) document.Block {
		return document.Block{Sigil: document.Rule, ID: "r", Lines: lines}
	}
	tests := []struct {
		name string
		meta document.Metadata
		body document.Block
		kind Kind
	}{
		{"separator in title", document.Metadata{ID: "doc", Title: "A|B"}, rule("x"), InvalidHeaderField},
		{"line break in source", document.Metadata{ID: "doc", Title: "Doc", Source: "a\nb"}, rule("x"), InvalidHeaderField},
		{"padded timestamp", document.Metadata{ID: "doc", Title: "Doc", Timestamp: " 2026 "}, rule("x"), InvalidHeaderField},
		{"header-shaped line", document.Metadata{ID: "doc", Title: "Doc"}, rule("x", "@R:x"), ContentShape},
		{"leading blank line", document.Metadata{ID: "doc", Title: "Doc"}, rule("", "x"), ContentShape},
		{"trailing blank line", document.Metadata{ID: "doc", Title: "Doc"}, rule("x", "  "), ContentShape},
		{"trailing whitespace", document.Metadata{ID: "doc", Title: "Doc"}, rule("x  "), ContentShape},
		{"line break in content", document.Metadata{ID: "doc", Title: "Doc"}, rule("x\ny"), ContentShape},
		{"line break in blob", document.Metadata{ID: "doc", Title: "Doc"}, document.Block{Sigil: document.Blob, ID: "b", Label: "RAW", Lines: []string{"x\r"}}, ContentShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New(tt.meta, tt.body)
			assert.NotNil(t, find(Validate(doc), tt.kind))
			assert.False(t, IsValidDocument(doc))
		})
	}
}

func TestValidate_InteriorBlankLineIsFine(t *testing.T) {
	doc := document.New(document.Metadata{ID: "doc", Title: "Doc"},
		document.Block{Sigil: document.Rule, ID: "r", Lines: []string{"x", "", "y"}},
		document.Block{Sigil: document.Blob, ID: "b", Label: "RAW", Lines: []string{"", "@R:fake  ", ""}},
	)
	assert.Empty(t, Validate(doc))
}

func TestIsValid_ParseFailures(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("M|doc|Doc||\n---\n"))
	assert.False(t, IsValid("CPF|v1\nM|doc|Doc||\n---\n@B:raw\n<<RAW\nno close\n"))

	_, err := ValidateText("CPF|v2\nM|doc|Doc||\n---\n")
	assert.Error(t, err)
}

func TestViolation_String(t *testing.T) {
	v := Violation{
		Kind:     DuplicateBlock,
		Severity: SeverityError,
		Sigil:    document.Rule,
		BlockID:  "mod-first",
		Line:     7,
		Message:  "duplicate block @R:mod-first (first defined on line 4)",
	}
	assert.Equal(t, "line 7: @R:mod-first: error: duplicate block @R:mod-first (first defined on line 4) [duplicate-block]", v.String())

	doc := Violation{Kind: MissingHeaderField, Severity: SeverityError, Message: "metadata has no title"}
	assert.Equal(t, "error: metadata has no title [missing-header-field]", doc.String())
}

func find(violations []Violation, kind Kind) *Violation {
	for i := range violations {
		if violations[i].Kind == kind {
			return &violations[i]
		}
	}
	return nil
}
