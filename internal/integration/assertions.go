package integration

import (
	"slices"
	"strings"
	"testing"

	"github.com/HartBrook/cpf/internal/document"
)

// Asserter provides assertion helpers over a round trip.
type Asserter struct {
	t  *testing.T
	rt *RoundTrip
}

// NewAsserter creates an asserter for the given round trip.
func NewAsserter(t *testing.T, rt *RoundTrip) *Asserter {
	return &Asserter{t: t, rt: rt}
}

// BlockKeys returns "S:id" for every block, in order.
func (a *Asserter) BlockKeys() []string {
	keys := make([]string, 0, len(a.rt.Doc.Blocks))
	for _, b := range a.rt.Doc.Blocks {
		keys = append(keys, b.Key().String())
	}
	return keys
}

// Stable reports whether the serialized form parses back to the same document.
func (a *Asserter) Stable() bool {
	return document.Equal(a.rt.Doc, a.rt.Reparsed)
}

// RunAssertions runs all assertions from a fixture definition.
func (a *Asserter) RunAssertions(assertions FixtureAssertions) {
	a.t.Helper()

	if !a.Stable() {
		a.t.Error("serialized document does not parse back to the same document")
	}
	for _, v := range a.rt.Violations {
		a.t.Errorf("encoded document is invalid: %s", v)
	}

	if len(assertions.Blocks) > 0 {
		if got := a.BlockKeys(); !slices.Equal(got, assertions.Blocks) {
			a.t.Errorf("blocks = %v, want %v", got, assertions.Blocks)
		}
	}

	a.checkText("encoded", a.rt.Encoded, assertions.Encoded)
	a.checkText("decoded", a.rt.Decoded, assertions.Decoded)

	if assertions.MinReduction > 0 {
		if got := a.rt.Tokens.PercentReduction(); got < assertions.MinReduction {
			a.t.Errorf("token reduction = %.1f%%, want at least %.1f%%", got, assertions.MinReduction)
		}
	}

	if assertions.Anchors && a.rt.Anchors.HasStrictFailures() {
		a.t.Errorf("anchors lost in round trip: %v", a.rt.Anchors.MissingStrict)
	}
}

func (a *Asserter) checkText(label, text string, checks TextChecks) {
	a.t.Helper()
	for _, s := range checks.Contains {
		if !strings.Contains(text, s) {
			a.t.Errorf("expected %s output to contain %q\n%s", label, s, text)
		}
	}
	for _, s := range checks.NotContains {
		if strings.Contains(text, s) {
			a.t.Errorf("expected %s output to not contain %q", label, s)
		}
	}
}
