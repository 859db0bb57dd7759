// Package integration provides end-to-end round-trip testing utilities for cpf.
package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/HartBrook/cpf/internal/cache"
	"github.com/HartBrook/cpf/internal/config"
	"github.com/HartBrook/cpf/internal/decoder"
	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/encoder"
	"github.com/HartBrook/cpf/internal/notation"
	"github.com/HartBrook/cpf/internal/stats"
	"github.com/HartBrook/cpf/internal/validator"
)

// fixedTimestamp keeps encoded output stable across runs.
const fixedTimestamp = "2026-01-01T00:00:00Z"

// TestEnv provides an isolated environment with overridden paths.
type TestEnv struct {
	t         *testing.T
	HomeDir   string        // Simulated $HOME
	ConfigDir string        // ~/.config/cpf
	CacheDir  string        // ~/.cache/cpf
	Paths     *config.Paths // Configured paths pointing to temp dirs
}

// NewTestEnv creates an isolated test environment and points HOME at it.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	configDir := filepath.Join(homeDir, ".config", "cpf")
	cacheDir := filepath.Join(homeDir, ".cache", "cpf")

	for _, dir := range []string{configDir, cacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.ConfigEnv, "")

	return &TestEnv{
		t:         t,
		HomeDir:   homeDir,
		ConfigDir: configDir,
		CacheDir:  cacheDir,
		Paths:     config.NewPathsWithOverrides(configDir, cacheDir),
	}
}

// WriteConfig writes config.yaml.
func (e *TestEnv) WriteConfig(content string) error {
	return os.WriteFile(e.Paths.ConfigFile, []byte(content), 0644)
}

// CacheSource stores a remote prompt as if it had just been fetched.
func (e *TestEnv) CacheSource(key cache.Key, content string) error {
	return cache.New(e.Paths).Write(key, content, &cache.Metadata{SHA: "fixture"})
}

// RoundTrip holds every stage of encode, serialize, parse, validate, decode.
type RoundTrip struct {
	Input      string
	Doc        *document.Document
	Encoded    string
	Reparsed   *document.Document
	Violations []validator.Violation
	Decoded    string
	Tokens     stats.TokenStats
	Anchors    *stats.AnchorReport
}

// Run pushes input through the whole pipeline. Custom abbreviations are
// used for encoding only; the document must carry them itself.
func Run(input string, custom []notation.Abbreviation) (*RoundTrip, error) {
	enc := encoder.New(encoder.Options{
		Source:        "fixture.md",
		Timestamp:     fixedTimestamp,
		Abbreviations: custom,
	})
	if conflicts := enc.Conflicts(); len(conflicts) > 0 {
		return nil, fmt.Errorf("abbreviation conflicts: %v", conflicts)
	}

	doc := enc.Encode(input)
	encoded := document.Serialize(doc)

	reparsed, err := document.Parse(encoded)
	if err != nil {
		return nil, fmt.Errorf("encoded output does not parse: %w", err)
	}

	decoded := decoder.Decode(reparsed, decoder.Options{})

	return &RoundTrip{
		Input:      input,
		Doc:        doc,
		Encoded:    encoded,
		Reparsed:   reparsed,
		Violations: validator.Validate(reparsed),
		Decoded:    decoded,
		Tokens:     stats.Compare(input, encoded, nil),
		Anchors:    stats.CheckAnchors(input, decoded),
	}, nil
}

// RunFixture runs a fixture's input through the pipeline.
func RunFixture(f *Fixture) (*RoundTrip, error) {
	return Run(f.Input, f.AbbreviationList())
}
