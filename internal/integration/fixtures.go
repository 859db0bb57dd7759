package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/HartBrook/cpf/internal/notation"
)

// Fixture is a round-trip scenario loaded from YAML.
type Fixture struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	Input         string            `yaml:"input"`
	Abbreviations map[string]string `yaml:"abbreviations"`
	Assertions    FixtureAssertions `yaml:"assertions"`
}

// FixtureAssertions defines what to verify.
type FixtureAssertions struct {
	// Blocks lists expected block keys in document order, e.g. "R:decision-rules".
	Blocks  []string   `yaml:"blocks"`
	Encoded TextChecks `yaml:"encoded"`
	Decoded TextChecks `yaml:"decoded"`
	// MinReduction is the smallest acceptable token saving, in percent.
	MinReduction float64 `yaml:"min_reduction"`
	// Anchors requires every path and command of the input to survive decoding.
	Anchors bool `yaml:"anchors"`
}

// TextChecks are substring checks over one text.
type TextChecks struct {
	Contains    []string `yaml:"contains"`
	NotContains []string `yaml:"not_contains"`
}

// LoadFixture loads a fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, err
	}

	if err := fixture.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture %s: %w", path, err)
	}

	return &fixture, nil
}

// Validate checks that the fixture has all required fields.
func (f *Fixture) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("missing required field: name")
	}
	if f.Input == "" {
		return fmt.Errorf("missing required field: input")
	}
	for term, token := range f.Abbreviations {
		if !notation.ValidToken(token) {
			return fmt.Errorf("abbreviation %q has invalid token %q", term, token)
		}
	}
	return nil
}

// AbbreviationList returns the fixture's abbreviations sorted by term.
func (f *Fixture) AbbreviationList() []notation.Abbreviation {
	terms := make([]string, 0, len(f.Abbreviations))
	for term := range f.Abbreviations {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	list := make([]notation.Abbreviation, 0, len(terms))
	for _, term := range terms {
		list = append(list, notation.Abbreviation{Term: term, Token: f.Abbreviations[term]})
	}
	return list
}

// LoadAllFixtures loads all fixtures from a directory.
func LoadAllFixtures(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var fixtures []*Fixture
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".yaml" && filepath.Ext(name) != ".yml" {
			continue
		}

		fixture, err := LoadFixture(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}

	return fixtures, nil
}
