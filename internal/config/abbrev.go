package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HartBrook/cpf/internal/errors"
	"github.com/HartBrook/cpf/internal/notation"
)

// LoadAbbreviationFile reads a term-to-token map. JSON is accepted since it
// is valid YAML.
func LoadAbbreviationFile(path string) ([]notation.Abbreviation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InputReadFailed(path, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrConfigInvalid,
			fmt.Sprintf("failed to parse abbreviations in %s", path),
			"Use a flat map of term: token", err)
	}

	return abbreviationList(path, raw)
}

// AbbreviationList returns the abbreviations set in the config file and in
// its abbreviations_file, in that order.
func (c *Config) AbbreviationList() ([]notation.Abbreviation, error) {
	entries, err := abbreviationList("config", c.Abbreviations)
	if err != nil {
		return nil, err
	}
	if c.AbbreviationsFile == "" {
		return entries, nil
	}
	fromFile, err := LoadAbbreviationFile(expandHome(c.AbbreviationsFile))
	if err != nil {
		return nil, err
	}
	return append(entries, fromFile...), nil
}

func abbreviationList(source string, raw map[string]string) ([]notation.Abbreviation, error) {
	terms := make([]string, 0, len(raw))
	for term := range raw {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var problems []string
	entries := make([]notation.Abbreviation, 0, len(raw))
	for _, term := range terms {
		token := strings.TrimSpace(raw[term])
		switch {
		case strings.TrimSpace(term) == "":
			problems = append(problems, fmt.Sprintf("%q: empty term", token))
		case !notation.ValidToken(token):
			problems = append(problems, fmt.Sprintf("%q: bad token %q", term, token))
		default:
			entries = append(entries, notation.Abbreviation{Term: strings.TrimSpace(term), Token: token})
		}
	}
	if len(problems) > 0 {
		return nil, errors.AbbreviationsInvalid(source, problems)
	}
	return entries, nil
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(os.Getenv("HOME"), rest)
	}
	return path
}
