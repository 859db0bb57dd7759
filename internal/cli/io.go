package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/HartBrook/cpf/internal/config"
	"github.com/HartBrook/cpf/internal/errors"
	"github.com/HartBrook/cpf/internal/notation"
	"github.com/HartBrook/cpf/internal/stats"
)

const stdinName = "-"

// readInput reads a file, or stdin for "" and "-". It returns the content
// and a name suitable for messages and metadata.
func readInput(path string, stdin io.Reader) (content, name string, err error) {
	if path == "" || path == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", errors.InputReadFailed("stdin", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", errors.InputReadFailed(path, err)
	}
	return string(data), path, nil
}

// writeOutput writes content to path, or to stdout when path is empty.
func writeOutput(path, content string, stdout io.Writer) error {
	if path == "" || path == stdinName {
		if _, err := io.WriteString(stdout, content); err != nil {
			return errors.OutputWriteFailed("stdout", err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.OutputWriteFailed(path, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.OutputWriteFailed(path, err)
	}
	return nil
}

// loadConfig honors --config, then CPF_CONFIG, then the default location.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	if g != nil && g.configPath != "" {
		return config.LoadFrom(g.configPath, true)
	}
	return config.Load()
}

// abbreviations gathers custom abbreviations from config and an --abbrev file.
func abbreviations(cfg *config.Config, abbrevFile string) ([]notation.Abbreviation, error) {
	entries, err := cfg.AbbreviationList()
	if err != nil {
		return nil, err
	}
	if abbrevFile == "" {
		return entries, nil
	}
	extra, err := config.LoadAbbreviationFile(abbrevFile)
	if err != nil {
		return nil, err
	}
	return append(entries, extra...), nil
}

// tokenizer picks the configured token counter. Unknown names fall back to
// the estimate.
func tokenizer(cfg *config.Config) stats.Tokenizer {
	tok, ok := stats.TokenizerByName(cfg.Stats.Tokenizer)
	if !ok {
		return stats.EstimateTokenizer{}
	}
	return tok
}
