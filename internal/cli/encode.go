package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/encoder"
	"github.com/HartBrook/cpf/internal/stats"
	"github.com/HartBrook/cpf/internal/validator"
)

// now is swapped out in tests.
var now = time.Now

type encodeOptions struct {
	output       string
	abbrevFile   string
	id           string
	title        string
	repo         string
	path         string
	ref          string
	noCache      bool
	noPreprocess bool
}

// NewEncodeCmd creates the encode command.
func NewEncodeCmd(g *globalOptions) *cobra.Command {
	opts := &encodeOptions{}

	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Compress prose instructions into CPF",
		Long: `Encodes markdown or plain-text instructions into a CPF document.

Sections become typed blocks, connectives become operators and common terms
become abbreviations. Code fences are kept verbatim. Custom abbreviations
come from the config file and --abbrev; the ones used are recorded in the
document so it decodes anywhere.

With --repo (or --path and a configured source) the prompt is fetched from
GitHub and cached for the configured TTL.`,
		Example: `  cpf encode CLAUDE.md -o CLAUDE.cpf
  cat prompt.md | cpf encode > prompt.cpf
  cpf encode --abbrev team-abbrev.yaml AGENTS.md
  cpf encode --repo acme/prompts --path agents/CLAUDE.md --ref main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd.Context(), g, opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().StringVar(&opts.abbrevFile, "abbrev", "", "YAML or JSON file of extra term: token abbreviations")
	cmd.Flags().StringVar(&opts.id, "id", "", "Document id (default: derived from the title)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title (default: first heading)")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "Fetch the source from this GitHub repo (owner/repo)")
	cmd.Flags().StringVar(&opts.path, "path", "", "File path inside --repo (default: CLAUDE.md)")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "Branch, tag or commit for --repo (default: default branch)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Fetch --repo sources even when the cached copy is fresh")
	cmd.Flags().BoolVar(&opts.noPreprocess, "no-preprocess", false, "Skip whitespace and duplicate cleanup before encoding")

	return cmd
}

func runEncode(ctx context.Context, g *globalOptions, opts *encodeOptions, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	custom, err := abbreviations(cfg, opts.abbrevFile)
	if err != nil {
		return err
	}

	var text, name string
	repo := opts.repo
	if repo == "" && opts.path != "" {
		repo = cfg.Source
	}
	switch {
	case repo != "" && len(args) > 0:
		return fmt.Errorf("give either a file or --repo, not both")
	case opts.path != "" && repo == "":
		return fmt.Errorf("--path needs --repo or a source in the config file")
	case repo != "":
		text, name, err = fetchRemote(ctx, cfg, remoteSource{repo: repo, path: opts.path, ref: opts.ref, noCache: opts.noCache}, stderr)
	default:
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		text, name, err = readInput(path, stdin)
	}
	if err != nil {
		return err
	}

	enc := encoder.New(encoder.Options{
		ID:             opts.id,
		Title:          opts.title,
		Source:         name,
		Timestamp:      now().UTC().Format(time.RFC3339),
		Abbreviations:  custom,
		SkipPreprocess: opts.noPreprocess || !cfg.Encode.ShouldPreprocess(),
		AliasMinLength: cfg.Encode.PathAliasMinLength,
		AliasMinCount:  cfg.Encode.PathAliasMinCount,
	})
	for _, c := range enc.Conflicts() {
		printWarning(stderr, "Skipped abbreviation: %s", c)
	}

	doc := enc.Encode(text)
	out := document.Serialize(doc)

	for _, v := range validator.Validate(doc) {
		if v.Severity == validator.SeverityError {
			printError(stderr, "Encoded document has a problem: %s", v)
		}
	}

	if err := writeOutput(opts.output, out, stdout); err != nil {
		return err
	}

	if opts.output != "" {
		s := stats.Compare(text, out, tokenizer(cfg))
		printSuccess(stderr, "Encoded %s to %s", name, opts.output)
		printInfo(stderr, "Tokens", fmt.Sprintf("%d → %d (%.0f%% smaller)", s.Before, s.After, s.PercentReduction()))
	}
	return nil
}
