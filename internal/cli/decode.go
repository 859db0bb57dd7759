package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/HartBrook/cpf/internal/decoder"
	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/errors"
)

type decodeOptions struct {
	output     string
	abbrevFile string
}

// NewDecodeCmd creates the decode command.
func NewDecodeCmd(g *globalOptions) *cobra.Command {
	opts := &decodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Expand a CPF document into readable markdown",
		Long: `Decodes a CPF document back into markdown prose.

Operators become connectives, abbreviations become their terms and blob
blocks are emitted as code fences, untouched. The document must parse;
run 'cpf validate' for a full report of what is wrong with it.`,
		Example: `  cpf decode CLAUDE.cpf
  cpf decode CLAUDE.cpf -o CLAUDE.md
  cpf encode CLAUDE.md | cpf decode`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(g, opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write markdown to a file instead of stdout")
	cmd.Flags().StringVar(&opts.abbrevFile, "abbrev", "", "YAML or JSON file of extra term: token abbreviations")

	return cmd
}

func runDecode(g *globalOptions, opts *decodeOptions, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	custom, err := abbreviations(cfg, opts.abbrevFile)
	if err != nil {
		return err
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	raw, name, err := readInput(path, stdin)
	if err != nil {
		return err
	}

	doc, err := document.Parse(raw)
	if err != nil {
		return errors.FormatInvalid(name, err)
	}

	out := decoder.Decode(doc, decoder.Options{Abbreviations: custom})
	if err := writeOutput(opts.output, out, stdout); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess(stderr, "Decoded %s to %s", name, opts.output)
	}
	return nil
}
