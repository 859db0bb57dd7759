package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HartBrook/cpf/internal/notation"
)

type abbrevOptions struct {
	abbrevFile string
	operators  bool
}

// NewAbbrevCmd creates the abbrev command.
func NewAbbrevCmd(g *globalOptions) *cobra.Command {
	opts := &abbrevOptions{}

	cmd := &cobra.Command{
		Use:   "abbrev [term|token...]",
		Short: "List or look up abbreviations and operators",
		Long: `Without arguments, lists every abbreviation the encoder uses: the
built-in table plus those from the config file and --abbrev.

With arguments, looks each one up as an operator symbol, then as a term
and then as a token.
Use --operators to list the operator symbols and the phrases they replace.`,
		Example: `  cpf abbrev
  cpf abbrev configuration pr
  cpf abbrev '?!'
  cpf abbrev --operators`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbbrev(g, opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.abbrevFile, "abbrev", "", "YAML or JSON file of extra term: token abbreviations")
	cmd.Flags().BoolVar(&opts.operators, "operators", false, "List operators instead of abbreviations")

	return cmd
}

func runAbbrev(g *globalOptions, opts *abbrevOptions, args []string, stdout io.Writer) error {
	if opts.operators {
		displayOperators(stdout)
		return nil
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	custom, err := abbreviations(cfg, opts.abbrevFile)
	if err != nil {
		return err
	}
	table, conflicts := notation.Builtin().Extend(custom)
	for _, c := range conflicts {
		printWarning(stdout, "Skipped abbreviation: %s", c)
	}

	if len(args) == 0 {
		entries := table.Entries()
		width := 0
		for _, e := range entries {
			width = max(width, len(e.Token))
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "  %s  %s\n", info(fmt.Sprintf("%-*s", width, e.Token)), e.Term)
		}
		fmt.Fprintf(stdout, "\n%s\n", dim(fmt.Sprintf("%d abbreviations", len(entries))))
		return nil
	}

	for _, arg := range args {
		if op, ok := notation.OperatorBySymbol(arg); ok {
			fmt.Fprintf(stdout, "  %s → %s\n", info(arg), op.Phrase)
			continue
		}
		if token, ok := table.Lookup(arg); ok {
			fmt.Fprintf(stdout, "  %s → %s\n", arg, info(token))
			continue
		}
		if term, ok := table.Expand(arg); ok {
			fmt.Fprintf(stdout, "  %s → %s\n", info(arg), term)
			continue
		}
		printWarning(stdout, "No abbreviation for %q", arg)
	}
	return nil
}

func displayOperators(w io.Writer) {
	for _, op := range notation.Operators() {
		fmt.Fprintf(w, "  %s  %-12s %s\n", info(fmt.Sprintf("%-3s", op.Symbol)), op.Phrase, dim(strings.Join(op.Cues, ", ")))
	}
}
