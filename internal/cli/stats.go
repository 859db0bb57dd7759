package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HartBrook/cpf/internal/decoder"
	"github.com/HartBrook/cpf/internal/document"
	"github.com/HartBrook/cpf/internal/errors"
	"github.com/HartBrook/cpf/internal/stats"
)

type statsOptions struct {
	original string
}

// NewStatsCmd creates the stats command.
func NewStatsCmd(g *globalOptions) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats <cpf-file>",
		Short: "Show size and token savings of a CPF document",
		Long: `Reports lines, characters and estimated tokens of a CPF document.

With --original, compares against the prose it was encoded from and checks
that the file paths, commands and tool names of the original survive a
decode of the document.`,
		Example: `  cpf stats CLAUDE.cpf
  cpf stats CLAUDE.cpf --original CLAUDE.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(g, opts, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.original, "original", "", "Source prose to compare against")

	return cmd
}

func runStats(g *globalOptions, opts *statsOptions, path string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	tok := tokenizer(cfg)

	raw, name, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	doc, err := document.Parse(raw)
	if err != nil {
		return errors.FormatInvalid(name, err)
	}

	encoded := stats.Measure(raw, tok)
	fmt.Fprintf(stdout, "%s\n", info(name))
	printInfo(stdout, "Blocks", blockSummary(doc))
	printInfo(stdout, "Lines", fmt.Sprint(encoded.Lines))
	printInfo(stdout, "Chars", fmt.Sprint(encoded.Chars))
	printInfo(stdout, "Tokens", fmt.Sprint(encoded.Tokens))

	if opts.original == "" {
		return nil
	}

	original, _, err := readInput(opts.original, stdin)
	if err != nil {
		return err
	}
	s := stats.Compare(original, raw, tok)

	fmt.Fprintln(stdout)
	printInfo(stdout, "Original tokens", fmt.Sprint(s.Before))
	printInfo(stdout, "Encoded tokens", fmt.Sprint(s.After))
	printInfo(stdout, "Saved", fmt.Sprintf("%d tokens (%.0f%%)", s.Saved(), s.PercentReduction()))

	report := stats.CheckAnchors(original, decoder.Decode(doc, decoder.Options{}))
	fmt.Fprintln(stdout)
	if len(report.MissingSoft) > 0 {
		printInfo(stdout, "Tool names not found", strings.Join(report.MissingSoft, ", "))
	}
	if report.HasStrictFailures() {
		printWarning(stdout, "Anchors lost in encoding: %s", strings.Join(report.MissingStrict, ", "))
		return nil
	}
	printSuccess(stdout, "All %d anchors preserved", len(report.Preserved))
	return nil
}

// blockSummary counts blocks per sigil, in document order of first use.
func blockSummary(doc *document.Document) string {
	counts := make(map[document.Sigil]int)
	var order []document.Sigil
	for _, b := range doc.Blocks {
		if counts[b.Sigil] == 0 {
			order = append(order, b.Sigil)
		}
		counts[b.Sigil]++
	}
	parts := make([]string, 0, len(order))
	for _, s := range order {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s.Name()))
	}
	if len(parts) == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%s)", len(doc.Blocks), strings.Join(parts, ", "))
}
