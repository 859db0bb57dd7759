package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HartBrook/cpf/internal/errors"
	"github.com/HartBrook/cpf/internal/validator"
)

type validateOptions struct {
	strict bool
}

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Check a CPF document for structural and semantic problems",
		Long: `Validates a CPF document and lists every problem found.

A document that cannot be parsed at all (missing header, unclosed blob)
fails immediately. Otherwise all violations are reported with their line
numbers. Warnings do not fail the command unless --strict is set.`,
		Example: `  cpf validate CLAUDE.cpf
  cpf encode CLAUDE.md | cpf validate --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func runValidate(opts *validateOptions, args []string, stdin io.Reader, stdout io.Writer) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	raw, name, err := readInput(path, stdin)
	if err != nil {
		return err
	}

	violations, err := validator.ValidateText(raw)
	if err != nil {
		return errors.FormatInvalid(name, err)
	}

	if len(violations) == 0 {
		printSuccess(stdout, "%s is valid", name)
		return nil
	}

	errorCount, warningCount := 0, 0
	for _, v := range violations {
		if v.Severity == validator.SeverityError {
			errorCount++
		} else {
			warningCount++
		}
		displayViolation(stdout, v)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s, %s\n", failure(plural(errorCount, "error")), warning(plural(warningCount, "warning")))

	failing := errorCount
	if opts.strict {
		failing += warningCount
	}
	if failing > 0 {
		return errors.ValidationFailed(name, failing)
	}
	printSuccess(stdout, "%s is valid", name)
	return nil
}

func displayViolation(w io.Writer, v validator.Violation) {
	icon, severity := errorIcon, failure(string(v.Severity))
	if v.Severity == validator.SeverityWarning {
		icon, severity = warningIcon, warning(string(v.Severity))
	}
	where := ""
	if v.Line > 0 {
		where = dim(fmt.Sprintf("line %d: ", v.Line))
	}
	if v.BlockID != "" {
		where += info(fmt.Sprintf("@%s:%s ", v.Sigil, v.BlockID))
	}
	fmt.Fprintf(w, "%s %s%s: %s %s\n", icon, where, severity, v.Message, dim("["+string(v.Kind)+"]"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
