// Package cli implements the cpf command-line interface.
package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/HartBrook/cpf/internal/errors"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Output helpers.
	successIcon = color.New(color.FgGreen).Sprint("✓")
	warningIcon = color.New(color.FgYellow).Sprint("⚠")
	errorIcon   = color.New(color.FgRed).Sprint("✗")

	warning = color.New(color.FgYellow).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	info    = color.New(color.FgCyan).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
)

// globalOptions are the persistent flags every command sees.
type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "cpf",
		Short: "Compact prompt notation for agent instructions",
		Long: `cpf converts agent instructions between plain English and CPF, a compact
notation of typed blocks, logical operators and abbreviations.

Encode prose to save tokens, decode CPF back to readable markdown, and
validate documents before shipping them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), g.verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.config/cpf/config.yaml, or $CPF_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	rootCmd.AddCommand(NewEncodeCmd(g))
	rootCmd.AddCommand(NewDecodeCmd(g))
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewStatsCmd(g))
	rootCmd.AddCommand(NewAbbrevCmd(g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// setupLogging installs the default slog handler.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cpf %s\n", Version)
		},
	}
}

// Execute runs the CLI.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		return err
	}
	return nil
}

// reportError prints err, with its hint when it carries one.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", errorIcon, err.Error())
	var cpfErr *errors.CPFError
	if stderrors.As(err, &cpfErr) && cpfErr.Hint != "" {
		fmt.Fprintf(w, "  %s\n", dim(cpfErr.Hint))
	}
}

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", successIcon, fmt.Sprintf(format, args...))
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", warningIcon, fmt.Sprintf(format, args...))
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", errorIcon, fmt.Sprintf(format, args...))
}

// printInfo prints an info line.
func printInfo(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s: %s\n", dim(label), value)
}
