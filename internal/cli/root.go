// Package cli implements compliancectl, the offline operator tool for
// requirement catalogs, reports and the dispatch table.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	jsonOutput bool
}

// NewRootCommand builds the command tree. Output goes to the command's
// configured writer so tests can capture it.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "compliancectl",
		Short: "Operate on auditwatch compliance data offline",
		Long: `compliancectl validates requirement catalogs, generates compliance
reports from exported access events, and prints the incident response
dispatch table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")

	root.AddCommand(
		newCatalogCommand(opts),
		newReportCommand(opts),
		newDispatchCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
