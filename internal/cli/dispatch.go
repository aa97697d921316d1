package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"auditwatch/internal/incident/models"
)

type dispatchEntry struct {
	Severity string   `json:"severity"`
	Actions  []string `json:"actions"`
}

func newDispatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch [severity]",
		Short: "Print the response bundle for one severity, or the whole table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			severities := models.Severities
			if len(args) == 1 {
				sev, err := models.ParseSeverity(args[0])
				if err != nil {
					return err
				}
				severities = []models.Severity{sev}
			}

			entries := make([]dispatchEntry, 0, len(severities))
			for i := len(severities) - 1; i >= 0; i-- {
				b := models.DispatchResponse(severities[i])
				entries = append(entries, dispatchEntry{Severity: string(b.Severity), Actions: b.Descriptions()})
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s\n", e.Severity)
				for _, a := range e.Actions {
					fmt.Fprintf(out, "  - %s\n", a)
				}
			}
			return nil
		},
	}
}
