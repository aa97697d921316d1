package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"auditwatch/internal/compliance/seed"
	"auditwatch/internal/compliance/service"
)

type catalogSummary struct {
	Source       string         `json:"source"`
	Version      int            `json:"version"`
	Requirements int            `json:"requirements"`
	ByStandard   map[string]int `json:"by_standard"`
}

func newCatalogCommand(opts *options) *cobra.Command {
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Requirement catalog operations",
	}
	catalog.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a YAML requirement catalog (the built-in one without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "built-in"
			if len(args) == 1 {
				source = args[0]
			}
			c, cmds, err := loadCatalog(source)
			if err != nil {
				return err
			}

			summary := catalogSummary{
				Source:       source,
				Version:      c.Version,
				Requirements: len(cmds),
				ByStandard:   make(map[string]int),
			}
			for _, uc := range cmds {
				summary.ByStandard[string(uc.Standard)]++
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, summary)
			}
			fmt.Fprintf(out, "catalog %s is valid: %d requirements (version %d)\n", source, summary.Requirements, summary.Version)
			for _, std := range slices.Sorted(maps.Keys(summary.ByStandard)) {
				fmt.Fprintf(out, "  %-12s %d\n", std, summary.ByStandard[std])
			}
			return nil
		},
	})
	return catalog
}

// loadCatalog reads source ("built-in" or a path) and converts it to upsert commands.
func loadCatalog(source string) (*seed.Catalog, []service.UpsertCommand, error) {
	var (
		c   *seed.Catalog
		err error
	)
	if source == "" || source == "built-in" {
		c, err = seed.Default()
	} else {
		c, err = seed.LoadFile(source)
	}
	if err != nil {
		return nil, nil, err
	}
	cmds, err := c.Commands("compliancectl")
	if err != nil {
		return nil, nil, fmt.Errorf("catalog %s is invalid:\n%w", source, err)
	}
	return c, cmds, nil
}
