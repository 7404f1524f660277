package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koustreak/idwiden/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective entity table and rule registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), cat)
		},
	}
}

func printCatalog(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "types: %s -> %s\n\n", strings.Join(cat.Types.Narrow, ", "), cat.Types.Wide)

	fmt.Fprintf(tw, "ENTITY\tKEY\n")
	for _, e := range cat.Table.Entities() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.PrimaryKeyWidth)
	}

	fmt.Fprintf(tw, "\n#\tRULE\n")
	for i, r := range cat.Registry.Rules() {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, r)
	}

	if warns := cat.Registry.Warnings(); len(warns) > 0 {
		fmt.Fprintf(tw, "\nwarnings:\n")
		for _, msg := range warns {
			fmt.Fprintf(tw, "  %s\n", msg)
		}
	}
	return tw.Flush()
}
