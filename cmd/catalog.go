package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List loaded products, classes and patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer env.Close()
		return printCatalog(cmd.OutOrStdout(), env.Catalog)
	},
}

func printCatalog(w io.Writer, c *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tCLASS\tPATTERN\tCREDIT (SQ FT)\tPIECES\tRECTANGULAR")
	for _, p := range c.Products() {
		for _, class := range catalog.Classes {
			patterns := c.Patterns(p.ID, class)
			if len(patterns) == 0 {
				fmt.Fprintf(tw, "%s\t%s\t-\t\t\t\n", p.ID, class)
				continue
			}
			for _, pat := range patterns {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%d\t%t\n",
					p.ID, class, pat.Name, pat.Metadata.CreditSqft, pat.Metadata.NumPieces, pat.Metadata.IsRectangular)
			}
		}
	}
	fmt.Fprintf(tw, "\n%d patterns\n", c.Len())
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
