package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

var sizingFlags struct {
	bedrooms     int
	buildingSqft int
	homes        int
	commercial   bool
}

// sizingReport adds the drainfield requirement of every configuration to
// the tank sizing.
type sizingReport struct {
	requirements.Sizing
	Drainfields map[selection.ConfigType]requirements.Requirement `json:"drainfields,omitempty"`
}

var sizingCmd = &cobra.Command{
	Use:   "sizing",
	Short: "Estimate flow, tank and drainfield sizes for a dwelling",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := requirements.Load(cmd.Context(), cfg.Tables.Dir)
		if err != nil {
			return eris.Wrap(err, "sizing: load tables")
		}
		rep, err := buildSizing(tables, requirements.SizingInput{
			Bedrooms:     sizingFlags.bedrooms,
			BuildingSqft: sizingFlags.buildingSqft,
			Homes:        sizingFlags.homes,
			Commercial:   sizingFlags.commercial,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rep)
	},
}

func buildSizing(tables *requirements.Tables, in requirements.SizingInput) (sizingReport, error) {
	sz, err := tables.Size(in)
	if err != nil {
		return sizingReport{}, err
	}
	rep := sizingReport{Sizing: sz}
	if tables.Drainfield == nil {
		return rep, nil
	}
	flow := float64(sz.Flow.FlowGPD)
	for _, base := range selection.Sequence {
		for _, t := range []selection.ConfigType{base, base.Split()} {
			if r, ok := tables.Drainfield.Lookup(flow, t); ok {
				if rep.Drainfields == nil {
					rep.Drainfields = make(map[selection.ConfigType]requirements.Requirement)
				}
				rep.Drainfields[t] = r
			}
		}
	}
	return rep, nil
}

func init() {
	f := sizingCmd.Flags()
	f.IntVar(&sizingFlags.bedrooms, "bedrooms", 0, "bedrooms")
	f.IntVar(&sizingFlags.buildingSqft, "building-sqft", 0, "building area in square feet")
	f.IntVar(&sizingFlags.homes, "homes", 1, "homes served")
	f.BoolVar(&sizingFlags.commercial, "commercial", false, "size as commercial")
	_ = sizingCmd.MarkFlagRequired("bedrooms")
	_ = sizingCmd.MarkFlagRequired("building-sqft")
	rootCmd.AddCommand(sizingCmd)
}
