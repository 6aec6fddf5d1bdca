package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
)

var selectFlags struct {
	boundary     string
	split        []string
	propertyID   string
	flow         float64
	bedrooms     int
	buildingSqft int
	homes        int
	commercial   bool
	out          outputFlags
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose a drainfield configuration and place it in a boundary",
	Long: "Tries trench, bed, trench with ATU and bed with ATU in order. When none fits and two split " +
		"boundaries are given, the split variants are tried in the same order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("select"); err != nil {
			return err
		}
		if selectFlags.flow <= 0 && selectFlags.bedrooms == 0 {
			return eris.New("select: --flow or --bedrooms with --building-sqft is required")
		}

		env, err := initEnv(ctx, cfg, !noHistory)
		if err != nil {
			return err
		}
		defer env.Close()

		layer := cfg.Selection.BoundaryLayer
		boundary, err := cad.LoadBoundary(selectFlags.boundary, layer)
		if err != nil {
			return err
		}
		req := placer.Request{
			PropertyID: selectFlags.propertyID,
			Boundary:   boundary,
			FlowGPD:    selectFlags.flow,
			Dwelling:   dwellingInput(selectFlags.bedrooms, selectFlags.buildingSqft, selectFlags.homes, selectFlags.commercial),
		}
		for _, p := range selectFlags.split {
			b, err := cad.LoadBoundary(p, layer)
			if err != nil {
				return err
			}
			req.Split = append(req.Split, b)
		}

		out, err := env.Service.Select(ctx, req)
		if err != nil {
			return err
		}
		if err := writeOutputs(selectFlags.out, selectFlags.boundary, layer, req, out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	f := selectCmd.Flags()
	f.StringVar(&selectFlags.boundary, "boundary", "", "boundary file (CAD JSON, DXF or shapefile)")
	f.StringArrayVar(&selectFlags.split, "split", nil, "split boundary file; give exactly two")
	f.StringVar(&selectFlags.propertyID, "property", "", "property id recorded with the run")
	f.Float64Var(&selectFlags.flow, "flow", 0, "design sewage flow in gallons per day")
	f.IntVar(&selectFlags.bedrooms, "bedrooms", 0, "bedrooms, to estimate flow from the tables")
	f.IntVar(&selectFlags.buildingSqft, "building-sqft", 0, "building area in square feet")
	f.IntVar(&selectFlags.homes, "homes", 1, "homes served")
	f.BoolVar(&selectFlags.commercial, "commercial", false, "size as commercial")
	f.StringVar(&selectFlags.out.CAD, "out", "", "write the placed CAD JSON document here")
	f.StringVar(&selectFlags.out.GeoJSON, "geojson", "", "write boundary and footprints as GeoJSON here")
	f.StringVar(&selectFlags.out.PDF, "pdf", "", "write a placement sheet PDF here")
	_ = selectCmd.MarkFlagRequired("boundary")
	rootCmd.AddCommand(selectCmd)
}
