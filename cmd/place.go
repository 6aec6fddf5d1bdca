package main

import (
	"github.com/spf13/cobra"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

var placeFlags struct {
	boundary   string
	propertyID string
	sqft       float64
	configType string
	out        outputFlags
}

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Fit one configuration type into a boundary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("place"); err != nil {
			return err
		}
		t, err := selection.ParseConfigType(placeFlags.configType)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, !noHistory)
		if err != nil {
			return err
		}
		defer env.Close()

		layer := cfg.Selection.BoundaryLayer
		boundary, err := cad.LoadBoundary(placeFlags.boundary, layer)
		if err != nil {
			return err
		}
		out, err := env.Service.Place(ctx, placer.PlaceRequest{
			PropertyID:   placeFlags.propertyID,
			Boundary:     boundary,
			RequiredSqft: placeFlags.sqft,
			ConfigType:   t,
		})
		if err != nil {
			return err
		}
		req := placer.Request{PropertyID: placeFlags.propertyID, Boundary: boundary}
		if err := writeOutputs(placeFlags.out, placeFlags.boundary, layer, req, out); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	f := placeCmd.Flags()
	f.StringVar(&placeFlags.boundary, "boundary", "", "boundary file (CAD JSON, DXF or shapefile)")
	f.StringVar(&placeFlags.propertyID, "property", "", "property id recorded with the run")
	f.Float64Var(&placeFlags.sqft, "sqft", 0, "required drainfield area in square feet")
	f.StringVar(&placeFlags.configType, "type", string(selection.Trench), "configuration type")
	f.StringVar(&placeFlags.out.CAD, "out", "", "write the placed CAD JSON document here")
	f.StringVar(&placeFlags.out.GeoJSON, "geojson", "", "write boundary and footprint as GeoJSON here")
	f.StringVar(&placeFlags.out.PDF, "pdf", "", "write a placement sheet PDF here")
	_ = placeCmd.MarkFlagRequired("boundary")
	_ = placeCmd.MarkFlagRequired("sqft")
	rootCmd.AddCommand(placeCmd)
}
