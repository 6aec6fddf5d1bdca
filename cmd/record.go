package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

var recordFlags struct {
	propertyID   string
	boundary     string
	split        []string
	flow         float64
	bedrooms     int
	buildingSqft int
	homes        int
	commercial   bool
	netAcreage   float64
	water        string
	benchmark    string
	dryRun       bool
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Select a configuration and write the septic record fields for a property",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !recordFlags.dryRun {
			if err := cfg.Validate("record"); err != nil {
				return err
			}
		}
		multiplier, err := gpdMultiplier(recordFlags.water)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, !noHistory)
		if err != nil {
			return err
		}
		defer env.Close()

		layer := cfg.Selection.BoundaryLayer
		boundary, err := cad.LoadBoundary(recordFlags.boundary, layer)
		if err != nil {
			return err
		}
		req := placer.Request{
			PropertyID: recordFlags.propertyID,
			Boundary:   boundary,
			FlowGPD:    recordFlags.flow,
			Dwelling:   dwellingInput(recordFlags.bedrooms, recordFlags.buildingSqft, recordFlags.homes, recordFlags.commercial),
		}
		for _, p := range recordFlags.split {
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
		rec := buildRecord(req, out, env.Tables, recordFlags.netAcreage, multiplier, recordFlags.benchmark)

		if recordFlags.dryRun {
			return printJSON(cmd.OutOrStdout(), rec)
		}

		pool, err := store.NewPool(ctx, cfg.Records.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		records := store.NewSepticRecordStore(pool, retryConfig(cfg.Store.Retry))
		if err := records.Update(ctx, rec); err != nil {
			return err
		}
		core, err := records.BenchmarkCore(ctx, rec.PropertyID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"record":         rec,
			"benchmark_core": core,
			"summary":        out.Summary,
		})
	},
}

// buildRecord fills the record from the selection, preferring the tabulated
// unobstructed area when the drainfield table has the configuration.
func buildRecord(req placer.Request, out placer.Outcome, tables *requirements.Tables, netAcreage float64, multiplier int, benchmark string) store.SepticRecord {
	rec := store.RecordFromResult(req.PropertyID, out.Result, req.Boundary, netAcreage, multiplier)
	if out.Result.Success && tables != nil && tables.Drainfield != nil {
		if r, ok := tables.Drainfield.Lookup(out.Result.FlowGPD, out.Result.ConfigType); ok {
			rec.UnobstructedRequired = float64(r.UnobstructedArea)
		}
	}
	if benchmark != "" {
		rec.Benchmark = &benchmark
	}
	return rec
}

func gpdMultiplier(water string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(water)) {
	case "private", "well", "private_well":
		return store.MultiplierPrivateWell, nil
	case "public", "public_water":
		return store.MultiplierPublicWater, nil
	default:
		return 0, eris.Errorf("record: unknown water supply %q (want private or public)", water)
	}
}

func init() {
	f := recordCmd.Flags()
	f.StringVar(&recordFlags.propertyID, "property", "", "property id of the permit record")
	f.StringVar(&recordFlags.boundary, "boundary", "", "boundary file (CAD JSON, DXF or shapefile)")
	f.StringArrayVar(&recordFlags.split, "split", nil, "split boundary file; give exactly two")
	f.Float64Var(&recordFlags.flow, "flow", 0, "design sewage flow in gallons per day")
	f.IntVar(&recordFlags.bedrooms, "bedrooms", 0, "bedrooms, to estimate flow from the tables")
	f.IntVar(&recordFlags.buildingSqft, "building-sqft", 0, "building area in square feet")
	f.IntVar(&recordFlags.homes, "homes", 1, "homes served")
	f.BoolVar(&recordFlags.commercial, "commercial", false, "size as commercial")
	f.Float64Var(&recordFlags.netAcreage, "net-acreage", 0, "net lot acreage")
	f.StringVar(&recordFlags.water, "water", "private", "water supply: private or public")
	f.StringVar(&recordFlags.benchmark, "benchmark", "", "benchmark description")
	f.BoolVar(&recordFlags.dryRun, "dry-run", false, "print the record instead of writing it")
	_ = recordCmd.MarkFlagRequired("property")
	_ = recordCmd.MarkFlagRequired("boundary")
	rootCmd.AddCommand(recordCmd)
}
