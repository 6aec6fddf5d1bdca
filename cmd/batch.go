package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/report"
)

var batchFlags struct {
	manifest    string
	report      string
	concurrency int
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run selection for every property in a manifest",
	Long: "Reads a CSV or XLSX manifest with columns property_id, boundary and optionally split_1, split_2, " +
		"flow_gpd, bedrooms, building_sqft, homes and commercial.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchFlags.concurrency > 0 {
			cfg.Batch.Concurrency = batchFlags.concurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		items, err := placer.ReadManifest(ctx, batchFlags.manifest)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, !noHistory)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Service.Batch(ctx, items, placer.BatchOptions{
			Concurrency:   cfg.Batch.Concurrency,
			BoundaryLayer: cfg.Selection.BoundaryLayer,
		})
		if err != nil {
			return err
		}

		rows := batchRows(results)
		if batchFlags.report != "" {
			if err := report.WriteBatchXLSX(batchFlags.report, rows); err != nil {
				return err
			}
			zap.L().Info("batch report written", zap.String("path", batchFlags.report))
		}

		w := cmd.OutOrStdout()
		for _, r := range rows {
			status := r.Summary.Status
			if r.Err != "" {
				status = "error: " + r.Err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.PropertyID, status, r.Summary.ConfigType)
		}
		return nil
	},
}

func batchRows(results []placer.BatchResult) []report.BatchRow {
	rows := make([]report.BatchRow, 0, len(results))
	for _, r := range results {
		row := report.BatchRow{PropertyID: r.Item.PropertyID}
		switch {
		case r.Err != nil:
			row.Err = r.Err.Error()
		case r.Outcome != nil:
			row.RunID = r.Outcome.RunID
			row.Summary = r.Outcome.Summary
		}
		rows = append(rows, row)
	}
	return rows
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchFlags.manifest, "manifest", "", "manifest CSV or XLSX")
	f.StringVar(&batchFlags.report, "report", "", "write an XLSX summary here")
	f.IntVar(&batchFlags.concurrency, "concurrency", 0, "parallel properties (default from config)")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}
