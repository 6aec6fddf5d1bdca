package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/config"
)

var cfg *config.Config

var noHistory bool

var rootCmd = &cobra.Command{
	Use:   "drainfield",
	Short: "Septic drainfield placement",
	Long:  "Sizes septic systems, selects a drainfield configuration and fits a catalog pattern inside a property boundary.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "do not record runs in the run store")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
