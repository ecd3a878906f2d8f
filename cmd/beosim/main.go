// Command beosim drives the building-energy-simulation pipeline:
// parameter resolution, schedule synthesis, deck composition, variant
// generation, simulation dispatch, result extraction, time-series
// aggregation, and iterative calibration, each as its own subcommand
// over a shared job root (spec.md §6), following
// jhkimqd-chaos-utils/cmd/chaos-runner's cobra layout (root command +
// persistent flags + one file per subcommand).
package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bldgsim/beosim/config"
	"github.com/bldgsim/beosim/log"
)

var (
	cfgFile string
	verbose bool
	version = "dev"

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:     "beosim",
	Short:   "Building energy simulation pipeline",
	Long:    `beosim resolves archetype parameters, synthesizes schedules, composes and varies simulation decks, dispatches engine runs, extracts and aggregates results, and drives calibration, all over a shared job root.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg = config.Default()
		}
		if err != nil {
			return err
		}
		level := log.Level(cfg.Logging.Level)
		if verbose {
			level = log.Debug
		}
		logger = log.New(log.Config{Level: level, Format: log.Format(cfg.Logging.Format)})

		if cfg.Metrics.Enabled {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			go func() {
				if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
					logger.Error("metrics listener stopped", err, map[string]any{"addr": cfg.Metrics.Addr})
				}
			}()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "job config file (YAML, default built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")

	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(variantCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(calibrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
