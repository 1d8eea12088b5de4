package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/config"
	"github.com/sape94/NIQ-sp-proj/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	seed       int64

	cfg     *config.AppConfig
	cfgInfo config.LoadConfigInfo
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storesampler",
	Short: "Structural sampling of retail store universes",
	Long: `storesampler summarizes a store universe by retailer, state, city and
chain, reduces it to its principal cities, cascades store and ACV targets down
to chains and selects the sample stores.

Universes are .xlsx or .csv files with the columns listed by "storesampler columns".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			loaded *config.AppConfig
			err    error
		)
		if configPath == "" {
			loaded, cfgInfo, err = config.LoadConfigWithInfo()
		} else {
			loaded, cfgInfo, err = config.LoadFile(configPath)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if cmd.Flags().Changed("seed") {
			cfg.Sampling.Seed = seed
		}
		if verbose {
			cfg.Log.Level = "debug"
		}

		logger, err = logging.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: config.toml next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed (overrides config; 0 seeds from the clock)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(designCmd)
	rootCmd.AddCommand(randomCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
