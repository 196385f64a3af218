package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/branched-services/go-tvmcell/internal/config"
	"github.com/branched-services/go-tvmcell/internal/logging"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	ConfigPath string // explicit config file
	Verbose    bool   // force debug logging
	Hex        bool   // print blobs as hex instead of base64
}

// app carries state initialized once per invocation.
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "tvmcell",
		Short: "Inspect and build TON cells",
		Long: `tvmcell decodes bags of cells, assembles jetton transfer bodies and
builds dictionaries offline. Settings come from tvmcell.yaml, the file
named by --config or TVMCELL_CONFIG, and TVMCELL_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.flags.ConfigPath, "config", "", "config file (default: ./tvmcell.yaml or ~/.tvmcell/tvmcell.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.flags.Verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.flags.Hex, "hex", false, "print bags of cells as hex")

	rootCmd.AddCommand(newInspectCmd(a))
	rootCmd.AddCommand(newTransferCmd(a))
	rootCmd.AddCommand(newDictCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.flags.Verbose {
		cfg.Log.Level = "debug"
	}
	if a.flags.Hex {
		cfg.BoC.Encoding = "hex"
	}

	logger, err := logging.Setup(cfg.Log, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger.Named(cmd.Name())
	a.logger.Debug("config loaded",
		zap.String("encoding", cfg.BoC.Encoding),
		zap.Bool("index", cfg.BoC.Index),
		zap.Bool("crc32c", cfg.BoC.CRC32C),
	)
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
