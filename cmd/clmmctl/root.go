package main

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/hxuan190/clmm-core/internal/adapters/chain"
	"github.com/hxuan190/clmm-core/internal/adapters/persistence"
	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clmmctl",
		Short:         "Offline tooling for the CLMM record store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			common.InitLogger(common.LogOptions{Level: cfg.LogLevel, Pretty: true})
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("db", "./data/clmm-core.db", "record store path")
	root.PersistentFlags().String("codec", "json", "record codec (json, binary)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("program-id", "", "program used to derive pool addresses")

	root.AddCommand(
		newTickToPriceCmd(),
		newPriceToTickCmd(),
		newRewardAmountCmd(),
		newConfigCmd(),
		newPoolCmd(),
		newQuoteCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (config.CLIConfig, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.LoadCLI(cfgFile, cmd.Flags())
}

// openEngine opens the record store and binds an engine to it. The caller closes the
// returned storage.
func openEngine(cmd *cobra.Command) (*amm.Engine, io.Closer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	codec, err := persistence.NewCodec(cfg.Codec)
	if err != nil {
		return nil, nil, err
	}
	storage, err := persistence.NewStorage(cfg.DBPath, codec)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	return amm.NewEngine(storage), storage, nil
}

func addresses(cmd *cobra.Command) (*chain.Addresses, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	var programID solana.PublicKey
	if cfg.ProgramID != "" {
		if programID, err = solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
			return nil, fmt.Errorf("--program-id: %w", err)
		}
	}
	return chain.NewAddresses(programID), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
