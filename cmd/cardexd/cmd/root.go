package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// NewRootCmd builds the cardexd command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cardexd",
		Short: "Card exchange engine tooling",
		Long: `cardexd drives the card exchange engine: constant-product pools per
card asset, proportional staking with top-holder ownership, and the
MasterChef-style reward accumulators funded from swap fees.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "path to a cardexd config file (toml)")

	rootCmd.AddCommand(
		newSimulateCmd(),
		newQuoteCmd(),
	)
	return rootCmd
}

func initConfig(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		viper.SetConfigName("cardexd")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		// a missing default config file is fine; flags and env cover it
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	viper.SetEnvPrefix("CARDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	return nil
}

// engineParams assembles engine parameters from config, falling back to the
// defaults for anything unset. Fees are configured in basis points.
func engineParams() (types.Params, error) {
	params := types.DefaultParams()

	if v := viper.GetString("engine.paired-denom"); v != "" {
		params.PairedDenom = v
	}
	if v := viper.GetString("engine.secondary-denom"); v != "" {
		params.SecondaryDenom = v
	}
	if viper.IsSet("engine.pool-reward-fee-bps") {
		params.PoolRewardFee = math.LegacyNewDecWithPrec(viper.GetInt64("engine.pool-reward-fee-bps"), 4)
	}
	if viper.IsSet("engine.global-reward-fee-bps") {
		params.GlobalRewardFee = math.LegacyNewDecWithPrec(viper.GetInt64("engine.global-reward-fee-bps"), 4)
	}
	if viper.IsSet("engine.pool-reward-fee-bps") || viper.IsSet("engine.global-reward-fee-bps") {
		params.SwapFee = params.PoolRewardFee.Add(params.GlobalRewardFee)
	}
	if viper.IsSet("engine.secondary-bootstrap-liquidity") {
		params.SecondaryBootstrapLiquidity = math.NewInt(viper.GetInt64("engine.secondary-bootstrap-liquidity"))
	}

	if err := params.Validate(); err != nil {
		return types.Params{}, fmt.Errorf("invalid engine config: %w", err)
	}
	return params, nil
}
