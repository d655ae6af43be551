package cmd

import (
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <token-in> <token-out> <amount-in>",
		Short: "Quote a swap against the configured seed pools",
		Long: `Builds an engine with the configured card pools and prints the exact
output of the requested swap without executing it. Useful for inspecting the
price impact of a trade size against the seed liquidity.`,
		Args: cobra.ExactArgs(3),
		RunE: runQuote,
	}
	return cmd
}

func runQuote(cmd *cobra.Command, args []string) error {
	tokenIn, tokenOut := args[0], args[1]
	amountIn, err := cast.ToInt64E(args[2])
	if err != nil || amountIn <= 0 {
		return fmt.Errorf("amount-in must be a positive integer, got %q", args[2])
	}

	k, _, err := buildEngine(log.NewNopLogger())
	if err != nil {
		return err
	}

	quote, err := k.SimulateSwap(tokenIn, tokenOut, math.NewInt(amountIn))
	if err != nil {
		return err
	}
	cmd.Printf("%d %s -> %s %s\n", amountIn, tokenIn, quote.String(), tokenOut)

	if price, err := k.GetPrice(tokenOut); err == nil {
		cmd.Printf("spot price: %s %s per %s\n",
			price.String(), k.GetParams().PairedDenom, tokenOut)
	}
	return nil
}
