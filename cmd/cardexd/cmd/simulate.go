package cmd

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cardex-protocol/cardex/x/cardex/keeper"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a randomized trading and staking session against a fresh engine",
		Long: `Builds an engine with the configured card pools, wires the simulated
bank and notification bus, and drives a seeded random mix of swaps, stakes,
unstakes, claims, and swap-stakes against it. Structural invariants are
checked after every operation; any violation aborts the run.`,
		RunE: runSimulate,
	}
	cmd.Flags().Int("steps", 1000, "number of operations to execute")
	cmd.Flags().Int64("seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	logger := log.NewLogger(os.Stderr)

	steps, _ := cmd.Flags().GetInt("steps")
	seed, _ := cmd.Flags().GetInt64("seed")
	metricsPort, _ := cmd.Flags().GetInt("metrics-port")
	if metricsPort > 0 {
		startMetricsServer(logger, metricsPort)
	}

	k, bus, err := buildEngine(logger)
	if err != nil {
		return err
	}
	counters, err := subscribeCounters(bus)
	if err != nil {
		return err
	}

	logger.Info("simulation starting", "steps", steps, "seed", seed)
	rng := rand.New(rand.NewSource(seed))
	holders := []string{"trader-1", "trader-2", "staker-1", "staker-2", "whale"}
	assets := k.Assets()
	params := k.GetParams()
	tokens := append([]string{params.PairedDenom, params.SecondaryDenom}, assets...)

	failures := make(map[string]int)
	for i := 0; i < steps; i++ {
		holder := holders[rng.Intn(len(holders))]
		asset := assets[rng.Intn(len(assets))]
		amount := math.NewInt(rng.Int63n(200_000) + 1)

		var opErr error
		switch rng.Intn(7) {
		case 0, 1:
			tokenIn := tokens[rng.Intn(len(tokens))]
			tokenOut := tokens[rng.Intn(len(tokens))]
			_, opErr = k.Swap(holder, tokenIn, tokenOut, amount, math.ZeroInt())
		case 2:
			_, opErr = k.Stake(asset, holder, amount)
		case 3:
			shares, err := k.StakeOf(asset, holder)
			if err == nil && shares.IsPositive() {
				_, opErr = k.Unstake(asset, holder, shares.QuoRaw(2).AddRaw(1))
			}
		case 4:
			_, opErr = k.ClaimReward(asset, holder)
		case 5:
			toAsset := assets[rng.Intn(len(assets))]
			_, opErr = k.SwapStake(asset, toAsset, holder, amount)
		case 6:
			_, opErr = k.StakeSecondary(holder, amount)
		}
		if opErr != nil {
			failures[rootError(opErr)]++
		}
		if err := k.CheckInvariants(); err != nil {
			return fmt.Errorf("invariant violated at step %d: %w", i, err)
		}
	}

	logger.Info("simulation complete", "steps", steps)
	for topic, n := range counters {
		logger.Info("events", "topic", topic, "count", *n)
	}
	for reason, n := range failures {
		logger.Info("rejected operations", "reason", reason, "count", n)
	}
	reportPools(logger, k)
	return nil
}

func reportPools(logger log.Logger, k *keeper.Keeper) {
	for _, asset := range k.Assets() {
		price, err := k.GetPrice(asset)
		if err != nil {
			continue
		}
		paired, reserve, err := k.GetReserves(asset)
		if err != nil {
			continue
		}
		owner, _ := k.OwnerOf(asset)
		logger.Info("pool state",
			"asset", asset,
			"price", price.String(),
			"paired_reserve", paired.String(),
			"asset_reserve", reserve.String(),
			"owner", owner,
		)
	}
	paired, secondary := k.GetSecondaryReserves()
	logger.Info("secondary pool state",
		"paired_reserve", paired.String(),
		"secondary_reserve", secondary.String(),
	)
}

// rootError collapses a wrapped error chain to its registered sentinel text
func rootError(err error) string {
	type causer interface{ Cause() error }
	for {
		c, ok := err.(causer)
		if !ok || c.Cause() == nil {
			return err.Error()
		}
		err = c.Cause()
	}
}

func startMetricsServer(logger log.Logger, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	logger.Info("metrics server listening", "port", port)
}
