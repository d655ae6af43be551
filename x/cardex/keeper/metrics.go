package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the cardex module
type Metrics struct {
	// Swap metrics
	SwapsTotal  *prometheus.CounterVec
	SwapStakes  *prometheus.CounterVec
	FeesAccrued *prometheus.CounterVec

	// Staking metrics
	StakesTotal   *prometheus.CounterVec
	UnstakesTotal *prometheus.CounterVec
	RewardsPaid   *prometheus.CounterVec

	// Pool metrics
	AssetsRegistered   prometheus.Counter
	OwnershipTransfers *prometheus.CounterVec
	PairedReserve      *prometheus.GaugeVec
	AssetReserve       *prometheus.GaugeVec

	// Security metrics
	ReentrancyRejections *prometheus.CounterVec
	InvariantViolations  *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics creates and registers cardex metrics (singleton pattern)
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			// Swap metrics
			SwapsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "swaps_total",
					Help:      "Total swaps executed",
				},
				[]string{"token_in", "token_out"},
			),
			SwapStakes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "swap_stakes_total",
					Help:      "Total atomic swap-stake operations",
				},
				[]string{"from_asset", "to_asset"},
			),
			FeesAccrued: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "fees_accrued_total",
					Help:      "Swap fees accrued to reward accumulators",
				},
				[]string{"token_in"},
			),

			// Staking metrics
			StakesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "stakes_total",
					Help:      "Total stake operations",
				},
				[]string{"asset"},
			),
			UnstakesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "unstakes_total",
					Help:      "Total unstake operations",
				},
				[]string{"asset"},
			),
			RewardsPaid: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "rewards_paid_total",
					Help:      "Total rewards paid out, in paired token units",
				},
				[]string{"source"},
			),

			// Pool metrics
			AssetsRegistered: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "assets_registered_total",
					Help:      "Total card assets registered",
				},
			),
			OwnershipTransfers: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "ownership_transfers_total",
					Help:      "Top-holder ownership changes",
				},
				[]string{"asset"},
			),
			PairedReserve: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "paired_reserve",
					Help:      "Current paired-token reserve per pool",
				},
				[]string{"asset"},
			),
			AssetReserve: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "asset_reserve",
					Help:      "Current asset-token reserve per pool",
				},
				[]string{"asset"},
			),

			// Security metrics
			ReentrancyRejections: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "reentrancy_rejections_total",
					Help:      "Nested mutating calls rejected by the operation guard",
				},
				[]string{"operation"},
			),
			InvariantViolations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cardex",
					Subsystem: "engine",
					Name:      "invariant_violations_total",
					Help:      "Invariant check failures",
				},
				[]string{"invariant"},
			),
		}
	})
	return metrics
}

// GetMetrics returns the singleton cardex metrics instance
func GetMetrics() *Metrics {
	if metrics == nil {
		return NewMetrics()
	}
	return metrics
}
