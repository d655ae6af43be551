package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// Params holds the module parameters. They are fixed at construction time;
// there is no governance path to change them on a live engine.
type Params struct {
	// PairedDenom is the native protocol token every card pool trades against.
	PairedDenom string
	// SecondaryDenom is the external asset of the single secondary pool.
	SecondaryDenom string

	// SwapFee is the total fee deducted from amountIn before the
	// constant-product formula is applied.
	SwapFee math.LegacyDec
	// PoolRewardFee is the portion of amountIn accrued to the traded pool's
	// staker accumulator. PoolRewardFee + GlobalRewardFee == SwapFee.
	PoolRewardFee math.LegacyDec
	// GlobalRewardFee is the portion of amountIn accrued to the global
	// cross-pool accumulator.
	GlobalRewardFee math.LegacyDec

	// SecondaryBootstrapLiquidity is the virtual paired-token liquidity seeded
	// into the secondary pool the first time its reserve becomes positive.
	SecondaryBootstrapLiquidity math.Int
}

// DefaultParams returns default parameters for the cardex module
func DefaultParams() Params {
	return Params{
		PairedDenom:                 "ucrd",
		SecondaryDenom:              "uext",
		SwapFee:                     math.LegacyNewDecWithPrec(3, 3),  // 0.3%
		PoolRewardFee:               math.LegacyNewDecWithPrec(25, 4), // 0.25%
		GlobalRewardFee:             math.LegacyNewDecWithPrec(5, 4),  // 0.05%
		SecondaryBootstrapLiquidity: math.NewInt(1_000_000_000),
	}
}

// Validate performs basic validation of the parameter set
func (p Params) Validate() error {
	if p.PairedDenom == "" {
		return fmt.Errorf("paired denom cannot be empty")
	}
	if p.SecondaryDenom == "" {
		return fmt.Errorf("secondary denom cannot be empty")
	}
	if p.SecondaryDenom == p.PairedDenom {
		return fmt.Errorf("secondary denom cannot equal paired denom")
	}
	if p.SwapFee.IsNil() || p.SwapFee.IsNegative() || p.SwapFee.GTE(math.LegacyOneDec()) {
		return fmt.Errorf("swap fee must be in range [0, 1)")
	}
	if p.PoolRewardFee.IsNil() || p.PoolRewardFee.IsNegative() {
		return fmt.Errorf("pool reward fee cannot be negative")
	}
	if p.GlobalRewardFee.IsNil() || p.GlobalRewardFee.IsNegative() {
		return fmt.Errorf("global reward fee cannot be negative")
	}
	if !p.PoolRewardFee.Add(p.GlobalRewardFee).Equal(p.SwapFee) {
		return fmt.Errorf("pool reward fee + global reward fee must equal swap fee")
	}
	if p.SecondaryBootstrapLiquidity.IsNil() || !p.SecondaryBootstrapLiquidity.IsPositive() {
		return fmt.Errorf("secondary bootstrap liquidity must be positive")
	}
	return nil
}
