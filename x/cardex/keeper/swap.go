package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// tokenKind classifies a denom for swap routing
type tokenKind int

const (
	kindPaired tokenKind = iota
	kindSecondary
	kindCard
)

func (k *Keeper) classify(st *engineState, token string) (tokenKind, error) {
	switch token {
	case k.params.PairedDenom:
		return kindPaired, nil
	case k.params.SecondaryDenom:
		return kindSecondary, nil
	}
	if _, ok := st.pools[token]; ok {
		return kindCard, nil
	}
	return 0, types.ErrUnknownAsset.Wrapf("token %s", token)
}

// Swap executes a trade between any two supported tokens. Card-to-card and
// card-to-secondary trades route through the paired token as the single
// intermediate; each hop pays the standard fee to its own pool's stakers.
// The caller-specified minAmountOut bounds slippage on the final output.
func (k *Keeper) Swap(trader, tokenIn, tokenOut string, amountIn, minAmountOut math.Int) (math.Int, error) {
	if trader == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("trader cannot be empty")
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("swap amount must be positive")
	}
	if minAmountOut.IsNil() || minAmountOut.IsNegative() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("min amount out cannot be negative")
	}
	if tokenIn == tokenOut {
		return math.ZeroInt(), types.ErrSameAsset.Wrap("cannot swap identical tokens")
	}

	done, err := k.acquireLocks("swap", tokenIn, tokenOut)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	amountOut, totalFee, err := k.routeSwap(st, tokenIn, tokenOut, amountIn)
	if err != nil {
		return math.ZeroInt(), err
	}

	if amountOut.LT(minAmountOut) {
		return math.ZeroInt(), types.ErrBelowMinimumOutput.Wrapf(
			"expected at least %s, got %s", minAmountOut, amountOut)
	}

	// Interactions after all state computation: a failed transfer leaves the
	// committed state untouched.
	if err := k.bank.TransferIn(tokenIn, trader, amountIn); err != nil {
		return math.ZeroInt(), types.ErrTransferFailed.Wrapf("transfer in %s %s: %v", amountIn, tokenIn, err)
	}
	if err := k.bank.TransferOut(tokenOut, trader, amountOut); err != nil {
		if revertErr := k.bank.TransferOut(tokenIn, trader, amountIn); revertErr != nil {
			k.logger.Error("failed to revert input transfer after output transfer failure",
				"original_error", err,
				"revert_error", revertErr,
				"trader", trader,
				"amount", amountIn.String(),
			)
		}
		return math.ZeroInt(), types.ErrTransferFailed.Wrapf("transfer out %s %s: %v", amountOut, tokenOut, err)
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("swap executed",
		"trader", trader,
		"token_in", tokenIn,
		"token_out", tokenOut,
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
		"fee", totalFee.String(),
	)
	k.emit(types.EventTypeSwap, types.SwapEvent{
		Trader:    trader,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Fee:       totalFee,
	})
	if k.metrics != nil {
		k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut).Inc()
		k.metrics.FeesAccrued.WithLabelValues(tokenIn).Add(float64(totalFee.Int64()))
	}

	return amountOut, nil
}

// SimulateSwap quotes a swap without mutating state or moving tokens
func (k *Keeper) SimulateSwap(tokenIn, tokenOut string, amountIn math.Int) (math.Int, error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("swap amount must be positive")
	}
	if tokenIn == tokenOut {
		return math.ZeroInt(), types.ErrSameAsset.Wrap("cannot swap identical tokens")
	}

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	amountOut, _, err := k.routeSwap(st, tokenIn, tokenOut, amountIn)
	return amountOut, err
}

// routeSwap resolves the direction of a trade and applies it to st. Returns
// the final output amount and the total fee charged across all hops,
// denominated in the paired token.
func (k *Keeper) routeSwap(st *engineState, tokenIn, tokenOut string, amountIn math.Int) (math.Int, math.Int, error) {
	kindIn, err := k.classify(st, tokenIn)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	kindOut, err := k.classify(st, tokenOut)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	switch {
	case kindIn == kindPaired && kindOut == kindCard:
		return k.buyAsset(st, st.pools[tokenOut], amountIn)

	case kindIn == kindCard && kindOut == kindPaired:
		return k.sellAsset(st, st.pools[tokenIn], amountIn)

	case kindIn == kindPaired && kindOut == kindSecondary:
		return k.buySecondary(st, amountIn)

	case kindIn == kindSecondary && kindOut == kindPaired:
		return k.sellSecondary(st, amountIn)

	default:
		// Two hops through the paired token: card->card, card<->secondary.
		var pairedOut, feeIn math.Int
		var err error
		if kindIn == kindCard {
			pairedOut, feeIn, err = k.sellAsset(st, st.pools[tokenIn], amountIn)
		} else {
			pairedOut, feeIn, err = k.sellSecondary(st, amountIn)
		}
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}

		var amountOut, feeOut math.Int
		if kindOut == kindCard {
			amountOut, feeOut, err = k.buyAsset(st, st.pools[tokenOut], pairedOut)
		} else {
			amountOut, feeOut, err = k.buySecondary(st, pairedOut)
		}
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
		return amountOut, feeIn.Add(feeOut), nil
	}
}

// splitFee deducts the swap fee from amountIn and splits it between the
// traded pool's accumulator and the global accumulator
func (k *Keeper) splitFee(amountIn math.Int) (net, poolFee, globalFee math.Int, err error) {
	poolFee = math.LegacyNewDecFromInt(amountIn).Mul(k.params.PoolRewardFee).TruncateInt()
	globalFee = math.LegacyNewDecFromInt(amountIn).Mul(k.params.GlobalRewardFee).TruncateInt()
	net, err = SafeSub(amountIn, poolFee.Add(globalFee))
	if err != nil {
		return math.Int{}, math.Int{}, math.Int{}, err
	}
	if net.IsZero() {
		return math.Int{}, math.Int{}, math.Int{}, types.ErrInvalidInput.Wrap("swap amount too small after fees")
	}
	return net, poolFee, globalFee, nil
}

// calcOutput applies the constant-product formula to the net input:
// out = floor(netIn * reserveOut / (reserveIn + netIn)). Flooring favors the
// pool over the trader by construction.
func calcOutput(netIn, reserveIn, reserveOut math.Int) (math.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.ZeroInt(), types.ErrInsufficientLiquidity.Wrap("pool reserves must be positive")
	}
	denominator, err := SafeAdd(reserveIn, netIn)
	if err != nil {
		return math.ZeroInt(), err
	}
	amountOut, err := SafeMulDiv(netIn, reserveOut, denominator)
	if err != nil {
		return math.ZeroInt(), err
	}
	if amountOut.IsZero() {
		return math.ZeroInt(), types.ErrInsufficientLiquidity.Wrap("output amount rounds to zero")
	}
	if amountOut.GTE(reserveOut) {
		return math.ZeroInt(), types.ErrInsufficientLiquidity.Wrapf(
			"output %s would drain reserve %s", amountOut, reserveOut)
	}
	return amountOut, nil
}

// buyAsset trades paired tokens into the pool for card tokens. Applies the
// proportional staked-tracking reduction so the staked/total ratio survives
// the trade.
func (k *Keeper) buyAsset(st *engineState, pool *types.Pool, amountIn math.Int) (math.Int, math.Int, error) {
	netIn, poolFee, globalFee, err := k.splitFee(amountIn)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	assetReserveBefore := pool.AssetReserve
	amountOut, err := calcOutput(netIn, pool.PairedReserve, pool.AssetReserve)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	pool.PairedReserve = pool.PairedReserve.Add(netIn)
	pool.AssetReserve = pool.AssetReserve.Sub(amountOut)

	// Asset tokens leave the pool: shrink the staked portion proportionally,
	// clamped at zero. Truncation drifts the ratio down by at most one unit
	// per trade, in favor of the base liquidity.
	if pool.StakedAsset.IsPositive() {
		reduction, err := SafeMulDiv(amountOut, pool.StakedAsset, assetReserveBefore)
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
		pool.StakedAsset = pool.StakedAsset.Sub(minInt(reduction, pool.StakedAsset))
	}

	k.depositPoolReward(st, pool.Asset, poolFee)
	k.depositGlobalReward(st, globalFee)

	return amountOut, poolFee.Add(globalFee), nil
}

// sellAsset trades card tokens into the pool for paired tokens. The fee is
// taken in card units and valued into paired units at the pre-trade spot
// ratio before it is accrued.
func (k *Keeper) sellAsset(st *engineState, pool *types.Pool, amountIn math.Int) (math.Int, math.Int, error) {
	netIn, poolFee, globalFee, err := k.splitFee(amountIn)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	assetReserveBefore := pool.AssetReserve
	poolFeeValue, err := SafeMulDiv(poolFee, pool.PairedReserve, assetReserveBefore)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	globalFeeValue, err := SafeMulDiv(globalFee, pool.PairedReserve, assetReserveBefore)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	amountOut, err := calcOutput(netIn, pool.AssetReserve, pool.PairedReserve)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	pool.AssetReserve = pool.AssetReserve.Add(netIn)
	pool.PairedReserve = pool.PairedReserve.Sub(amountOut)

	// Asset tokens enter the pool: grow the staked portion proportionally so
	// staker ownership percentage is insulated from trading activity.
	if pool.StakedAsset.IsPositive() {
		increase, err := SafeMulDiv(netIn, pool.StakedAsset, assetReserveBefore)
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
		pool.StakedAsset = pool.StakedAsset.Add(increase)
	}

	k.depositPoolReward(st, pool.Asset, poolFeeValue)
	k.depositGlobalReward(st, globalFeeValue)

	return amountOut, poolFeeValue.Add(globalFeeValue), nil
}
