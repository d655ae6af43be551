package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// SwapStake atomically moves a staked position between two card pools. The
// holder's shares in fromAsset are burned as a direct withdrawal, the
// underlying is routed through an internal two-hop trade (fromAsset -> paired
// -> toAsset, each hop paying the standard fee to its own pool), and the
// resulting output is staked into toAsset. No external token balance of the
// holder changes except reward payouts; the value moved is the underlying
// minus two trading fees, the same cost as sequential unstake, swap, stake
// without the transfer round-trips. Returns the shares minted in toAsset.
func (k *Keeper) SwapStake(fromAsset, toAsset, holder string, shares math.Int) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}
	if fromAsset == toAsset {
		return math.ZeroInt(), types.ErrSameAsset.Wrapf("asset %s", fromAsset)
	}
	if shares.IsNil() || shares.IsNegative() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("shares cannot be negative")
	}
	if shares.IsZero() {
		return math.ZeroInt(), types.ErrZeroShares
	}

	done, err := k.acquireLocks("swap_stake", fromAsset, toAsset)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	fromPool, fromShares, fromRewards, err := k.pool(st, fromAsset)
	if err != nil {
		return math.ZeroInt(), err
	}
	toPool, toShares, toRewards, err := k.pool(st, toAsset)
	if err != nil {
		return math.ZeroInt(), err
	}

	// 1. Settle pending rewards on both pools and globally before any balance
	// change; debts are re-snapshotted by the burn, the mint, and the weight
	// update below.
	pendingFrom, err := pendingPoolReward(fromShares, fromRewards, holder)
	if err != nil {
		return math.ZeroInt(), err
	}
	pendingTo, err := pendingPoolReward(toShares, toRewards, holder)
	if err != nil {
		return math.ZeroInt(), err
	}
	pendingGlobal, err := pendingGlobalReward(st.global, holder)
	if err != nil {
		return math.ZeroInt(), err
	}

	prevFromTop := fromShares.TopHolder
	prevToTop := toShares.TopHolder

	// 2-3. Burn the source shares. This is a direct withdrawal: the underlying
	// leaves both the staked portion and the reserve, bypassing the
	// proportional-tracking rule.
	amountIn, newStaked, err := k.burnShares(fromShares, fromRewards, fromPool.StakedAsset, holder, shares)
	if err != nil {
		return math.ZeroInt(), err
	}
	fromPool.StakedAsset = newStaked
	fromPool.AssetReserve, err = SafeSub(fromPool.AssetReserve, amountIn)
	if err != nil {
		return math.ZeroInt(), err
	}

	// 4. Internal two-hop trade through the paired token, entirely within
	// reserve accounting. Standard swap math applies on each hop, staked
	// tracking included.
	pairedOut, feeFrom, err := k.sellAsset(st, fromPool, amountIn)
	if err != nil {
		return math.ZeroInt(), err
	}
	amountOut, feeTo, err := k.buyAsset(st, toPool, pairedOut)
	if err != nil {
		return math.ZeroInt(), err
	}

	// 5. Stake the output into the destination pool.
	minted, newToStaked, err := k.mintShares(toShares, toRewards, toPool.StakedAsset, holder, amountOut)
	if err != nil {
		return math.ZeroInt(), err
	}
	toPool.StakedAsset = newToStaked
	toPool.AssetReserve, err = SafeAdd(toPool.AssetReserve, amountOut)
	if err != nil {
		return math.ZeroInt(), err
	}

	// 6. Global weight reflects both position changes at once.
	if err := k.updateGlobalWeight(st, holder); err != nil {
		return math.ZeroInt(), err
	}

	// The reward payout is the only external interaction; a refused mint
	// aborts with nothing committed.
	if err := k.payReward(holder, pendingFrom.Add(pendingTo).Add(pendingGlobal)); err != nil {
		return math.ZeroInt(), err
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("swap-stake executed",
		"holder", holder,
		"from_asset", fromAsset,
		"to_asset", toAsset,
		"shares_burned", shares.String(),
		"shares_minted", minted.String(),
		"amount_moved", amountIn.String(),
		"fee", feeFrom.Add(feeTo).String(),
	)
	k.emit(types.EventTypeSwapStake, types.SwapStakeEvent{
		FromAsset:    fromAsset,
		ToAsset:      toAsset,
		Holder:       holder,
		SharesBurned: shares,
		SharesMinted: minted,
		AmountMoved:  amountIn,
	})
	k.emitRewardEvents(fromAsset, holder, pendingFrom, pendingGlobal)
	k.emitRewardEvents(toAsset, holder, pendingTo, math.ZeroInt())
	k.emitOwnershipChange(fromAsset, prevFromTop, fromShares.TopHolder)
	k.emitOwnershipChange(toAsset, prevToTop, toShares.TopHolder)
	if k.metrics != nil {
		k.metrics.SwapStakes.WithLabelValues(fromAsset, toAsset).Inc()
	}
	return minted, nil
}
