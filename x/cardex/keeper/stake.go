package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Stake deposits card tokens into the asset's staked pool, settling the
// holder's pending rewards first, and mints proportional shares. Returns the
// number of shares minted.
func (k *Keeper) Stake(asset, holder string, amount math.Int) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("stake amount must be positive")
	}

	done, err := k.acquireLocks("stake", asset)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	pool, sc, rp, err := k.pool(st, asset)
	if err != nil {
		return math.ZeroInt(), err
	}

	pendingPool, pendingGlobal, err := k.pendingBoth(st, sc, rp, holder)
	if err != nil {
		return math.ZeroInt(), err
	}

	prevTop := sc.TopHolder
	minted, newStaked, err := k.mintShares(sc, rp, pool.StakedAsset, holder, amount)
	if err != nil {
		return math.ZeroInt(), err
	}
	pool.StakedAsset = newStaked
	pool.AssetReserve, err = SafeAdd(pool.AssetReserve, amount)
	if err != nil {
		return math.ZeroInt(), err
	}
	if err := k.updateGlobalWeight(st, holder); err != nil {
		return math.ZeroInt(), err
	}

	if err := k.bank.TransferIn(asset, holder, amount); err != nil {
		return math.ZeroInt(), types.ErrTransferFailed.Wrapf("transfer in %s %s: %v", amount, asset, err)
	}
	if err := k.payReward(holder, pendingPool.Add(pendingGlobal)); err != nil {
		if revertErr := k.bank.TransferOut(asset, holder, amount); revertErr != nil {
			k.logger.Error("failed to revert stake deposit after reward payout failure",
				"asset", asset, "holder", holder,
				"original_error", err, "revert_error", revertErr,
			)
		}
		return math.ZeroInt(), err
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("stake",
		"asset", asset, "holder", holder,
		"amount", amount.String(), "shares", minted.String(),
	)
	k.emit(types.EventTypeStake, types.StakeEvent{
		Asset: asset, Holder: holder, Amount: amount, Shares: minted,
	})
	k.emitRewardEvents(asset, holder, pendingPool, pendingGlobal)
	k.emitOwnershipChange(asset, prevTop, sc.TopHolder)
	if k.metrics != nil {
		k.metrics.StakesTotal.WithLabelValues(asset).Inc()
	}
	return minted, nil
}

// Unstake burns the holder's shares, settles pending rewards, and releases
// the underlying card tokens. Returns the underlying amount released.
func (k *Keeper) Unstake(asset, holder string, shares math.Int) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}
	if shares.IsNil() || shares.IsNegative() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("shares cannot be negative")
	}
	if shares.IsZero() {
		return math.ZeroInt(), types.ErrZeroShares
	}

	done, err := k.acquireLocks("unstake", asset)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	pool, sc, rp, err := k.pool(st, asset)
	if err != nil {
		return math.ZeroInt(), err
	}

	pendingPool, pendingGlobal, err := k.pendingBoth(st, sc, rp, holder)
	if err != nil {
		return math.ZeroInt(), err
	}

	prevTop := sc.TopHolder
	released, newStaked, err := k.burnShares(sc, rp, pool.StakedAsset, holder, shares)
	if err != nil {
		return math.ZeroInt(), err
	}
	pool.StakedAsset = newStaked
	pool.AssetReserve, err = SafeSub(pool.AssetReserve, released)
	if err != nil {
		return math.ZeroInt(), err
	}
	if err := k.updateGlobalWeight(st, holder); err != nil {
		return math.ZeroInt(), err
	}

	if err := k.payReward(holder, pendingPool.Add(pendingGlobal)); err != nil {
		return math.ZeroInt(), err
	}
	if err := k.bank.TransferOut(asset, holder, released); err != nil {
		total := pendingPool.Add(pendingGlobal)
		if total.IsPositive() {
			if revertErr := k.bank.BurnPaired(holder, total); revertErr != nil {
				k.logger.Error("failed to revert reward payout after release failure",
					"asset", asset, "holder", holder,
					"original_error", err, "revert_error", revertErr,
				)
			}
		}
		return math.ZeroInt(), types.ErrTransferFailed.Wrapf("release %s %s: %v", released, asset, err)
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("unstake",
		"asset", asset, "holder", holder,
		"shares", shares.String(), "released", released.String(),
	)
	k.emit(types.EventTypeUnstake, types.UnstakeEvent{
		Asset: asset, Holder: holder, Shares: shares, Released: released,
	})
	k.emitRewardEvents(asset, holder, pendingPool, pendingGlobal)
	k.emitOwnershipChange(asset, prevTop, sc.TopHolder)
	if k.metrics != nil {
		k.metrics.UnstakesTotal.WithLabelValues(asset).Inc()
	}
	return released, nil
}

// ClaimReward settles and pays the holder's pending pool and global rewards
// without changing their shares. Returns the total amount paid.
func (k *Keeper) ClaimReward(asset, holder string) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}

	done, err := k.acquireLocks("claim", asset)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	_, sc, rp, err := k.pool(st, asset)
	if err != nil {
		return math.ZeroInt(), err
	}

	pendingPool, pendingGlobal, err := k.pendingBoth(st, sc, rp, holder)
	if err != nil {
		return math.ZeroInt(), err
	}
	if err := resetPoolDebt(sc, rp, holder); err != nil {
		return math.ZeroInt(), err
	}
	if err := k.updateGlobalWeight(st, holder); err != nil {
		return math.ZeroInt(), err
	}

	total := pendingPool.Add(pendingGlobal)
	if err := k.payReward(holder, total); err != nil {
		return math.ZeroInt(), err
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("reward claimed",
		"asset", asset, "holder", holder, "amount", total.String(),
	)
	k.emitRewardEvents(asset, holder, pendingPool, pendingGlobal)
	return total, nil
}

// pendingBoth computes the holder's pending pool and global rewards
func (k *Keeper) pendingBoth(st *engineState, sc *types.ShareClass, rp *types.RewardPool, holder string) (math.Int, math.Int, error) {
	pendingPool, err := pendingPoolReward(sc, rp, holder)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	pendingGlobal, err := pendingGlobalReward(st.global, holder)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	return pendingPool, pendingGlobal, nil
}

// payReward mints the paired token to the holder, translating the supply
// policy's refusal into the module error taxonomy
func (k *Keeper) payReward(holder string, amount math.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := k.bank.MintPaired(holder, amount); err != nil {
		return types.ErrSupplyCapExceeded.Wrapf("reward payout %s: %v", amount, err)
	}
	return nil
}

func (k *Keeper) emitRewardEvents(asset, holder string, pendingPool, pendingGlobal math.Int) {
	if pendingPool.IsPositive() {
		k.emit(types.EventTypeRewardClaimed, types.RewardClaimedEvent{
			Asset: asset, Holder: holder, Amount: pendingPool,
		})
		if k.metrics != nil {
			k.metrics.RewardsPaid.WithLabelValues("pool").Add(float64(pendingPool.Int64()))
		}
	}
	if pendingGlobal.IsPositive() {
		k.emit(types.EventTypeRewardClaimed, types.RewardClaimedEvent{
			Asset: asset, Holder: holder, Amount: pendingGlobal, Global: true,
		})
		if k.metrics != nil {
			k.metrics.RewardsPaid.WithLabelValues("global").Add(float64(pendingGlobal.Int64()))
		}
	}
}

func (k *Keeper) emitOwnershipChange(asset, prevTop, newTop string) {
	if prevTop == newTop {
		return
	}
	k.logger.Info("ownership change", "asset", asset, "from", prevTop, "to", newTop)
	k.emit(types.EventTypeOwnershipChange, types.OwnershipChangeEvent{
		Asset: asset, PreviousOwner: prevTop, NewOwner: newTop,
	})
	if k.metrics != nil {
		k.metrics.OwnershipTransfers.WithLabelValues(asset).Inc()
	}
}
