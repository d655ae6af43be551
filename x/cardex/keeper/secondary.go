package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// The secondary pool pairs the paired token against one external asset. It
// runs the same constant-product and staked-tracking math as the card pools,
// with one addition: the first deposit that makes the secondary reserve
// positive while the paired reserve is zero seeds the paired side with a
// fixed virtual-liquidity constant. The virtual paired tokens have no real
// backing; they exist to establish an initial implied price without a
// counter-deposit. The first depositor is exposed to arbitrage if that price
// diverges from the market, which integrators must warn about out-of-band.

// maybeBootstrapSecondary seeds the virtual paired reserve. incoming is the
// secondary amount about to enter the pool.
func (k *Keeper) maybeBootstrapSecondary(sp *types.SecondaryPool, incoming math.Int) {
	if sp.Bootstrapped || !sp.PairedReserve.IsZero() {
		return
	}
	if sp.SecondaryReserve.Add(incoming).IsPositive() {
		sp.PairedReserve = k.params.SecondaryBootstrapLiquidity
		sp.Bootstrapped = true
		k.logger.Info("secondary pool bootstrapped",
			"virtual_paired_reserve", sp.PairedReserve.String(),
		)
	}
}

// buySecondary trades paired tokens for secondary tokens
func (k *Keeper) buySecondary(st *engineState, amountIn math.Int) (math.Int, math.Int, error) {
	sp := st.secondary
	netIn, poolFee, globalFee, err := k.splitFee(amountIn)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	secondaryReserveBefore := sp.SecondaryReserve
	amountOut, err := calcOutput(netIn, sp.PairedReserve, sp.SecondaryReserve)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	sp.PairedReserve = sp.PairedReserve.Add(netIn)
	sp.SecondaryReserve = sp.SecondaryReserve.Sub(amountOut)

	if sp.StakedSecondary.IsPositive() {
		reduction, err := SafeMulDiv(amountOut, sp.StakedSecondary, secondaryReserveBefore)
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
		sp.StakedSecondary = sp.StakedSecondary.Sub(minInt(reduction, sp.StakedSecondary))
	}

	k.depositPoolReward(st, k.params.SecondaryDenom, poolFee)
	k.depositGlobalReward(st, globalFee)

	return amountOut, poolFee.Add(globalFee), nil
}

// sellSecondary trades secondary tokens for paired tokens. The fee is valued
// into paired units at the pre-trade spot ratio before accrual.
func (k *Keeper) sellSecondary(st *engineState, amountIn math.Int) (math.Int, math.Int, error) {
	sp := st.secondary
	k.maybeBootstrapSecondary(sp, amountIn)

	netIn, poolFee, globalFee, err := k.splitFee(amountIn)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	secondaryReserveBefore := sp.SecondaryReserve
	if secondaryReserveBefore.IsZero() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInsufficientLiquidity.Wrap(
			"secondary pool has no liquidity")
	}
	poolFeeValue, err := SafeMulDiv(poolFee, sp.PairedReserve, secondaryReserveBefore)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	globalFeeValue, err := SafeMulDiv(globalFee, sp.PairedReserve, secondaryReserveBefore)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	amountOut, err := calcOutput(netIn, sp.SecondaryReserve, sp.PairedReserve)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	sp.SecondaryReserve = sp.SecondaryReserve.Add(netIn)
	sp.PairedReserve = sp.PairedReserve.Sub(amountOut)

	if sp.StakedSecondary.IsPositive() {
		increase, err := SafeMulDiv(netIn, sp.StakedSecondary, secondaryReserveBefore)
		if err != nil {
			return math.ZeroInt(), math.ZeroInt(), err
		}
		sp.StakedSecondary = sp.StakedSecondary.Add(increase)
	}

	k.depositPoolReward(st, k.params.SecondaryDenom, poolFeeValue)
	k.depositGlobalReward(st, globalFeeValue)

	return amountOut, poolFeeValue.Add(globalFeeValue), nil
}

// StakeSecondary deposits secondary tokens into the secondary pool's staked
// portion. The first deposit triggers the virtual-liquidity bootstrap.
// Returns the number of shares minted.
func (k *Keeper) StakeSecondary(holder string, amount math.Int) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("stake amount must be positive")
	}

	done, err := k.acquireLocks("stake_secondary", k.params.SecondaryDenom)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	sp, sc, rp := st.secondary, st.secondaryShares, st.secondaryRewards
	pendingPool, pendingGlobal, err := k.pendingBoth(st, sc, rp, holder)
	if err != nil {
		return math.ZeroInt(), err
	}

	k.maybeBootstrapSecondary(sp, amount)

	prevTop := sc.TopHolder
	minted, newStaked, err := k.mintShares(sc, rp, sp.StakedSecondary, holder, amount)
	if err != nil {
		return math.ZeroInt(), err
	}
	sp.StakedSecondary = newStaked
	sp.SecondaryReserve, err = SafeAdd(sp.SecondaryReserve, amount)
	if err != nil {
		return math.ZeroInt(), err
	}
	if err := k.updateGlobalWeight(st, holder); err != nil {
		return math.ZeroInt(), err
	}

	if err := k.bank.TransferIn(k.params.SecondaryDenom, holder, amount); err != nil {
		return math.ZeroInt(), types.ErrTransferFailed.Wrapf(
			"transfer in %s %s: %v", amount, k.params.SecondaryDenom, err)
	}
	if err := k.payReward(holder, pendingPool.Add(pendingGlobal)); err != nil {
		if revertErr := k.bank.TransferOut(k.params.SecondaryDenom, holder, amount); revertErr != nil {
			k.logger.Error("failed to revert secondary stake deposit after reward payout failure",
				"holder", holder,
				"original_error", err, "revert_error", revertErr,
			)
		}
		return math.ZeroInt(), err
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("stake secondary",
		"holder", holder, "amount", amount.String(), "shares", minted.String(),
	)
	k.emit(types.EventTypeStake, types.StakeEvent{
		Asset: k.params.SecondaryDenom, Holder: holder, Amount: amount, Shares: minted,
	})
	k.emitRewardEvents(k.params.SecondaryDenom, holder, pendingPool, pendingGlobal)
	k.emitOwnershipChange(k.params.SecondaryDenom, prevTop, sc.TopHolder)
	if k.metrics != nil {
		k.metrics.StakesTotal.WithLabelValues(k.params.SecondaryDenom).Inc()
	}
	return minted, nil
}

// UnstakeSecondary burns shares of the secondary pool and releases the
// underlying secondary tokens. Returns the amount released.
func (k *Keeper) UnstakeSecondary(holder string, shares math.Int) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}
	if shares.IsNil() || shares.IsNegative() {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("shares cannot be negative")
	}
	if shares.IsZero() {
		return math.ZeroInt(), types.ErrZeroShares
	}

	done, err := k.acquireLocks("unstake_secondary", k.params.SecondaryDenom)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	sp, sc, rp := st.secondary, st.secondaryShares, st.secondaryRewards
	pendingPool, pendingGlobal, err := k.pendingBoth(st, sc, rp, holder)
	if err != nil {
		return math.ZeroInt(), err
	}

	prevTop := sc.TopHolder
	released, newStaked, err := k.burnShares(sc, rp, sp.StakedSecondary, holder, shares)
	if err != nil {
		return math.ZeroInt(), err
	}
	sp.StakedSecondary = newStaked
	sp.SecondaryReserve, err = SafeSub(sp.SecondaryReserve, released)
	if err != nil {
		return math.ZeroInt(), err
	}
	if err := k.updateGlobalWeight(st, holder); err != nil {
		return math.ZeroInt(), err
	}

	if err := k.payReward(holder, pendingPool.Add(pendingGlobal)); err != nil {
		return math.ZeroInt(), err
	}
	if err := k.bank.TransferOut(k.params.SecondaryDenom, holder, released); err != nil {
		total := pendingPool.Add(pendingGlobal)
		if total.IsPositive() {
			if revertErr := k.bank.BurnPaired(holder, total); revertErr != nil {
				k.logger.Error("failed to revert reward payout after secondary release failure",
					"holder", holder,
					"original_error", err, "revert_error", revertErr,
				)
			}
		}
		return math.ZeroInt(), types.ErrTransferFailed.Wrapf(
			"release %s %s: %v", released, k.params.SecondaryDenom, err)
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()

	k.logger.Info("unstake secondary",
		"holder", holder, "shares", shares.String(), "released", released.String(),
	)
	k.emit(types.EventTypeUnstake, types.UnstakeEvent{
		Asset: k.params.SecondaryDenom, Holder: holder, Shares: shares, Released: released,
	})
	k.emitRewardEvents(k.params.SecondaryDenom, holder, pendingPool, pendingGlobal)
	k.emitOwnershipChange(k.params.SecondaryDenom, prevTop, sc.TopHolder)
	if k.metrics != nil {
		k.metrics.UnstakesTotal.WithLabelValues(k.params.SecondaryDenom).Inc()
	}
	return released, nil
}

// ClaimSecondaryReward settles and pays the holder's pending secondary-pool
// and global rewards. Returns the total amount paid.
func (k *Keeper) ClaimSecondaryReward(holder string) (math.Int, error) {
	if holder == "" {
		return math.ZeroInt(), types.ErrInvalidInput.Wrap("holder cannot be empty")
	}

	done, err := k.acquireLocks("claim_secondary", k.params.SecondaryDenom)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer done()

	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	sc, rp := st.secondaryShares, st.secondaryRewards
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

	k.logger.Info("secondary reward claimed", "holder", holder, "amount", total.String())
	k.emitRewardEvents(k.params.SecondaryDenom, holder, pendingPool, pendingGlobal)
	return total, nil
}
