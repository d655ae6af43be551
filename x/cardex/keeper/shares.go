package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Share ledger operations. Callers must settle the holder's pending rewards
// against the accumulator before calling mint or burn; both re-snapshot the
// holder's reward debt after the balance change.

// mintShares mints shares for an underlying deposit against the given staked
// amount and returns the minted count and the new staked amount.
//
// The bootstrap path triggers when totalShares == 0 OR staked == 0: a pool
// fully drained of staked liquidity that still has outstanding shares would
// otherwise divide by zero and be permanently unstakeable. Both conditions
// mint 1:1.
func (k *Keeper) mintShares(sc *types.ShareClass, rp *types.RewardPool, staked math.Int, holder string, amount math.Int) (math.Int, math.Int, error) {
	var minted math.Int
	if sc.TotalShares.IsZero() || staked.IsZero() {
		minted = amount
	} else {
		var err error
		minted, err = SafeMulDiv(amount, sc.TotalShares, staked)
		if err != nil {
			return math.Int{}, math.Int{}, err
		}
		if minted.IsZero() {
			return math.Int{}, math.Int{}, types.ErrInvalidInput.Wrapf(
				"deposit %s too small to mint shares", amount)
		}
	}

	newStaked, err := SafeAdd(staked, amount)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	sc.Holders[holder] = sc.SharesOf(holder).Add(minted)
	sc.TotalShares = sc.TotalShares.Add(minted)

	k.reevaluateTopAfterIncrease(sc, holder)

	if err := resetPoolDebt(sc, rp, holder); err != nil {
		return math.Int{}, math.Int{}, err
	}
	return minted, newStaked, nil
}

// burnShares burns the holder's shares and returns the underlying released
// and the new staked amount
func (k *Keeper) burnShares(sc *types.ShareClass, rp *types.RewardPool, staked math.Int, holder string, shares math.Int) (math.Int, math.Int, error) {
	held := sc.SharesOf(holder)
	if shares.GT(held) {
		return math.Int{}, math.Int{}, types.ErrInsufficientShares.Wrapf(
			"have %s, need %s", held, shares)
	}

	released, err := SafeMulDiv(shares, staked, sc.TotalShares)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	newStaked, err := SafeSub(staked, released)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	remaining := held.Sub(shares)
	if remaining.IsZero() {
		delete(sc.Holders, holder)
	} else {
		sc.Holders[holder] = remaining
	}
	sc.TotalShares = sc.TotalShares.Sub(shares)

	k.reevaluateTopAfterDecrease(sc, holder)

	if err := resetPoolDebt(sc, rp, holder); err != nil {
		return math.Int{}, math.Int{}, err
	}
	return released, newStaked, nil
}

// reevaluateTopAfterIncrease is the O(1) ownership fast path: a balance that
// grew can only displace the cached top by strictly exceeding it.
func (k *Keeper) reevaluateTopAfterIncrease(sc *types.ShareClass, holder string) {
	if sc.TopHolder == holder {
		return
	}
	if sc.TopHolder == "" || sc.SharesOf(holder).GT(sc.SharesOf(sc.TopHolder)) {
		sc.TopHolder = holder
	}
}

// reevaluateTopAfterDecrease re-validates the cached top after a balance
// decrease. Only a decrease of the current top holder can change the answer,
// and then any other holder may now lead, so a full rescan is required.
// The incumbent keeps ownership on ties.
func (k *Keeper) reevaluateTopAfterDecrease(sc *types.ShareClass, holder string) {
	if sc.TotalShares.IsZero() {
		sc.TopHolder = ""
		return
	}
	if sc.TopHolder != holder {
		return
	}
	incumbent := sc.SharesOf(holder)
	best, bestBal := "", math.ZeroInt()
	for h, bal := range sc.Holders {
		if bal.GT(bestBal) || (bal.Equal(bestBal) && (best == "" || h < best)) {
			best, bestBal = h, bal
		}
	}
	if incumbent.IsPositive() && incumbent.Equal(bestBal) {
		return
	}
	sc.TopHolder = best
}
