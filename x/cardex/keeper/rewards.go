package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Reward accounting. Per-pool accumulators and the global accumulator share
// the MasterChef debt-snapshot technique: pending(h) = stake(h) * acc / SCALE
// - debt(h), with debt re-snapshotted immediately after every balance change,
// payout, or weight change for that holder. All reward amounts are
// denominated in the paired token and paid by minting through the bank
// collaborator's supply policy.

// rewardPair resolves the share class and accumulator for an asset,
// including the secondary pool under its denom
func (k *Keeper) rewardPair(st *engineState, asset string) (*types.ShareClass, *types.RewardPool) {
	if asset == k.params.SecondaryDenom {
		return st.secondaryShares, st.secondaryRewards
	}
	return st.shares[asset], st.rewards[asset]
}

// depositPoolReward accrues a fee amount to a pool's staker accumulator.
// Deposits into an empty share class are forfeited: there is nobody to owe
// them to, and queueing them would let the first staker claim fees earned
// before they carried any risk.
func (k *Keeper) depositPoolReward(st *engineState, asset string, amount math.Int) {
	if amount.IsZero() {
		return
	}
	sc, rp := k.rewardPair(st, asset)
	if sc == nil || rp == nil || sc.TotalShares.IsZero() {
		k.logger.Debug("pool reward forfeited: no stakers", "asset", asset, "amount", amount.String())
		return
	}
	delta, err := SafeMulDiv(amount, types.RewardScale, sc.TotalShares)
	if err != nil {
		k.logger.Error("pool reward accrual overflow", "asset", asset, "err", err)
		return
	}
	rp.AccPerShare = rp.AccPerShare.Add(delta)
}

// depositGlobalReward accrues a fee amount to the cross-pool accumulator
func (k *Keeper) depositGlobalReward(st *engineState, amount math.Int) {
	if amount.IsZero() {
		return
	}
	if st.global.TotalWeight.IsZero() {
		k.logger.Debug("global reward forfeited: no weight", "amount", amount.String())
		return
	}
	delta, err := SafeMulDiv(amount, types.RewardScale, st.global.TotalWeight)
	if err != nil {
		k.logger.Error("global reward accrual overflow", "err", err)
		return
	}
	st.global.AccPerWeight = st.global.AccPerWeight.Add(delta)
}

// pendingPoolReward computes the holder's unpaid pool reward
func pendingPoolReward(sc *types.ShareClass, rp *types.RewardPool, holder string) (math.Int, error) {
	shares := sc.SharesOf(holder)
	if shares.IsZero() {
		return math.ZeroInt(), nil
	}
	accrued, err := SafeMulDiv(shares, rp.AccPerShare, types.RewardScale)
	if err != nil {
		return math.Int{}, err
	}
	pending := accrued.Sub(rp.DebtOf(holder))
	if pending.IsNegative() {
		// Debt is snapshotted after every balance change, so this indicates
		// state corruption rather than a rounding artifact.
		return math.Int{}, types.ErrInvalidState.Wrapf(
			"negative pending reward for %s in %s", holder, rp.Asset)
	}
	return pending, nil
}

// resetPoolDebt re-snapshots the holder's reward debt after a balance change
// or payout
func resetPoolDebt(sc *types.ShareClass, rp *types.RewardPool, holder string) error {
	shares := sc.SharesOf(holder)
	if shares.IsZero() {
		delete(rp.Debt, holder)
		return nil
	}
	debt, err := SafeMulDiv(shares, rp.AccPerShare, types.RewardScale)
	if err != nil {
		return err
	}
	rp.Debt[holder] = debt
	return nil
}

// pendingGlobalReward computes the holder's unpaid global reward
func pendingGlobalReward(g *types.GlobalRewardPool, holder string) (math.Int, error) {
	weight := g.WeightOf(holder)
	if weight.IsZero() {
		return math.ZeroInt(), nil
	}
	accrued, err := SafeMulDiv(weight, g.AccPerWeight, types.RewardScale)
	if err != nil {
		return math.Int{}, err
	}
	pending := accrued.Sub(g.DebtOf(holder))
	if pending.IsNegative() {
		return math.Int{}, types.ErrInvalidState.Wrapf("negative pending global reward for %s", holder)
	}
	return pending, nil
}

// updateGlobalWeight recomputes the holder's global weight as the
// paired-token value of their staked positions across every card pool and
// the secondary pool, then re-snapshots their global debt. Must run after
// the holder's pending global reward has been settled against the old
// weight.
func (k *Keeper) updateGlobalWeight(st *engineState, holder string) error {
	weight := math.ZeroInt()
	for asset, sc := range st.shares {
		claim, err := holderClaim(sc, st.pools[asset].StakedAsset, holder)
		if err != nil {
			return err
		}
		if claim.IsZero() {
			continue
		}
		pool := st.pools[asset]
		value, err := SafeMulDiv(claim, pool.PairedReserve, pool.AssetReserve)
		if err != nil {
			return err
		}
		weight = weight.Add(value)
	}

	claim, err := holderClaim(st.secondaryShares, st.secondary.StakedSecondary, holder)
	if err != nil {
		return err
	}
	if claim.IsPositive() && st.secondary.SecondaryReserve.IsPositive() {
		value, err := SafeMulDiv(claim, st.secondary.PairedReserve, st.secondary.SecondaryReserve)
		if err != nil {
			return err
		}
		weight = weight.Add(value)
	}

	g := st.global
	old := g.WeightOf(holder)
	g.TotalWeight = g.TotalWeight.Sub(old).Add(weight)
	if weight.IsZero() {
		delete(g.Weights, holder)
		delete(g.Debt, holder)
		return nil
	}
	g.Weights[holder] = weight
	debt, err := SafeMulDiv(weight, g.AccPerWeight, types.RewardScale)
	if err != nil {
		return err
	}
	g.Debt[holder] = debt
	return nil
}

// holderClaim converts a holder's shares into underlying staked units:
// shares * staked / totalShares, floored, zero when the class is empty
func holderClaim(sc *types.ShareClass, staked math.Int, holder string) (math.Int, error) {
	shares := sc.SharesOf(holder)
	if shares.IsZero() || sc.TotalShares.IsZero() || staked.IsZero() {
		return math.ZeroInt(), nil
	}
	return SafeMulDiv(shares, staked, sc.TotalShares)
}
