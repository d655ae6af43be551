package keeper

import (
	"fmt"

	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Invariant checks one structural property of the engine state, returning a
// description and whether the property is broken
type Invariant func(st *engineState) (string, bool)

// CheckInvariants runs every invariant against the committed state and
// returns the first violation found. Intended for tests and the simulation
// harness; a violation means a bug, not a recoverable condition.
func (k *Keeper) CheckInvariants() error {
	k.mu.Lock()
	st := k.state.clone()
	k.mu.Unlock()

	for name, inv := range k.invariants() {
		if msg, broken := inv(st); broken {
			if k.metrics != nil {
				k.metrics.InvariantViolations.WithLabelValues(name).Inc()
			}
			return types.ErrInvalidState.Wrapf("invariant %s: %s", name, msg)
		}
	}
	return nil
}

func (k *Keeper) invariants() map[string]Invariant {
	return map[string]Invariant{
		"staked-bounds":     stakedBoundsInvariant,
		"share-sums":        shareSumsInvariant,
		"positive-reserves": positiveReservesInvariant,
		"global-weight":     globalWeightInvariant,
	}
}

// stakedBoundsInvariant checks 0 <= staked <= reserve on every pool
func stakedBoundsInvariant(st *engineState) (string, bool) {
	for asset, pool := range st.pools {
		if pool.StakedAsset.IsNegative() || pool.StakedAsset.GT(pool.AssetReserve) {
			return fmt.Sprintf("pool %s: staked %s outside [0, reserve %s]",
				asset, pool.StakedAsset, pool.AssetReserve), true
		}
	}
	sp := st.secondary
	if sp.StakedSecondary.IsNegative() || sp.StakedSecondary.GT(sp.SecondaryReserve) {
		return fmt.Sprintf("secondary pool: staked %s outside [0, reserve %s]",
			sp.StakedSecondary, sp.SecondaryReserve), true
	}
	return "", false
}

// shareSumsInvariant checks sum(holders) == totalShares on every share class
func shareSumsInvariant(st *engineState) (string, bool) {
	check := func(sc *types.ShareClass) (string, bool) {
		sum := math.ZeroInt()
		for _, bal := range sc.Holders {
			if bal.IsNegative() {
				return fmt.Sprintf("class %s: negative holder balance %s", sc.Asset, bal), true
			}
			sum = sum.Add(bal)
		}
		if !sum.Equal(sc.TotalShares) {
			return fmt.Sprintf("class %s: holder sum %s != total shares %s",
				sc.Asset, sum, sc.TotalShares), true
		}
		return "", false
	}
	for _, sc := range st.shares {
		if msg, broken := check(sc); broken {
			return msg, true
		}
	}
	return check(st.secondaryShares)
}

// positiveReservesInvariant checks that no reserve or accumulator went
// negative
func positiveReservesInvariant(st *engineState) (string, bool) {
	for asset, pool := range st.pools {
		if pool.PairedReserve.IsNegative() || pool.AssetReserve.IsNegative() {
			return fmt.Sprintf("pool %s: negative reserve (%s, %s)",
				asset, pool.PairedReserve, pool.AssetReserve), true
		}
	}
	sp := st.secondary
	if sp.PairedReserve.IsNegative() || sp.SecondaryReserve.IsNegative() {
		return fmt.Sprintf("secondary pool: negative reserve (%s, %s)",
			sp.PairedReserve, sp.SecondaryReserve), true
	}
	for asset, rp := range st.rewards {
		if rp.AccPerShare.IsNegative() {
			return fmt.Sprintf("rewards %s: negative accumulator %s", asset, rp.AccPerShare), true
		}
	}
	if st.global.AccPerWeight.IsNegative() {
		return fmt.Sprintf("global rewards: negative accumulator %s", st.global.AccPerWeight), true
	}
	return "", false
}

// globalWeightInvariant checks sum(weights) == totalWeight
func globalWeightInvariant(st *engineState) (string, bool) {
	sum := math.ZeroInt()
	for holder, w := range st.global.Weights {
		if !w.IsPositive() {
			return fmt.Sprintf("global weight for %s is non-positive: %s", holder, w), true
		}
		sum = sum.Add(w)
	}
	if !sum.Equal(st.global.TotalWeight) {
		return fmt.Sprintf("global weight sum %s != total %s", sum, st.global.TotalWeight), true
	}
	return "", false
}
