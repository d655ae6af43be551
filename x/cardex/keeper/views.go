package keeper

import (
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Read views. All operate on the committed state under the state mutex and
// never mutate; the reentrancy guard does not apply to them.

// GetPrice returns the spot price of an asset in paired-token units,
// pairedReserve / assetReserve. The secondary denom resolves to the secondary
// pool's price.
func (k *Keeper) GetPrice(asset string) (math.LegacyDec, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	var paired, reserve math.Int
	if asset == k.params.SecondaryDenom {
		paired, reserve = k.state.secondary.PairedReserve, k.state.secondary.SecondaryReserve
	} else {
		p, ok := k.state.pools[asset]
		if !ok {
			return math.LegacyDec{}, types.ErrUnknownAsset.Wrapf("asset %s", asset)
		}
		paired, reserve = p.PairedReserve, p.AssetReserve
	}
	if reserve.IsZero() {
		return math.LegacyDec{}, types.ErrInsufficientLiquidity.Wrapf("asset %s has no reserve", asset)
	}
	return math.LegacyNewDecFromInt(paired).QuoInt(reserve), nil
}

// GetReserves returns a pool's paired and asset reserves
func (k *Keeper) GetReserves(asset string) (paired, assetReserve math.Int, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	p, ok := k.state.pools[asset]
	if !ok {
		return math.Int{}, math.Int{}, types.ErrUnknownAsset.Wrapf("asset %s", asset)
	}
	return p.PairedReserve, p.AssetReserve, nil
}

// GetSecondaryReserves returns the secondary pool's paired and secondary
// reserves. The paired side includes the virtual bootstrap liquidity.
func (k *Keeper) GetSecondaryReserves() (paired, secondary math.Int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state.secondary.PairedReserve, k.state.secondary.SecondaryReserve
}

// StakeOf returns the holder's share balance in an asset's share class. The
// secondary denom resolves to the secondary share class.
func (k *Keeper) StakeOf(asset, holder string) (math.Int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sc, _ := k.rewardPair(k.state, asset)
	if sc == nil {
		return math.Int{}, types.ErrUnknownAsset.Wrapf("asset %s", asset)
	}
	return sc.SharesOf(holder), nil
}

// PendingReward returns the holder's unpaid pool reward for an asset
func (k *Keeper) PendingReward(asset, holder string) (math.Int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sc, rp := k.rewardPair(k.state, asset)
	if sc == nil || rp == nil {
		return math.Int{}, types.ErrUnknownAsset.Wrapf("asset %s", asset)
	}
	return pendingPoolReward(sc, rp, holder)
}

// PendingGlobalReward returns the holder's unpaid cross-pool reward
func (k *Keeper) PendingGlobalReward(holder string) (math.Int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return pendingGlobalReward(k.state.global, holder)
}

// OwnerOf returns the asset's current top holder, or empty when nobody
// holds shares
func (k *Keeper) OwnerOf(asset string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sc, _ := k.rewardPair(k.state, asset)
	if sc == nil {
		return "", types.ErrUnknownAsset.Wrapf("asset %s", asset)
	}
	return sc.TopHolder, nil
}

// Assets returns the registered card asset identifiers in no particular order
func (k *Keeper) Assets() []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	assets := make([]string, 0, len(k.state.pools))
	for asset := range k.state.pools {
		assets = append(assets, asset)
	}
	return assets
}
