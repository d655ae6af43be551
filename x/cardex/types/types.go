package types

import (
	"cosmossdk.io/math"
)

// Pool is the per-asset reserve state. PairedReserve and AssetReserve follow
// the constant-product invariant across swaps; StakedAsset is the sub-portion
// of AssetReserve currently backing outstanding shares.
//
// Invariant: 0 <= StakedAsset <= AssetReserve. The unstaked remainder is the
// permanent base liquidity contributed at registration and is never directly
// withdrawable.
type Pool struct {
	Asset         string
	PairedReserve math.Int
	AssetReserve  math.Int
	StakedAsset   math.Int
}

// Clone returns a deep copy of the pool
func (p *Pool) Clone() *Pool {
	c := *p
	return &c
}

// Validate checks the pool's structural invariants
func (p *Pool) Validate() error {
	if p.Asset == "" {
		return ErrInvalidState.Wrap("pool asset cannot be empty")
	}
	if p.PairedReserve.IsNil() || p.AssetReserve.IsNil() || p.StakedAsset.IsNil() {
		return ErrInvalidState.Wrapf("pool %s has nil reserves", p.Asset)
	}
	if p.PairedReserve.IsNegative() || p.AssetReserve.IsNegative() {
		return ErrInvalidState.Wrapf("pool %s has negative reserves", p.Asset)
	}
	if p.StakedAsset.IsNegative() {
		return ErrInvalidState.Wrapf("pool %s has negative staked reserve", p.Asset)
	}
	if p.StakedAsset.GT(p.AssetReserve) {
		return ErrInvalidState.Wrapf(
			"pool %s staked reserve %s exceeds asset reserve %s",
			p.Asset, p.StakedAsset, p.AssetReserve,
		)
	}
	return nil
}

// SecondaryPool pairs the protocol token against a single external asset.
// PairedReserve is seeded with virtual liquidity the first time
// SecondaryReserve becomes positive while PairedReserve is zero.
type SecondaryPool struct {
	PairedReserve    math.Int
	SecondaryReserve math.Int
	StakedSecondary  math.Int
	Bootstrapped     bool
}

// Clone returns a deep copy of the secondary pool
func (p *SecondaryPool) Clone() *SecondaryPool {
	c := *p
	return &c
}

// ShareClass tracks minted shares per holder for one pool, the total
// outstanding, and the cached top holder (ownership pointer).
//
// Invariant: sum(Holders) == TotalShares. A holder's underlying claim is
// computed from the pool's staked reserve, never stored.
type ShareClass struct {
	Asset       string
	TotalShares math.Int
	Holders     map[string]math.Int
	TopHolder   string
}

// NewShareClass creates an empty share class for an asset
func NewShareClass(asset string) *ShareClass {
	return &ShareClass{
		Asset:       asset,
		TotalShares: math.ZeroInt(),
		Holders:     make(map[string]math.Int),
	}
}

// SharesOf returns the holder's share balance, zero if absent
func (s *ShareClass) SharesOf(holder string) math.Int {
	if bal, ok := s.Holders[holder]; ok {
		return bal
	}
	return math.ZeroInt()
}

// Clone returns a deep copy of the share class
func (s *ShareClass) Clone() *ShareClass {
	holders := make(map[string]math.Int, len(s.Holders))
	for h, bal := range s.Holders {
		holders[h] = bal
	}
	return &ShareClass{
		Asset:       s.Asset,
		TotalShares: s.TotalShares,
		Holders:     holders,
		TopHolder:   s.TopHolder,
	}
}

// RewardPool is a MasterChef-style accumulator for one share class.
// AccPerShare is scaled by RewardScale; Debt holds per-holder snapshots of
// shares * AccPerShare / RewardScale taken at last settlement.
type RewardPool struct {
	Asset       string
	AccPerShare math.Int
	Debt        map[string]math.Int
}

// NewRewardPool creates an empty accumulator for an asset
func NewRewardPool(asset string) *RewardPool {
	return &RewardPool{
		Asset:       asset,
		AccPerShare: math.ZeroInt(),
		Debt:        make(map[string]math.Int),
	}
}

// DebtOf returns the holder's reward debt, zero if absent
func (r *RewardPool) DebtOf(holder string) math.Int {
	if d, ok := r.Debt[holder]; ok {
		return d
	}
	return math.ZeroInt()
}

// Clone returns a deep copy of the reward pool
func (r *RewardPool) Clone() *RewardPool {
	debt := make(map[string]math.Int, len(r.Debt))
	for h, d := range r.Debt {
		debt[h] = d
	}
	return &RewardPool{
		Asset:       r.Asset,
		AccPerShare: r.AccPerShare,
		Debt:        debt,
	}
}

// GlobalRewardPool spans every asset pool and the secondary pool. Holders are
// weighted by the paired-token value of their staked positions, recomputed
// whenever a holder's shares change.
type GlobalRewardPool struct {
	AccPerWeight math.Int
	TotalWeight  math.Int
	Weights      map[string]math.Int
	Debt         map[string]math.Int
}

// NewGlobalRewardPool creates an empty global accumulator
func NewGlobalRewardPool() *GlobalRewardPool {
	return &GlobalRewardPool{
		AccPerWeight: math.ZeroInt(),
		TotalWeight:  math.ZeroInt(),
		Weights:      make(map[string]math.Int),
		Debt:         make(map[string]math.Int),
	}
}

// WeightOf returns the holder's global weight, zero if absent
func (g *GlobalRewardPool) WeightOf(holder string) math.Int {
	if w, ok := g.Weights[holder]; ok {
		return w
	}
	return math.ZeroInt()
}

// DebtOf returns the holder's global reward debt, zero if absent
func (g *GlobalRewardPool) DebtOf(holder string) math.Int {
	if d, ok := g.Debt[holder]; ok {
		return d
	}
	return math.ZeroInt()
}

// Clone returns a deep copy of the global reward pool
func (g *GlobalRewardPool) Clone() *GlobalRewardPool {
	weights := make(map[string]math.Int, len(g.Weights))
	for h, w := range g.Weights {
		weights[h] = w
	}
	debt := make(map[string]math.Int, len(g.Debt))
	for h, d := range g.Debt {
		debt[h] = d
	}
	return &GlobalRewardPool{
		AccPerWeight: g.AccPerWeight,
		TotalWeight:  g.TotalWeight,
		Weights:      weights,
		Debt:         debt,
	}
}
