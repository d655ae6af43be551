package keeper

import (
	"sync"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// engineState is the full mutable state of the engine. Mutating operations
// work on a deep copy and commit it back only on success, so a failed
// operation never leaves partial writes behind.
type engineState struct {
	pools   map[string]*types.Pool
	shares  map[string]*types.ShareClass
	rewards map[string]*types.RewardPool
	global  *types.GlobalRewardPool

	secondary        *types.SecondaryPool
	secondaryShares  *types.ShareClass
	secondaryRewards *types.RewardPool
}

func newEngineState(params types.Params) *engineState {
	return &engineState{
		pools:   make(map[string]*types.Pool),
		shares:  make(map[string]*types.ShareClass),
		rewards: make(map[string]*types.RewardPool),
		global:  types.NewGlobalRewardPool(),
		secondary: &types.SecondaryPool{
			PairedReserve:    math.ZeroInt(),
			SecondaryReserve: math.ZeroInt(),
			StakedSecondary:  math.ZeroInt(),
		},
		secondaryShares:  types.NewShareClass(params.SecondaryDenom),
		secondaryRewards: types.NewRewardPool(params.SecondaryDenom),
	}
}

func (s *engineState) clone() *engineState {
	pools := make(map[string]*types.Pool, len(s.pools))
	for a, p := range s.pools {
		pools[a] = p.Clone()
	}
	shares := make(map[string]*types.ShareClass, len(s.shares))
	for a, sc := range s.shares {
		shares[a] = sc.Clone()
	}
	rewards := make(map[string]*types.RewardPool, len(s.rewards))
	for a, r := range s.rewards {
		rewards[a] = r.Clone()
	}
	return &engineState{
		pools:            pools,
		shares:           shares,
		rewards:          rewards,
		global:           s.global.Clone(),
		secondary:        s.secondary.Clone(),
		secondaryShares:  s.secondaryShares.Clone(),
		secondaryRewards: s.secondaryRewards.Clone(),
	}
}

// Keeper is the sole writer of all pool, share, and accumulator state.
type Keeper struct {
	mu     sync.Mutex
	state  *engineState
	params types.Params
	logger log.Logger

	// wired after construction, before first use
	bank types.BankKeeper
	bus  types.EventPublisher

	metrics *Metrics

	guardMu sync.Mutex
	locks   map[string]string
}

// NewKeeper creates a new cardex Keeper instance. The bank collaborator is
// attached afterwards through Wire; this two-phase construction resolves the
// circular reference between the engine and collaborators that need its
// identity.
func NewKeeper(params types.Params, logger log.Logger) (*Keeper, error) {
	if err := params.Validate(); err != nil {
		return nil, types.ErrInvalidInput.Wrapf("invalid params: %v", err)
	}
	return &Keeper{
		state:  newEngineState(params),
		params: params,
		logger: logger.With("module", types.ModuleName),
		locks:  make(map[string]string),
	}, nil
}

// Wire attaches the external collaborators. Must be called exactly once
// before the first operation. The bus may be nil; notifications are then
// dropped.
func (k *Keeper) Wire(bank types.BankKeeper, bus types.EventPublisher) error {
	if bank == nil {
		return types.ErrInvalidInput.Wrap("bank keeper cannot be nil")
	}
	if k.bank != nil {
		return types.ErrInvalidState.Wrap("keeper already wired")
	}
	k.bank = bank
	k.bus = bus
	return nil
}

// SetMetrics attaches a Prometheus metrics set. Optional; nil disables
// instrumentation.
func (k *Keeper) SetMetrics(m *Metrics) {
	k.metrics = m
}

// GetParams returns the module parameters
func (k *Keeper) GetParams() types.Params {
	return k.params
}

// RegisterAsset creates the pool, share class, and accumulator for a new
// card asset. The asset reserve is the permanent base liquidity; the paired
// reserve establishes the initial price. When autoStake is positive that
// portion of the asset reserve is staked 1:1 to creator, who becomes the
// initial top holder.
//
// This is invoked by the external pool-creation router, which also performs
// the corresponding token custody transfers.
func (k *Keeper) RegisterAsset(asset, creator string, assetReserve, pairedReserve, autoStake math.Int) error {
	if asset == "" || asset == k.params.PairedDenom || asset == k.params.SecondaryDenom {
		return types.ErrInvalidInput.Wrapf("asset identifier %q is reserved or empty", asset)
	}
	if assetReserve.IsNil() || !assetReserve.IsPositive() {
		return types.ErrInvalidInput.Wrap("initial asset reserve must be positive")
	}
	if pairedReserve.IsNil() || !pairedReserve.IsPositive() {
		return types.ErrInvalidInput.Wrap("initial paired reserve must be positive")
	}
	if autoStake.IsNil() || autoStake.IsNegative() {
		return types.ErrInvalidInput.Wrap("auto-stake amount cannot be negative")
	}
	if autoStake.GT(assetReserve) {
		return types.ErrInvalidInput.Wrapf(
			"auto-stake %s exceeds initial asset reserve %s", autoStake, assetReserve)
	}
	if autoStake.IsPositive() && creator == "" {
		return types.ErrInvalidInput.Wrap("auto-stake requires a creator account")
	}

	done, err := k.acquireLocks("register", asset)
	if err != nil {
		return err
	}
	defer done()

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.state.pools[asset]; ok {
		return types.ErrAssetAlreadyExists.Wrapf("asset %s", asset)
	}

	st := k.state.clone()
	pool := &types.Pool{
		Asset:         asset,
		PairedReserve: pairedReserve,
		AssetReserve:  assetReserve,
		StakedAsset:   math.ZeroInt(),
	}
	sc := types.NewShareClass(asset)
	rp := types.NewRewardPool(asset)
	st.pools[asset] = pool
	st.shares[asset] = sc
	st.rewards[asset] = rp

	if autoStake.IsPositive() {
		// 1:1 bootstrap mint into the fresh share class
		pool.StakedAsset = autoStake
		sc.TotalShares = autoStake
		sc.Holders[creator] = autoStake
		sc.TopHolder = creator
		rp.Debt[creator] = math.ZeroInt()
		if err := k.updateGlobalWeight(st, creator); err != nil {
			return err
		}
	}

	k.state = st

	k.logger.Info("asset registered",
		"asset", asset,
		"asset_reserve", assetReserve.String(),
		"paired_reserve", pairedReserve.String(),
		"auto_staked", autoStake.String(),
	)
	k.emit(types.EventTypeAssetRegistered, types.AssetRegisteredEvent{
		Asset:         asset,
		AssetReserve:  assetReserve,
		PairedReserve: pairedReserve,
		AutoStaked:    autoStake,
	})
	if k.metrics != nil {
		k.metrics.AssetsRegistered.Inc()
	}
	return nil
}

// pool returns the registered pool triple for an asset on the given state
func (k *Keeper) pool(st *engineState, asset string) (*types.Pool, *types.ShareClass, *types.RewardPool, error) {
	p, ok := st.pools[asset]
	if !ok {
		return nil, nil, nil, types.ErrUnknownAsset.Wrapf("asset %s", asset)
	}
	return p, st.shares[asset], st.rewards[asset], nil
}

// emit publishes a notification, dropping it when no bus is wired
func (k *Keeper) emit(topic string, payload interface{}) {
	if k.bus == nil {
		return
	}
	k.bus.Publish(topic, payload)
}
