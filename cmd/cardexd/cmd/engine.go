package cmd

import (
	"errors"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	EventBus "github.com/asaskevich/EventBus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/cardex-protocol/cardex/x/cardex/keeper"
	"github.com/cardex-protocol/cardex/x/cardex/types"
)

var defaultAssets = []string{"card-ember", "card-frost", "card-gale"}

// simBank is the in-process token collaborator. Custody transfers always
// succeed; the paired-token mint enforces the configured maximum supply the
// way the production supply-policy contract does.
type simBank struct {
	logger log.Logger

	mu        sync.Mutex
	minted    math.Int
	maxSupply math.Int
}

func newSimBank(logger log.Logger, maxSupply math.Int) *simBank {
	return &simBank{
		logger:    logger.With("component", "simbank"),
		minted:    math.ZeroInt(),
		maxSupply: maxSupply,
	}
}

func (b *simBank) TransferIn(token, from string, amount math.Int) error {
	b.logger.Debug("transfer in", "token", token, "from", from, "amount", amount.String())
	return nil
}

func (b *simBank) TransferOut(token, to string, amount math.Int) error {
	b.logger.Debug("transfer out", "token", token, "to", to, "amount", amount.String())
	return nil
}

func (b *simBank) MintPaired(to string, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.minted.Add(amount)
	if next.GT(b.maxSupply) {
		return errors.New("maximum supply reached")
	}
	b.minted = next
	b.logger.Debug("mint", "to", to, "amount", amount.String(), "total_minted", next.String())
	return nil
}

func (b *simBank) BurnPaired(from string, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minted = b.minted.Sub(amount)
	b.logger.Debug("burn", "from", from, "amount", amount.String())
	return nil
}

// buildEngine constructs a fully wired engine from config: keeper, simulated
// bank, notification bus, metrics, and the seeded card pools.
func buildEngine(logger log.Logger) (*keeper.Keeper, EventBus.Bus, error) {
	params, err := engineParams()
	if err != nil {
		return nil, nil, err
	}

	k, err := keeper.NewKeeper(params, logger)
	if err != nil {
		return nil, nil, err
	}

	maxSupply := math.NewInt(viper.GetInt64("engine.max-supply"))
	if !maxSupply.IsPositive() {
		maxSupply = math.NewInt(1_000_000_000_000)
	}
	bank := newSimBank(logger, maxSupply)

	bus := EventBus.New()
	if err := k.Wire(bank, bus); err != nil {
		return nil, nil, err
	}
	k.SetMetrics(keeper.NewMetrics())

	for _, asset := range seedAssets() {
		err := k.RegisterAsset(asset, "genesis",
			seedAmount("engine.initial-asset-reserve", 10_000_000),
			seedAmount("engine.initial-paired-reserve", 10_000_000),
			seedAmount("engine.auto-stake", 1_000_000),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("seed asset %s: %w", asset, err)
		}
	}
	return k, bus, nil
}

func seedAssets() []string {
	if raw := viper.Get("engine.assets"); raw != nil {
		if assets, err := cast.ToStringSliceE(raw); err == nil && len(assets) > 0 {
			return assets
		}
	}
	return defaultAssets
}

func seedAmount(key string, fallback int64) math.Int {
	if viper.IsSet(key) {
		if v, err := cast.ToInt64E(viper.Get(key)); err == nil && v >= 0 {
			return math.NewInt(v)
		}
	}
	return math.NewInt(fallback)
}

// subscribeCounters attaches per-topic counters to the bus and returns the
// live counter map keyed by topic
func subscribeCounters(bus EventBus.Bus) (map[string]*int, error) {
	topics := []string{
		types.EventTypeSwap,
		types.EventTypeStake,
		types.EventTypeUnstake,
		types.EventTypeSwapStake,
		types.EventTypeRewardClaimed,
		types.EventTypeOwnershipChange,
	}
	counters := make(map[string]*int, len(topics))
	for _, topic := range topics {
		n := new(int)
		counters[topic] = n
		if err := bus.Subscribe(topic, func(interface{}) { *n++ }); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return counters, nil
}
