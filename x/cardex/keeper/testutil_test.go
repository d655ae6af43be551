package keeper_test

import (
	"errors"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/cardex-protocol/cardex/x/cardex/keeper"
	"github.com/cardex-protocol/cardex/x/cardex/types"
)

const (
	pairedDenom    = "ucrd"
	secondaryDenom = "uext"

	alice = "alice"
	bob   = "bob"
	carol = "carol"
)

// mockBank tracks net external balance deltas per holder and token. Engine
// custody is implicit: TransferIn debits the holder, TransferOut credits,
// mint and burn adjust the paired balance.
type mockBank struct {
	mu       sync.Mutex
	balances map[string]map[string]math.Int

	failTransferIn bool
	failMint       bool
	// failTransferOutToken fails TransferOut for this token only
	failTransferOutToken string

	// onTransferIn simulates a token hook firing during custody transfer
	onTransferIn func(token, from string, amount math.Int) error
}

func newMockBank() *mockBank {
	return &mockBank{balances: make(map[string]map[string]math.Int)}
}

func (b *mockBank) adjust(holder, token string, delta math.Int) {
	if b.balances[holder] == nil {
		b.balances[holder] = make(map[string]math.Int)
	}
	cur, ok := b.balances[holder][token]
	if !ok {
		cur = math.ZeroInt()
	}
	b.balances[holder][token] = cur.Add(delta)
}

// balanceOf returns the holder's net external delta for a token since the
// bank was created
func (b *mockBank) balanceOf(holder, token string) math.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[holder][token]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (b *mockBank) TransferIn(token, from string, amount math.Int) error {
	if b.onTransferIn != nil {
		if err := b.onTransferIn(token, from, amount); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failTransferIn {
		return errors.New("insufficient balance")
	}
	b.adjust(from, token, amount.Neg())
	return nil
}

func (b *mockBank) TransferOut(token, to string, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failTransferOutToken == token {
		return errors.New("custody transfer refused")
	}
	b.adjust(to, token, amount)
	return nil
}

func (b *mockBank) MintPaired(to string, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failMint {
		return errors.New("maximum supply reached")
	}
	b.adjust(to, pairedDenom, amount)
	return nil
}

func (b *mockBank) BurnPaired(from string, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adjust(from, pairedDenom, amount.Neg())
	return nil
}

// recordingBus captures published notifications for assertions
type recordingBus struct {
	mu     sync.Mutex
	events []busEvent
}

type busEvent struct {
	topic   string
	payload interface{}
}

func (r *recordingBus) Publish(topic string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range args {
		r.events = append(r.events, busEvent{topic: topic, payload: a})
	}
}

func (r *recordingBus) byTopic(topic string) []busEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []busEvent
	for _, e := range r.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func newTestKeeper(t *testing.T) (*keeper.Keeper, *mockBank, *recordingBus) {
	t.Helper()
	k, err := keeper.NewKeeper(types.DefaultParams(), log.NewNopLogger())
	require.NoError(t, err)
	bank := newMockBank()
	bus := &recordingBus{}
	require.NoError(t, k.Wire(bank, bus))
	return k, bank, bus
}

// registerPool registers a card asset with equal million-unit reserves and no
// auto-stake
func registerPool(t *testing.T, k *keeper.Keeper, asset string) {
	t.Helper()
	require.NoError(t, k.RegisterAsset(asset, "",
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.ZeroInt()))
}
