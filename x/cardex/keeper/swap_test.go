package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Pool 1,000,000/1,000,000, amountIn 100,000: fee splits 250 pool + 50
// global, net 99,700, out = floor(99,700 * 1,000,000 / 1,099,700) = 90,661.
func TestSwapBuyAsset(t *testing.T) {
	k, bank, bus := newTestKeeper(t)
	registerPool(t, k, "card1")

	out, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(90_661), out)

	paired, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_099_700), paired)
	require.Equal(t, math.NewInt(909_339), asset)

	require.Equal(t, math.NewInt(-100_000), bank.balanceOf(bob, pairedDenom))
	require.Equal(t, math.NewInt(90_661), bank.balanceOf(bob, "card1"))

	events := bus.byTopic(types.EventTypeSwap)
	require.Len(t, events, 1)
	evt, ok := events[0].payload.(types.SwapEvent)
	require.True(t, ok)
	require.Equal(t, bob, evt.Trader)
	require.Equal(t, math.NewInt(90_661), evt.AmountOut)
	require.Equal(t, math.NewInt(300), evt.Fee)
}

func TestSwapSellAsset(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	out, err := k.Swap(bob, "card1", pairedDenom, math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(90_661), out)

	paired, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(909_339), paired)
	require.Equal(t, math.NewInt(1_099_700), asset)

	require.Equal(t, math.NewInt(90_661), bank.balanceOf(bob, pairedDenom))
	require.Equal(t, math.NewInt(-100_000), bank.balanceOf(bob, "card1"))
}

// Card-to-card routes through the paired token with a fee on each hop:
// hop 1 yields 90,661 paired, hop 2 nets 90,390 after fees and yields
// floor(90,390 * 1,000,000 / 1,090,390) = 82,896.
func TestSwapCardToCard(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")
	registerPool(t, k, "card2")

	out, err := k.Swap(bob, "card1", "card2", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(82_896), out)

	require.Equal(t, math.NewInt(-100_000), bank.balanceOf(bob, "card1"))
	require.Equal(t, math.NewInt(82_896), bank.balanceOf(bob, "card2"))
	require.Equal(t, math.ZeroInt(), bank.balanceOf(bob, pairedDenom))

	// hop 1 removed 90,661 paired from card1, hop 2 added 90,390 net
	paired1, _, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(909_339), paired1)
	paired2, asset2, err := k.GetReserves("card2")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_090_390), paired2)
	require.Equal(t, math.NewInt(917_104), asset2)
}

func TestSwapSlippageBound(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.NewInt(90_662))
	require.ErrorIs(t, err, types.ErrBelowMinimumOutput)

	// nothing committed, nothing moved
	paired, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000_000), paired)
	require.Equal(t, math.NewInt(1_000_000), asset)
	require.Equal(t, math.ZeroInt(), bank.balanceOf(bob, pairedDenom))

	// exact bound passes
	out, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.NewInt(90_661))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(90_661), out)
}

func TestSwapValidation(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	tests := []struct {
		name     string
		trader   string
		tokenIn  string
		tokenOut string
		amountIn math.Int
		wantErr  error
	}{
		{"same token", bob, "card1", "card1", math.NewInt(1000), types.ErrSameAsset},
		{"unknown token in", bob, "ghost", "card1", math.NewInt(1000), types.ErrUnknownAsset},
		{"unknown token out", bob, pairedDenom, "ghost", math.NewInt(1000), types.ErrUnknownAsset},
		{"zero amount", bob, pairedDenom, "card1", math.ZeroInt(), types.ErrInvalidInput},
		{"negative amount", bob, pairedDenom, "card1", math.NewInt(-5), types.ErrInvalidInput},
		{"empty trader", "", pairedDenom, "card1", math.NewInt(1000), types.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := k.Swap(tc.trader, tc.tokenIn, tc.tokenOut, tc.amountIn, math.ZeroInt())
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSwapDustAmountRejected(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	// 1 unit nets to zero output after flooring
	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(1), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestSimulateSwapDoesNotMutate(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	quote, err := k.SimulateSwap(pairedDenom, "card1", math.NewInt(100_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(90_661), quote)

	paired, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000_000), paired)
	require.Equal(t, math.NewInt(1_000_000), asset)
	require.Equal(t, math.ZeroInt(), bank.balanceOf(bob, pairedDenom))

	// the quote matches the executed amount
	out, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, quote, out)
}

// A buy shrinks the staked portion proportionally: out 90,661 against staked
// 500,000 of 1,000,000 reduces staked by floor(45,330.5) = 45,330. The
// staked amount is observable through a full unstake.
func TestSwapStakedTrackingOnBuy(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(500_000)))

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	released, err := k.Unstake("card1", alice, math.NewInt(500_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(454_670), released)
}

// A sell grows the staked portion: net 99,700 against staked 500,000 of
// 1,000,000 adds floor(49,850) = 49,850.
func TestSwapStakedTrackingOnSell(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(500_000)))

	_, err := k.Swap(bob, "card1", pairedDenom, math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	released, err := k.Unstake("card1", alice, math.NewInt(500_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(549_850), released)
}

// Fully staked pool: the proportional reduction equals the full output and
// staked tracks the reserve exactly, never dipping negative.
func TestSwapFullyStakedPool(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(1_000_000)))

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)
	require.NoError(t, k.CheckInvariants())

	released, err := k.Unstake("card1", alice, math.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(909_339), released)
}

// Swap fees accrue to the staker accumulators: a 100,000 buy deposits 250 to
// the pool accumulator and 50 to the global one, all claimable by the sole
// staker.
func TestSwapFeeAccrual(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(500_000)))

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	pending, err := k.PendingReward("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(250), pending)

	pendingGlobal, err := k.PendingGlobalReward(alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(50), pendingGlobal)

	paid, err := k.ClaimReward("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(300), paid)
	require.Equal(t, math.NewInt(300), bank.balanceOf(alice, pairedDenom))

	// settled: nothing pending anymore
	pending, err = k.PendingReward("card1", alice)
	require.NoError(t, err)
	require.True(t, pending.IsZero())
	pendingGlobal, err = k.PendingGlobalReward(alice)
	require.NoError(t, err)
	require.True(t, pendingGlobal.IsZero())
}

// Fees on a pool with no stakers are forfeited, not queued
func TestSwapFeeForfeitedWithoutStakers(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	_, err = k.Stake("card1", alice, math.NewInt(10_000))
	require.NoError(t, err)

	pending, err := k.PendingReward("card1", alice)
	require.NoError(t, err)
	require.True(t, pending.IsZero())
}

func TestSwapTransferFailureLeavesStateUntouched(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")
	bank.failTransferOutToken = "card1"

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrTransferFailed)

	// input transfer was reverted and no state committed
	require.Equal(t, math.ZeroInt(), bank.balanceOf(bob, pairedDenom))
	paired, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000_000), paired)
	require.Equal(t, math.NewInt(1_000_000), asset)
}

func TestGetPrice(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", "",
		math.NewInt(2_000_000), math.NewInt(1_000_000), math.ZeroInt()))

	price, err := k.GetPrice("card1")
	require.NoError(t, err)
	require.Equal(t, math.LegacyNewDecWithPrec(5, 1), price)

	_, err = k.GetPrice("ghost")
	require.ErrorIs(t, err, types.ErrUnknownAsset)
}
