package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

func TestStakeBootstrapAndProportional(t *testing.T) {
	k, bank, bus := newTestKeeper(t)
	registerPool(t, k, "card1")

	minted, err := k.Stake("card1", alice, math.NewInt(100_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100_000), minted)
	require.Equal(t, math.NewInt(-100_000), bank.balanceOf(alice, "card1"))

	// staking adds to the pool's asset reserve
	_, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_100_000), asset)

	// no intervening swaps: second staker mints at the same 1:1 rate
	minted, err = k.Stake("card1", bob, math.NewInt(50_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(50_000), minted)

	shares, err := k.StakeOf("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100_000), shares)

	owner, err := k.OwnerOf("card1")
	require.NoError(t, err)
	require.Equal(t, alice, owner)

	stakes := bus.byTopic(types.EventTypeStake)
	require.Len(t, stakes, 2)
}

func TestUnstakeReleasesUnderlying(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	_, err := k.Stake("card1", alice, math.NewInt(100_000))
	require.NoError(t, err)

	released, err := k.Unstake("card1", alice, math.NewInt(40_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(40_000), released)
	require.Equal(t, math.NewInt(-60_000), bank.balanceOf(alice, "card1"))

	shares, err := k.StakeOf("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(60_000), shares)

	_, asset, err := k.GetReserves("card1")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_060_000), asset)
}

// Unstaking everything must zero the class so the next stake re-bootstraps
// 1:1 regardless of history.
func TestUnstakeAllThenRestake(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	_, err := k.Stake("card1", alice, math.NewInt(100_000))
	require.NoError(t, err)
	released, err := k.Unstake("card1", alice, math.NewInt(100_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(100_000), released)

	owner, err := k.OwnerOf("card1")
	require.NoError(t, err)
	require.Empty(t, owner)

	minted, err := k.Stake("card1", bob, math.NewInt(41))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(41), minted)
	require.NoError(t, k.CheckInvariants())
}

func TestStakeValidation(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	_, err := k.Stake("ghost", alice, math.NewInt(100))
	require.ErrorIs(t, err, types.ErrUnknownAsset)
	_, err = k.Stake("card1", "", math.NewInt(100))
	require.ErrorIs(t, err, types.ErrInvalidInput)
	_, err = k.Stake("card1", alice, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = k.Unstake("card1", alice, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrZeroShares)
	_, err = k.Unstake("card1", alice, math.NewInt(1))
	require.ErrorIs(t, err, types.ErrInsufficientShares)
	_, err = k.Unstake("ghost", alice, math.NewInt(1))
	require.ErrorIs(t, err, types.ErrUnknownAsset)
}

// Staking settles pending rewards first: the 300 accrued from the earlier
// swap is paid out as part of the deposit.
func TestStakeSettlesPendingRewards(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(500_000)))

	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	// staked dropped to 454,670: 10,000 underlying mints
	// floor(10,000 * 500,000 / 454,670) = 10,996 shares
	minted, err := k.Stake("card1", alice, math.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(10_996), minted)
	require.Equal(t, math.NewInt(300), bank.balanceOf(alice, pairedDenom))

	pending, err := k.PendingReward("card1", alice)
	require.NoError(t, err)
	require.True(t, pending.IsZero())
}

func TestClaimRewardNothingPending(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	registerPool(t, k, "card1")
	_, err := k.Stake("card1", alice, math.NewInt(100_000))
	require.NoError(t, err)

	paid, err := k.ClaimReward("card1", alice)
	require.NoError(t, err)
	require.True(t, paid.IsZero())
	require.Equal(t, math.ZeroInt(), bank.balanceOf(alice, pairedDenom))
}

// A refused reward mint aborts the stake: the deposit transfer is reverted
// and no shares exist.
func TestStakeAbortsOnSupplyCap(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(500_000)))
	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	bank.failMint = true
	_, err = k.Stake("card1", alice, math.NewInt(10_000))
	require.ErrorIs(t, err, types.ErrSupplyCapExceeded)

	require.Equal(t, math.ZeroInt(), bank.balanceOf(alice, "card1"))
	shares, err := k.StakeOf("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(500_000), shares)
}

// A failed release reverts the already-paid reward and commits nothing
func TestUnstakeAbortsOnTransferFailure(t *testing.T) {
	k, bank, _ := newTestKeeper(t)
	require.NoError(t, k.RegisterAsset("card1", alice,
		math.NewInt(1_000_000), math.NewInt(1_000_000), math.NewInt(500_000)))
	_, err := k.Swap(bob, pairedDenom, "card1", math.NewInt(100_000), math.ZeroInt())
	require.NoError(t, err)

	bank.failTransferOutToken = "card1"
	_, err = k.Unstake("card1", alice, math.NewInt(500_000))
	require.ErrorIs(t, err, types.ErrTransferFailed)

	require.Equal(t, math.ZeroInt(), bank.balanceOf(alice, pairedDenom))
	shares, err := k.StakeOf("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(500_000), shares)

	pending, err := k.PendingReward("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(250), pending)
}

// Two stakers split pool rewards by share count at deposit time
func TestRewardSplitAcrossStakers(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	registerPool(t, k, "card1")

	_, err := k.Stake("card1", alice, math.NewInt(300_000))
	require.NoError(t, err)
	_, err = k.Stake("card1", bob, math.NewInt(100_000))
	require.NoError(t, err)

	// 400,000 paired in: pool fee 1,000 split 3:1
	_, err = k.Swap(carol, pairedDenom, "card1", math.NewInt(400_000), math.ZeroInt())
	require.NoError(t, err)

	pendingAlice, err := k.PendingReward("card1", alice)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(750), pendingAlice)
	pendingBob, err := k.PendingReward("card1", bob)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(250), pendingBob)
}
