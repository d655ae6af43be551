package types

import "cosmossdk.io/math"

const (
	// ModuleName defines the module name
	ModuleName = "cardex"

	// SecondaryPoolKey identifies the single secondary pool in views and events.
	SecondaryPoolKey = "secondary"

	// Event topics published on the notification bus
	EventTypeSwap            = "cardex_swap"
	EventTypeStake           = "cardex_stake"
	EventTypeUnstake         = "cardex_unstake"
	EventTypeSwapStake       = "cardex_swap_stake"
	EventTypeRewardClaimed   = "cardex_reward_claimed"
	EventTypeOwnershipChange = "cardex_ownership_change"
	EventTypeAssetRegistered = "cardex_asset_registered"

	// Event attribute keys
	AttributeKeyAsset     = "asset"
	AttributeKeyHolder    = "holder"
	AttributeKeyAmount    = "amount"
	AttributeKeyShares    = "shares"
	AttributeKeyTokenIn   = "token_in"
	AttributeKeyTokenOut  = "token_out"
	AttributeKeyAmountIn  = "amount_in"
	AttributeKeyAmountOut = "amount_out"
	AttributeKeyFee       = "fee"
	AttributeKeyOwner     = "owner"
	AttributeKeyPrevOwner = "previous_owner"
)

// RewardScale is the fixed-point scale for accumulated-reward-per-share
// counters. Accumulators store acc * 1e12; pending rewards divide it back out.
var RewardScale = math.NewInt(1_000_000_000_000)
