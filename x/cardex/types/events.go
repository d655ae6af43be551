package types

import (
	"cosmossdk.io/math"
)

// Event payloads published on the notification bus, one struct per topic.

// SwapEvent reports a completed swap, including internal swap-stake hops.
type SwapEvent struct {
	Trader    string
	TokenIn   string
	TokenOut  string
	AmountIn  math.Int
	AmountOut math.Int
	Fee       math.Int
}

// StakeEvent reports shares minted for a deposit
type StakeEvent struct {
	Asset  string
	Holder string
	Amount math.Int
	Shares math.Int
}

// UnstakeEvent reports shares burned and underlying released
type UnstakeEvent struct {
	Asset    string
	Holder   string
	Shares   math.Int
	Released math.Int
}

// SwapStakeEvent reports an atomic cross-pool reallocation
type SwapStakeEvent struct {
	FromAsset    string
	ToAsset      string
	Holder       string
	SharesBurned math.Int
	SharesMinted math.Int
	AmountMoved  math.Int
}

// RewardClaimedEvent reports a reward payout
type RewardClaimedEvent struct {
	Asset  string
	Holder string
	Amount math.Int
	Global bool
}

// OwnershipChangeEvent reports a top-holder transition for an asset.
// NewOwner is empty when the share class drained to zero.
type OwnershipChangeEvent struct {
	Asset         string
	PreviousOwner string
	NewOwner      string
}

// AssetRegisteredEvent reports a newly created pool
type AssetRegisteredEvent struct {
	Asset         string
	AssetReserve  math.Int
	PairedReserve math.Int
	AutoStaked    math.Int
}
