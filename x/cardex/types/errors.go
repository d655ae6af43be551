package types

import (
	"cosmossdk.io/errors"
)

// Cardex module sentinel errors
var (
	ErrUnknownAsset          = errors.Register(ModuleName, 1, "unknown asset")
	ErrInsufficientLiquidity = errors.Register(ModuleName, 2, "insufficient liquidity in pool")
	ErrBelowMinimumOutput    = errors.Register(ModuleName, 3, "output amount less than minimum required")
	ErrInsufficientShares    = errors.Register(ModuleName, 4, "insufficient shares")
	ErrZeroShares            = errors.Register(ModuleName, 5, "shares amount cannot be zero")
	ErrSameAsset             = errors.Register(ModuleName, 6, "source and destination asset are identical")
	ErrTransferFailed        = errors.Register(ModuleName, 7, "token transfer failed")
	ErrSupplyCapExceeded     = errors.Register(ModuleName, 8, "paired token supply cap exceeded")
	ErrReentrantCall         = errors.Register(ModuleName, 9, "reentrant call rejected")
	ErrInvalidInput          = errors.Register(ModuleName, 10, "invalid input")
	ErrInvalidState          = errors.Register(ModuleName, 11, "invalid pool state")
	ErrOverflow              = errors.Register(ModuleName, 12, "arithmetic overflow")
	ErrAssetAlreadyExists    = errors.Register(ModuleName, 13, "asset already registered")
)
