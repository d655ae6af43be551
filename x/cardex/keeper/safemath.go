package keeper

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

// Overflow-safe arithmetic helpers for reserve and share accounting. All
// amounts live in [0, 2^256); intermediate products may exceed that range and
// are computed in big.Int before range-checking the result.

var maxInt256 = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

// SafeAdd adds two math.Int values with overflow checking
func SafeAdd(a, b math.Int) (math.Int, error) {
	result := new(big.Int).Add(a.BigInt(), b.BigInt())
	if result.Cmp(maxInt256) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("addition result exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeSub subtracts b from a with underflow checking
func SafeSub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, types.ErrOverflow.Wrapf("underflow: cannot subtract %s from %s", b, a)
	}
	return math.NewIntFromBigInt(new(big.Int).Sub(a.BigInt(), b.BigInt())), nil
}

// SafeMulDiv performs floor((a * b) / c). The intermediate product is exact,
// so the only truncation is the final integer division. This is the workhorse
// of every proportional-share computation in the engine; truncation toward
// zero always favors the pool over the holder.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	result := new(big.Int).Quo(intermediate, c.BigInt())
	if result.Cmp(maxInt256) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("mul-div result exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// minInt returns the smaller of two math.Int values
func minInt(a, b math.Int) math.Int {
	if a.LT(b) {
		return a
	}
	return b
}
