package keeper

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cardex-protocol/cardex/x/cardex/types"
)

func TestSafeAdd(t *testing.T) {
	sum, err := SafeAdd(math.NewInt(2), math.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(5), sum)

	huge := math.NewIntFromBigInt(new(big.Int).Sub(maxInt256, big.NewInt(1)))
	_, err = SafeAdd(huge, math.OneInt())
	require.ErrorIs(t, err, types.ErrOverflow)
}

func TestSafeSub(t *testing.T) {
	diff, err := SafeSub(math.NewInt(5), math.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(2), diff)

	_, err = SafeSub(math.NewInt(3), math.NewInt(5))
	require.ErrorIs(t, err, types.ErrOverflow)
}

func TestSafeMulDiv(t *testing.T) {
	tests := []struct {
		a, b, den, want int64
	}{
		{1_000_000, 2_000_000, 1_790_000, 1_117_318},
		{10, 10, 3, 33},
		{0, 5, 7, 0},
		{7, 7, 7, 7},
	}
	for _, tc := range tests {
		got, err := SafeMulDiv(math.NewInt(tc.a), math.NewInt(tc.b), math.NewInt(tc.den))
		require.NoError(t, err)
		require.Equal(t, math.NewInt(tc.want), got)
	}

	_, err := SafeMulDiv(math.NewInt(1), math.NewInt(1), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrOverflow)
}

// The intermediate product is exact: a*b/den never loses precision to a
// premature truncation even when a*b exceeds 64 bits.
func TestSafeMulDivExactIntermediate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := math.NewInt(rapid.Int64Range(1, 1<<62).Draw(rt, "a"))
		b := math.NewInt(rapid.Int64Range(1, 1<<62).Draw(rt, "b"))
		den := math.NewInt(rapid.Int64Range(1, 1<<62).Draw(rt, "den"))

		got, err := SafeMulDiv(a, b, den)
		require.NoError(t, err)

		// floor semantics: got*den <= a*b < (got+1)*den
		prod := a.Mul(b)
		require.True(t, got.Mul(den).LTE(prod))
		require.True(t, got.Add(math.OneInt()).Mul(den).GT(prod))
	})
}
