package fixedpoint

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
)

// LiquidityInt converts stored liquidity to a signed delta.
func LiquidityInt(v uint128.Uint128) sdkmath.Int {
	return sdkmath.NewIntFromBigInt(v.Big())
}

// NegLiquidityInt converts stored liquidity to a negative signed delta.
func NegLiquidityInt(v uint128.Uint128) sdkmath.Int {
	return LiquidityInt(v).Neg()
}

// AbsLiquidity returns |delta| as stored liquidity.
func AbsLiquidity(delta sdkmath.Int) (uint128.Uint128, error) {
	if delta.IsNil() || delta.IsZero() {
		return uint128.Zero, nil
	}
	abs := delta.Abs().BigInt()
	if abs.BitLen() > 128 {
		return uint128.Zero, fmt.Errorf("|%s| exceeds 128 bits: %w", delta, common.ErrLiquidityOverflow)
	}
	return uint128.FromBig(abs), nil
}

// AddDelta applies a signed liquidity delta to an unsigned liquidity value.
func AddDelta(x uint128.Uint128, delta sdkmath.Int) (uint128.Uint128, error) {
	if delta.IsNil() || delta.IsZero() {
		return x, nil
	}
	abs, err := AbsLiquidity(delta)
	if err != nil {
		return uint128.Zero, err
	}
	if delta.IsNegative() {
		if abs.Cmp(x) > 0 {
			return uint128.Zero, fmt.Errorf("%s - %s: %w", x, abs, common.ErrLiquidityUnderflow)
		}
		return x.Sub(abs), nil
	}
	sum := x.AddWrap(abs)
	if sum.Cmp(x) < 0 {
		return uint128.Zero, fmt.Errorf("%s + %s: %w", x, abs, common.ErrLiquidityOverflow)
	}
	return sum, nil
}

// ZeroLiquidity is the neutral signed delta.
func ZeroLiquidity() sdkmath.Int {
	return sdkmath.ZeroInt()
}

// NormalizeLiquidity maps the zero value of sdkmath.Int (nil) to zero.
func NormalizeLiquidity(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

// ParseLiquidityDelta parses a base-10 signed liquidity value.
func ParseLiquidityDelta(s string) (sdkmath.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid liquidity %q", s)
	}
	if v.BitLen() > 128 {
		return sdkmath.Int{}, fmt.Errorf("liquidity %q: %w", s, common.ErrLiquidityOverflow)
	}
	return sdkmath.NewIntFromBigInt(v), nil
}
