// Package fixedpoint implements the Q64.64 arithmetic the pool accounting runs on.
//
// Stored values (prices, liquidity, growth accumulators) are 128-bit unsigned
// integers. Every product is formed in 256 bits and every mul-div keeps a 512-bit
// intermediate, so rounding happens exactly once per call.
package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
)

const (
	// Resolution is the number of fractional bits in a Q64.64 value.
	Resolution = 64
	// FeeRateDenominator is the unit fee rates are expressed in (hundredths of a bip).
	FeeRateDenominator = 1_000_000
)

var (
	// Q64 = 2^64, the fixed-point one.
	Q64 = uint128.New(0, 1)

	u256Q64     = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution)
	u256FeeBase = uint256.NewInt(FeeRateDenominator)
	u256One     = uint256.NewInt(1)
)

// U256 widens a 128-bit value.
func U256(v uint128.Uint128) *uint256.Int {
	return &uint256.Int{v.Lo, v.Hi, 0, 0}
}

// ToU128 narrows a 256-bit value, failing with ErrMathOverflow when the high limbs are set.
func ToU128(v *uint256.Int) (uint128.Uint128, error) {
	if v[2] != 0 || v[3] != 0 {
		return uint128.Zero, fmt.Errorf("%s does not fit in 128 bits: %w", v.Dec(), common.ErrMathOverflow)
	}
	return uint128.New(v[0], v[1]), nil
}

// ToU64 narrows a 256-bit value to a token amount.
func ToU64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s does not fit in 64 bits: %w", v.Dec(), common.ErrMathOverflow)
	}
	return v.Uint64(), nil
}

// MulDivFloor returns floor(a*b/denom) with a 512-bit intermediate product.
func MulDivFloor(a, b, denom *uint256.Int) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, common.ErrDivideByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, denom)
	if overflow {
		return nil, common.ErrMathOverflow
	}
	return z, nil
}

// MulDivCeil returns ceil(a*b/denom) with a 512-bit intermediate product.
func MulDivCeil(a, b, denom *uint256.Int) (*uint256.Int, error) {
	z, err := MulDivFloor(a, b, denom)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).MulMod(a, b, denom).IsZero() {
		if _, carry := z.AddOverflow(z, u256One); carry {
			return nil, common.ErrMathOverflow
		}
	}
	return z, nil
}

// DivCeil returns ceil(a/b).
func DivCeil(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, common.ErrDivideByZero
	}
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(a, b, r)
	if !r.IsZero() {
		q.Add(q, u256One)
	}
	return q, nil
}

// MulDivFloor128 is MulDivFloor on stored values; the result must fit in 128 bits.
func MulDivFloor128(a, b, denom uint128.Uint128) (uint128.Uint128, error) {
	z, err := MulDivFloor(U256(a), U256(b), U256(denom))
	if err != nil {
		return uint128.Zero, err
	}
	return ToU128(z)
}

// MulDivCeil128 is MulDivCeil on stored values; the result must fit in 128 bits.
func MulDivCeil128(a, b, denom uint128.Uint128) (uint128.Uint128, error) {
	z, err := MulDivCeil(U256(a), U256(b), U256(denom))
	if err != nil {
		return uint128.Zero, err
	}
	return ToU128(z)
}

// MulDivFloor64 computes floor(a*b/denom) for token amounts.
func MulDivFloor64(a, b, denom uint64) (uint64, error) {
	z, err := MulDivFloor(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(denom))
	if err != nil {
		return 0, err
	}
	return ToU64(z)
}

// MulDivCeil64 computes ceil(a*b/denom) for token amounts.
func MulDivCeil64(a, b, denom uint64) (uint64, error) {
	z, err := MulDivCeil(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(denom))
	if err != nil {
		return 0, err
	}
	return ToU64(z)
}

// CheckedAdd128 adds two stored values, failing instead of wrapping.
func CheckedAdd128(a, b uint128.Uint128) (uint128.Uint128, error) {
	sum := a.AddWrap(b)
	if sum.Cmp(a) < 0 {
		return uint128.Zero, common.ErrMathOverflow
	}
	return sum, nil
}

// CheckedAdd64 adds two token amounts, failing instead of wrapping.
func CheckedAdd64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, common.ErrMathOverflow
	}
	return sum, nil
}

// GrowthDelta returns floor(growth * liquidity / Q64): the token amount accrued by
// liquidity over an accumulator increase of growth.
func GrowthDelta(growth, liquidity uint128.Uint128) (uint64, error) {
	if growth.IsZero() || liquidity.IsZero() {
		return 0, nil
	}
	z, err := MulDivFloor(U256(growth), U256(liquidity), u256Q64)
	if err != nil {
		return 0, err
	}
	return ToU64(z)
}

// GrowthPerLiquidity returns floor(amount * Q64 / liquidity), the accumulator
// increase that distributes amount over liquidity.
func GrowthPerLiquidity(amount uint64, liquidity uint128.Uint128) (uint128.Uint128, error) {
	z, err := MulDivFloor(uint256.NewInt(amount), u256Q64, U256(liquidity))
	if err != nil {
		return uint128.Zero, err
	}
	return ToU128(z)
}
