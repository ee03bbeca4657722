package fixedpoint

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
)

// GetDeltaAmount0 returns the token0 amount between two sqrt prices for the given
// liquidity: L * (sqrtB - sqrtA) * Q64 / (sqrtA * sqrtB).
func GetDeltaAmount0(sqrtA, sqrtB, liquidity uint128.Uint128, roundUp bool) (*uint256.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtA.IsZero() {
		return nil, common.ErrDivideByZero
	}
	numerator1 := new(uint256.Int).Lsh(U256(liquidity), Resolution)
	numerator2 := U256(sqrtB.Sub(sqrtA))

	if roundUp {
		t, err := MulDivCeil(numerator1, numerator2, U256(sqrtB))
		if err != nil {
			return nil, err
		}
		return DivCeil(t, U256(sqrtA))
	}
	t, err := MulDivFloor(numerator1, numerator2, U256(sqrtB))
	if err != nil {
		return nil, err
	}
	return t.Div(t, U256(sqrtA)), nil
}

// GetDeltaAmount1 returns the token1 amount between two sqrt prices for the given
// liquidity: L * (sqrtB - sqrtA) / Q64.
func GetDeltaAmount1(sqrtA, sqrtB, liquidity uint128.Uint128, roundUp bool) (*uint256.Int, error) {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := U256(sqrtB.Sub(sqrtA))
	if roundUp {
		return MulDivCeil(U256(liquidity), diff, u256Q64)
	}
	return MulDivFloor(U256(liquidity), diff, u256Q64)
}

// GetDeltaAmount0U64 is GetDeltaAmount0 narrowed to a token amount.
func GetDeltaAmount0U64(sqrtA, sqrtB, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	v, err := GetDeltaAmount0(sqrtA, sqrtB, liquidity, roundUp)
	if err != nil {
		return 0, err
	}
	return ToU64(v)
}

// GetDeltaAmount1U64 is GetDeltaAmount1 narrowed to a token amount.
func GetDeltaAmount1U64(sqrtA, sqrtB, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	v, err := GetDeltaAmount1(sqrtA, sqrtB, liquidity, roundUp)
	if err != nil {
		return 0, err
	}
	return ToU64(v)
}

// nextSqrtPriceFromAmount0RoundingUp moves the price by a token0 amount, rounding the
// result up so the pool never gives away more than it receives.
//
//	add:    L*Q64*sqrtP / (L*Q64 + amount*sqrtP)
//	remove: L*Q64*sqrtP / (L*Q64 - amount*sqrtP)
func nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity uint128.Uint128, amount uint64, add bool) (uint128.Uint128, error) {
	if amount == 0 {
		return sqrtPrice, nil
	}
	numerator1 := new(uint256.Int).Lsh(U256(liquidity), Resolution)
	product := new(uint256.Int).Mul(U256(sqrtPrice), uint256.NewInt(amount))

	var denominator *uint256.Int
	if add {
		denominator = new(uint256.Int).Add(numerator1, product)
	} else {
		if numerator1.Cmp(product) <= 0 {
			return uint128.Zero, common.ErrMathOverflow
		}
		denominator = new(uint256.Int).Sub(numerator1, product)
	}
	next, err := MulDivCeil(numerator1, U256(sqrtPrice), denominator)
	if err != nil {
		return uint128.Zero, err
	}
	return ToU128(next)
}

// nextSqrtPriceFromAmount1RoundingDown moves the price by a token1 amount, rounding the
// result down.
//
//	add:    sqrtP + amount*Q64/L
//	remove: sqrtP - ceil(amount*Q64/L)
func nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity uint128.Uint128, amount uint64, add bool) (uint128.Uint128, error) {
	if liquidity.IsZero() {
		return uint128.Zero, common.ErrDivideByZero
	}
	shifted := new(uint256.Int).Lsh(uint256.NewInt(amount), Resolution)
	if add {
		quotient := new(uint256.Int).Div(shifted, U256(liquidity))
		return ToU128(quotient.Add(quotient, U256(sqrtPrice)))
	}
	quotient, err := DivCeil(shifted, U256(liquidity))
	if err != nil {
		return uint128.Zero, err
	}
	current := U256(sqrtPrice)
	if current.Cmp(quotient) <= 0 {
		return uint128.Zero, common.ErrMathOverflow
	}
	return ToU128(current.Sub(current, quotient))
}

// NextSqrtPriceFromInput returns the price after adding amountIn of the input token.
func NextSqrtPriceFromInput(sqrtPrice, liquidity uint128.Uint128, amountIn uint64, zeroForOne bool) (uint128.Uint128, error) {
	if sqrtPrice.IsZero() || liquidity.IsZero() {
		return uint128.Zero, common.ErrInvalidSqrtPrice
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the price after removing amountOut of the output token.
func NextSqrtPriceFromOutput(sqrtPrice, liquidity uint128.Uint128, amountOut uint64, zeroForOne bool) (uint128.Uint128, error) {
	if sqrtPrice.IsZero() || liquidity.IsZero() {
		return uint128.Zero, common.ErrInvalidSqrtPrice
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amountOut, false)
}
