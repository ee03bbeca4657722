package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
)

// SwapStep is the outcome of one price move inside a single liquidity range.
type SwapStep struct {
	SqrtPriceNextX64 uint128.Uint128
	AmountIn         uint64
	AmountOut        uint64
	FeeAmount        uint64
}

// ComputeSwapStep moves the price from current toward target with constant liquidity,
// consuming at most amountRemaining (input when isBaseInput, output otherwise).
//
// AmountIn excludes the fee. When the step stops short of target on an exact-input
// swap, the whole remainder not consumed as input is taken as fee.
func ComputeSwapStep(
	current, target, liquidity uint128.Uint128,
	amountRemaining uint64,
	feeRate uint32,
	isBaseInput, zeroForOne bool,
) (SwapStep, error) {
	if feeRate >= FeeRateDenominator {
		return SwapStep{}, fmt.Errorf("fee rate %d: %w", feeRate, common.ErrInvalidFeeRate)
	}
	if liquidity.IsZero() {
		return SwapStep{SqrtPriceNextX64: target}, nil
	}

	remaining := uint256.NewInt(amountRemaining)
	var (
		next      uint128.Uint128
		amountIn  *uint256.Int
		amountOut *uint256.Int
		err       error
	)

	if isBaseInput {
		lessFee, err := MulDivFloor(remaining, uint256.NewInt(uint64(FeeRateDenominator-feeRate)), u256FeeBase)
		if err != nil {
			return SwapStep{}, err
		}
		if zeroForOne {
			amountIn, err = GetDeltaAmount0(target, current, liquidity, true)
		} else {
			amountIn, err = GetDeltaAmount1(current, target, liquidity, true)
		}
		if err != nil {
			return SwapStep{}, err
		}
		if lessFee.Cmp(amountIn) >= 0 {
			next = target
		} else {
			next, err = NextSqrtPriceFromInput(current, liquidity, lessFee.Uint64(), zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		if zeroForOne {
			amountOut, err = GetDeltaAmount1(target, current, liquidity, false)
		} else {
			amountOut, err = GetDeltaAmount0(current, target, liquidity, false)
		}
		if err != nil {
			return SwapStep{}, err
		}
		if remaining.Cmp(amountOut) >= 0 {
			next = target
		} else {
			next, err = NextSqrtPriceFromOutput(current, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return SwapStep{}, err
			}
		}
	}

	reachedTarget := next.Equals(target)
	if zeroForOne {
		if !(reachedTarget && isBaseInput) {
			if amountIn, err = GetDeltaAmount0(next, current, liquidity, true); err != nil {
				return SwapStep{}, err
			}
		}
		if !(reachedTarget && !isBaseInput) {
			if amountOut, err = GetDeltaAmount1(next, current, liquidity, false); err != nil {
				return SwapStep{}, err
			}
		}
	} else {
		if !(reachedTarget && isBaseInput) {
			if amountIn, err = GetDeltaAmount1(current, next, liquidity, true); err != nil {
				return SwapStep{}, err
			}
		}
		if !(reachedTarget && !isBaseInput) {
			if amountOut, err = GetDeltaAmount0(current, next, liquidity, false); err != nil {
				return SwapStep{}, err
			}
		}
	}

	if !isBaseInput && amountOut.Cmp(remaining) > 0 {
		amountOut = remaining
	}

	var fee *uint256.Int
	if isBaseInput && !reachedTarget {
		if amountIn.Cmp(remaining) > 0 {
			return SwapStep{}, common.ErrMathOverflow
		}
		fee = new(uint256.Int).Sub(remaining, amountIn)
	} else {
		fee, err = MulDivCeil(amountIn, uint256.NewInt(uint64(feeRate)), uint256.NewInt(uint64(FeeRateDenominator-feeRate)))
		if err != nil {
			return SwapStep{}, err
		}
	}

	step := SwapStep{SqrtPriceNextX64: next}
	if step.AmountIn, err = ToU64(amountIn); err != nil {
		return SwapStep{}, err
	}
	if step.AmountOut, err = ToU64(amountOut); err != nil {
		return SwapStep{}, err
	}
	if step.FeeAmount, err = ToU64(fee); err != nil {
		return SwapStep{}, err
	}
	return step, nil
}
