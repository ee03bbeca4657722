// Package liquidity adds and removes position liquidity over tick ranges.
package liquidity

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/position"
	"github.com/hxuan190/clmm-core/internal/services/rewards"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

// ValidateRange checks lower < upper, both aligned to spacing and within tick bounds.
func ValidateRange(lower, upper int32, spacing uint16) error {
	if lower >= upper {
		return fmt.Errorf("[%d, %d): %w", lower, upper, common.ErrInvalidRange)
	}
	if err := ticks.CheckTick(lower, spacing); err != nil {
		return fmt.Errorf("lower: %w: %w", common.ErrInvalidRange, err)
	}
	if err := ticks.CheckTick(upper, spacing); err != nil {
		return fmt.Errorf("upper: %w: %w", common.ErrInvalidRange, err)
	}
	return nil
}

// Result is the outcome of Modify. For deposits the amounts are owed to the pool
// (rounded up); for withdrawals they are owed to the owner (rounded down).
type Result struct {
	Amount0 uint64
	Amount1 uint64
}

// Modify applies a signed liquidity delta to pos.
//
// The order matters: rewards are accrued first, then both boundary ticks are updated,
// the inside growths are computed from the updated ticks, the position is credited at
// its old liquidity, pool liquidity is adjusted when the range contains the current
// tick, and ticks that lost their last liquidity are cleared.
func Modify(
	pool *domain.PoolState,
	registry *ticks.Registry,
	pos *domain.Position,
	delta sdkmath.Int,
	now uint64,
) (Result, error) {
	delta = fixedpoint.NormalizeLiquidity(delta)
	lower, upper := pos.TickLower, pos.TickUpper
	if err := ValidateRange(lower, upper, pool.TickSpacing); err != nil {
		return Result{}, err
	}
	if delta.IsNegative() {
		abs, err := fixedpoint.AbsLiquidity(delta)
		if err != nil {
			return Result{}, err
		}
		if abs.Cmp(pos.Liquidity) > 0 {
			return Result{}, fmt.Errorf("remove %s from %s: %w", abs, pos.Liquidity, common.ErrLiquidityUnderflow)
		}
	}

	rewardGrowths, err := rewards.UpdateRewardGrowth(pool, now)
	if err != nil {
		return Result{}, err
	}

	var flippedLower, flippedUpper bool
	if !delta.IsZero() {
		maxLiquidity := ticks.MaxLiquidityPerTick(pool.TickSpacing)
		flippedLower, err = registry.UpdateTick(lower, delta, pool.TickCurrent,
			pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64, rewardGrowths, false, maxLiquidity)
		if err != nil {
			return Result{}, err
		}
		flippedUpper, err = registry.UpdateTick(upper, delta, pool.TickCurrent,
			pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64, rewardGrowths, true, maxLiquidity)
		if err != nil {
			return Result{}, err
		}
	}

	feeInside0, feeInside1, err := registry.FeeGrowthInside(lower, upper)
	if err != nil {
		return Result{}, err
	}
	rewardInside, err := registry.RewardGrowthsInside(lower, upper)
	if err != nil {
		return Result{}, err
	}
	if err := position.Update(pos, delta, feeInside0, feeInside1, rewardInside); err != nil {
		return Result{}, err
	}

	if delta.IsNegative() {
		if flippedLower {
			if err := registry.ClearTick(lower); err != nil {
				return Result{}, err
			}
		}
		if flippedUpper {
			if err := registry.ClearTick(upper); err != nil {
				return Result{}, err
			}
		}
	}

	if delta.IsZero() {
		return Result{}, nil
	}
	amount0, amount1, inRange, err := AmountsForDelta(pool, lower, upper, delta)
	if err != nil {
		return Result{}, err
	}
	if inRange {
		if pool.Liquidity, err = fixedpoint.AddDelta(pool.Liquidity, delta); err != nil {
			return Result{}, fmt.Errorf("pool liquidity: %w", err)
		}
	}
	return Result{Amount0: amount0, Amount1: amount1}, nil
}

// AmountsForDelta returns the token amounts backing delta over [lower, upper) at the
// pool's current price, and whether the range is active.
//
//	current <  lower:         token0 only
//	lower <= current < upper: both, split at the current price
//	current >= upper:         token1 only
func AmountsForDelta(pool *domain.PoolState, lower, upper int32, delta sdkmath.Int) (uint64, uint64, bool, error) {
	sqrtLower, err := fixedpoint.SqrtPriceFromTick(lower)
	if err != nil {
		return 0, 0, false, err
	}
	sqrtUpper, err := fixedpoint.SqrtPriceFromTick(upper)
	if err != nil {
		return 0, 0, false, err
	}
	liquidity, err := fixedpoint.AbsLiquidity(delta)
	if err != nil {
		return 0, 0, false, err
	}
	roundUp := delta.IsPositive()

	switch {
	case pool.TickCurrent < lower:
		amount0, err := fixedpoint.GetDeltaAmount0U64(sqrtLower, sqrtUpper, liquidity, roundUp)
		return amount0, 0, false, err
	case pool.TickCurrent < upper:
		amount0, err := fixedpoint.GetDeltaAmount0U64(pool.SqrtPriceX64, sqrtUpper, liquidity, roundUp)
		if err != nil {
			return 0, 0, false, err
		}
		amount1, err := fixedpoint.GetDeltaAmount1U64(sqrtLower, pool.SqrtPriceX64, liquidity, roundUp)
		if err != nil {
			return 0, 0, false, err
		}
		return amount0, amount1, true, nil
	default:
		amount1, err := fixedpoint.GetDeltaAmount1U64(sqrtLower, sqrtUpper, liquidity, roundUp)
		return 0, amount1, false, err
	}
}

// LiquidityFromAmounts returns the largest liquidity over [lower, upper) that the given
// token budgets can back at the current price.
func LiquidityFromAmounts(sqrtPrice uint128.Uint128, lower, upper int32, amount0, amount1 uint64) (uint128.Uint128, error) {
	sqrtA, err := fixedpoint.SqrtPriceFromTick(lower)
	if err != nil {
		return uint128.Zero, err
	}
	sqrtB, err := fixedpoint.SqrtPriceFromTick(upper)
	if err != nil {
		return uint128.Zero, err
	}
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		return liquidityFromAmount0(sqrtA, sqrtB, amount0)
	case sqrtPrice.Cmp(sqrtB) < 0:
		l0, err := liquidityFromAmount0(sqrtPrice, sqrtB, amount0)
		if err != nil {
			return uint128.Zero, err
		}
		l1, err := liquidityFromAmount1(sqrtA, sqrtPrice, amount1)
		if err != nil {
			return uint128.Zero, err
		}
		if l0.Cmp(l1) < 0 {
			return l0, nil
		}
		return l1, nil
	default:
		return liquidityFromAmount1(sqrtA, sqrtB, amount1)
	}
}

// amount0 * sqrtA * sqrtB / (Q64 * (sqrtB - sqrtA))
func liquidityFromAmount0(sqrtA, sqrtB uint128.Uint128, amount0 uint64) (uint128.Uint128, error) {
	intermediate, err := fixedpoint.MulDivFloor128(sqrtA, sqrtB, fixedpoint.Q64)
	if err != nil {
		return uint128.Zero, err
	}
	return fixedpoint.MulDivFloor128(uint128.From64(amount0), intermediate, sqrtB.Sub(sqrtA))
}

// amount1 * Q64 / (sqrtB - sqrtA)
func liquidityFromAmount1(sqrtA, sqrtB uint128.Uint128, amount1 uint64) (uint128.Uint128, error) {
	return fixedpoint.MulDivFloor128(uint128.From64(amount1), fixedpoint.Q64, sqrtB.Sub(sqrtA))
}
