// Package swap executes swaps against a pool's tick-partitioned liquidity.
package swap

import (
	"fmt"

	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/oracle"
	"github.com/hxuan190/clmm-core/internal/services/rewards"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

// Params describes a swap. With IsBaseInput the specified amount is the exact input,
// otherwise the exact output. A zero SqrtPriceLimitX64 means no limit.
type Params struct {
	AmountSpecified   uint64
	SqrtPriceLimitX64 uint128.Uint128
	ZeroForOne        bool
	IsBaseInput       bool
}

// state is the running swap, written back to the pool only once the loop completes.
type state struct {
	amountSpecifiedRemaining uint64
	amountCalculated         uint64
	sqrtPriceX64             uint128.Uint128
	tick                     int32
	feeGrowthGlobalX64       uint128.Uint128
	feeAmount                uint64
	protocolFee              uint64
	liquidity                uint128.Uint128
	ticksCrossed             int
}

// DefaultPriceLimit returns the furthest usable price limit in the swap direction.
func DefaultPriceLimit(zeroForOne bool) uint128.Uint128 {
	if zeroForOne {
		return fixedpoint.MinSqrtPriceX64.Add64(1)
	}
	return fixedpoint.MaxSqrtPriceX64.Sub64(1)
}

func validateLimit(pool *domain.PoolState, limit uint128.Uint128, zeroForOne bool) error {
	if zeroForOne {
		if limit.Cmp(pool.SqrtPriceX64) >= 0 || limit.Cmp(fixedpoint.MinSqrtPriceX64) <= 0 {
			return fmt.Errorf("limit %s for price %s: %w", limit, pool.SqrtPriceX64, common.ErrInvalidSqrtPriceLimit)
		}
		return nil
	}
	if limit.Cmp(pool.SqrtPriceX64) <= 0 || limit.Cmp(fixedpoint.MaxSqrtPriceX64) >= 0 {
		return fmt.Errorf("limit %s for price %s: %w", limit, pool.SqrtPriceX64, common.ErrInvalidSqrtPriceLimit)
	}
	return nil
}

// Execute runs the swap loop. Each iteration moves the price to the nearer of the next
// initialized tick and the limit, charges the step fee (the protocol share is set
// aside, the rest is distributed over in-range liquidity) and crosses the tick when
// it is reached. Reward growth is brought up to now first so that crossings snapshot
// current values.
//
// Hitting the price limit is not an error: the result reports PriceLimitReached with
// the partial amounts.
func Execute(pool *domain.PoolState, config *domain.AmmConfig, registry *ticks.Registry, params Params, now uint64) (domain.SwapResult, error) {
	if params.AmountSpecified == 0 {
		return domain.SwapResult{}, common.ErrZeroAmountSpecified
	}
	limit := params.SqrtPriceLimitX64
	if limit.IsZero() {
		limit = DefaultPriceLimit(params.ZeroForOne)
	}
	if err := validateLimit(pool, limit, params.ZeroForOne); err != nil {
		return domain.SwapResult{}, err
	}

	rewardGrowths, err := rewards.UpdateRewardGrowth(pool, now)
	if err != nil {
		return domain.SwapResult{}, err
	}

	s := state{
		amountSpecifiedRemaining: params.AmountSpecified,
		sqrtPriceX64:             pool.SqrtPriceX64,
		tick:                     pool.TickCurrent,
		liquidity:                pool.Liquidity,
	}
	if params.ZeroForOne {
		s.feeGrowthGlobalX64 = pool.FeeGrowthGlobal0X64
	} else {
		s.feeGrowthGlobalX64 = pool.FeeGrowthGlobal1X64
	}

	for s.amountSpecifiedRemaining != 0 && !s.sqrtPriceX64.Equals(limit) {
		sqrtPriceStart := s.sqrtPriceX64

		tickNext, initialized, err := registry.NextInitializedTick(s.tick, params.ZeroForOne)
		if err != nil {
			return domain.SwapResult{}, err
		}
		if !initialized {
			if params.ZeroForOne {
				tickNext = fixedpoint.MinTick
			} else {
				tickNext = fixedpoint.MaxTick
			}
		}
		tickNext = max(fixedpoint.MinTick, min(fixedpoint.MaxTick, tickNext))

		sqrtPriceNext, err := fixedpoint.SqrtPriceFromTick(tickNext)
		if err != nil {
			return domain.SwapResult{}, err
		}
		target := sqrtPriceNext
		if (params.ZeroForOne && sqrtPriceNext.Cmp(limit) < 0) || (!params.ZeroForOne && sqrtPriceNext.Cmp(limit) > 0) {
			target = limit
		}

		step, err := fixedpoint.ComputeSwapStep(
			s.sqrtPriceX64, target, s.liquidity,
			s.amountSpecifiedRemaining, config.TradeFeeRate,
			params.IsBaseInput, params.ZeroForOne,
		)
		if err != nil {
			return domain.SwapResult{}, fmt.Errorf("swap step at tick %d: %w", s.tick, err)
		}
		s.sqrtPriceX64 = step.SqrtPriceNextX64

		if err := s.applyStep(step, params.IsBaseInput, config.ProtocolFeeRate); err != nil {
			return domain.SwapResult{}, err
		}

		if s.sqrtPriceX64.Equals(sqrtPriceNext) {
			if initialized {
				fg0, fg1 := pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64
				if params.ZeroForOne {
					fg0 = s.feeGrowthGlobalX64
				} else {
					fg1 = s.feeGrowthGlobalX64
				}
				net, err := registry.CrossTick(tickNext, fg0, fg1, rewardGrowths)
				if err != nil {
					return domain.SwapResult{}, err
				}
				if params.ZeroForOne {
					net = net.Neg()
				}
				if s.liquidity, err = fixedpoint.AddDelta(s.liquidity, net); err != nil {
					return domain.SwapResult{}, fmt.Errorf("cross tick %d: %w", tickNext, err)
				}
				s.ticksCrossed++
			}
			if params.ZeroForOne {
				s.tick = tickNext - 1
			} else {
				s.tick = tickNext
			}
		} else if !s.sqrtPriceX64.Equals(sqrtPriceStart) {
			if s.tick, err = fixedpoint.TickFromSqrtPrice(s.sqrtPriceX64); err != nil {
				return domain.SwapResult{}, err
			}
		}
	}

	return s.commit(pool, params, limit, now)
}

func (s *state) applyStep(step fixedpoint.SwapStep, isBaseInput bool, protocolFeeRate uint32) error {
	var err error
	if isBaseInput {
		consumed, err := fixedpoint.CheckedAdd64(step.AmountIn, step.FeeAmount)
		if err != nil || consumed > s.amountSpecifiedRemaining {
			return fmt.Errorf("step consumed more than remaining: %w", common.ErrMathOverflow)
		}
		s.amountSpecifiedRemaining -= consumed
		if s.amountCalculated, err = fixedpoint.CheckedAdd64(s.amountCalculated, step.AmountOut); err != nil {
			return err
		}
	} else {
		if step.AmountOut > s.amountSpecifiedRemaining {
			return fmt.Errorf("step produced more than remaining: %w", common.ErrMathOverflow)
		}
		s.amountSpecifiedRemaining -= step.AmountOut
		spent, err := fixedpoint.CheckedAdd64(step.AmountIn, step.FeeAmount)
		if err != nil {
			return err
		}
		if s.amountCalculated, err = fixedpoint.CheckedAdd64(s.amountCalculated, spent); err != nil {
			return err
		}
	}

	fee := step.FeeAmount
	if protocolFeeRate > 0 {
		delta, err := fixedpoint.MulDivFloor64(fee, uint64(protocolFeeRate), fixedpoint.FeeRateDenominator)
		if err != nil {
			return err
		}
		fee -= delta
		if s.protocolFee, err = fixedpoint.CheckedAdd64(s.protocolFee, delta); err != nil {
			return err
		}
	}
	if s.feeAmount, err = fixedpoint.CheckedAdd64(s.feeAmount, step.FeeAmount); err != nil {
		return err
	}
	if !s.liquidity.IsZero() && fee > 0 {
		growth, err := fixedpoint.GrowthPerLiquidity(fee, s.liquidity)
		if err != nil {
			return err
		}
		s.feeGrowthGlobalX64 = s.feeGrowthGlobalX64.AddWrap(growth)
	}
	return nil
}

// commit writes the finished swap into the pool and builds the result.
func (s *state) commit(pool *domain.PoolState, params Params, limit uint128.Uint128, now uint64) (domain.SwapResult, error) {
	var amount0, amount1 uint64
	if params.ZeroForOne == params.IsBaseInput {
		amount0 = params.AmountSpecified - s.amountSpecifiedRemaining
		amount1 = s.amountCalculated
	} else {
		amount0 = s.amountCalculated
		amount1 = params.AmountSpecified - s.amountSpecifiedRemaining
	}
	amountIn, amountOut := amount0, amount1
	if !params.ZeroForOne {
		amountIn, amountOut = amount1, amount0
	}

	in128, out128 := uint128.From64(amountIn), uint128.From64(amountOut)
	var err error
	if params.ZeroForOne {
		if pool.SwapInAmountToken0, err = fixedpoint.CheckedAdd128(pool.SwapInAmountToken0, in128); err != nil {
			return domain.SwapResult{}, err
		}
		if pool.SwapOutAmountToken1, err = fixedpoint.CheckedAdd128(pool.SwapOutAmountToken1, out128); err != nil {
			return domain.SwapResult{}, err
		}
		if pool.ProtocolFeesToken0, err = fixedpoint.CheckedAdd64(pool.ProtocolFeesToken0, s.protocolFee); err != nil {
			return domain.SwapResult{}, err
		}
		pool.FeeGrowthGlobal0X64 = s.feeGrowthGlobalX64
	} else {
		if pool.SwapInAmountToken1, err = fixedpoint.CheckedAdd128(pool.SwapInAmountToken1, in128); err != nil {
			return domain.SwapResult{}, err
		}
		if pool.SwapOutAmountToken0, err = fixedpoint.CheckedAdd128(pool.SwapOutAmountToken0, out128); err != nil {
			return domain.SwapResult{}, err
		}
		if pool.ProtocolFeesToken1, err = fixedpoint.CheckedAdd64(pool.ProtocolFeesToken1, s.protocolFee); err != nil {
			return domain.SwapResult{}, err
		}
		pool.FeeGrowthGlobal1X64 = s.feeGrowthGlobalX64
	}

	tickBefore := pool.TickCurrent
	pool.SqrtPriceX64 = s.sqrtPriceX64
	pool.TickCurrent = s.tick
	pool.Liquidity = s.liquidity
	oracle.Update(pool, now, tickBefore)

	return domain.SwapResult{
		Amount0:           amount0,
		Amount1:           amount1,
		AmountIn:          amountIn,
		AmountOut:         amountOut,
		FeeAmount:         s.feeAmount,
		ProtocolFee:       s.protocolFee,
		FinalSqrtPriceX64: s.sqrtPriceX64,
		FinalTick:         s.tick,
		PriceLimitReached: s.amountSpecifiedRemaining != 0 && s.sqrtPriceX64.Equals(limit),
		TicksCrossed:      s.ticksCrossed,
	}, nil
}
