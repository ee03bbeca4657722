// Package position credits fees and rewards to liquidity positions.
package position

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

// Update credits everything the position earned since its last snapshot at its current
// liquidity, then applies delta. Crediting first keeps earnings from being computed on
// liquidity that was not present while they accrued.
func Update(
	pos *domain.Position,
	delta sdkmath.Int,
	feeGrowthInside0, feeGrowthInside1 uint128.Uint128,
	rewardGrowthsInside [domain.RewardNum]uint128.Uint128,
) error {
	delta = fixedpoint.NormalizeLiquidity(delta)
	if delta.IsZero() && pos.Liquidity.IsZero() {
		return common.ErrZeroLiquidityPoke
	}
	liquidity, err := fixedpoint.AddDelta(pos.Liquidity, delta)
	if err != nil {
		return fmt.Errorf("position %s: %w", pos.Key(), err)
	}

	owed0, err := fixedpoint.GrowthDelta(feeGrowthInside0.SubWrap(pos.FeeGrowthInside0LastX64), pos.Liquidity)
	if err != nil {
		return fmt.Errorf("fees owed 0: %w", err)
	}
	owed1, err := fixedpoint.GrowthDelta(feeGrowthInside1.SubWrap(pos.FeeGrowthInside1LastX64), pos.Liquidity)
	if err != nil {
		return fmt.Errorf("fees owed 1: %w", err)
	}
	fees0, err := fixedpoint.CheckedAdd64(pos.TokenFeesOwed0, owed0)
	if err != nil {
		return fmt.Errorf("fees owed 0: %w", err)
	}
	fees1, err := fixedpoint.CheckedAdd64(pos.TokenFeesOwed1, owed1)
	if err != nil {
		return fmt.Errorf("fees owed 1: %w", err)
	}

	rewardInfos := pos.RewardInfos
	for i := range rewardInfos {
		r := &rewardInfos[i]
		earned, err := fixedpoint.GrowthDelta(rewardGrowthsInside[i].SubWrap(r.GrowthInsideLastX64), pos.Liquidity)
		if err != nil {
			return fmt.Errorf("reward %d owed: %w", i, err)
		}
		if r.RewardAmountOwed, err = fixedpoint.CheckedAdd64(r.RewardAmountOwed, earned); err != nil {
			return fmt.Errorf("reward %d owed: %w", i, err)
		}
		r.GrowthInsideLastX64 = rewardGrowthsInside[i]
	}

	pos.Liquidity = liquidity
	pos.FeeGrowthInside0LastX64 = feeGrowthInside0
	pos.FeeGrowthInside1LastX64 = feeGrowthInside1
	pos.TokenFeesOwed0 = fees0
	pos.TokenFeesOwed1 = fees1
	pos.RewardInfos = rewardInfos
	return nil
}

// Collect drains up to max0/max1 of the owed fees.
func Collect(pos *domain.Position, max0, max1 uint64) (uint64, uint64) {
	amount0 := min(max0, pos.TokenFeesOwed0)
	amount1 := min(max1, pos.TokenFeesOwed1)
	pos.TokenFeesOwed0 -= amount0
	pos.TokenFeesOwed1 -= amount1
	return amount0, amount1
}

// CollectReward drains up to max of reward stream index.
func CollectReward(pos *domain.Position, index int, max uint64) (uint64, error) {
	if index < 0 || index >= domain.RewardNum {
		return 0, fmt.Errorf("reward index %d: %w", index, common.ErrInvalidRewardInitParam)
	}
	r := &pos.RewardInfos[index]
	amount := min(max, r.RewardAmountOwed)
	r.RewardAmountOwed -= amount
	return amount, nil
}
