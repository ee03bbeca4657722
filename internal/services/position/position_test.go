package position

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

var zeroRewards [domain.RewardNum]uint128.Uint128

func TestUpdateCreditsBeforeChangingLiquidity(t *testing.T) {
	pos := &domain.Position{Liquidity: uint128.From64(1_000)}

	// one whole token per unit of liquidity on token0, half on token1
	inside0 := fixedpoint.Q64
	inside1 := fixedpoint.Q64.Rsh(1)
	rewards := [domain.RewardNum]uint128.Uint128{fixedpoint.Q64.Mul64(2)}

	require.NoError(t, Update(pos, sdkmath.NewInt(9_000), inside0, inside1, rewards))
	assert.Equal(t, uint64(1_000), pos.TokenFeesOwed0, "credited at the old liquidity")
	assert.Equal(t, uint64(500), pos.TokenFeesOwed1)
	assert.Equal(t, uint64(2_000), pos.RewardInfos[0].RewardAmountOwed)
	assert.Equal(t, "10000", pos.Liquidity.String())
	assert.True(t, pos.FeeGrowthInside0LastX64.Equals(inside0))

	// poke with unchanged growth credits nothing
	require.NoError(t, Update(pos, sdkmath.ZeroInt(), inside0, inside1, rewards))
	assert.Equal(t, uint64(1_000), pos.TokenFeesOwed0)
}

func TestUpdateWrappingGrowth(t *testing.T) {
	last := uint128.Max.Sub64(9)
	pos := &domain.Position{Liquidity: fixedpoint.Q64, FeeGrowthInside0LastX64: last}
	// inside wrapped past zero: 10 + 5 units of growth accrued
	require.NoError(t, Update(pos, sdkmath.ZeroInt(), uint128.From64(5), uint128.Zero, zeroRewards))
	assert.Equal(t, uint64(15), pos.TokenFeesOwed0)
}

func TestUpdateErrors(t *testing.T) {
	pos := &domain.Position{}
	require.ErrorIs(t, Update(pos, sdkmath.ZeroInt(), uint128.Zero, uint128.Zero, zeroRewards), common.ErrZeroLiquidityPoke)

	pos.Liquidity = uint128.From64(10)
	require.ErrorIs(t, Update(pos, sdkmath.NewInt(-11), uint128.Zero, uint128.Zero, zeroRewards), common.ErrLiquidityUnderflow)
	assert.Equal(t, "10", pos.Liquidity.String(), "failed update leaves the position untouched")

	pos.TokenFeesOwed0 = ^uint64(0)
	err := Update(pos, sdkmath.ZeroInt(), fixedpoint.Q64, uint128.Zero, zeroRewards)
	require.ErrorIs(t, err, common.ErrMathOverflow)
	assert.True(t, pos.FeeGrowthInside0LastX64.IsZero())
}

func TestCollect(t *testing.T) {
	pos := &domain.Position{TokenFeesOwed0: 100, TokenFeesOwed1: 50}
	pos.RewardInfos[2].RewardAmountOwed = 7

	a0, a1 := Collect(pos, 30, 1_000)
	assert.Equal(t, uint64(30), a0)
	assert.Equal(t, uint64(50), a1)
	assert.Equal(t, uint64(70), pos.TokenFeesOwed0)
	assert.Zero(t, pos.TokenFeesOwed1)

	got, err := CollectReward(pos, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)

	_, err = CollectReward(pos, domain.RewardNum, 1)
	require.ErrorIs(t, err, common.ErrInvalidRewardInitParam)

	a0, _ = Collect(pos, 100, 0)
	assert.Equal(t, uint64(70), a0)
	assert.True(t, pos.IsEmpty())
}
