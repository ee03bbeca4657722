package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

func poolWithStream(liquidity uint64, open, end uint64, eps uint128.Uint128) *domain.PoolState {
	pool := &domain.PoolState{Liquidity: uint128.From64(liquidity)}
	pool.RewardInfos[0] = domain.RewardInfo{
		RewardState:           domain.RewardStateInitialized,
		OpenTime:              open,
		EndTime:               end,
		LastUpdateTime:        open,
		EmissionsPerSecondX64: eps,
	}
	return pool
}

func TestUpdateRewardGrowth(t *testing.T) {
	tests := []struct {
		name      string
		liquidity uint64
		now       uint64
		grows     bool
		state     domain.RewardState
		emitted   uint64
	}{
		{name: "before open", liquidity: 10, now: 50, state: domain.RewardStateInitialized},
		{name: "mid stream", liquidity: 10, now: 110, grows: true, state: domain.RewardStateOpening, emitted: 10},
		{name: "clamped to end", liquidity: 100, now: 500, grows: true, state: domain.RewardStateEnded, emitted: 100},
		{name: "zero liquidity skips", liquidity: 0, now: 150, state: domain.RewardStateOpening},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := poolWithStream(tt.liquidity, 100, 200, fixedpoint.Q64)
			growths, err := UpdateRewardGrowth(pool, tt.now)
			require.NoError(t, err)

			r := pool.RewardInfos[0]
			assert.Equal(t, tt.state, r.RewardState)
			assert.Equal(t, tt.emitted, r.RewardTotalEmissioned)
			assert.True(t, growths[0].Equals(r.RewardGrowthGlobalX64))
			assert.Equal(t, tt.grows, !r.RewardGrowthGlobalX64.IsZero())
			assert.True(t, growths[1].IsZero() && growths[2].IsZero(), "uninitialized streams stay zero")
		})
	}
}

func TestUpdateRewardGrowthExactValues(t *testing.T) {
	pool := poolWithStream(10, 100, 200, fixedpoint.Q64)
	_, err := UpdateRewardGrowth(pool, 110)
	require.NoError(t, err)
	// 10s * Q64 / 10 = Q64
	assert.True(t, pool.RewardInfos[0].RewardGrowthGlobalX64.Equals(fixedpoint.Q64))

	pool = poolWithStream(100, 100, 200, fixedpoint.Q64)
	_, err = UpdateRewardGrowth(pool, 500)
	require.NoError(t, err)
	// 100s * Q64 / 100 = Q64; time after end is not counted
	assert.True(t, pool.RewardInfos[0].RewardGrowthGlobalX64.Equals(fixedpoint.Q64))
	assert.Equal(t, uint64(500), pool.RewardInfos[0].LastUpdateTime)
}

func TestUpdateRewardGrowthIdempotent(t *testing.T) {
	pool := poolWithStream(1_000, 100, 200, fixedpoint.Q64)
	first, err := UpdateRewardGrowth(pool, 150)
	require.NoError(t, err)
	snapshot := pool.RewardInfos

	second, err := UpdateRewardGrowth(pool, 150)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, pool.RewardInfos)
}

func TestUpdateRewardGrowthZeroLiquidityWindowIsLost(t *testing.T) {
	pool := poolWithStream(0, 100, 200, fixedpoint.Q64)
	_, err := UpdateRewardGrowth(pool, 150)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), pool.RewardInfos[0].LastUpdateTime, "last update advances even without liquidity")

	pool.Liquidity = uint128.From64(50)
	_, err = UpdateRewardGrowth(pool, 160)
	require.NoError(t, err)
	// only [150, 160] accrues: 10 * Q64 / 50
	want, err := fixedpoint.MulDivFloor128(uint128.From64(10), fixedpoint.Q64, uint128.From64(50))
	require.NoError(t, err)
	assert.True(t, pool.RewardInfos[0].RewardGrowthGlobalX64.Equals(want))
}

func TestUpdateRewardGrowthMonotonic(t *testing.T) {
	pool := poolWithStream(7, 100, 1_000, uint128.From64(123_456_789))
	prev := uint128.Zero
	for now := uint64(90); now <= 1_100; now += 37 {
		growths, err := UpdateRewardGrowth(pool, now)
		require.NoError(t, err)
		require.True(t, growths[0].Cmp(prev) >= 0, "growth never decreases")
		prev = growths[0]
	}
}

func TestUpdateRewardGrowthOverflowLeavesPoolUntouched(t *testing.T) {
	pool := poolWithStream(1, 0, 200, uint128.Max)
	pool.RewardInfos[0].RewardGrowthGlobalX64 = uint128.Max
	before := pool.RewardInfos

	_, err := UpdateRewardGrowth(pool, 100)
	require.ErrorIs(t, err, common.ErrMathOverflow)
	assert.Equal(t, before, pool.RewardInfos)
}

func TestEmittedTotalCoversClaims(t *testing.T) {
	// a third of a token per second: every one-second window floors to zero
	pool := poolWithStream(7, 100, 1_000, fixedpoint.Q64.Div64(3))
	shares := []uint64{2, 5}

	for now := uint64(101); now <= 1_000; now++ {
		_, err := UpdateRewardGrowth(pool, now)
		require.NoError(t, err)

		r := pool.RewardInfos[0]
		var owed uint64
		for _, l := range shares {
			amount, err := fixedpoint.GrowthDelta(r.RewardGrowthGlobalX64, uint128.From64(l))
			require.NoError(t, err)
			owed += amount
		}
		require.LessOrEqual(t, owed, r.RewardTotalEmissioned, "at %d", now)
		require.LessOrEqual(t, r.RewardTotalEmissioned, now-100, "at most one unit of rounding per window")
	}
	assert.Greater(t, pool.RewardInfos[0].RewardTotalEmissioned, uint64(0))
}

func TestEmittedAmount(t *testing.T) {
	got, err := EmittedAmount(100, fixedpoint.Q64)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)

	got, err = EmittedAmount(3, uint128.From64(1<<63))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got, "1.5 tokens floor to 1")
}
