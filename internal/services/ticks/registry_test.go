package ticks

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

var noRewards [domain.RewardNum]uint128.Uint128

func newTestRegistry(tickCurrent int32) (*domain.PoolState, *Registry) {
	pool := &domain.PoolState{TickSpacing: 10, TickCurrent: tickCurrent}
	return pool, NewRegistry(pool, nil)
}

func addLiquidity(t *testing.T, r *Registry, pool *domain.PoolState, index int32, delta int64, upper bool) bool {
	t.Helper()
	flipped, err := r.UpdateTick(index, sdkmath.NewInt(delta), pool.TickCurrent,
		pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64, pool.RewardGrowthsGlobal(),
		upper, MaxLiquidityPerTick(pool.TickSpacing))
	require.NoError(t, err)
	return flipped
}

func TestArrayStartIndex(t *testing.T) {
	tests := []struct {
		tick int32
		want int32
	}{
		{tick: 0, want: 0},
		{tick: 599, want: 0},
		{tick: 600, want: 600},
		{tick: -1, want: -600},
		{tick: -600, want: -600},
		{tick: -601, want: -1200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ArrayStartIndex(tt.tick, 10), "tick %d", tt.tick)
	}
	require.NoError(t, CheckArrayStart(-600, 10))
	require.ErrorIs(t, CheckArrayStart(-590, 10), common.ErrInvalidTickArray)
	require.ErrorIs(t, CheckTick(15, 10), common.ErrInvalidTickIndex)
	require.ErrorIs(t, CheckTick(fixedpoint.MaxTick+10, 10), common.ErrInvalidTickIndex)
}

func TestBitIndexRoundTrip(t *testing.T) {
	for _, start := range []int32{ArrayStartIndex(fixedpoint.MinTick, 10), -600, 0, 600, ArrayStartIndex(fixedpoint.MaxTick, 10)} {
		bit := bitIndex(start, 10)
		assert.Less(t, bit, BitmapLen(10))
		assert.Equal(t, start, startFromBit(bit, 10))
	}
}

func TestUpdateTickFlipsAndBitmap(t *testing.T) {
	pool, r := newTestRegistry(0)

	assert.True(t, addLiquidity(t, r, pool, -100, 1000, false), "first liquidity initializes the tick")
	assert.False(t, addLiquidity(t, r, pool, -100, 500, false), "adding to an initialized tick does not flip")
	assert.True(t, pool.TickArrayBitmap.Test(bitIndex(-600, 10)))

	tick, err := r.Tick(-100)
	require.NoError(t, err)
	assert.Equal(t, "1500", tick.LiquidityGross.String())
	assert.Equal(t, "1500", tick.Net().String())

	assert.True(t, addLiquidity(t, r, pool, 100, 1000, true))
	tick, err = r.Tick(100)
	require.NoError(t, err)
	assert.Equal(t, "-1000", tick.Net().String(), "upper boundary subtracts delta")

	assert.True(t, addLiquidity(t, r, pool, 100, -1000, true), "removing all liquidity flips back")
	require.NoError(t, r.ClearTick(100))
	assert.False(t, pool.TickArrayBitmap.Test(bitIndex(0, 10)), "array with no initialized ticks is marked absent")
	assert.Equal(t, []int32{0}, r.Dropped())

	touched := r.Touched()
	require.Len(t, touched, 1)
	assert.Equal(t, int32(-600), touched[0].StartTickIndex)
	assert.Equal(t, uint8(1), touched[0].InitializedTickCount)
}

func TestUpdateTickSeedsOutsideGrowth(t *testing.T) {
	pool, r := newTestRegistry(0)
	pool.FeeGrowthGlobal0X64 = uint128.From64(111)
	pool.FeeGrowthGlobal1X64 = uint128.From64(222)
	pool.RewardInfos[0].RewardState = domain.RewardStateOpening
	pool.RewardInfos[0].RewardGrowthGlobalX64 = uint128.From64(333)
	pool.RewardInfos[1].RewardGrowthGlobalX64 = uint128.From64(444)

	addLiquidity(t, r, pool, 0, 1, false)
	addLiquidity(t, r, pool, 10, 1, true)

	below, err := r.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(111), below.FeeGrowthOutside0X64.Lo, "tick at current is seeded")
	assert.Equal(t, uint64(222), below.FeeGrowthOutside1X64.Lo)
	assert.Equal(t, uint64(333), below.RewardGrowthsOutsideX64[0].Lo)
	assert.True(t, below.RewardGrowthsOutsideX64[1].IsZero(), "uninitialized reward is not seeded")

	above, err := r.Tick(10)
	require.NoError(t, err)
	assert.True(t, above.FeeGrowthOutside0X64.IsZero(), "tick above current starts at zero")
}

func TestUpdateTickLiquidityBounds(t *testing.T) {
	pool, r := newTestRegistry(0)
	_, err := r.UpdateTick(0, sdkmath.NewInt(11), 0, uint128.Zero, uint128.Zero, noRewards, false, uint128.From64(10))
	require.ErrorIs(t, err, common.ErrLiquidityOverflow)

	addLiquidity(t, r, pool, 0, 5, false)
	_, err = r.UpdateTick(0, sdkmath.NewInt(-6), 0, uint128.Zero, uint128.Zero, noRewards, false, MaxLiquidityPerTick(10))
	require.ErrorIs(t, err, common.ErrLiquidityUnderflow)
}

func TestCrossTickReflects(t *testing.T) {
	pool, r := newTestRegistry(0)
	addLiquidity(t, r, pool, 0, 7, false)

	g0, g1 := uint128.From64(1000), uint128.From64(2000)
	net, err := r.CrossTick(0, g0, g1, noRewards)
	require.NoError(t, err)
	assert.Equal(t, "7", net.String())

	tick, err := r.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), tick.FeeGrowthOutside0X64.Lo)

	_, err = r.CrossTick(0, g0, g1, noRewards)
	require.NoError(t, err)
	tick, err = r.Tick(0)
	require.NoError(t, err)
	assert.True(t, tick.FeeGrowthOutside0X64.IsZero(), "crossing twice at equal globals restores the value")

	_, err = r.CrossTick(20, g0, g1, noRewards)
	require.ErrorIs(t, err, common.ErrInvalidTickArray)
}

func TestNextInitializedTick(t *testing.T) {
	pool, r := newTestRegistry(0)
	for _, idx := range []int32{-1210, -20, 0, 30, 1800} {
		addLiquidity(t, r, pool, idx, 1, false)
	}

	tests := []struct {
		name       string
		from       int32
		zeroForOne bool
		want       int32
		found      bool
	}{
		{name: "down includes start", from: 0, zeroForOne: true, want: 0, found: true},
		{name: "down within array", from: -1, zeroForOne: true, want: -20, found: true},
		{name: "down across arrays", from: -21, zeroForOne: true, want: -1210, found: true},
		{name: "down exhausted", from: -1211, zeroForOne: true, found: false},
		{name: "up excludes start", from: 0, zeroForOne: false, want: 30, found: true},
		{name: "up from unaligned", from: 25, zeroForOne: false, want: 30, found: true},
		{name: "up across arrays", from: 30, zeroForOne: false, want: 1800, found: true},
		{name: "up from empty array", from: -1300, zeroForOne: false, want: -1210, found: true},
		{name: "up exhausted", from: 1800, zeroForOne: false, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := r.NextInitializedTick(tt.from, tt.zeroForOne)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFeeGrowthInside(t *testing.T) {
	lower := &domain.Tick{Tick: -10, FeeGrowthOutside0X64: uint128.From64(20)}
	upper := &domain.Tick{Tick: 10, FeeGrowthOutside0X64: uint128.From64(30)}
	global := uint128.From64(100)
	sub := func(a uint64, b ...uint64) uint128.Uint128 {
		v := uint128.From64(a)
		for _, x := range b {
			v = v.SubWrap(uint128.From64(x))
		}
		return v
	}

	tests := []struct {
		name    string
		current int32
		want    uint128.Uint128
	}{
		{name: "in range", current: 0, want: sub(100, 20, 30)},
		// below(lower) = 100-20, above(upper) = 30
		{name: "below range", current: -20, want: sub(100, 80, 30)},
		// below(lower) = 20, above(upper) = 100-30
		{name: "above range", current: 20, want: sub(100, 20, 70)},
		{name: "at lower is in range", current: -10, want: sub(100, 20, 30)},
		{name: "at upper is above range", current: 10, want: sub(100, 20, 70)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in0, in1 := FeeGrowthInside(lower, upper, tt.current, global, uint128.Zero)
			assert.True(t, in0.Equals(tt.want), "got %s want %s", in0, tt.want)
			assert.True(t, in1.IsZero())
		})
	}
}

func TestFeeGrowthInsideWraps(t *testing.T) {
	lower := &domain.Tick{Tick: -10, FeeGrowthOutside0X64: uint128.From64(50)}
	upper := &domain.Tick{Tick: 10, FeeGrowthOutside0X64: uint128.From64(60)}
	in0, _ := FeeGrowthInside(lower, upper, 0, uint128.From64(100), uint128.Zero)
	// 100 - 50 - 60 wraps modulo 2^128; only differences between snapshots matter.
	assert.True(t, in0.Equals(uint128.Zero.SubWrap(uint128.From64(10))))
}

func TestMaxLiquidityPerTick(t *testing.T) {
	perTick := MaxLiquidityPerTick(1)
	numTicks := uint64(2*fixedpoint.MaxTick) + 1
	assert.True(t, perTick.Mul64(numTicks).Cmp(uint128.Max) <= 0, "every tick at the cap still fits in 128 bits")
	assert.Equal(t, 1, MaxLiquidityPerTick(60).Cmp(perTick), "wider spacing allows more per tick")
}
