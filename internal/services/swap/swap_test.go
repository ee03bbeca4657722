package swap

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/liquidity"
	"github.com/hxuan190/clmm-core/internal/services/pool"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

type fixture struct {
	config   *domain.AmmConfig
	pool     *domain.PoolState
	registry *ticks.Registry
}

func newFixture(t *testing.T, protocolFeeRate uint32) *fixture {
	t.Helper()
	config := &domain.AmmConfig{TickSpacing: 10, TradeFeeRate: 3000, ProtocolFeeRate: protocolFeeRate}
	state, err := pool.Initialize(config, pool.InitializeParams{
		TokenMint0:   solana.PublicKey{1},
		TokenMint1:   solana.PublicKey{2},
		SqrtPriceX64: fixedpoint.Q64,
	}, 0)
	require.NoError(t, err)
	f := &fixture{config: config, pool: state, registry: ticks.NewRegistry(state, nil)}

	f.deposit(t, -1000, 1000, 1_000_000_000_000)
	f.deposit(t, -200, 200, 500_000_000_000)
	return f
}

func (f *fixture) deposit(t *testing.T, lower, upper int32, amount int64) {
	t.Helper()
	pos := domain.NewPosition(domain.PositionKey{Owner: solana.PublicKey{byte(lower)}, TickLower: lower, TickUpper: upper})
	_, err := liquidity.Modify(f.pool, f.registry, pos, sdkmath.NewInt(amount), 0)
	require.NoError(t, err)
}

func (f *fixture) outsides(t *testing.T) map[int32]domain.Tick {
	t.Helper()
	out := make(map[int32]domain.Tick)
	for _, idx := range []int32{-1000, -200, 200, 1000} {
		tick, err := f.registry.Tick(idx)
		require.NoError(t, err)
		out[idx] = tick
	}
	return out
}

func TestSwapWithinRangeLeavesTicksUntouched(t *testing.T) {
	f := newFixture(t, 0)
	before := f.outsides(t)

	res, err := Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 1_000_000, ZeroForOne: true, IsBaseInput: true}, 1)
	require.NoError(t, err)
	assert.Zero(t, res.TicksCrossed)
	assert.False(t, res.PriceLimitReached)
	assert.Equal(t, uint64(1_000_000), res.AmountIn)
	assert.Equal(t, res.Amount0, res.AmountIn)
	assert.Equal(t, res.Amount1, res.AmountOut)
	assert.Greater(t, res.AmountOut, uint64(0))
	assert.Equal(t, -1, f.pool.SqrtPriceX64.Cmp(fixedpoint.Q64))
	assert.Equal(t, "1500000000000", f.pool.Liquidity.String())

	assert.Equal(t, before, f.outsides(t), "no crossing, no outside change")

	// with a single step at constant liquidity the growth is exactly floor(fee * Q64 / L)
	want, err := fixedpoint.GrowthPerLiquidity(res.FeeAmount, f.pool.Liquidity)
	require.NoError(t, err)
	assert.True(t, f.pool.FeeGrowthGlobal0X64.Equals(want))
	assert.True(t, f.pool.FeeGrowthGlobal1X64.IsZero())
}

func TestSwapCrossesTicks(t *testing.T) {
	f := newFixture(t, 0)

	res, err := Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 50_000_000_000, ZeroForOne: true, IsBaseInput: true}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TicksCrossed)
	assert.Less(t, f.pool.TickCurrent, int32(-200))
	assert.Greater(t, f.pool.TickCurrent, int32(-1000))
	assert.Equal(t, "1000000000000", f.pool.Liquidity.String(), "inner range left behind")

	crossed, err := f.registry.Tick(-200)
	require.NoError(t, err)
	assert.False(t, crossed.FeeGrowthOutside0X64.IsZero(), "crossing snapshots the fee growth accrued so far")

	growth0 := f.pool.FeeGrowthGlobal0X64
	res, err = Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 60_000_000_000, ZeroForOne: false, IsBaseInput: true}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TicksCrossed)
	assert.Greater(t, f.pool.TickCurrent, int32(-200))
	assert.Equal(t, "1500000000000", f.pool.Liquidity.String())
	assert.True(t, f.pool.FeeGrowthGlobal0X64.Equals(growth0), "token1 input leaves token0 growth alone")
	assert.False(t, f.pool.FeeGrowthGlobal1X64.IsZero())
}

func TestSwapExactOutput(t *testing.T) {
	f := newFixture(t, 0)
	res, err := Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 2_000_000, ZeroForOne: false, IsBaseInput: false}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), res.AmountOut)
	assert.Equal(t, res.Amount0, res.AmountOut)
	assert.Equal(t, res.Amount1, res.AmountIn)
	assert.Greater(t, res.AmountIn, res.AmountOut)
	assert.Equal(t, 1, f.pool.SqrtPriceX64.Cmp(fixedpoint.Q64))
}

func TestSwapPriceLimit(t *testing.T) {
	f := newFixture(t, 0)
	limit, err := fixedpoint.SqrtPriceFromTick(-100)
	require.NoError(t, err)

	res, err := Execute(f.pool, f.config, f.registry, Params{
		AmountSpecified:   1 << 50,
		SqrtPriceLimitX64: limit,
		ZeroForOne:        true,
		IsBaseInput:       true,
	}, 1)
	require.NoError(t, err)
	assert.True(t, res.PriceLimitReached)
	assert.True(t, f.pool.SqrtPriceX64.Equals(limit))
	assert.Equal(t, int32(-100), f.pool.TickCurrent)
	assert.Less(t, res.AmountIn, uint64(1<<50))
}

func TestSwapRunsOutOfLiquidity(t *testing.T) {
	f := newFixture(t, 0)
	res, err := Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 1 << 62, ZeroForOne: true, IsBaseInput: true}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TicksCrossed)
	assert.True(t, res.PriceLimitReached, "stops at the default limit once every range is exhausted")
	assert.True(t, f.pool.Liquidity.IsZero())
	assert.True(t, f.pool.SqrtPriceX64.Equals(DefaultPriceLimit(true)))
}

func TestSwapProtocolFee(t *testing.T) {
	f := newFixture(t, 120_000)
	res, err := Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 10_000_000, ZeroForOne: true, IsBaseInput: true}, 1)
	require.NoError(t, err)
	require.Greater(t, res.FeeAmount, uint64(0))

	wantProtocol := res.FeeAmount * 120_000 / 1_000_000
	assert.Equal(t, wantProtocol, res.ProtocolFee)
	assert.Equal(t, wantProtocol, f.pool.ProtocolFeesToken0)

	want, err := fixedpoint.GrowthPerLiquidity(res.FeeAmount-wantProtocol, f.pool.Liquidity)
	require.NoError(t, err)
	assert.True(t, f.pool.FeeGrowthGlobal0X64.Equals(want), "LPs receive the fee net of the protocol share")
}

func TestSwapErrors(t *testing.T) {
	f := newFixture(t, 0)
	_, err := Execute(f.pool, f.config, f.registry, Params{ZeroForOne: true, IsBaseInput: true}, 1)
	require.ErrorIs(t, err, common.ErrZeroAmountSpecified)

	above, err := fixedpoint.SqrtPriceFromTick(10)
	require.NoError(t, err)
	_, err = Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 1, SqrtPriceLimitX64: above, ZeroForOne: true, IsBaseInput: true}, 1)
	require.ErrorIs(t, err, common.ErrInvalidSqrtPriceLimit)

	_, err = Execute(f.pool, f.config, f.registry, Params{AmountSpecified: 1, SqrtPriceLimitX64: fixedpoint.MaxSqrtPriceX64, ZeroForOne: false, IsBaseInput: true}, 1)
	require.ErrorIs(t, err, common.ErrInvalidSqrtPriceLimit)
}

func TestFeeGrowthNonDecreasing(t *testing.T) {
	f := newFixture(t, 50_000)
	prev0, prev1 := f.pool.FeeGrowthGlobal0X64, f.pool.FeeGrowthGlobal1X64
	amounts := []uint64{3_000_000, 70_000_000_000, 9, 45_000_000_000, 1_234_567}
	for i, amount := range amounts {
		_, err := Execute(f.pool, f.config, f.registry, Params{AmountSpecified: amount, ZeroForOne: i%2 == 0, IsBaseInput: i%3 != 0}, uint64(i+1))
		require.NoError(t, err)
		require.True(t, f.pool.FeeGrowthGlobal0X64.Cmp(prev0) >= 0)
		require.True(t, f.pool.FeeGrowthGlobal1X64.Cmp(prev1) >= 0)
		prev0, prev1 = f.pool.FeeGrowthGlobal0X64, f.pool.FeeGrowthGlobal1X64
	}
	assert.Equal(t, uint64(len(amounts)), f.pool.LatestObservation().BlockTimestamp)
}
