package liquidity

import (
	"math/rand"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/pool"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

func newPool(t *testing.T) (*domain.PoolState, *ticks.Registry) {
	t.Helper()
	config := &domain.AmmConfig{TickSpacing: 10, TradeFeeRate: 3000}
	state, err := pool.Initialize(config, pool.InitializeParams{
		TokenMint0:   solana.PublicKey{1},
		TokenMint1:   solana.PublicKey{2},
		SqrtPriceX64: fixedpoint.Q64,
	}, 0)
	require.NoError(t, err)
	return state, ticks.NewRegistry(state, nil)
}

func newPosition(lower, upper int32) *domain.Position {
	return domain.NewPosition(domain.PositionKey{Owner: solana.PublicKey{9}, TickLower: lower, TickUpper: upper})
}

func TestModifyAmountCases(t *testing.T) {
	tests := []struct {
		name         string
		lower, upper int32
		wantToken0   bool
		wantToken1   bool
		inRange      bool
	}{
		{name: "range above price", lower: 100, upper: 300, wantToken0: true},
		{name: "range contains price", lower: -100, upper: 100, wantToken0: true, wantToken1: true, inRange: true},
		{name: "range below price", lower: -300, upper: -100, wantToken1: true},
		{name: "upper at current tick", lower: -100, upper: 0, wantToken1: true},
		{name: "lower at current tick", lower: 0, upper: 100, wantToken0: true, wantToken1: false, inRange: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, registry := newPool(t)
			pos := newPosition(tt.lower, tt.upper)

			res, err := Modify(state, registry, pos, sdkmath.NewInt(1_000_000_000), 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken0, res.Amount0 > 0, "amount0 %d", res.Amount0)
			assert.Equal(t, tt.wantToken1, res.Amount1 > 0, "amount1 %d", res.Amount1)
			if tt.inRange {
				assert.Equal(t, "1000000000", state.Liquidity.String())
			} else {
				assert.True(t, state.Liquidity.IsZero())
			}
			assert.Equal(t, "1000000000", pos.Liquidity.String())
		})
	}
}

func TestModifyRoundTripFavorsPool(t *testing.T) {
	state, registry := newPool(t)
	pos := newPosition(-600, 600)

	in, err := Modify(state, registry, pos, sdkmath.NewInt(123_456_789), 0)
	require.NoError(t, err)
	out, err := Modify(state, registry, pos, sdkmath.NewInt(-123_456_789), 0)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, in.Amount0, out.Amount0)
	assert.GreaterOrEqual(t, in.Amount1, out.Amount1)
	assert.LessOrEqual(t, in.Amount0-out.Amount0, uint64(1))
	assert.LessOrEqual(t, in.Amount1-out.Amount1, uint64(1))

	assert.True(t, state.Liquidity.IsZero())
	assert.True(t, pos.Liquidity.IsZero())
	assert.Zero(t, state.TickArrayBitmap.Count(), "last liquidity removed marks every array absent")
	assert.Len(t, registry.Dropped(), 2)
}

func TestModifyErrors(t *testing.T) {
	state, registry := newPool(t)

	_, err := Modify(state, registry, newPosition(100, 100), sdkmath.NewInt(1), 0)
	require.ErrorIs(t, err, common.ErrInvalidRange)
	_, err = Modify(state, registry, newPosition(5, 100), sdkmath.NewInt(1), 0)
	require.ErrorIs(t, err, common.ErrInvalidRange)
	_, err = Modify(state, registry, newPosition(fixedpoint.MinTick-4, 100), sdkmath.NewInt(1), 0)
	require.ErrorIs(t, err, common.ErrInvalidRange)

	pos := newPosition(-100, 100)
	_, err = Modify(state, registry, pos, sdkmath.NewInt(10), 0)
	require.NoError(t, err)
	_, err = Modify(state, registry, pos, sdkmath.NewInt(-11), 0)
	require.ErrorIs(t, err, common.ErrLiquidityUnderflow)

	_, err = Modify(state, registry, newPosition(-100, 100), sdkmath.ZeroInt(), 0)
	require.ErrorIs(t, err, common.ErrZeroLiquidityPoke)
}

// Pool liquidity always equals the summed liquidity of positions whose range contains
// the current tick, for any interleaving of deposits and withdrawals.
func TestPoolLiquidityMatchesActivePositions(t *testing.T) {
	state, registry := newPool(t)
	rng := rand.New(rand.NewSource(7))

	var positions []*domain.Position
	for i := 0; i < 200; i++ {
		if len(positions) == 0 || rng.Intn(3) > 0 {
			lower := int32(rng.Intn(40)-20) * 10
			upper := lower + int32(rng.Intn(10)+1)*10
			pos := newPosition(lower, upper)
			pos.Owner = solana.PublicKey{byte(i)}
			_, err := Modify(state, registry, pos, sdkmath.NewInt(int64(rng.Intn(1_000_000)+1)), 0)
			require.NoError(t, err)
			positions = append(positions, pos)
		} else {
			pos := positions[rng.Intn(len(positions))]
			if pos.Liquidity.IsZero() {
				continue
			}
			part := rng.Int63n(int64(pos.Liquidity.Lo)) + 1
			_, err := Modify(state, registry, pos, sdkmath.NewInt(-part), 0)
			require.NoError(t, err)
		}

		sum := uint128.Zero
		for _, p := range positions {
			if p.TickLower <= state.TickCurrent && state.TickCurrent < p.TickUpper {
				sum = sum.Add(p.Liquidity)
			}
		}
		require.True(t, sum.Equals(state.Liquidity), "step %d: pool %s positions %s", i, state.Liquidity, sum)
	}

	for _, p := range positions {
		for _, idx := range []int32{p.TickLower, p.TickUpper} {
			tick, err := registry.Tick(idx)
			require.NoError(t, err)
			start := ticks.ArrayStartIndex(idx, state.TickSpacing)
			ta, err := registry.GetOrCreateTickArray(start)
			require.NoError(t, err)
			if tick.IsInitialized() {
				assert.NotZero(t, ta.InitializedTickCount)
			}
		}
	}
}

func TestLiquidityFromAmounts(t *testing.T) {
	state, registry := newPool(t)

	l, err := LiquidityFromAmounts(state.SqrtPriceX64, -600, 600, 1_000_000, 1_000_000)
	require.NoError(t, err)
	require.False(t, l.IsZero())

	res, err := Modify(state, registry, newPosition(-600, 600), fixedpoint.LiquidityInt(l), 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Amount0, uint64(1_000_001))
	assert.LessOrEqual(t, res.Amount1, uint64(1_000_001))

	below, err := LiquidityFromAmounts(state.SqrtPriceX64, 100, 200, 5_000, 0)
	require.NoError(t, err)
	assert.False(t, below.IsZero(), "a range above the price is funded by token0 alone")
}
