package persistence

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

func samplePool() *domain.PoolState {
	pool := &domain.PoolState{
		ID:                  solana.PublicKey{1},
		AmmConfig:           solana.PublicKey{2},
		TokenMint0:          solana.PublicKey{3},
		TokenMint1:          solana.PublicKey{4},
		TokenVault0:         solana.PublicKey{5},
		TokenVault1:         solana.PublicKey{6},
		TickSpacing:         60,
		SqrtPriceX64:        uint128.New(12345, 1),
		TickCurrent:         -887,
		Liquidity:           uint128.New(0, 1<<40),
		FeeGrowthGlobal0X64: uint128.Max,
		FeeGrowthGlobal1X64: uint128.From64(42),
		ProtocolFeesToken0:  7,
		ProtocolFeesToken1:  ^uint64(0),
		SwapInAmountToken0:  uint128.From64(1),
		SwapOutAmountToken0: uint128.New(9, 9),
		TickArrayBitmap:     ticks.NewBitmap(60),
		ObservationIndex:    3,
		OpenTime:            1_700_000_000,
	}
	pool.TickArrayBitmap.Set(5).Set(200)
	pool.RewardInfos[1] = domain.RewardInfo{
		RewardState:           domain.RewardStateOpening,
		OpenTime:              10,
		EndTime:               20,
		LastUpdateTime:        15,
		EmissionsPerSecondX64: uint128.New(0, 3),
		RewardTotalEmissioned: 11,
		TokenMint:             solana.PublicKey{7},
		TokenVault:            solana.PublicKey{8},
		Authority:             solana.PublicKey{9},
		RewardGrowthGlobalX64: uint128.From64(1 << 62),
	}
	pool.Observations[0] = domain.Observation{BlockTimestamp: 1, Initialized: true}
	pool.Observations[3] = domain.Observation{BlockTimestamp: 9, TickCumulative: -7000, Initialized: true}
	return pool
}

func sampleTickArray() *domain.TickArray {
	ta := domain.NewTickArray(solana.PublicKey{1}, -3600, 60)
	ta.Ticks[0] = domain.Tick{
		Tick:                 -3600,
		LiquidityNet:         sdkmath.NewIntFromBigInt(uint128.New(0, 5).Big()).Neg(),
		LiquidityGross:       uint128.New(0, 5),
		FeeGrowthOutside0X64: uint128.From64(100),
	}
	ta.Ticks[59] = domain.Tick{
		Tick:                    -60,
		LiquidityNet:            sdkmath.NewInt(77),
		LiquidityGross:          uint128.From64(77),
		RewardGrowthsOutsideX64: [domain.RewardNum]uint128.Uint128{uint128.Max, uint128.Zero, uint128.From64(3)},
	}
	ta.InitializedTickCount = 2
	return ta
}

func samplePosition() *domain.Position {
	pos := domain.NewPosition(domain.PositionKey{PoolID: solana.PublicKey{1}, Owner: solana.PublicKey{2}, TickLower: -120, TickUpper: 600})
	pos.Liquidity = uint128.From64(5000)
	pos.FeeGrowthInside0LastX64 = uint128.Max.Sub64(3)
	pos.TokenFeesOwed1 = 12
	pos.RewardInfos[2] = domain.PositionRewardInfo{GrowthInsideLastX64: uint128.From64(8), RewardAmountOwed: 4}
	return pos
}

func TestCodecs(t *testing.T) {
	for _, name := range []string{CodecJSON, CodecBinary} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name)
			require.NoError(t, err)
			assert.Equal(t, name, codec.Name())

			config := &domain.AmmConfig{ID: solana.PublicKey{2}, Index: 4, Owner: solana.PublicKey{9}, TradeFeeRate: 2500, ProtocolFeeRate: 120_000, TickSpacing: 60}
			data, err := codec.EncodeConfig(config)
			require.NoError(t, err)
			gotConfig, err := codec.DecodeConfig(data)
			require.NoError(t, err)
			assert.Equal(t, config, gotConfig)

			pool := samplePool()
			data, err = codec.EncodePool(pool)
			require.NoError(t, err)
			gotPool, err := codec.DecodePool(data)
			require.NoError(t, err)
			assert.True(t, pool.TickArrayBitmap.Equal(gotPool.TickArrayBitmap))
			gotPool.TickArrayBitmap, pool.TickArrayBitmap = nil, nil
			assert.Equal(t, pool, gotPool)

			ta := sampleTickArray()
			data, err = codec.EncodeTickArray(ta)
			require.NoError(t, err)
			gotTA, err := codec.DecodeTickArray(data)
			require.NoError(t, err)
			assert.Equal(t, ta.StartTickIndex, gotTA.StartTickIndex)
			assert.Equal(t, ta.InitializedTickCount, gotTA.InitializedTickCount)
			for i := range ta.Ticks {
				want, got := ta.Ticks[i], gotTA.Ticks[i]
				assert.Equal(t, want.Tick, got.Tick)
				assert.True(t, want.Net().Equal(got.Net()), "slot %d net %s != %s", i, want.Net(), got.Net())
				assert.Equal(t, want.LiquidityGross, got.LiquidityGross)
				assert.Equal(t, want.FeeGrowthOutside0X64, got.FeeGrowthOutside0X64)
				assert.Equal(t, want.RewardGrowthsOutsideX64, got.RewardGrowthsOutsideX64)
			}

			pos := samplePosition()
			data, err = codec.EncodePosition(pos)
			require.NoError(t, err)
			gotPos, err := codec.DecodePosition(data)
			require.NoError(t, err)
			assert.Equal(t, pos, gotPos)
		})
	}
}

func TestBinaryCodecRejectsForeignRecords(t *testing.T) {
	codec := BinaryCodec{}
	data, err := codec.EncodePosition(samplePosition())
	require.NoError(t, err)

	_, err = codec.DecodePool(data)
	require.Error(t, err, "tag mismatch")
	_, err = codec.DecodePosition(data[:len(data)-1])
	require.Error(t, err, "truncated")
	_, err = codec.DecodePosition(append(data, 0))
	require.Error(t, err, "trailing bytes")
}

func TestNewCodecUnknown(t *testing.T) {
	_, err := NewCodec("xml")
	require.Error(t, err)
	codec, err := NewCodec("")
	require.NoError(t, err)
	assert.Equal(t, CodecJSON, codec.Name())
}
