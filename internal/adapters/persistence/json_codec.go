package persistence

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/bits-and-blooms/bitset"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

// JSONCodec stores records as JSON. Wide integers are decimal strings and keys are base58.
type JSONCodec struct{}

type StoredConfig struct {
	ID              string `json:"id"`
	Index           uint16 `json:"index"`
	Owner           string `json:"owner"`
	TradeFeeRate    uint32 `json:"tradeFeeRate"`
	ProtocolFeeRate uint32 `json:"protocolFeeRate"`
	TickSpacing     uint16 `json:"tickSpacing"`
}

type StoredRewardInfo struct {
	RewardState           uint8  `json:"rewardState"`
	OpenTime              uint64 `json:"openTime"`
	EndTime               uint64 `json:"endTime"`
	LastUpdateTime        uint64 `json:"lastUpdateTime"`
	EmissionsPerSecondX64 string `json:"emissionsPerSecondX64"`
	RewardTotalEmissioned uint64 `json:"rewardTotalEmissioned"`
	RewardClaimed         uint64 `json:"rewardClaimed"`
	TokenMint             string `json:"tokenMint"`
	TokenVault            string `json:"tokenVault"`
	Authority             string `json:"authority"`
	RewardGrowthGlobalX64 string `json:"rewardGrowthGlobalX64"`
}

type StoredObservation struct {
	BlockTimestamp uint64 `json:"blockTimestamp"`
	TickCumulative int64  `json:"tickCumulative"`
}

type StoredPool struct {
	ID                  string             `json:"id"`
	AmmConfig           string             `json:"ammConfig"`
	TokenMint0          string             `json:"tokenMint0"`
	TokenMint1          string             `json:"tokenMint1"`
	TokenVault0         string             `json:"tokenVault0"`
	TokenVault1         string             `json:"tokenVault1"`
	TickSpacing         uint16             `json:"tickSpacing"`
	SqrtPriceX64        string             `json:"sqrtPriceX64"`
	TickCurrent         int32              `json:"tickCurrent"`
	Liquidity           string             `json:"liquidity"`
	FeeGrowthGlobal0X64 string             `json:"feeGrowthGlobal0X64"`
	FeeGrowthGlobal1X64 string             `json:"feeGrowthGlobal1X64"`
	ProtocolFeesToken0  uint64             `json:"protocolFeesToken0"`
	ProtocolFeesToken1  uint64             `json:"protocolFeesToken1"`
	SwapInAmountToken0  string             `json:"swapInAmountToken0"`
	SwapOutAmountToken1 string             `json:"swapOutAmountToken1"`
	SwapInAmountToken1  string             `json:"swapInAmountToken1"`
	SwapOutAmountToken0 string             `json:"swapOutAmountToken0"`
	RewardInfos         []StoredRewardInfo `json:"rewardInfos"`
	TickArrayBitmap     *bitset.BitSet     `json:"tickArrayBitmap"`
	ObservationIndex    uint16             `json:"observationIndex"`
	// only initialized observations, in slot order
	Observations []StoredObservationSlot `json:"observations"`
	OpenTime     uint64                  `json:"openTime"`
}

type StoredObservationSlot struct {
	Slot uint16 `json:"slot"`
	StoredObservation
}

type StoredTick struct {
	Tick                    int32    `json:"tick"`
	LiquidityNet            string   `json:"liquidityNet"`
	LiquidityGross          string   `json:"liquidityGross"`
	FeeGrowthOutside0X64    string   `json:"feeGrowthOutside0X64"`
	FeeGrowthOutside1X64    string   `json:"feeGrowthOutside1X64"`
	RewardGrowthsOutsideX64 []string `json:"rewardGrowthsOutsideX64"`
}

type StoredTickArray struct {
	PoolID               string `json:"poolId"`
	StartTickIndex       int32  `json:"startTickIndex"`
	TickSpacing          uint16 `json:"tickSpacing"`
	InitializedTickCount uint8  `json:"initializedTickCount"`
	// only initialized ticks; the rest are rebuilt empty
	Ticks []StoredTick `json:"ticks"`
}

type StoredPositionReward struct {
	GrowthInsideLastX64 string `json:"growthInsideLastX64"`
	RewardAmountOwed    uint64 `json:"rewardAmountOwed"`
}

type StoredPosition struct {
	PoolID                  string                 `json:"poolId"`
	Owner                   string                 `json:"owner"`
	TickLower               int32                  `json:"tickLower"`
	TickUpper               int32                  `json:"tickUpper"`
	Liquidity               string                 `json:"liquidity"`
	FeeGrowthInside0LastX64 string                 `json:"feeGrowthInside0LastX64"`
	FeeGrowthInside1LastX64 string                 `json:"feeGrowthInside1LastX64"`
	TokenFeesOwed0          uint64                 `json:"tokenFeesOwed0"`
	TokenFeesOwed1          uint64                 `json:"tokenFeesOwed1"`
	RewardInfos             []StoredPositionReward `json:"rewardInfos"`
}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) EncodeConfig(c *domain.AmmConfig) ([]byte, error) {
	return sonic.Marshal(&StoredConfig{
		ID:              c.ID.String(),
		Index:           c.Index,
		Owner:           c.Owner.String(),
		TradeFeeRate:    c.TradeFeeRate,
		ProtocolFeeRate: c.ProtocolFeeRate,
		TickSpacing:     c.TickSpacing,
	})
}

func (JSONCodec) DecodeConfig(data []byte) (*domain.AmmConfig, error) {
	var stored StoredConfig
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	var p parser
	c := &domain.AmmConfig{
		ID:              p.pubkey("id", stored.ID),
		Index:           stored.Index,
		Owner:           p.pubkey("owner", stored.Owner),
		TradeFeeRate:    stored.TradeFeeRate,
		ProtocolFeeRate: stored.ProtocolFeeRate,
		TickSpacing:     stored.TickSpacing,
	}
	return c, p.err
}

func (JSONCodec) EncodePool(pool *domain.PoolState) ([]byte, error) {
	stored := &StoredPool{
		ID:                  pool.ID.String(),
		AmmConfig:           pool.AmmConfig.String(),
		TokenMint0:          pool.TokenMint0.String(),
		TokenMint1:          pool.TokenMint1.String(),
		TokenVault0:         pool.TokenVault0.String(),
		TokenVault1:         pool.TokenVault1.String(),
		TickSpacing:         pool.TickSpacing,
		SqrtPriceX64:        pool.SqrtPriceX64.String(),
		TickCurrent:         pool.TickCurrent,
		Liquidity:           pool.Liquidity.String(),
		FeeGrowthGlobal0X64: pool.FeeGrowthGlobal0X64.String(),
		FeeGrowthGlobal1X64: pool.FeeGrowthGlobal1X64.String(),
		ProtocolFeesToken0:  pool.ProtocolFeesToken0,
		ProtocolFeesToken1:  pool.ProtocolFeesToken1,
		SwapInAmountToken0:  pool.SwapInAmountToken0.String(),
		SwapOutAmountToken1: pool.SwapOutAmountToken1.String(),
		SwapInAmountToken1:  pool.SwapInAmountToken1.String(),
		SwapOutAmountToken0: pool.SwapOutAmountToken0.String(),
		RewardInfos:         make([]StoredRewardInfo, len(pool.RewardInfos)),
		TickArrayBitmap:     pool.TickArrayBitmap,
		ObservationIndex:    pool.ObservationIndex,
		OpenTime:            pool.OpenTime,
	}
	for i, r := range pool.RewardInfos {
		stored.RewardInfos[i] = StoredRewardInfo{
			RewardState:           uint8(r.RewardState),
			OpenTime:              r.OpenTime,
			EndTime:               r.EndTime,
			LastUpdateTime:        r.LastUpdateTime,
			EmissionsPerSecondX64: r.EmissionsPerSecondX64.String(),
			RewardTotalEmissioned: r.RewardTotalEmissioned,
			RewardClaimed:         r.RewardClaimed,
			TokenMint:             r.TokenMint.String(),
			TokenVault:            r.TokenVault.String(),
			Authority:             r.Authority.String(),
			RewardGrowthGlobalX64: r.RewardGrowthGlobalX64.String(),
		}
	}
	for i, o := range pool.Observations {
		if !o.Initialized {
			continue
		}
		stored.Observations = append(stored.Observations, StoredObservationSlot{
			Slot:              uint16(i),
			StoredObservation: StoredObservation{BlockTimestamp: o.BlockTimestamp, TickCumulative: o.TickCumulative},
		})
	}
	return sonic.Marshal(stored)
}

func (JSONCodec) DecodePool(data []byte) (*domain.PoolState, error) {
	var stored StoredPool
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool: %w", err)
	}
	if len(stored.RewardInfos) != domain.RewardNum {
		return nil, fmt.Errorf("pool %s: %d reward infos", stored.ID, len(stored.RewardInfos))
	}

	var p parser
	pool := &domain.PoolState{
		ID:                  p.pubkey("id", stored.ID),
		AmmConfig:           p.pubkey("ammConfig", stored.AmmConfig),
		TokenMint0:          p.pubkey("tokenMint0", stored.TokenMint0),
		TokenMint1:          p.pubkey("tokenMint1", stored.TokenMint1),
		TokenVault0:         p.pubkey("tokenVault0", stored.TokenVault0),
		TokenVault1:         p.pubkey("tokenVault1", stored.TokenVault1),
		TickSpacing:         stored.TickSpacing,
		SqrtPriceX64:        p.u128("sqrtPriceX64", stored.SqrtPriceX64),
		TickCurrent:         stored.TickCurrent,
		Liquidity:           p.u128("liquidity", stored.Liquidity),
		FeeGrowthGlobal0X64: p.u128("feeGrowthGlobal0X64", stored.FeeGrowthGlobal0X64),
		FeeGrowthGlobal1X64: p.u128("feeGrowthGlobal1X64", stored.FeeGrowthGlobal1X64),
		ProtocolFeesToken0:  stored.ProtocolFeesToken0,
		ProtocolFeesToken1:  stored.ProtocolFeesToken1,
		SwapInAmountToken0:  p.u128("swapInAmountToken0", stored.SwapInAmountToken0),
		SwapOutAmountToken1: p.u128("swapOutAmountToken1", stored.SwapOutAmountToken1),
		SwapInAmountToken1:  p.u128("swapInAmountToken1", stored.SwapInAmountToken1),
		SwapOutAmountToken0: p.u128("swapOutAmountToken0", stored.SwapOutAmountToken0),
		TickArrayBitmap:     stored.TickArrayBitmap,
		ObservationIndex:    stored.ObservationIndex,
		OpenTime:            stored.OpenTime,
	}
	for i, r := range stored.RewardInfos {
		pool.RewardInfos[i] = domain.RewardInfo{
			RewardState:           domain.RewardState(r.RewardState),
			OpenTime:              r.OpenTime,
			EndTime:               r.EndTime,
			LastUpdateTime:        r.LastUpdateTime,
			EmissionsPerSecondX64: p.u128("emissionsPerSecondX64", r.EmissionsPerSecondX64),
			RewardTotalEmissioned: r.RewardTotalEmissioned,
			RewardClaimed:         r.RewardClaimed,
			TokenMint:             p.pubkey("tokenMint", r.TokenMint),
			TokenVault:            p.pubkey("tokenVault", r.TokenVault),
			Authority:             p.pubkey("authority", r.Authority),
			RewardGrowthGlobalX64: p.u128("rewardGrowthGlobalX64", r.RewardGrowthGlobalX64),
		}
	}
	for _, o := range stored.Observations {
		if int(o.Slot) >= domain.ObservationNum {
			return nil, fmt.Errorf("pool %s: observation slot %d", stored.ID, o.Slot)
		}
		pool.Observations[o.Slot] = domain.Observation{
			BlockTimestamp: o.BlockTimestamp,
			TickCumulative: o.TickCumulative,
			Initialized:    true,
		}
	}
	if pool.TickArrayBitmap == nil && pool.TickSpacing > 0 {
		pool.TickArrayBitmap = ticks.NewBitmap(pool.TickSpacing)
	}
	return pool, p.err
}

func (JSONCodec) EncodeTickArray(ta *domain.TickArray) ([]byte, error) {
	stored := &StoredTickArray{
		PoolID:               ta.PoolID.String(),
		StartTickIndex:       ta.StartTickIndex,
		TickSpacing:          arraySpacing(ta),
		InitializedTickCount: ta.InitializedTickCount,
	}
	for i := range ta.Ticks {
		t := &ta.Ticks[i]
		if !t.IsInitialized() {
			continue
		}
		st := StoredTick{
			Tick:                    t.Tick,
			LiquidityNet:            t.Net().String(),
			LiquidityGross:          t.LiquidityGross.String(),
			FeeGrowthOutside0X64:    t.FeeGrowthOutside0X64.String(),
			FeeGrowthOutside1X64:    t.FeeGrowthOutside1X64.String(),
			RewardGrowthsOutsideX64: make([]string, domain.RewardNum),
		}
		for j, g := range t.RewardGrowthsOutsideX64 {
			st.RewardGrowthsOutsideX64[j] = g.String()
		}
		stored.Ticks = append(stored.Ticks, st)
	}
	return sonic.Marshal(stored)
}

func (JSONCodec) DecodeTickArray(data []byte) (*domain.TickArray, error) {
	var stored StoredTickArray
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tick array: %w", err)
	}
	var p parser
	ta := domain.NewTickArray(p.pubkey("poolId", stored.PoolID), stored.StartTickIndex, stored.TickSpacing)
	ta.InitializedTickCount = stored.InitializedTickCount
	for _, st := range stored.Ticks {
		slot, err := tickSlot(ta, stored.TickSpacing, st.Tick)
		if err != nil {
			return nil, err
		}
		if len(st.RewardGrowthsOutsideX64) != domain.RewardNum {
			return nil, fmt.Errorf("tick %d: %d reward growths", st.Tick, len(st.RewardGrowthsOutsideX64))
		}
		t := domain.Tick{
			Tick:                 st.Tick,
			LiquidityNet:         p.signed("liquidityNet", st.LiquidityNet),
			LiquidityGross:       p.u128("liquidityGross", st.LiquidityGross),
			FeeGrowthOutside0X64: p.u128("feeGrowthOutside0X64", st.FeeGrowthOutside0X64),
			FeeGrowthOutside1X64: p.u128("feeGrowthOutside1X64", st.FeeGrowthOutside1X64),
		}
		for j, g := range st.RewardGrowthsOutsideX64 {
			t.RewardGrowthsOutsideX64[j] = p.u128("rewardGrowthsOutsideX64", g)
		}
		ta.Ticks[slot] = t
	}
	return ta, p.err
}

func (JSONCodec) EncodePosition(pos *domain.Position) ([]byte, error) {
	stored := &StoredPosition{
		PoolID:                  pos.PoolID.String(),
		Owner:                   pos.Owner.String(),
		TickLower:               pos.TickLower,
		TickUpper:               pos.TickUpper,
		Liquidity:               pos.Liquidity.String(),
		FeeGrowthInside0LastX64: pos.FeeGrowthInside0LastX64.String(),
		FeeGrowthInside1LastX64: pos.FeeGrowthInside1LastX64.String(),
		TokenFeesOwed0:          pos.TokenFeesOwed0,
		TokenFeesOwed1:          pos.TokenFeesOwed1,
		RewardInfos:             make([]StoredPositionReward, len(pos.RewardInfos)),
	}
	for i, r := range pos.RewardInfos {
		stored.RewardInfos[i] = StoredPositionReward{
			GrowthInsideLastX64: r.GrowthInsideLastX64.String(),
			RewardAmountOwed:    r.RewardAmountOwed,
		}
	}
	return sonic.Marshal(stored)
}

func (JSONCodec) DecodePosition(data []byte) (*domain.Position, error) {
	var stored StoredPosition
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	if len(stored.RewardInfos) != domain.RewardNum {
		return nil, fmt.Errorf("position %s/%s: %d reward infos", stored.PoolID, stored.Owner, len(stored.RewardInfos))
	}
	var p parser
	pos := &domain.Position{
		PoolID:                  p.pubkey("poolId", stored.PoolID),
		Owner:                   p.pubkey("owner", stored.Owner),
		TickLower:               stored.TickLower,
		TickUpper:               stored.TickUpper,
		Liquidity:               p.u128("liquidity", stored.Liquidity),
		FeeGrowthInside0LastX64: p.u128("feeGrowthInside0LastX64", stored.FeeGrowthInside0LastX64),
		FeeGrowthInside1LastX64: p.u128("feeGrowthInside1LastX64", stored.FeeGrowthInside1LastX64),
		TokenFeesOwed0:          stored.TokenFeesOwed0,
		TokenFeesOwed1:          stored.TokenFeesOwed1,
	}
	for i, r := range stored.RewardInfos {
		pos.RewardInfos[i] = domain.PositionRewardInfo{
			GrowthInsideLastX64: p.u128("growthInsideLastX64", r.GrowthInsideLastX64),
			RewardAmountOwed:    r.RewardAmountOwed,
		}
	}
	return pos, p.err
}

// parser keeps the first conversion error so decoders can build records in one pass.
type parser struct {
	err error
}

func (p *parser) pubkey(field, s string) solana.PublicKey {
	if p.err != nil {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", field, err)
	}
	return pk
}

func (p *parser) u128(field, s string) uint128.Uint128 {
	if p.err != nil {
		return uint128.Zero
	}
	v, err := uint128.FromString(s)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", field, err)
	}
	return v
}

func (p *parser) signed(field, s string) sdkmath.Int {
	if p.err != nil {
		return sdkmath.ZeroInt()
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		p.err = fmt.Errorf("invalid %s: %q", field, s)
		return sdkmath.ZeroInt()
	}
	return v
}
