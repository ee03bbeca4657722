package domain

import (
	sdkmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// Tick is the per-boundary record. It is initialized iff LiquidityGross > 0.
type Tick struct {
	Tick           int32
	LiquidityNet   sdkmath.Int
	LiquidityGross uint128.Uint128

	FeeGrowthOutside0X64    uint128.Uint128
	FeeGrowthOutside1X64    uint128.Uint128
	RewardGrowthsOutsideX64 [RewardNum]uint128.Uint128
}

func (t *Tick) IsInitialized() bool {
	return !t.LiquidityGross.IsZero()
}

// Net returns LiquidityNet, treating the unset value as zero.
func (t *Tick) Net() sdkmath.Int {
	if t.LiquidityNet.IsNil() {
		return sdkmath.ZeroInt()
	}
	return t.LiquidityNet
}

// Clear resets the tick to its uninitialized state, keeping its index.
func (t *Tick) Clear() {
	*t = Tick{Tick: t.Tick, LiquidityNet: sdkmath.ZeroInt()}
}

// TickArray is a fixed-size block of consecutive tick slots.
type TickArray struct {
	PoolID               solana.PublicKey
	StartTickIndex       int32
	Ticks                [TickArraySize]Tick
	InitializedTickCount uint8
}

// NewTickArray returns an empty array whose slots carry their tick indexes.
func NewTickArray(poolID solana.PublicKey, start int32, spacing uint16) *TickArray {
	ta := &TickArray{PoolID: poolID, StartTickIndex: start}
	for i := range ta.Ticks {
		ta.Ticks[i] = Tick{Tick: start + int32(i)*int32(spacing), LiquidityNet: sdkmath.ZeroInt()}
	}
	return ta
}

func (ta *TickArray) Clone() *TickArray {
	c := *ta
	return &c
}
