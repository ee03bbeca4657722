package domain

import (
	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// SwapResult reports what a swap consumed and produced. PriceLimitReached is set when
// the price limit stopped the swap before the specified amount was exhausted.
type SwapResult struct {
	Amount0           uint64
	Amount1           uint64
	AmountIn          uint64
	AmountOut         uint64
	FeeAmount         uint64
	ProtocolFee       uint64
	FinalSqrtPriceX64 uint128.Uint128
	FinalTick         int32
	PriceLimitReached bool
	TicksCrossed      int
	Transfers         []Transfer
}

// LiquidityResult reports the token amounts of a liquidity change. For deposits the
// amounts are what the caller owes the pool; for withdrawals what the pool owes back.
type LiquidityResult struct {
	Position       *Position
	LiquidityDelta sdkmath.Int
	Amount0        uint64
	Amount1        uint64
	Transfers      []Transfer
}

// RewardInitResult reports the funding a reward stream requires.
type RewardInitResult struct {
	RewardIndex  uint8
	RewardAmount uint64
	Transfers    []Transfer
}

// CollectResult reports amounts drained from owed balances.
type CollectResult struct {
	Amount0   uint64
	Amount1   uint64
	Rewards   [RewardNum]uint64
	Transfers []Transfer
}
