package domain

import (
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

const (
	// RewardNum is the number of reward streams a pool carries.
	RewardNum = 3
	// TickArraySize is the number of tick slots per tick array.
	TickArraySize = 60
	// ObservationNum is the length of the observation ring buffer.
	ObservationNum = 100
)

type RewardState uint8

const (
	RewardStateUninitialized RewardState = iota
	RewardStateInitialized
	RewardStateOpening
	RewardStateEnded
)

func (s RewardState) String() string {
	switch s {
	case RewardStateUninitialized:
		return "Uninitialized"
	case RewardStateInitialized:
		return "Initialized"
	case RewardStateOpening:
		return "Opening"
	case RewardStateEnded:
		return "Ended"
	default:
		return "UNKNOWN"
	}
}

// RewardInfo is one time-based reward stream of a pool.
type RewardInfo struct {
	RewardState           RewardState
	OpenTime              uint64
	EndTime               uint64
	LastUpdateTime        uint64
	EmissionsPerSecondX64 uint128.Uint128
	RewardTotalEmissioned uint64
	RewardClaimed         uint64
	TokenMint             solana.PublicKey
	TokenVault            solana.PublicKey
	Authority             solana.PublicKey
	RewardGrowthGlobalX64 uint128.Uint128
}

func (r *RewardInfo) Initialized() bool {
	return r.RewardState != RewardStateUninitialized
}

// Observation is one entry of the pool's tick accumulator ring buffer.
type Observation struct {
	BlockTimestamp uint64
	TickCumulative int64
	Initialized    bool
}

// PoolState is the per-pool accounting record.
//
// SqrtPriceX64 lies in [MinSqrtPriceX64, MaxSqrtPriceX64] and TickCurrent is the
// greatest tick whose price does not exceed it. Liquidity is the sum of the liquidity
// of every position whose range contains TickCurrent.
type PoolState struct {
	ID          solana.PublicKey
	AmmConfig   solana.PublicKey
	TokenMint0  solana.PublicKey
	TokenMint1  solana.PublicKey
	TokenVault0 solana.PublicKey
	TokenVault1 solana.PublicKey

	TickSpacing  uint16
	SqrtPriceX64 uint128.Uint128
	TickCurrent  int32
	Liquidity    uint128.Uint128

	FeeGrowthGlobal0X64 uint128.Uint128
	FeeGrowthGlobal1X64 uint128.Uint128
	ProtocolFeesToken0  uint64
	ProtocolFeesToken1  uint64

	SwapInAmountToken0  uint128.Uint128
	SwapOutAmountToken1 uint128.Uint128
	SwapInAmountToken1  uint128.Uint128
	SwapOutAmountToken0 uint128.Uint128

	RewardInfos [RewardNum]RewardInfo

	// TickArrayBitmap has one bit per possible tick array; set iff the array holds
	// at least one initialized tick.
	TickArrayBitmap *bitset.BitSet

	ObservationIndex uint16
	Observations     [ObservationNum]Observation

	OpenTime uint64
}

// Clone returns a deep copy suitable for a transaction working set.
func (p *PoolState) Clone() *PoolState {
	c := *p
	if p.TickArrayBitmap != nil {
		c.TickArrayBitmap = p.TickArrayBitmap.Clone()
	}
	return &c
}

// RewardGrowthsGlobal returns the current global growth of every reward stream.
func (p *PoolState) RewardGrowthsGlobal() [RewardNum]uint128.Uint128 {
	var out [RewardNum]uint128.Uint128
	for i := range p.RewardInfos {
		out[i] = p.RewardInfos[i].RewardGrowthGlobalX64
	}
	return out
}

// Price returns token1 per token0 as a float, for display only.
func (p *PoolState) Price() float64 {
	sqrt := new(big.Float).SetInt(p.SqrtPriceX64.Big())
	sqrt.Quo(sqrt, new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 64)))
	price, _ := new(big.Float).Mul(sqrt, sqrt).Float64()
	return price
}

// LatestObservation returns the most recently written observation.
func (p *PoolState) LatestObservation() Observation {
	return p.Observations[p.ObservationIndex]
}
