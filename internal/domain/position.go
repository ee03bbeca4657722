package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

type PositionRewardInfo struct {
	GrowthInsideLastX64 uint128.Uint128
	RewardAmountOwed    uint64
}

// PositionKey identifies a position: one owner's liquidity over one range of one pool.
type PositionKey struct {
	PoolID    solana.PublicKey
	Owner     solana.PublicKey
	TickLower int32
	TickUpper int32
}

func (k PositionKey) String() string {
	return fmt.Sprintf("%s/%s/%d/%d", k.PoolID, k.Owner, k.TickLower, k.TickUpper)
}

// Position is a liquidity provider's stake over [TickLower, TickUpper).
type Position struct {
	PoolID    solana.PublicKey
	Owner     solana.PublicKey
	TickLower int32
	TickUpper int32
	Liquidity uint128.Uint128

	FeeGrowthInside0LastX64 uint128.Uint128
	FeeGrowthInside1LastX64 uint128.Uint128
	TokenFeesOwed0          uint64
	TokenFeesOwed1          uint64

	RewardInfos [RewardNum]PositionRewardInfo
}

func NewPosition(key PositionKey) *Position {
	return &Position{
		PoolID:    key.PoolID,
		Owner:     key.Owner,
		TickLower: key.TickLower,
		TickUpper: key.TickUpper,
	}
}

func (p *Position) Key() PositionKey {
	return PositionKey{PoolID: p.PoolID, Owner: p.Owner, TickLower: p.TickLower, TickUpper: p.TickUpper}
}

func (p *Position) Clone() *Position {
	c := *p
	return &c
}

// IsEmpty reports whether the position holds no liquidity and nothing is owed on it.
func (p *Position) IsEmpty() bool {
	if !p.Liquidity.IsZero() || p.TokenFeesOwed0 != 0 || p.TokenFeesOwed1 != 0 {
		return false
	}
	for _, r := range p.RewardInfos {
		if r.RewardAmountOwed != 0 {
			return false
		}
	}
	return true
}
