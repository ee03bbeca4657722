package ticks

import (
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
)

// A tick's "outside" growth is the growth accrued on the side of the tick away from
// the current price. It is seeded with the global value when the tick is initialized
// at or below the current tick (as if all prior growth happened below it) and is
// reflected (global - outside) every time the price crosses the tick. With both
// boundary ticks carrying that invariant:
//
//	below(lower) = outside(lower)          if current >= lower, else global - outside(lower)
//	above(upper) = outside(upper)          if current <  upper, else global - outside(upper)
//	inside       = global - below - above
//
// All arithmetic wraps modulo 2^128. Only differences between snapshots of inside are
// meaningful, and those are exact as long as less than 2^128 accrues between them.

func growthBelow(outside, global uint128.Uint128, tickCurrent, tick int32) uint128.Uint128 {
	if tickCurrent >= tick {
		return outside
	}
	return global.SubWrap(outside)
}

func growthAbove(outside, global uint128.Uint128, tickCurrent, tick int32) uint128.Uint128 {
	if tickCurrent < tick {
		return outside
	}
	return global.SubWrap(outside)
}

func growthInside(lowerOutside, upperOutside, global uint128.Uint128, tickCurrent, lower, upper int32) uint128.Uint128 {
	below := growthBelow(lowerOutside, global, tickCurrent, lower)
	above := growthAbove(upperOutside, global, tickCurrent, upper)
	return global.SubWrap(below).SubWrap(above)
}

// FeeGrowthInside returns the per-unit fee growth of both tokens inside [lower, upper).
func FeeGrowthInside(lower, upper *domain.Tick, tickCurrent int32, global0, global1 uint128.Uint128) (uint128.Uint128, uint128.Uint128) {
	inside0 := growthInside(lower.FeeGrowthOutside0X64, upper.FeeGrowthOutside0X64, global0, tickCurrent, lower.Tick, upper.Tick)
	inside1 := growthInside(lower.FeeGrowthOutside1X64, upper.FeeGrowthOutside1X64, global1, tickCurrent, lower.Tick, upper.Tick)
	return inside0, inside1
}

// RewardGrowthsInside returns the per-unit growth of each initialized reward stream
// inside [lower, upper). Uninitialized streams report zero.
func RewardGrowthsInside(lower, upper *domain.Tick, tickCurrent int32, rewards *[domain.RewardNum]domain.RewardInfo) [domain.RewardNum]uint128.Uint128 {
	var out [domain.RewardNum]uint128.Uint128
	for i := range rewards {
		if !rewards[i].Initialized() {
			continue
		}
		out[i] = growthInside(
			lower.RewardGrowthsOutsideX64[i],
			upper.RewardGrowthsOutsideX64[i],
			rewards[i].RewardGrowthGlobalX64,
			tickCurrent, lower.Tick, upper.Tick,
		)
	}
	return out
}
