// Package rewards accrues the time-based reward streams of a pool.
package rewards

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

// UpdateRewardGrowth brings every initialized stream of pool up to now and returns the
// resulting global growth vector.
//
// For each stream the accrual window is [max(last, open), min(now, end)]. When the pool
// has in-range liquidity, growth += floor(elapsed * emissions / liquidity) and the
// emitted total grows by ceil(elapsed * emissions / Q64), so it never falls behind what
// positions can claim; with zero liquidity the window is skipped (those emissions are
// never distributed). The update is all-or-nothing: on error the pool is left untouched.
func UpdateRewardGrowth(pool *domain.PoolState, now uint64) ([domain.RewardNum]uint128.Uint128, error) {
	infos := pool.RewardInfos
	for i := range infos {
		r := &infos[i]
		if !r.Initialized() {
			continue
		}
		latest := min(now, r.EndTime)
		from := max(r.LastUpdateTime, r.OpenTime)
		if latest > from && !pool.Liquidity.IsZero() {
			elapsed := uint256.NewInt(latest - from)
			delta, err := fixedpoint.MulDivFloor(elapsed, fixedpoint.U256(r.EmissionsPerSecondX64), fixedpoint.U256(pool.Liquidity))
			if err != nil {
				return [domain.RewardNum]uint128.Uint128{}, fmt.Errorf("reward %d growth: %w", i, err)
			}
			growthDelta, err := fixedpoint.ToU128(delta)
			if err != nil {
				return [domain.RewardNum]uint128.Uint128{}, fmt.Errorf("reward %d growth: %w", i, err)
			}
			if r.RewardGrowthGlobalX64, err = fixedpoint.CheckedAdd128(r.RewardGrowthGlobalX64, growthDelta); err != nil {
				return [domain.RewardNum]uint128.Uint128{}, fmt.Errorf("reward %d growth: %w", i, err)
			}

			emitted, err := emittedCeil(latest-from, r.EmissionsPerSecondX64)
			if err != nil {
				return [domain.RewardNum]uint128.Uint128{}, fmt.Errorf("reward %d emitted: %w", i, err)
			}
			if r.RewardTotalEmissioned, err = fixedpoint.CheckedAdd64(r.RewardTotalEmissioned, emitted); err != nil {
				return [domain.RewardNum]uint128.Uint128{}, fmt.Errorf("reward %d emitted: %w", i, err)
			}
		}
		if now > r.LastUpdateTime {
			r.LastUpdateTime = now
		}
		r.RewardState = stateAt(r, now)
	}
	pool.RewardInfos = infos
	return pool.RewardGrowthsGlobal(), nil
}

func stateAt(r *domain.RewardInfo, now uint64) domain.RewardState {
	switch {
	case now >= r.EndTime:
		return domain.RewardStateEnded
	case now >= r.OpenTime:
		return domain.RewardStateOpening
	default:
		return domain.RewardStateInitialized
	}
}

// EmittedAmount returns floor(seconds * emissions / Q64), the token amount a stream
// releases over the given duration.
func EmittedAmount(seconds uint64, emissionsPerSecondX64 uint128.Uint128) (uint64, error) {
	return fixedpoint.GrowthDelta(emissionsPerSecondX64, uint128.From64(seconds))
}

func emittedCeil(seconds uint64, emissionsPerSecondX64 uint128.Uint128) (uint64, error) {
	z, err := fixedpoint.MulDivCeil(uint256.NewInt(seconds), fixedpoint.U256(emissionsPerSecondX64), fixedpoint.U256(fixedpoint.Q64))
	if err != nil {
		return 0, err
	}
	return fixedpoint.ToU64(z)
}

// Snapshot returns the global growth vector without accruing.
func Snapshot(pool *domain.PoolState) [domain.RewardNum]uint128.Uint128 {
	return pool.RewardGrowthsGlobal()
}
