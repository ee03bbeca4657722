// Package oracle maintains the pool's tick accumulator ring buffer. The pool only
// writes observations; nothing in the core reads them back for pricing.
package oracle

import "github.com/hxuan190/clmm-core/internal/domain"

// Initialize writes the first observation of a new pool.
func Initialize(pool *domain.PoolState, now uint64) {
	pool.Observations = [domain.ObservationNum]domain.Observation{}
	pool.Observations[0] = domain.Observation{BlockTimestamp: now, Initialized: true}
	pool.ObservationIndex = 0
}

// Update accumulates tick (the tick in force since the last observation) up to now.
// At most one observation is written per timestamp.
func Update(pool *domain.PoolState, now uint64, tick int32) {
	last := pool.Observations[pool.ObservationIndex]
	if !last.Initialized {
		Initialize(pool, now)
		return
	}
	if now <= last.BlockTimestamp {
		return
	}
	next := (pool.ObservationIndex + 1) % domain.ObservationNum
	pool.Observations[next] = domain.Observation{
		BlockTimestamp: now,
		TickCumulative: last.TickCumulative + int64(tick)*int64(now-last.BlockTimestamp),
		Initialized:    true,
	}
	pool.ObservationIndex = next
}

// Window returns initialized observations from oldest to newest.
func Window(pool *domain.PoolState) []domain.Observation {
	out := make([]domain.Observation, 0, domain.ObservationNum)
	for i := 1; i <= domain.ObservationNum; i++ {
		o := pool.Observations[(int(pool.ObservationIndex)+i)%domain.ObservationNum]
		if o.Initialized {
			out = append(out, o)
		}
	}
	return out
}
