package ticks

import (
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

// ArraySource loads persisted tick arrays. It returns (nil, nil) when the array does
// not exist.
type ArraySource interface {
	LoadTickArray(start int32) (*domain.TickArray, error)
}

// Registry is the tick view of one pool during one operation. Arrays are loaded
// lazily from the source and copied; the pool's bitmap is updated in place.
type Registry struct {
	pool    *domain.PoolState
	source  ArraySource
	arrays  map[int32]*domain.TickArray
	touched map[int32]struct{}
	dropped map[int32]struct{}
}

// NewRegistry binds a registry to a pool. source may be nil for a pool with no
// persisted arrays.
func NewRegistry(pool *domain.PoolState, source ArraySource) *Registry {
	if pool.TickArrayBitmap == nil {
		pool.TickArrayBitmap = NewBitmap(pool.TickSpacing)
	}
	return &Registry{
		pool:    pool,
		source:  source,
		arrays:  make(map[int32]*domain.TickArray),
		touched: make(map[int32]struct{}),
		dropped: make(map[int32]struct{}),
	}
}

func (r *Registry) spacing() uint16 {
	return r.pool.TickSpacing
}

func (r *Registry) hasArray(start int32) bool {
	return r.pool.TickArrayBitmap.Test(bitIndex(start, r.spacing()))
}

// load returns the array at start, or nil if it does not exist.
func (r *Registry) load(start int32) (*domain.TickArray, error) {
	if ta, ok := r.arrays[start]; ok {
		return ta, nil
	}
	if _, ok := r.dropped[start]; ok || !r.hasArray(start) || r.source == nil {
		return nil, nil
	}
	ta, err := r.source.LoadTickArray(start)
	if err != nil {
		return nil, fmt.Errorf("load tick array %d: %w", start, err)
	}
	if ta == nil {
		return nil, fmt.Errorf("tick array %d marked present but missing: %w", start, common.ErrInvalidTickArray)
	}
	ta = ta.Clone()
	r.arrays[start] = ta
	return ta, nil
}

// GetOrCreateTickArray returns the array at start, creating an empty one if needed.
// A created array is not marked present until one of its ticks is initialized.
func (r *Registry) GetOrCreateTickArray(start int32) (*domain.TickArray, error) {
	if err := CheckArrayStart(start, r.spacing()); err != nil {
		return nil, err
	}
	ta, err := r.load(start)
	if err != nil {
		return nil, err
	}
	if ta == nil {
		ta = domain.NewTickArray(r.pool.ID, start, r.spacing())
		r.arrays[start] = ta
		delete(r.dropped, start)
	}
	return ta, nil
}

func (r *Registry) slot(index int32, create bool) (*domain.TickArray, *domain.Tick, error) {
	if err := CheckTick(index, r.spacing()); err != nil {
		return nil, nil, err
	}
	start := ArrayStartIndex(index, r.spacing())
	var (
		ta  *domain.TickArray
		err error
	)
	if create {
		ta, err = r.GetOrCreateTickArray(start)
	} else {
		ta, err = r.load(start)
	}
	if err != nil || ta == nil {
		return nil, nil, err
	}
	offset := (index - start) / int32(r.spacing())
	return ta, &ta.Ticks[offset], nil
}

// Tick returns a copy of the tick at index. Ticks in absent arrays are returned
// uninitialized.
func (r *Registry) Tick(index int32) (domain.Tick, error) {
	_, t, err := r.slot(index, false)
	if err != nil {
		return domain.Tick{}, err
	}
	if t == nil {
		return domain.Tick{Tick: index, LiquidityNet: sdkmath.ZeroInt()}, nil
	}
	return *t, nil
}

func (r *Registry) markTouched(start int32) {
	r.touched[start] = struct{}{}
}

// UpdateTick applies a liquidity delta to the tick at index and reports whether the
// tick flipped between initialized and uninitialized.
//
// On initialization, the outside growths are seeded with the globals if the tick is at
// or below tickCurrent. Lower boundaries add delta to LiquidityNet; upper boundaries
// subtract it.
func (r *Registry) UpdateTick(
	index int32,
	delta sdkmath.Int,
	tickCurrent int32,
	feeGrowthGlobal0, feeGrowthGlobal1 uint128.Uint128,
	rewardGrowthsGlobal [domain.RewardNum]uint128.Uint128,
	upper bool,
	maxLiquidity uint128.Uint128,
) (bool, error) {
	ta, t, err := r.slot(index, true)
	if err != nil {
		return false, err
	}

	grossBefore := t.LiquidityGross
	grossAfter, err := fixedpoint.AddDelta(grossBefore, delta)
	if err != nil {
		return false, fmt.Errorf("tick %d: %w", index, err)
	}
	if grossAfter.Cmp(maxLiquidity) > 0 {
		return false, fmt.Errorf("tick %d gross %s above %s: %w", index, grossAfter, maxLiquidity, common.ErrLiquidityOverflow)
	}
	flipped := grossAfter.IsZero() != grossBefore.IsZero()

	if grossBefore.IsZero() && index <= tickCurrent {
		t.FeeGrowthOutside0X64 = feeGrowthGlobal0
		t.FeeGrowthOutside1X64 = feeGrowthGlobal1
		for i := range rewardGrowthsGlobal {
			if r.pool.RewardInfos[i].Initialized() {
				t.RewardGrowthsOutsideX64[i] = rewardGrowthsGlobal[i]
			}
		}
	}

	t.Tick = index
	t.LiquidityGross = grossAfter
	if upper {
		t.LiquidityNet = t.Net().Sub(delta)
	} else {
		t.LiquidityNet = t.Net().Add(delta)
	}

	if flipped && !grossAfter.IsZero() {
		ta.InitializedTickCount++
		if ta.InitializedTickCount == 1 {
			r.pool.TickArrayBitmap.Set(bitIndex(ta.StartTickIndex, r.spacing()))
		}
	}
	r.markTouched(ta.StartTickIndex)
	return flipped, nil
}

// ClearTick resets a tick whose gross liquidity dropped to zero. When the last
// initialized tick of an array is cleared, the array is dropped and its bit cleared.
func (r *Registry) ClearTick(index int32) error {
	ta, t, err := r.slot(index, false)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	if t.IsInitialized() {
		return fmt.Errorf("clear tick %d with gross %s: %w", index, t.LiquidityGross, common.ErrInvalidTickArray)
	}
	t.Clear()
	if ta.InitializedTickCount > 0 {
		ta.InitializedTickCount--
	}
	if ta.InitializedTickCount == 0 {
		r.pool.TickArrayBitmap.Clear(bitIndex(ta.StartTickIndex, r.spacing()))
		delete(r.arrays, ta.StartTickIndex)
		delete(r.touched, ta.StartTickIndex)
		r.dropped[ta.StartTickIndex] = struct{}{}
		return nil
	}
	r.markTouched(ta.StartTickIndex)
	return nil
}

// CrossTick reflects the outside growths of an initialized tick as the price moves
// across it and returns its LiquidityNet.
func (r *Registry) CrossTick(
	index int32,
	feeGrowthGlobal0, feeGrowthGlobal1 uint128.Uint128,
	rewardGrowthsGlobal [domain.RewardNum]uint128.Uint128,
) (sdkmath.Int, error) {
	ta, t, err := r.slot(index, false)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if t == nil || !t.IsInitialized() {
		return sdkmath.Int{}, fmt.Errorf("cross uninitialized tick %d: %w", index, common.ErrInvalidTickArray)
	}
	t.FeeGrowthOutside0X64 = feeGrowthGlobal0.SubWrap(t.FeeGrowthOutside0X64)
	t.FeeGrowthOutside1X64 = feeGrowthGlobal1.SubWrap(t.FeeGrowthOutside1X64)
	for i := range rewardGrowthsGlobal {
		if r.pool.RewardInfos[i].Initialized() {
			t.RewardGrowthsOutsideX64[i] = rewardGrowthsGlobal[i].SubWrap(t.RewardGrowthsOutsideX64[i])
		}
	}
	r.markTouched(ta.StartTickIndex)
	return t.Net(), nil
}

// NextInitializedTick finds the nearest initialized tick from `from` in the swap
// direction. Moving down (zeroForOne) the search includes `from` itself; moving up it
// starts strictly above. found is false when no initialized tick remains.
func (r *Registry) NextInitializedTick(from int32, zeroForOne bool) (int32, bool, error) {
	spacing := r.spacing()
	start := ArrayStartIndex(from, spacing)
	if start < ArrayStartIndex(fixedpoint.MinTick, spacing) || start > ArrayStartIndex(fixedpoint.MaxTick, spacing) {
		return 0, false, nil
	}

	ta, err := r.load(start)
	if err != nil {
		return 0, false, err
	}
	if ta != nil {
		offset := int((from - start) / int32(spacing))
		if idx, ok := scanArray(ta, offset, zeroForOne, true); ok {
			return ta.Ticks[idx].Tick, true, nil
		}
	}

	bit := bitIndex(start, spacing)
	for {
		var (
			next uint
			ok   bool
		)
		if zeroForOne {
			if bit == 0 {
				return 0, false, nil
			}
			next, ok = r.pool.TickArrayBitmap.PreviousSet(bit - 1)
		} else {
			next, ok = r.pool.TickArrayBitmap.NextSet(bit + 1)
		}
		if !ok || next >= BitmapLen(spacing) {
			return 0, false, nil
		}
		bit = next

		ta, err := r.load(startFromBit(bit, spacing))
		if err != nil {
			return 0, false, err
		}
		if ta == nil {
			continue
		}
		offset := 0
		if zeroForOne {
			offset = domain.TickArraySize - 1
		}
		if idx, ok := scanArray(ta, offset, zeroForOne, false); ok {
			return ta.Ticks[idx].Tick, true, nil
		}
	}
}

// scanArray looks for an initialized slot starting at offset. With exclusive set and
// moving up, offset itself is skipped.
func scanArray(ta *domain.TickArray, offset int, zeroForOne, exclusive bool) (int, bool) {
	if zeroForOne {
		for i := offset; i >= 0; i-- {
			if ta.Ticks[i].IsInitialized() {
				return i, true
			}
		}
		return 0, false
	}
	i := offset
	if exclusive {
		i++
	}
	for ; i < domain.TickArraySize; i++ {
		if ta.Ticks[i].IsInitialized() {
			return i, true
		}
	}
	return 0, false
}

// FeeGrowthInside returns the fee growth inside [lower, upper) for the pool's state.
func (r *Registry) FeeGrowthInside(lower, upper int32) (uint128.Uint128, uint128.Uint128, error) {
	lt, err := r.Tick(lower)
	if err != nil {
		return uint128.Zero, uint128.Zero, err
	}
	ut, err := r.Tick(upper)
	if err != nil {
		return uint128.Zero, uint128.Zero, err
	}
	in0, in1 := FeeGrowthInside(&lt, &ut, r.pool.TickCurrent, r.pool.FeeGrowthGlobal0X64, r.pool.FeeGrowthGlobal1X64)
	return in0, in1, nil
}

// RewardGrowthsInside returns the reward growths inside [lower, upper) for the pool's state.
func (r *Registry) RewardGrowthsInside(lower, upper int32) ([domain.RewardNum]uint128.Uint128, error) {
	lt, err := r.Tick(lower)
	if err != nil {
		return [domain.RewardNum]uint128.Uint128{}, err
	}
	ut, err := r.Tick(upper)
	if err != nil {
		return [domain.RewardNum]uint128.Uint128{}, err
	}
	return RewardGrowthsInside(&lt, &ut, r.pool.TickCurrent, &r.pool.RewardInfos), nil
}

// Touched returns the arrays modified during the operation, ordered by start index.
func (r *Registry) Touched() []*domain.TickArray {
	out := make([]*domain.TickArray, 0, len(r.touched))
	for start := range r.touched {
		if ta, ok := r.arrays[start]; ok {
			out = append(out, ta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTickIndex < out[j].StartTickIndex })
	return out
}

// Dropped returns the start indexes of arrays whose last initialized tick was cleared.
func (r *Registry) Dropped() []int32 {
	out := make([]int32, 0, len(r.dropped))
	for start := range r.dropped {
		out = append(out, start)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
