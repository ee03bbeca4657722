// Package ticks keeps the per-boundary tick records of a pool and the bitmap that
// tells which tick arrays hold initialized ticks.
package ticks

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
)

// TicksPerArray is the tick-index span covered by one array.
func TicksPerArray(spacing uint16) int32 {
	return int32(spacing) * domain.TickArraySize
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ArrayStartIndex returns the start index of the array containing tick.
func ArrayStartIndex(tick int32, spacing uint16) int32 {
	span := TicksPerArray(spacing)
	return floorDiv(tick, span) * span
}

// CheckTick validates that tick is in bounds and a multiple of spacing.
func CheckTick(tick int32, spacing uint16) error {
	if tick < fixedpoint.MinTick || tick > fixedpoint.MaxTick {
		return fmt.Errorf("tick %d: %w", tick, common.ErrInvalidTickIndex)
	}
	if tick%int32(spacing) != 0 {
		return fmt.Errorf("tick %d not a multiple of spacing %d: %w", tick, spacing, common.ErrInvalidTickIndex)
	}
	return nil
}

// CheckArrayStart validates an array start index.
func CheckArrayStart(start int32, spacing uint16) error {
	if start != ArrayStartIndex(start, spacing) {
		return fmt.Errorf("start %d not aligned to %d: %w", start, TicksPerArray(spacing), common.ErrInvalidTickArray)
	}
	if start < ArrayStartIndex(fixedpoint.MinTick, spacing) || start > ArrayStartIndex(fixedpoint.MaxTick, spacing) {
		return fmt.Errorf("start %d out of bounds: %w", start, common.ErrInvalidTickArray)
	}
	return nil
}

// BitmapLen is the number of arrays a pool with the given spacing can have.
func BitmapLen(spacing uint16) uint {
	span := TicksPerArray(spacing)
	return uint(floorDiv(fixedpoint.MaxTick, span)-floorDiv(fixedpoint.MinTick, span)) + 1
}

// NewBitmap returns an empty array-presence bitmap.
func NewBitmap(spacing uint16) *bitset.BitSet {
	return bitset.New(BitmapLen(spacing))
}

func bitIndex(start int32, spacing uint16) uint {
	span := TicksPerArray(spacing)
	return uint(floorDiv(start, span) - floorDiv(fixedpoint.MinTick, span))
}

func startFromBit(bit uint, spacing uint16) int32 {
	span := TicksPerArray(spacing)
	return (int32(bit) + floorDiv(fixedpoint.MinTick, span)) * span
}

// MaxLiquidityPerTick bounds the gross liquidity referencing a single tick so that
// the sum over every usable tick cannot overflow 128 bits.
func MaxLiquidityPerTick(spacing uint16) uint128.Uint128 {
	s := int32(spacing)
	minTick := (fixedpoint.MinTick / s) * s
	maxTick := (fixedpoint.MaxTick / s) * s
	numTicks := uint64((maxTick-minTick)/s) + 1
	return uint128.Max.Div64(numTicks)
}
