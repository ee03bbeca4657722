package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
)

const (
	// MinTick is the lowest tick whose price is representable: log base 1.0001 of 2^-64.
	MinTick int32 = -443636
	// MaxTick is the highest tick whose price is representable.
	MaxTick int32 = -MinTick
)

var (
	// MinSqrtPriceX64 is SqrtPriceFromTick(MinTick).
	MinSqrtPriceX64 uint128.Uint128
	// MaxSqrtPriceX64 is SqrtPriceFromTick(MaxTick).
	MaxSqrtPriceX64 uint128.Uint128
)

// oddTickRatio is sqrt(1.0001^-1) in Q64.64.
const oddTickRatio uint64 = 18445821805675395072

// tickRatios[i] is sqrt(1.0001^-(2^(i+1))) in Q64.64.
var tickRatios = [...]uint64{
	18444899583751176192, // 0x2
	18443055278223355904, // 0x4
	18439367220385607680, // 0x8
	18431993317065453568, // 0x10
	18417254355718170624, // 0x20
	18387811781193609216, // 0x40
	18329067761203558400, // 0x80
	18212142134806163456, // 0x100
	17980523815641700352, // 0x200
	17526086738831433728, // 0x400
	16651378430235570176, // 0x800
	15030750278694412288, // 0x1000
	12247334978884435968, // 0x2000
	8131365268886854656,  // 0x4000
	3584323654725218816,  // 0x8000
	696457651848324352,   // 0x10000
	26294789957507116,    // 0x20000
	37481735321082,       // 0x40000
}

var u256MaxU128 = U256(uint128.Max)

func init() {
	var err error
	if MinSqrtPriceX64, err = SqrtPriceFromTick(MinTick); err != nil {
		panic(err)
	}
	if MaxSqrtPriceX64, err = SqrtPriceFromTick(MaxTick); err != nil {
		panic(err)
	}
}

// SqrtPriceFromTick returns sqrt(1.0001^tick) in Q64.64.
//
// The absolute tick is decomposed into bits; each set bit multiplies the ratio by the
// precomputed inverse root for that power of two, and positive ticks take the
// reciprocal at the end. Tick 0 returns exactly Q64.
func SqrtPriceFromTick(tick int32) (uint128.Uint128, error) {
	if tick < MinTick || tick > MaxTick {
		return uint128.Zero, fmt.Errorf("tick %d: %w", tick, common.ErrInvalidTickIndex)
	}
	abs := uint32(tick)
	if tick < 0 {
		abs = uint32(-tick)
	}

	ratio := new(uint256.Int).Set(u256Q64)
	if abs&1 != 0 {
		ratio.SetUint64(oddTickRatio)
	}
	factor := new(uint256.Int)
	for i, c := range tickRatios {
		if abs&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor.SetUint64(c))
			ratio.Rsh(ratio, Resolution)
		}
	}
	if tick > 0 {
		ratio.Div(u256MaxU128, ratio)
	}
	return ToU128(ratio)
}

// TickFromSqrtPrice returns the greatest tick whose sqrt price is <= sqrtPriceX64.
// It is the exact left-inverse of SqrtPriceFromTick.
func TickFromSqrtPrice(sqrtPriceX64 uint128.Uint128) (int32, error) {
	if sqrtPriceX64.Cmp(MinSqrtPriceX64) < 0 || sqrtPriceX64.Cmp(MaxSqrtPriceX64) > 0 {
		return 0, fmt.Errorf("sqrt price %s: %w", sqrtPriceX64, common.ErrInvalidSqrtPrice)
	}
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		p, err := SqrtPriceFromTick(mid)
		if err != nil {
			return 0, err
		}
		if p.Cmp(sqrtPriceX64) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
