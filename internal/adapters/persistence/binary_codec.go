package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/bits-and-blooms/bitset"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

// BinaryCodec stores records in a fixed little-endian layout, one tag byte followed by
// the fields in declaration order. Uint128 values are written Lo then Hi.
type BinaryCodec struct{}

const (
	tagConfig    uint8 = 1
	tagPool      uint8 = 2
	tagTickArray uint8 = 3
	tagPosition  uint8 = 4
)

func (BinaryCodec) Name() string { return CodecBinary }

func (BinaryCodec) EncodeConfig(c *domain.AmmConfig) ([]byte, error) {
	w := newWriter(tagConfig)
	w.pubkey(c.ID)
	w.u16(c.Index)
	w.pubkey(c.Owner)
	w.u32(c.TradeFeeRate)
	w.u32(c.ProtocolFeeRate)
	w.u16(c.TickSpacing)
	return w.bytes()
}

func (BinaryCodec) DecodeConfig(data []byte) (*domain.AmmConfig, error) {
	r, err := newReader(data, tagConfig)
	if err != nil {
		return nil, err
	}
	c := &domain.AmmConfig{
		ID:              r.pubkey(),
		Index:           r.u16(),
		Owner:           r.pubkey(),
		TradeFeeRate:    r.u32(),
		ProtocolFeeRate: r.u32(),
		TickSpacing:     r.u16(),
	}
	return c, r.done()
}

func (BinaryCodec) EncodePool(p *domain.PoolState) ([]byte, error) {
	w := newWriter(tagPool)
	w.pubkey(p.ID)
	w.pubkey(p.AmmConfig)
	w.pubkey(p.TokenMint0)
	w.pubkey(p.TokenMint1)
	w.pubkey(p.TokenVault0)
	w.pubkey(p.TokenVault1)
	w.u16(p.TickSpacing)
	w.u128(p.SqrtPriceX64)
	w.i32(p.TickCurrent)
	w.u128(p.Liquidity)
	w.u128(p.FeeGrowthGlobal0X64)
	w.u128(p.FeeGrowthGlobal1X64)
	w.u64(p.ProtocolFeesToken0)
	w.u64(p.ProtocolFeesToken1)
	w.u128(p.SwapInAmountToken0)
	w.u128(p.SwapOutAmountToken1)
	w.u128(p.SwapInAmountToken1)
	w.u128(p.SwapOutAmountToken0)
	for _, ri := range p.RewardInfos {
		w.u8(uint8(ri.RewardState))
		w.u64(ri.OpenTime)
		w.u64(ri.EndTime)
		w.u64(ri.LastUpdateTime)
		w.u128(ri.EmissionsPerSecondX64)
		w.u64(ri.RewardTotalEmissioned)
		w.u64(ri.RewardClaimed)
		w.pubkey(ri.TokenMint)
		w.pubkey(ri.TokenVault)
		w.pubkey(ri.Authority)
		w.u128(ri.RewardGrowthGlobalX64)
	}
	w.bitmap(p.TickArrayBitmap)
	w.u16(p.ObservationIndex)
	for _, o := range p.Observations {
		w.bool(o.Initialized)
		w.u64(o.BlockTimestamp)
		w.i64(o.TickCumulative)
	}
	w.u64(p.OpenTime)
	return w.bytes()
}

func (BinaryCodec) DecodePool(data []byte) (*domain.PoolState, error) {
	r, err := newReader(data, tagPool)
	if err != nil {
		return nil, err
	}
	p := &domain.PoolState{
		ID:                  r.pubkey(),
		AmmConfig:           r.pubkey(),
		TokenMint0:          r.pubkey(),
		TokenMint1:          r.pubkey(),
		TokenVault0:         r.pubkey(),
		TokenVault1:         r.pubkey(),
		TickSpacing:         r.u16(),
		SqrtPriceX64:        r.u128(),
		TickCurrent:         r.i32(),
		Liquidity:           r.u128(),
		FeeGrowthGlobal0X64: r.u128(),
		FeeGrowthGlobal1X64: r.u128(),
		ProtocolFeesToken0:  r.u64(),
		ProtocolFeesToken1:  r.u64(),
		SwapInAmountToken0:  r.u128(),
		SwapOutAmountToken1: r.u128(),
		SwapInAmountToken1:  r.u128(),
		SwapOutAmountToken0: r.u128(),
	}
	for i := range p.RewardInfos {
		p.RewardInfos[i] = domain.RewardInfo{
			RewardState:           domain.RewardState(r.u8()),
			OpenTime:              r.u64(),
			EndTime:               r.u64(),
			LastUpdateTime:        r.u64(),
			EmissionsPerSecondX64: r.u128(),
			RewardTotalEmissioned: r.u64(),
			RewardClaimed:         r.u64(),
			TokenMint:             r.pubkey(),
			TokenVault:            r.pubkey(),
			Authority:             r.pubkey(),
			RewardGrowthGlobalX64: r.u128(),
		}
	}
	p.TickArrayBitmap = r.bitmap()
	p.ObservationIndex = r.u16()
	for i := range p.Observations {
		p.Observations[i] = domain.Observation{
			Initialized:    r.bool(),
			BlockTimestamp: r.u64(),
			TickCumulative: r.i64(),
		}
	}
	p.OpenTime = r.u64()
	if err := r.done(); err != nil {
		return nil, err
	}
	if p.TickArrayBitmap == nil {
		p.TickArrayBitmap = ticks.NewBitmap(p.TickSpacing)
	}
	return p, nil
}

func (BinaryCodec) EncodeTickArray(ta *domain.TickArray) ([]byte, error) {
	w := newWriter(tagTickArray)
	w.pubkey(ta.PoolID)
	w.i32(ta.StartTickIndex)
	w.u16(arraySpacing(ta))
	w.u8(ta.InitializedTickCount)
	for i := range ta.Ticks {
		t := &ta.Ticks[i]
		w.bool(t.IsInitialized())
		if !t.IsInitialized() {
			continue
		}
		w.signed(t.Net())
		w.u128(t.LiquidityGross)
		w.u128(t.FeeGrowthOutside0X64)
		w.u128(t.FeeGrowthOutside1X64)
		for _, g := range t.RewardGrowthsOutsideX64 {
			w.u128(g)
		}
	}
	return w.bytes()
}

func (BinaryCodec) DecodeTickArray(data []byte) (*domain.TickArray, error) {
	r, err := newReader(data, tagTickArray)
	if err != nil {
		return nil, err
	}
	poolID := r.pubkey()
	start := r.i32()
	spacing := r.u16()
	count := r.u8()
	if r.err != nil {
		return nil, r.err
	}
	if spacing == 0 {
		return nil, fmt.Errorf("tick array %d: zero spacing", start)
	}
	ta := domain.NewTickArray(poolID, start, spacing)
	ta.InitializedTickCount = count
	for i := range ta.Ticks {
		if !r.bool() {
			continue
		}
		t := &ta.Ticks[i]
		t.LiquidityNet = r.signed()
		t.LiquidityGross = r.u128()
		t.FeeGrowthOutside0X64 = r.u128()
		t.FeeGrowthOutside1X64 = r.u128()
		for j := range t.RewardGrowthsOutsideX64 {
			t.RewardGrowthsOutsideX64[j] = r.u128()
		}
	}
	return ta, r.done()
}

func (BinaryCodec) EncodePosition(p *domain.Position) ([]byte, error) {
	w := newWriter(tagPosition)
	w.pubkey(p.PoolID)
	w.pubkey(p.Owner)
	w.i32(p.TickLower)
	w.i32(p.TickUpper)
	w.u128(p.Liquidity)
	w.u128(p.FeeGrowthInside0LastX64)
	w.u128(p.FeeGrowthInside1LastX64)
	w.u64(p.TokenFeesOwed0)
	w.u64(p.TokenFeesOwed1)
	for _, ri := range p.RewardInfos {
		w.u128(ri.GrowthInsideLastX64)
		w.u64(ri.RewardAmountOwed)
	}
	return w.bytes()
}

func (BinaryCodec) DecodePosition(data []byte) (*domain.Position, error) {
	r, err := newReader(data, tagPosition)
	if err != nil {
		return nil, err
	}
	p := &domain.Position{
		PoolID:                  r.pubkey(),
		Owner:                   r.pubkey(),
		TickLower:               r.i32(),
		TickUpper:               r.i32(),
		Liquidity:               r.u128(),
		FeeGrowthInside0LastX64: r.u128(),
		FeeGrowthInside1LastX64: r.u128(),
		TokenFeesOwed0:          r.u64(),
		TokenFeesOwed1:          r.u64(),
	}
	for i := range p.RewardInfos {
		p.RewardInfos[i] = domain.PositionRewardInfo{
			GrowthInsideLastX64: r.u128(),
			RewardAmountOwed:    r.u64(),
		}
	}
	return p, r.done()
}

// writer wraps a bin.Encoder and keeps the first write error.
type writer struct {
	buf *bytes.Buffer
	enc *bin.Encoder
	err error
}

func newWriter(tag uint8) *writer {
	buf := new(bytes.Buffer)
	w := &writer{buf: buf, enc: bin.NewBinEncoder(buf)}
	w.u8(tag)
	return w
}

func (w *writer) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func (w *writer) u8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *writer) bool(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

func (w *writer) u16(v uint16) {
	if w.err == nil {
		w.err = w.enc.WriteUint16(v, binary.LittleEndian)
	}
}

func (w *writer) u32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, binary.LittleEndian)
	}
}

func (w *writer) i32(v int32) {
	if w.err == nil {
		w.err = w.enc.WriteInt32(v, binary.LittleEndian)
	}
}

func (w *writer) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, binary.LittleEndian)
	}
}

func (w *writer) i64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, binary.LittleEndian)
	}
}

func (w *writer) u128(v uint128.Uint128) {
	w.u64(v.Lo)
	w.u64(v.Hi)
}

func (w *writer) pubkey(pk solana.PublicKey) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(pk[:], false)
	}
}

// signed writes a sign byte followed by the magnitude as a Uint128.
func (w *writer) signed(v sdkmath.Int) {
	if w.err != nil {
		return
	}
	abs, err := fixedpoint.AbsLiquidity(v)
	if err != nil {
		w.err = err
		return
	}
	w.bool(v.IsNegative())
	w.u128(abs)
}

func (w *writer) bitmap(b *bitset.BitSet) {
	if w.err != nil {
		return
	}
	if b == nil {
		w.bool(false)
		return
	}
	data, err := b.MarshalBinary()
	if err != nil {
		w.err = err
		return
	}
	w.bool(true)
	if w.err == nil {
		w.err = w.enc.WriteBytes(data, true)
	}
}

// reader wraps a bin.Decoder and keeps the first read error; later reads return zero values.
type reader struct {
	dec *bin.Decoder
	err error
}

func newReader(data []byte, tag uint8) (*reader, error) {
	r := &reader{dec: bin.NewBinDecoder(data)}
	if got := r.u8(); r.err != nil || got != tag {
		return nil, fmt.Errorf("record tag %d, want %d: %v", got, tag, r.err)
	}
	return r, nil
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.dec.Remaining() != 0 {
		return fmt.Errorf("%d trailing bytes", r.dec.Remaining())
	}
	return nil
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *reader) bool() bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.ReadBool()
	r.err = err
	return v
}

func (r *reader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint16(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) u128() uint128.Uint128 {
	lo := r.u64()
	hi := r.u64()
	return uint128.New(lo, hi)
}

func (r *reader) pubkey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		r.err = err
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

func (r *reader) signed() sdkmath.Int {
	negative := r.bool()
	abs := r.u128()
	if r.err != nil {
		return sdkmath.ZeroInt()
	}
	if negative {
		return fixedpoint.NegLiquidityInt(abs)
	}
	return fixedpoint.LiquidityInt(abs)
}

func (r *reader) bitmap() *bitset.BitSet {
	if !r.bool() || r.err != nil {
		return nil
	}
	data, err := r.dec.ReadByteSlice()
	if err != nil {
		r.err = err
		return nil
	}
	b := new(bitset.BitSet)
	if err := b.UnmarshalBinary(data); err != nil {
		r.err = err
		return nil
	}
	return b
}
