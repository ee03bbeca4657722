package persistence

import (
	"fmt"

	"github.com/hxuan190/clmm-core/internal/domain"
)

const (
	CodecJSON   = "json"
	CodecBinary = "binary"
)

// Codec turns records into bucket values and back.
type Codec interface {
	Name() string

	EncodeConfig(c *domain.AmmConfig) ([]byte, error)
	DecodeConfig(data []byte) (*domain.AmmConfig, error)

	EncodePool(p *domain.PoolState) ([]byte, error)
	DecodePool(data []byte) (*domain.PoolState, error)

	EncodeTickArray(ta *domain.TickArray) ([]byte, error)
	DecodeTickArray(data []byte) (*domain.TickArray, error)

	EncodePosition(p *domain.Position) ([]byte, error)
	DecodePosition(data []byte) (*domain.Position, error)
}

func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecBinary:
		return BinaryCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown record codec %q", name)
	}
}
