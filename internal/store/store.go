// Package store defines the record store the engine loads from and commits to.
package store

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
)

// ErrNotFound is returned by every getter when the record does not exist.
var ErrNotFound = common.ErrNotFound

// TickArrayRef names a tick array by pool and start index.
type TickArrayRef struct {
	PoolID solana.PublicKey
	Start  int32
}

// Store is a keyed record store. Getters return copies the caller may mutate freely.
type Store interface {
	Config(id solana.PublicKey) (*domain.AmmConfig, error)
	Pool(id solana.PublicKey) (*domain.PoolState, error)
	TickArray(poolID solana.PublicKey, start int32) (*domain.TickArray, error)
	Position(key domain.PositionKey) (*domain.Position, error)
	Pools() ([]*domain.PoolState, error)
	// Commit applies every write and delete of the batch, or none of them.
	Commit(batch *Batch) error
}

// Batch is the set of records one operation changed.
type Batch struct {
	Configs           []*domain.AmmConfig
	Pools             []*domain.PoolState
	TickArrays        []*domain.TickArray
	DeletedTickArrays []TickArrayRef
	Positions         []*domain.Position
	DeletedPositions  []domain.PositionKey
}

func (b *Batch) Empty() bool {
	return len(b.Configs) == 0 && len(b.Pools) == 0 && len(b.TickArrays) == 0 &&
		len(b.DeletedTickArrays) == 0 && len(b.Positions) == 0 && len(b.DeletedPositions) == 0
}

// Size is the number of records the batch touches.
func (b *Batch) Size() int {
	return len(b.Configs) + len(b.Pools) + len(b.TickArrays) +
		len(b.DeletedTickArrays) + len(b.Positions) + len(b.DeletedPositions)
}
