package amm

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
	"github.com/hxuan190/clmm-core/internal/store"
)

// txn is the working set of one operation. Everything it hands out is a copy owned by
// the operation.
type txn struct {
	st     store.Store
	poolID solana.PublicKey
	now    uint64

	config   *domain.AmmConfig
	pool     *domain.PoolState
	registry *ticks.Registry

	configs   []*domain.AmmConfig
	positions map[domain.PositionKey]*trackedPosition
}

type trackedPosition struct {
	pos     *domain.Position
	stored  bool
	changed bool
}

func newTxn(st store.Store, poolID solana.PublicKey, now uint64) *txn {
	return &txn{
		st:        st,
		poolID:    poolID,
		now:       now,
		positions: make(map[domain.PositionKey]*trackedPosition),
	}
}

// LoadTickArray implements ticks.ArraySource.
func (tx *txn) LoadTickArray(start int32) (*domain.TickArray, error) {
	ta, err := tx.st.TickArray(tx.poolID, start)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return ta, err
}

// loadPool loads the pool, its config and a registry over its tick arrays.
func (tx *txn) loadPool() error {
	pool, err := tx.st.Pool(tx.poolID)
	if err != nil {
		return fmt.Errorf("pool %s: %w", tx.poolID, err)
	}
	config, err := tx.st.Config(pool.AmmConfig)
	if err != nil {
		return fmt.Errorf("config %s of pool %s: %w", pool.AmmConfig, tx.poolID, err)
	}
	tx.attach(pool, config)
	return nil
}

func (tx *txn) attach(pool *domain.PoolState, config *domain.AmmConfig) {
	tx.pool = pool
	tx.config = config
	tx.registry = ticks.NewRegistry(pool, tx)
}

// position returns the tracked copy of a position. With create, a missing position is
// started empty.
func (tx *txn) position(key domain.PositionKey, create bool) (*domain.Position, error) {
	key.PoolID = tx.poolID
	if tp, ok := tx.positions[key]; ok {
		return tp.pos, nil
	}
	pos, err := tx.st.Position(key)
	switch {
	case err == nil:
		tx.positions[key] = &trackedPosition{pos: pos, stored: true}
		return pos, nil
	case errors.Is(err, store.ErrNotFound) && create:
		pos = domain.NewPosition(key)
		tx.positions[key] = &trackedPosition{pos: pos}
		return pos, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("position %s: %w", key, common.ErrNotFound)
	default:
		return nil, fmt.Errorf("position %s: %w", key, err)
	}
}

func (tx *txn) touchPosition(pos *domain.Position) {
	if tp, ok := tx.positions[pos.Key()]; ok {
		tp.changed = true
	}
}

// batch collects every changed record. Emptied positions are deleted.
func (tx *txn) batch() *store.Batch {
	b := &store.Batch{Configs: tx.configs}
	if tx.pool != nil {
		b.Pools = append(b.Pools, tx.pool)
	}
	if tx.registry != nil {
		b.TickArrays = tx.registry.Touched()
		for _, start := range tx.registry.Dropped() {
			b.DeletedTickArrays = append(b.DeletedTickArrays, store.TickArrayRef{PoolID: tx.poolID, Start: start})
		}
	}
	for key, tp := range tx.positions {
		if !tp.changed {
			continue
		}
		if tp.pos.IsEmpty() {
			if tp.stored {
				b.DeletedPositions = append(b.DeletedPositions, key)
			}
			continue
		}
		b.Positions = append(b.Positions, tp.pos)
	}
	return b
}
