package amm

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/services/oracle"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

// Read accessors. They read committed records only and return copies.

func (e *Engine) Pool(id solana.PublicKey) (*domain.PoolState, error) {
	return e.store.Pool(id)
}

func (e *Engine) Pools() ([]*domain.PoolState, error) {
	return e.store.Pools()
}

func (e *Engine) Config(id solana.PublicKey) (*domain.AmmConfig, error) {
	return e.store.Config(id)
}

func (e *Engine) Position(key domain.PositionKey) (*domain.Position, error) {
	return e.store.Position(key)
}

// TickArray returns the array holding tick index, aligned to the pool's spacing.
func (e *Engine) TickArray(poolID solana.PublicKey, index int32) (*domain.TickArray, error) {
	p, err := e.store.Pool(poolID)
	if err != nil {
		return nil, err
	}
	return e.store.TickArray(poolID, ticks.ArrayStartIndex(index, p.TickSpacing))
}

// Observations returns the pool's recorded observations, oldest first.
func (e *Engine) Observations(poolID solana.PublicKey) ([]domain.Observation, error) {
	p, err := e.store.Pool(poolID)
	if err != nil {
		return nil, err
	}
	return oracle.Window(p), nil
}
