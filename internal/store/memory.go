package store

import (
	"bytes"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clmm-core/internal/domain"
)

// Memory is an in-process Store. Records are cloned on the way in and out.
type Memory struct {
	mu         sync.RWMutex
	configs    map[solana.PublicKey]*domain.AmmConfig
	pools      map[solana.PublicKey]*domain.PoolState
	tickArrays map[TickArrayRef]*domain.TickArray
	positions  map[domain.PositionKey]*domain.Position
}

func NewMemory() *Memory {
	return &Memory{
		configs:    make(map[solana.PublicKey]*domain.AmmConfig),
		pools:      make(map[solana.PublicKey]*domain.PoolState),
		tickArrays: make(map[TickArrayRef]*domain.TickArray),
		positions:  make(map[domain.PositionKey]*domain.Position),
	}
}

func (m *Memory) Config(id solana.PublicKey) (*domain.AmmConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.configs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *Memory) Pool(id solana.PublicKey) (*domain.PoolState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) TickArray(poolID solana.PublicKey, start int32) (*domain.TickArray, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ta, ok := m.tickArrays[TickArrayRef{PoolID: poolID, Start: start}]
	if !ok {
		return nil, ErrNotFound
	}
	return ta.Clone(), nil
}

func (m *Memory) Position(key domain.PositionKey) (*domain.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[key]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Pools returns every pool ordered by id.
func (m *Memory) Pools() ([]*domain.PoolState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.PoolState, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (m *Memory) Commit(batch *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(batch)
	return nil
}

// Apply writes a batch that has already been persisted elsewhere. It is used by
// stores that keep a Memory as their read mirror.
func (m *Memory) Apply(batch *Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(batch)
}

func (m *Memory) apply(batch *Batch) {
	for _, c := range batch.Configs {
		m.configs[c.ID] = c.Clone()
	}
	for _, p := range batch.Pools {
		m.pools[p.ID] = p.Clone()
	}
	for _, ta := range batch.TickArrays {
		m.tickArrays[TickArrayRef{PoolID: ta.PoolID, Start: ta.StartTickIndex}] = ta.Clone()
	}
	for _, ref := range batch.DeletedTickArrays {
		delete(m.tickArrays, ref)
	}
	for _, p := range batch.Positions {
		m.positions[p.Key()] = p.Clone()
	}
	for _, key := range batch.DeletedPositions {
		delete(m.positions, key)
	}
}

// Counts reports the number of stored records per kind.
func (m *Memory) Counts() (configs, pools, tickArrays, positions int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs), len(m.pools), len(m.tickArrays), len(m.positions)
}
