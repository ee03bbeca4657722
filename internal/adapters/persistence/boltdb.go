// Package persistence keeps engine records in a bolt database.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/boltdb/bolt"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/store"
)

// Storage is a store.Store backed by bolt. Every bucket is loaded into an in-memory
// mirror at open; reads are served from the mirror and commits write through to bolt
// in a single transaction before the mirror is updated.
type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
	codec  Codec
	mirror *store.Memory
	// serializes commits so bolt and the mirror see batches in the same order
	commitMu sync.Mutex
}

var _ store.Store = (*Storage)(nil)

func NewStorage(dbPath string, codec Codec) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	s := &Storage{
		db:     db,
		dbPath: dbPath,
		codec:  codec,
		mirror: store.NewMemory(),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	configs, pools, tickArrays, positions := s.mirror.Counts()
	log.Info().
		Str("path", dbPath).
		Str("codec", codec.Name()).
		Int("configs", configs).
		Int("pools", pools).
		Int("tick_arrays", tickArrays).
		Int("positions", positions).
		Msg("[storage] opened database")
	return s, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) Config(id solana.PublicKey) (*domain.AmmConfig, error) {
	return s.mirror.Config(id)
}

func (s *Storage) Pool(id solana.PublicKey) (*domain.PoolState, error) {
	return s.mirror.Pool(id)
}

func (s *Storage) TickArray(poolID solana.PublicKey, start int32) (*domain.TickArray, error) {
	return s.mirror.TickArray(poolID, start)
}

func (s *Storage) Position(key domain.PositionKey) (*domain.Position, error) {
	return s.mirror.Position(key)
}

func (s *Storage) Pools() ([]*domain.PoolState, error) {
	return s.mirror.Pools()
}

// Commit encodes every record of the batch and applies all of them in one bolt
// transaction. Nothing reaches the mirror unless that transaction committed.
func (s *Storage) Commit(batch *store.Batch) error {
	if batch == nil || batch.Empty() {
		return nil
	}
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	ops, err := s.encode(batch)
	if err != nil {
		return err
	}
	if err := s.db.Write(func(tx *bolt.Tx) error {
		return applyOps(tx, ops)
	}); err != nil {
		log.Error().Err(err).Int("count", len(ops)).Msg("[storage] FAILED to commit batch")
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	s.mirror.Apply(batch)
	log.Debug().Int("count", len(ops)).Msg("[storage] committed batch")
	return nil
}

// applyOps runs inside a write transaction; any error rolls back every op.
func applyOps(tx *bolt.Tx, ops []*boltdb.WriteOperation) error {
	for _, op := range ops {
		bucket, err := tx.CreateBucketIfNotExists(op.Bucket)
		if err != nil {
			return fmt.Errorf("bucket %s: %w", op.Bucket, err)
		}
		switch op.Op {
		case boltdb.OpSet:
			err = bucket.Put(op.Key, *op.Value)
		case boltdb.OpDelete:
			err = bucket.Delete(op.Key)
		default:
			err = fmt.Errorf("unknown op %q", op.Op)
		}
		if err != nil {
			return fmt.Errorf("%s %s/%s: %w", op.Op, op.Bucket, op.Key, err)
		}
	}
	return nil
}

func (s *Storage) encode(batch *store.Batch) ([]*boltdb.WriteOperation, error) {
	ops := make([]*boltdb.WriteOperation, 0, batch.Size())
	for _, c := range batch.Configs {
		data, err := s.codec.EncodeConfig(c)
		if err != nil {
			return nil, fmt.Errorf("failed to encode config %s: %w", c.ID, err)
		}
		ops = append(ops, setOp(ConfigsBucket, c.ID.String(), data))
	}
	for _, p := range batch.Pools {
		data, err := s.codec.EncodePool(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode pool %s: %w", p.ID, err)
		}
		ops = append(ops, setOp(PoolsBucket, p.ID.String(), data))
	}
	for _, ta := range batch.TickArrays {
		data, err := s.codec.EncodeTickArray(ta)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tick array %s/%d: %w", ta.PoolID, ta.StartTickIndex, err)
		}
		ops = append(ops, setOp(TickArraysBucket, tickArrayKey(ta.PoolID, ta.StartTickIndex), data))
	}
	for _, ref := range batch.DeletedTickArrays {
		ops = append(ops, deleteOp(TickArraysBucket, tickArrayKey(ref.PoolID, ref.Start)))
	}
	for _, p := range batch.Positions {
		data, err := s.codec.EncodePosition(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode position %s: %w", p.Key(), err)
		}
		ops = append(ops, setOp(PositionsBucket, positionKey(p.Key()), data))
	}
	for _, key := range batch.DeletedPositions {
		ops = append(ops, deleteOp(PositionsBucket, positionKey(key)))
	}
	return ops, nil
}

func setOp(bucket, key string, data []byte) *boltdb.WriteOperation {
	value := data
	return &boltdb.WriteOperation{
		Bucket: []byte(bucket),
		Key:    []byte(key),
		Value:  &value,
		Op:     boltdb.OpSet,
	}
}

func deleteOp(bucket, key string) *boltdb.WriteOperation {
	return &boltdb.WriteOperation{
		Bucket: []byte(bucket),
		Key:    []byte(key),
		Op:     boltdb.OpDelete,
	}
}

func (s *Storage) load() error {
	batch := &store.Batch{}
	failed := 0

	for key, value := range s.list(ConfigsBucket) {
		c, err := s.codec.DecodeConfig(value)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[storage] failed to decode config, skipping")
			failed++
			continue
		}
		batch.Configs = append(batch.Configs, c)
	}
	for key, value := range s.list(PoolsBucket) {
		p, err := s.codec.DecodePool(value)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[storage] failed to decode pool, skipping")
			failed++
			continue
		}
		batch.Pools = append(batch.Pools, p)
	}
	for key, value := range s.list(TickArraysBucket) {
		if _, err := parseTickArrayKey(key); err != nil {
			log.Error().Err(err).Msg("[storage] bad tick array key, skipping")
			failed++
			continue
		}
		ta, err := s.codec.DecodeTickArray(value)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[storage] failed to decode tick array, skipping")
			failed++
			continue
		}
		batch.TickArrays = append(batch.TickArrays, ta)
	}
	for key, value := range s.list(PositionsBucket) {
		p, err := s.codec.DecodePosition(value)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[storage] failed to decode position, skipping")
			failed++
			continue
		}
		batch.Positions = append(batch.Positions, p)
	}

	if failed > 0 {
		// a partially loaded pool would be silently wrong; refuse to start
		return fmt.Errorf("%d records failed to decode with codec %s", failed, s.codec.Name())
	}
	s.mirror.Apply(batch)
	return nil
}

// list returns the entries of a bucket. A bucket that cannot be listed is treated as
// empty, which is the case for a fresh database.
func (s *Storage) list(bucket string) map[string][]byte {
	data, err := s.db.List(bucket)
	if err != nil {
		log.Warn().Str("bucket", bucket).Err(err).Msg("[storage] failed to list bucket")
		return nil
	}
	return data
}
