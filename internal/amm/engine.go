// Package amm binds the accounting components to a record store. Every operation
// loads the records it needs into a private working set, runs against those copies and
// commits the changed records in one batch; on any error the working set is dropped
// and the store is untouched.
package amm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/metrics"
	"github.com/hxuan190/clmm-core/internal/services"
	"github.com/hxuan190/clmm-core/internal/store"
)

// Transferer performs the value movements the engine describes. It is called only
// after the operation that produced the transfers has been committed.
type Transferer interface {
	Transfer(ctx context.Context, t domain.Transfer) error
}

// BalanceReader reports a token account's balance for funding checks.
type BalanceReader interface {
	Balance(ctx context.Context, account, mint solana.PublicKey) (uint64, error)
}

// AddressDeriver supplies the default vault address of a reward stream.
type AddressDeriver interface {
	RewardVault(pool, rewardMint solana.PublicKey) (solana.PublicKey, error)
}

// Clock supplies the current unix timestamp in seconds.
type Clock interface {
	Now() uint64
}

type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

type Engine struct {
	store      store.Store
	transferer Transferer
	balances   BalanceReader
	addresses  AddressDeriver
	clock      Clock
	logger     *services.ServiceLogger

	// one mutex per pool; operations on the same pool run one at a time
	locks sync.Map
}

func NewEngine(st store.Store) *Engine {
	return &Engine{
		store:  st,
		clock:  SystemClock{},
		logger: services.NewComponentLogger("amm"),
	}
}

func (e *Engine) SetTransferer(t Transferer)       { e.transferer = t }
func (e *Engine) SetBalanceReader(b BalanceReader) { e.balances = b }
func (e *Engine) SetAddresses(a AddressDeriver)    { e.addresses = a }
func (e *Engine) SetClock(c Clock)                 { e.clock = c }
func (e *Engine) SetLogger(l *services.ServiceLogger) {
	if l != nil {
		e.logger = l
	}
}

func (e *Engine) lock(poolID solana.PublicKey) func() {
	v, _ := e.locks.LoadOrStore(poolID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// run executes fn against a fresh working set for poolID and commits it.
func (e *Engine) run(ctx context.Context, op string, poolID solana.PublicKey, fn func(tx *txn) error) error {
	return e.execute(ctx, op, poolID, true, fn)
}

// dryRun executes fn like run but never commits.
func (e *Engine) dryRun(ctx context.Context, op string, poolID solana.PublicKey, fn func(tx *txn) error) error {
	return e.execute(ctx, op, poolID, false, fn)
}

func (e *Engine) execute(ctx context.Context, op string, poolID solana.PublicKey, commit bool, fn func(tx *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	unlock := e.lock(poolID)
	defer unlock()

	tx := newTxn(e.store, poolID, e.clock.Now())
	err := fn(tx)
	if err == nil && commit {
		err = e.commit(tx)
	}

	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Operations.WithLabelValues(op, "error").Inc()
		e.logger.Debug().Err(err).Str("op", op).Str("pool", poolID.String()).Msg("[engine] operation aborted")
		return err
	}
	metrics.Operations.WithLabelValues(op, "ok").Inc()
	return nil
}

func (e *Engine) commit(tx *txn) error {
	batch := tx.batch()
	if batch.Empty() {
		return nil
	}
	if err := e.store.Commit(batch); err != nil {
		e.logger.Error().Err(err).Str("pool", tx.poolID.String()).Int("records", batch.Size()).Msg("[engine] commit failed")
		return fmt.Errorf("commit: %w", err)
	}
	metrics.CommitRecords.Observe(float64(batch.Size()))
	return nil
}

// dispatch hands committed transfers to the Transferer. The operation stays committed
// when a transfer fails; the error is returned so the caller can reconcile.
func (e *Engine) dispatch(ctx context.Context, transfers []domain.Transfer) error {
	if e.transferer == nil {
		return nil
	}
	var errs []error
	for _, t := range transfers {
		if err := e.transferer.Transfer(ctx, t); err != nil {
			metrics.TransferFailures.Inc()
			e.logger.Error().Err(err).
				Str("source", t.Source.String()).
				Str("destination", t.Destination.String()).
				Uint64("amount", t.Amount).
				Msg("[engine] transfer failed after commit")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrTransferDispatch, errors.Join(errs...))
	}
	return nil
}

// ErrTransferDispatch marks an operation that committed but whose transfers were not
// all performed.
var ErrTransferDispatch = errors.New("transfer dispatch failed")

// balance resolves the funding balance of account, falling back to the value supplied
// with the request when no BalanceReader is wired.
func (e *Engine) balance(ctx context.Context, account, mint solana.PublicKey, supplied uint64) (uint64, error) {
	if e.balances == nil {
		return supplied, nil
	}
	b, err := e.balances.Balance(ctx, account, mint)
	if err != nil {
		return 0, fmt.Errorf("read balance of %s: %w", account, err)
	}
	return b, nil
}
