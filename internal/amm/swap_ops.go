package amm

import (
	"context"
	"fmt"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/metrics"
	"github.com/hxuan190/clmm-core/internal/services/swap"
)

func checkThreshold(res domain.SwapResult, params swap.Params, threshold uint64) error {
	if threshold == 0 {
		return nil
	}
	if params.IsBaseInput && res.AmountOut < threshold {
		return fmt.Errorf("output %d below %d: %w", res.AmountOut, threshold, common.ErrSlippageExceeded)
	}
	if !params.IsBaseInput && res.AmountIn > threshold {
		return fmt.Errorf("input %d above %d: %w", res.AmountIn, threshold, common.ErrSlippageExceeded)
	}
	return nil
}

func (e *Engine) Swap(ctx context.Context, req SwapRequest) (*domain.SwapResult, error) {
	var res domain.SwapResult
	err := e.run(ctx, "swap", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		var err error
		if res, err = swap.Execute(tx.pool, tx.config, tx.registry, req.Params, tx.now); err != nil {
			return err
		}
		if err := checkThreshold(res, req.Params, req.OtherAmountThreshold); err != nil {
			return err
		}

		p := tx.pool
		inVault, inMint, outVault, outMint := p.TokenVault0, p.TokenMint0, p.TokenVault1, p.TokenMint1
		if !req.Params.ZeroForOne {
			inVault, inMint, outVault, outMint = outVault, outMint, inVault, inMint
		}
		res.Transfers = domain.AppendNonZero(nil,
			domain.TransferIn(req.Payer, req.InputAccount, inVault, inMint, res.AmountIn),
			domain.TransferOut(p.ID, outVault, req.OutputAccount, outMint, res.AmountOut),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TicksCrossed.Observe(float64(res.TicksCrossed))
	if res.PriceLimitReached {
		metrics.SwapLimitReached.Inc()
	}
	e.logger.Debug().
		Str("pool", req.PoolID.String()).
		Bool("zero_for_one", req.Params.ZeroForOne).
		Uint64("amount_in", res.AmountIn).
		Uint64("amount_out", res.AmountOut).
		Int32("tick", res.FinalTick).
		Msg("[engine] swap")
	return &res, e.dispatch(ctx, res.Transfers)
}

// QuoteSwap runs a swap against a working set that is never committed and reports what
// it would produce. The result carries no transfers.
func (e *Engine) QuoteSwap(ctx context.Context, req SwapRequest) (*domain.SwapResult, error) {
	var res domain.SwapResult
	err := e.dryRun(ctx, "quote", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		var err error
		if res, err = swap.Execute(tx.pool, tx.config, tx.registry, req.Params, tx.now); err != nil {
			return err
		}
		return checkThreshold(res, req.Params, req.OtherAmountThreshold)
	})
	if err != nil {
		metrics.Quotes.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.Quotes.WithLabelValues("ok").Inc()
	return &res, nil
}
