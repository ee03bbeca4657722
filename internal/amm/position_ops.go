package amm

import (
	"context"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/liquidity"
	"github.com/hxuan190/clmm-core/internal/services/position"
)

// OpenPosition deposits liquidity into a range, creating the position when the owner
// has none over it yet.
func (e *Engine) OpenPosition(ctx context.Context, req IncreaseLiquidityRequest) (*domain.LiquidityResult, error) {
	return e.increase(ctx, "open_position", req, true)
}

// IncreaseLiquidity deposits into an existing position.
func (e *Engine) IncreaseLiquidity(ctx context.Context, req IncreaseLiquidityRequest) (*domain.LiquidityResult, error) {
	return e.increase(ctx, "increase_liquidity", req, false)
}

func (e *Engine) increase(ctx context.Context, op string, req IncreaseLiquidityRequest, create bool) (*domain.LiquidityResult, error) {
	var res *domain.LiquidityResult
	err := e.run(ctx, op, req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		if err := liquidity.ValidateRange(req.TickLower, req.TickUpper, tx.pool.TickSpacing); err != nil {
			return err
		}
		pos, err := tx.position(domain.PositionKey{Owner: req.Owner, TickLower: req.TickLower, TickUpper: req.TickUpper}, create)
		if err != nil {
			return err
		}

		amount := req.Liquidity
		if amount.IsZero() {
			if amount, err = liquidity.LiquidityFromAmounts(tx.pool.SqrtPriceX64, req.TickLower, req.TickUpper, req.Amount0Max, req.Amount1Max); err != nil {
				return err
			}
			if amount.IsZero() {
				return fmt.Errorf("maxima back no liquidity: %w", common.ErrZeroLiquidityPoke)
			}
		}
		delta := fixedpoint.LiquidityInt(amount)
		out, err := liquidity.Modify(tx.pool, tx.registry, pos, delta, tx.now)
		if err != nil {
			return err
		}
		if out.Amount0 > req.Amount0Max || out.Amount1 > req.Amount1Max {
			return fmt.Errorf("deposit %d/%d above maximum %d/%d: %w",
				out.Amount0, out.Amount1, req.Amount0Max, req.Amount1Max, common.ErrSlippageExceeded)
		}
		tx.touchPosition(pos)

		p := tx.pool
		res = &domain.LiquidityResult{
			Position:       pos.Clone(),
			LiquidityDelta: delta,
			Amount0:        out.Amount0,
			Amount1:        out.Amount1,
			Transfers: domain.AppendNonZero(nil,
				domain.TransferIn(req.Owner, req.TokenAccount0, p.TokenVault0, p.TokenMint0, out.Amount0),
				domain.TransferIn(req.Owner, req.TokenAccount1, p.TokenVault1, p.TokenMint1, out.Amount1),
			),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}

// DecreaseLiquidity withdraws liquidity from a position and pays the principal out.
// Fees earned up to now are credited to the position and left for CollectFees. A zero
// Liquidity only refreshes what the position is owed.
func (e *Engine) DecreaseLiquidity(ctx context.Context, req DecreaseLiquidityRequest) (*domain.LiquidityResult, error) {
	var res *domain.LiquidityResult
	err := e.run(ctx, "decrease_liquidity", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		pos, err := tx.position(domain.PositionKey{Owner: req.Owner, TickLower: req.TickLower, TickUpper: req.TickUpper}, false)
		if err != nil {
			return err
		}
		delta := fixedpoint.NegLiquidityInt(req.Liquidity)
		out, err := liquidity.Modify(tx.pool, tx.registry, pos, delta, tx.now)
		if err != nil {
			return err
		}
		if out.Amount0 < req.Amount0Min || out.Amount1 < req.Amount1Min {
			return fmt.Errorf("withdrawal %d/%d below minimum %d/%d: %w",
				out.Amount0, out.Amount1, req.Amount0Min, req.Amount1Min, common.ErrSlippageExceeded)
		}
		tx.touchPosition(pos)

		p := tx.pool
		res = &domain.LiquidityResult{
			Position:       pos.Clone(),
			LiquidityDelta: delta,
			Amount0:        out.Amount0,
			Amount1:        out.Amount1,
			Transfers: domain.AppendNonZero(nil,
				domain.TransferOut(p.ID, p.TokenVault0, req.TokenAccount0, p.TokenMint0, out.Amount0),
				domain.TransferOut(p.ID, p.TokenVault1, req.TokenAccount1, p.TokenMint1, out.Amount1),
			),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}

// poke credits everything the position earned up to now. Positions without liquidity
// earn nothing and are left alone.
func poke(tx *txn, pos *domain.Position) error {
	if pos.Liquidity.IsZero() {
		return nil
	}
	_, err := liquidity.Modify(tx.pool, tx.registry, pos, sdkmath.ZeroInt(), tx.now)
	return err
}

func (e *Engine) CollectFees(ctx context.Context, req CollectFeesRequest) (*domain.CollectResult, error) {
	res := &domain.CollectResult{}
	err := e.run(ctx, "collect_fees", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		pos, err := tx.position(domain.PositionKey{Owner: req.Owner, TickLower: req.TickLower, TickUpper: req.TickUpper}, false)
		if err != nil {
			return err
		}
		if err := poke(tx, pos); err != nil {
			return err
		}
		res.Amount0, res.Amount1 = position.Collect(pos, req.Amount0Max, req.Amount1Max)
		tx.touchPosition(pos)

		p := tx.pool
		res.Transfers = domain.AppendNonZero(nil,
			domain.TransferOut(p.ID, p.TokenVault0, req.Recipient0, p.TokenMint0, res.Amount0),
			domain.TransferOut(p.ID, p.TokenVault1, req.Recipient1, p.TokenMint1, res.Amount1),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}

// CollectRewards pays out everything owed to the position on every initialized reward
// stream. A zero recipient pays the owner.
func (e *Engine) CollectRewards(ctx context.Context, req CollectRewardsRequest) (*domain.CollectResult, error) {
	res := &domain.CollectResult{}
	err := e.run(ctx, "collect_rewards", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		pos, err := tx.position(domain.PositionKey{Owner: req.Owner, TickLower: req.TickLower, TickUpper: req.TickUpper}, false)
		if err != nil {
			return err
		}
		if err := poke(tx, pos); err != nil {
			return err
		}
		for i := range tx.pool.RewardInfos {
			info := &tx.pool.RewardInfos[i]
			if !info.Initialized() {
				continue
			}
			amount, err := position.CollectReward(pos, i, math.MaxUint64)
			if err != nil {
				return err
			}
			if info.RewardClaimed, err = fixedpoint.CheckedAdd64(info.RewardClaimed, amount); err != nil {
				return fmt.Errorf("reward %d claimed: %w", i, err)
			}
			recipient := req.Recipients[i]
			if recipient.IsZero() {
				recipient = req.Owner
			}
			res.Rewards[i] = amount
			res.Transfers = domain.AppendNonZero(res.Transfers,
				domain.TransferOut(tx.pool.ID, info.TokenVault, recipient, info.TokenMint, amount))
		}
		tx.touchPosition(pos)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}
