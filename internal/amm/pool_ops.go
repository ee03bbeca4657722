package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/metrics"
	"github.com/hxuan190/clmm-core/internal/services/pool"
	"github.com/hxuan190/clmm-core/internal/services/rewards"
	"github.com/hxuan190/clmm-core/internal/store"
)

// PutConfig stores a fee tier. Fee-tier governance lives outside the engine; this is
// the hook it writes through.
func (e *Engine) PutConfig(ctx context.Context, config *domain.AmmConfig) error {
	if err := pool.ValidateConfig(config); err != nil {
		return err
	}
	return e.run(ctx, "put_config", config.ID, func(tx *txn) error {
		tx.configs = append(tx.configs, config.Clone())
		return nil
	})
}

func (e *Engine) CreatePool(ctx context.Context, req CreatePoolRequest) (*domain.PoolState, error) {
	var created *domain.PoolState
	err := e.run(ctx, "create_pool", req.PoolID, func(tx *txn) error {
		if _, err := tx.st.Pool(req.PoolID); err == nil {
			return fmt.Errorf("pool %s: %w", req.PoolID, common.ErrPoolAlreadyInitialized)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		config, err := tx.st.Config(req.ConfigID)
		if err != nil {
			return fmt.Errorf("config %s: %w", req.ConfigID, err)
		}
		state, err := pool.Initialize(config, pool.InitializeParams{
			ID:           req.PoolID,
			TokenMint0:   req.TokenMint0,
			TokenMint1:   req.TokenMint1,
			TokenVault0:  req.TokenVault0,
			TokenVault1:  req.TokenVault1,
			SqrtPriceX64: req.SqrtPriceX64,
		}, tx.now)
		if err != nil {
			return err
		}
		tx.attach(state, config)
		created = state.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PoolCount.Inc()
	e.logger.Info().
		Str("pool", req.PoolID.String()).
		Int32("tick", created.TickCurrent).
		Uint16("tick_spacing", created.TickSpacing).
		Msg("[engine] pool created")
	return created, nil
}

// InitializeReward opens a reward stream and returns the deposit the funder owes.
func (e *Engine) InitializeReward(ctx context.Context, req InitializeRewardRequest) (*domain.RewardInitResult, error) {
	if req.RewardVault.IsZero() && e.addresses != nil {
		vault, err := e.addresses.RewardVault(req.PoolID, req.RewardMint)
		if err != nil {
			return nil, fmt.Errorf("derive reward vault: %w", err)
		}
		req.RewardVault = vault
	}
	balance, err := e.balance(ctx, req.FunderAccount, req.RewardMint, req.FunderBalance)
	if err != nil {
		return nil, err
	}
	res := &domain.RewardInitResult{RewardIndex: req.Param.RewardIndex}
	err = e.run(ctx, "initialize_reward", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		amount, err := pool.InitializeReward(tx.pool, tx.config, req.Funder, req.Param, req.RewardMint, req.RewardVault, balance, tx.now)
		if err != nil {
			return err
		}
		res.RewardAmount = amount
		res.Transfers = domain.AppendNonZero(nil, domain.TransferIn(req.Funder, req.FunderAccount, req.RewardVault, req.RewardMint, amount))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}

// SetRewardParams extends or speeds up an open stream and returns the additional
// deposit it requires.
func (e *Engine) SetRewardParams(ctx context.Context, req SetRewardParamsRequest) (*domain.RewardInitResult, error) {
	res := &domain.RewardInitResult{RewardIndex: req.Update.RewardIndex}
	var mint solana.PublicKey
	err := e.run(ctx, "set_reward_params", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		additional, err := pool.SetRewardParams(tx.pool, req.Authority, req.Update, tx.now)
		if err != nil {
			return err
		}
		info := tx.pool.RewardInfos[req.Update.RewardIndex]
		mint = info.TokenMint
		balance, err := e.balance(ctx, req.FunderAccount, mint, req.FunderBalance)
		if err != nil {
			return err
		}
		if err := pool.CheckFunding(balance, additional); err != nil {
			return err
		}
		res.RewardAmount = additional
		res.Transfers = domain.AppendNonZero(nil, domain.TransferIn(req.Authority, req.FunderAccount, info.TokenVault, mint, additional))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}

// UpdateRewards accrues every reward stream of the pool to now.
func (e *Engine) UpdateRewards(ctx context.Context, poolID solana.PublicKey) ([domain.RewardNum]uint128.Uint128, error) {
	var growths [domain.RewardNum]uint128.Uint128
	err := e.run(ctx, "update_rewards", poolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		var err error
		growths, err = rewards.UpdateRewardGrowth(tx.pool, tx.now)
		return err
	})
	return growths, err
}

func (e *Engine) CollectProtocolFees(ctx context.Context, req CollectProtocolFeesRequest) (*domain.CollectResult, error) {
	res := &domain.CollectResult{}
	err := e.run(ctx, "collect_protocol_fees", req.PoolID, func(tx *txn) error {
		if err := tx.loadPool(); err != nil {
			return err
		}
		a0, a1, err := pool.CollectProtocolFee(tx.pool, tx.config, req.Caller, req.Amount0Max, req.Amount1Max)
		if err != nil {
			return err
		}
		res.Amount0, res.Amount1 = a0, a1
		p := tx.pool
		res.Transfers = domain.AppendNonZero(nil,
			domain.TransferOut(p.ID, p.TokenVault0, req.Recipient0, p.TokenMint0, a0),
			domain.TransferOut(p.ID, p.TokenVault1, req.Recipient1, p.TokenMint1, a1),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, e.dispatch(ctx, res.Transfers)
}
