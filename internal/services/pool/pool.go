// Package pool holds the pool-level operations: creation, reward stream setup and
// protocol fee collection.
package pool

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/oracle"
	"github.com/hxuan190/clmm-core/internal/services/ticks"
)

type InitializeParams struct {
	ID           solana.PublicKey
	TokenMint0   solana.PublicKey
	TokenMint1   solana.PublicKey
	TokenVault0  solana.PublicKey
	TokenVault1  solana.PublicKey
	SqrtPriceX64 uint128.Uint128
}

// ValidateConfig checks the fee tier a pool is created under.
func ValidateConfig(config *domain.AmmConfig) error {
	if config.TickSpacing == 0 {
		return fmt.Errorf("tick spacing 0: %w", common.ErrInvalidTickIndex)
	}
	if config.TradeFeeRate >= fixedpoint.FeeRateDenominator || config.ProtocolFeeRate > fixedpoint.FeeRateDenominator {
		return fmt.Errorf("trade %d protocol %d: %w", config.TradeFeeRate, config.ProtocolFeeRate, common.ErrInvalidFeeRate)
	}
	return nil
}

// Initialize creates the state of a new pool at the given price.
func Initialize(config *domain.AmmConfig, params InitializeParams, now uint64) (*domain.PoolState, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if bytes.Compare(params.TokenMint0[:], params.TokenMint1[:]) >= 0 {
		return nil, common.ErrInvalidMintOrder
	}
	if params.SqrtPriceX64.Cmp(fixedpoint.MinSqrtPriceX64) < 0 || params.SqrtPriceX64.Cmp(fixedpoint.MaxSqrtPriceX64) >= 0 {
		return nil, fmt.Errorf("initial sqrt price %s: %w", params.SqrtPriceX64, common.ErrInvalidSqrtPrice)
	}
	tick, err := fixedpoint.TickFromSqrtPrice(params.SqrtPriceX64)
	if err != nil {
		return nil, err
	}

	state := &domain.PoolState{
		ID:              params.ID,
		AmmConfig:       config.ID,
		TokenMint0:      params.TokenMint0,
		TokenMint1:      params.TokenMint1,
		TokenVault0:     params.TokenVault0,
		TokenVault1:     params.TokenVault1,
		TickSpacing:     config.TickSpacing,
		SqrtPriceX64:    params.SqrtPriceX64,
		TickCurrent:     tick,
		TickArrayBitmap: ticks.NewBitmap(config.TickSpacing),
		OpenTime:        now,
	}
	oracle.Initialize(state, now)
	return state, nil
}

// CollectProtocolFee drains up to the requested amounts of accrued protocol fees.
// Only the config owner may collect.
func CollectProtocolFee(state *domain.PoolState, config *domain.AmmConfig, caller solana.PublicKey, max0, max1 uint64) (uint64, uint64, error) {
	if !caller.Equals(config.Owner) {
		return 0, 0, fmt.Errorf("collect protocol fee by %s: %w", caller, common.ErrNotApproved)
	}
	amount0 := min(max0, state.ProtocolFeesToken0)
	amount1 := min(max1, state.ProtocolFeesToken1)
	state.ProtocolFeesToken0 -= amount0
	state.ProtocolFeesToken1 -= amount1
	return amount0, amount1, nil
}
