package amm

import (
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/services/pool"
	"github.com/hxuan190/clmm-core/internal/services/swap"
)

type CreatePoolRequest struct {
	ConfigID     solana.PublicKey
	PoolID       solana.PublicKey
	TokenMint0   solana.PublicKey
	TokenMint1   solana.PublicKey
	TokenVault0  solana.PublicKey
	TokenVault1  solana.PublicKey
	SqrtPriceX64 uint128.Uint128
}

type InitializeRewardRequest struct {
	PoolID        solana.PublicKey
	Funder        solana.PublicKey
	FunderAccount solana.PublicKey
	RewardMint    solana.PublicKey
	RewardVault   solana.PublicKey
	Param         pool.InitializeRewardParam
	// FunderBalance is used only when no BalanceReader is wired.
	FunderBalance uint64
}

type SetRewardParamsRequest struct {
	PoolID        solana.PublicKey
	Authority     solana.PublicKey
	FunderAccount solana.PublicKey
	Update        pool.RewardParamsUpdate
	FunderBalance uint64
}

// IncreaseLiquidityRequest adds liquidity to a position. When Liquidity is zero the
// largest liquidity the two maxima can back is used.
type IncreaseLiquidityRequest struct {
	PoolID     solana.PublicKey
	Owner      solana.PublicKey
	TickLower  int32
	TickUpper  int32
	Liquidity  uint128.Uint128
	Amount0Max uint64
	Amount1Max uint64
	// token accounts the deposit is paid from
	TokenAccount0 solana.PublicKey
	TokenAccount1 solana.PublicKey
}

type DecreaseLiquidityRequest struct {
	PoolID     solana.PublicKey
	Owner      solana.PublicKey
	TickLower  int32
	TickUpper  int32
	Liquidity  uint128.Uint128
	Amount0Min uint64
	Amount1Min uint64
	// token accounts the withdrawal is paid to
	TokenAccount0 solana.PublicKey
	TokenAccount1 solana.PublicKey
}

// SwapRequest runs a swap. OtherAmountThreshold is the minimum output for exact-input
// swaps and the maximum input for exact-output swaps; zero disables the check.
type SwapRequest struct {
	PoolID               solana.PublicKey
	Payer                solana.PublicKey
	InputAccount         solana.PublicKey
	OutputAccount        solana.PublicKey
	Params               swap.Params
	OtherAmountThreshold uint64
}

type CollectFeesRequest struct {
	PoolID     solana.PublicKey
	Owner      solana.PublicKey
	TickLower  int32
	TickUpper  int32
	Amount0Max uint64
	Amount1Max uint64
	Recipient0 solana.PublicKey
	Recipient1 solana.PublicKey
}

type CollectRewardsRequest struct {
	PoolID     solana.PublicKey
	Owner      solana.PublicKey
	TickLower  int32
	TickUpper  int32
	Recipients [domain.RewardNum]solana.PublicKey
}

type CollectProtocolFeesRequest struct {
	PoolID     solana.PublicKey
	Caller     solana.PublicKey
	Amount0Max uint64
	Amount1Max uint64
	Recipient0 solana.PublicKey
	Recipient1 solana.PublicKey
}
