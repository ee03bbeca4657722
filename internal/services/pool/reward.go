package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/services/rewards"
)

type InitializeRewardParam struct {
	RewardIndex           uint8
	OpenTime              uint64
	EndTime               uint64
	EmissionsPerSecondX64 uint128.Uint128
}

// Check validates the stream parameters at time now.
func (p InitializeRewardParam) Check(now uint64) error {
	switch {
	case int(p.RewardIndex) >= domain.RewardNum:
		return fmt.Errorf("reward index %d: %w", p.RewardIndex, common.ErrInvalidRewardInitParam)
	case p.OpenTime >= p.EndTime:
		return fmt.Errorf("open %d not before end %d: %w", p.OpenTime, p.EndTime, common.ErrInvalidRewardInitParam)
	case p.EndTime < now:
		return fmt.Errorf("end %d before now %d: %w", p.EndTime, now, common.ErrInvalidRewardInitParam)
	case p.EmissionsPerSecondX64.IsZero():
		return fmt.Errorf("zero emissions: %w", common.ErrInvalidRewardInitParam)
	}
	return nil
}

// RewardAmount is the funding the stream requires: floor((end-open) * emissions / Q64).
func (p InitializeRewardParam) RewardAmount() (uint64, error) {
	return rewards.EmittedAmount(p.EndTime-p.OpenTime, p.EmissionsPerSecondX64)
}

// AuthorizeFunder allows only the config owner to open reward streams.
func AuthorizeFunder(funder solana.PublicKey, config *domain.AmmConfig) error {
	if !funder.Equals(config.Owner) {
		return fmt.Errorf("funder %s: %w", funder, common.ErrNotApproved)
	}
	return nil
}

// CheckFunding verifies the funder's balance covers the stream.
func CheckFunding(balance, required uint64) error {
	if balance < required {
		return fmt.Errorf("balance %d below %d: %w", balance, required, common.ErrInsufficientFunding)
	}
	return nil
}

// checkSlot allows a fresh slot, or re-use of an ended slot for the same mint when the
// new stream opens after the old one ended.
func checkSlot(state *domain.PoolState, param InitializeRewardParam, mint solana.PublicKey, now uint64) error {
	slot := &state.RewardInfos[param.RewardIndex]
	if !slot.Initialized() {
		for i := range state.RewardInfos {
			r := &state.RewardInfos[i]
			if i != int(param.RewardIndex) && r.Initialized() && r.TokenMint.Equals(mint) && r.EndTime > now {
				return fmt.Errorf("mint %s already streamed by reward %d: %w", mint, i, common.ErrInvalidRewardInitParam)
			}
		}
		return nil
	}
	if slot.EndTime > now || slot.EndTime > param.OpenTime {
		return fmt.Errorf("reward %d still active until %d: %w", param.RewardIndex, slot.EndTime, common.ErrInvalidRewardInitParam)
	}
	if !slot.TokenMint.Equals(mint) {
		return fmt.Errorf("reward %d reused with mint %s: %w", param.RewardIndex, mint, common.ErrInvalidRewardInitParam)
	}
	return nil
}

// InitializeReward opens a reward stream and returns the amount the funder must
// deposit out of funderBalance. Existing streams are brought up to now before the slot is written so
// their accrual is not affected.
func InitializeReward(
	state *domain.PoolState,
	config *domain.AmmConfig,
	funder solana.PublicKey,
	param InitializeRewardParam,
	mint, vault solana.PublicKey,
	funderBalance uint64,
	now uint64,
) (uint64, error) {
	if err := AuthorizeFunder(funder, config); err != nil {
		return 0, err
	}
	if err := param.Check(now); err != nil {
		return 0, err
	}
	if err := checkSlot(state, param, mint, now); err != nil {
		return 0, err
	}
	amount, err := param.RewardAmount()
	if err != nil {
		return 0, fmt.Errorf("reward amount: %w", err)
	}
	if err := CheckFunding(funderBalance, amount); err != nil {
		return 0, err
	}
	if _, err := rewards.UpdateRewardGrowth(state, now); err != nil {
		return 0, err
	}

	slot := &state.RewardInfos[param.RewardIndex]
	growth := slot.RewardGrowthGlobalX64
	*slot = domain.RewardInfo{
		RewardState:           domain.RewardStateInitialized,
		OpenTime:              param.OpenTime,
		EndTime:               param.EndTime,
		LastUpdateTime:        max(param.OpenTime, now),
		EmissionsPerSecondX64: param.EmissionsPerSecondX64,
		TokenMint:             mint,
		TokenVault:            vault,
		Authority:             funder,
		RewardGrowthGlobalX64: growth,
	}
	if now >= param.OpenTime {
		slot.RewardState = domain.RewardStateOpening
	}
	return amount, nil
}

type RewardParamsUpdate struct {
	RewardIndex           uint8
	EmissionsPerSecondX64 uint128.Uint128
	EndTime               uint64
}

// SetRewardParams changes the rate or extends the end of a stream that has not ended.
// It returns the additional funding required to cover the remaining schedule; a change
// that would need less than already deposited is rejected.
func SetRewardParams(state *domain.PoolState, caller solana.PublicKey, params RewardParamsUpdate, now uint64) (uint64, error) {
	if int(params.RewardIndex) >= domain.RewardNum {
		return 0, fmt.Errorf("reward index %d: %w", params.RewardIndex, common.ErrInvalidRewardInitParam)
	}
	slot := &state.RewardInfos[params.RewardIndex]
	if !slot.Initialized() {
		return 0, fmt.Errorf("reward %d: %w", params.RewardIndex, common.ErrRewardNotInitialized)
	}
	if !caller.Equals(slot.Authority) {
		return 0, fmt.Errorf("reward %d authority: %w", params.RewardIndex, common.ErrNotApproved)
	}
	if now >= slot.EndTime {
		return 0, fmt.Errorf("reward %d ended at %d: %w", params.RewardIndex, slot.EndTime, common.ErrInvalidRewardInitParam)
	}
	if params.EndTime < slot.EndTime || params.EmissionsPerSecondX64.IsZero() {
		return 0, fmt.Errorf("reward %d cannot shrink: %w", params.RewardIndex, common.ErrInvalidRewardInitParam)
	}

	if _, err := rewards.UpdateRewardGrowth(state, now); err != nil {
		return 0, err
	}

	from := max(now, slot.OpenTime)
	remaining, err := rewards.EmittedAmount(slot.EndTime-from, slot.EmissionsPerSecondX64)
	if err != nil {
		return 0, err
	}
	required, err := rewards.EmittedAmount(params.EndTime-from, params.EmissionsPerSecondX64)
	if err != nil {
		return 0, err
	}
	if required < remaining {
		return 0, fmt.Errorf("reward %d needs %d, %d already deposited: %w", params.RewardIndex, required, remaining, common.ErrInvalidRewardInitParam)
	}

	slot.EmissionsPerSecondX64 = params.EmissionsPerSecondX64
	slot.EndTime = params.EndTime
	return required - remaining, nil
}
