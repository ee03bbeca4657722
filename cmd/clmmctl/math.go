package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/services/pool"
)

type priceOutput struct {
	Tick         int32   `json:"tick"`
	SqrtPriceX64 string  `json:"sqrt_price_x64"`
	Price        float64 `json:"price"`
}

func newPriceOutput(tick int32, sqrtPrice uint128.Uint128) priceOutput {
	p := domain.PoolState{SqrtPriceX64: sqrtPrice}
	return priceOutput{Tick: tick, SqrtPriceX64: sqrtPrice.String(), Price: p.Price()}
}

func newTickToPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick-to-price",
		Short: "Print the sqrt price and price at a tick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tick, _ := cmd.Flags().GetInt32("tick")
			sqrtPrice, err := fixedpoint.SqrtPriceFromTick(tick)
			if err != nil {
				return err
			}
			return printJSON(cmd, newPriceOutput(tick, sqrtPrice))
		},
	}
	cmd.Flags().Int32("tick", 0, "tick index")
	return cmd
}

func newPriceToTickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price-to-tick",
		Short: "Print the greatest tick whose sqrt price does not exceed the given one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("sqrt-price-x64")
			sqrtPrice, err := uint128.FromString(raw)
			if err != nil {
				return fmt.Errorf("invalid sqrt price %q: %w", raw, err)
			}
			tick, err := fixedpoint.TickFromSqrtPrice(sqrtPrice)
			if err != nil {
				return err
			}
			return printJSON(cmd, newPriceOutput(tick, sqrtPrice))
		},
	}
	cmd.Flags().String("sqrt-price-x64", fixedpoint.Q64.String(), "sqrt price as Q64.64")
	return cmd
}

func newRewardAmountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward-amount",
		Short: "Print the deposit a reward stream requires",
		RunE: func(cmd *cobra.Command, _ []string) error {
			open, _ := cmd.Flags().GetUint64("open")
			end, _ := cmd.Flags().GetUint64("end")
			raw, _ := cmd.Flags().GetString("emissions-x64")
			emissions, err := uint128.FromString(raw)
			if err != nil {
				return fmt.Errorf("invalid emissions %q: %w", raw, err)
			}
			param := pool.InitializeRewardParam{OpenTime: open, EndTime: end, EmissionsPerSecondX64: emissions}
			if err := param.Check(open); err != nil {
				return err
			}
			amount, err := param.RewardAmount()
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]uint64{"amount": amount})
		},
	}
	cmd.Flags().Uint64("open", 0, "stream open time (unix seconds)")
	cmd.Flags().Uint64("end", 0, "stream end time (unix seconds)")
	cmd.Flags().String("emissions-x64", fixedpoint.Q64.String(), "tokens per second as Q64.64")
	return cmd
}
