package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/http"
	"github.com/hxuan190/clmm-core/internal/services/swap"
)

func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	raw, _ := cmd.Flags().GetString(name)
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}

func optionalKeyFlag(cmd *cobra.Command, name string) (solana.PublicKey, bool, error) {
	if raw, _ := cmd.Flags().GetString(name); raw == "" {
		return solana.PublicKey{}, false, nil
	}
	key, err := keyFlag(cmd, name)
	return key, err == nil, err
}

// derivePoolAddresses fills the pool and vault addresses from flags, deriving the
// ones left empty from the program id.
func derivePoolAddresses(cmd *cobra.Command, req *amm.CreatePoolRequest) error {
	addrs, err := addresses(cmd)
	if err != nil {
		return err
	}
	id, ok, err := optionalKeyFlag(cmd, "id")
	if err != nil {
		return err
	}
	if !ok {
		if id, err = addrs.Pool(req.ConfigID, req.TokenMint0, req.TokenMint1); err != nil {
			return err
		}
	}
	req.PoolID = id

	for name, vault := range map[string]struct {
		dst  *solana.PublicKey
		mint solana.PublicKey
	}{
		"vault0": {&req.TokenVault0, req.TokenMint0},
		"vault1": {&req.TokenVault1, req.TokenMint1},
	} {
		key, ok, err := optionalKeyFlag(cmd, name)
		if err != nil {
			return err
		}
		if !ok {
			if key, err = addrs.Vault(id, vault.mint); err != nil {
				return err
			}
		}
		*vault.dst = key
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage fee tiers"}

	put := &cobra.Command{
		Use:   "put",
		Short: "Create or replace a fee tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := keyFlag(cmd, "id")
			if err != nil {
				return err
			}
			owner, err := keyFlag(cmd, "owner")
			if err != nil {
				return err
			}
			index, _ := cmd.Flags().GetUint16("index")
			tradeFee, _ := cmd.Flags().GetUint32("trade-fee-rate")
			protocolFee, _ := cmd.Flags().GetUint32("protocol-fee-rate")
			spacing, _ := cmd.Flags().GetUint16("tick-spacing")

			engine, closer, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			c := &domain.AmmConfig{ID: id, Index: index, Owner: owner, TradeFeeRate: tradeFee, ProtocolFeeRate: protocolFee, TickSpacing: spacing}
			if err := engine.PutConfig(cmd.Context(), c); err != nil {
				return err
			}
			return printJSON(cmd, c)
		},
	}
	put.Flags().String("id", "", "config address")
	put.Flags().String("owner", "", "config owner")
	put.Flags().Uint16("index", 0, "config index")
	put.Flags().Uint32("trade-fee-rate", 2500, "trade fee in hundredths of a bip")
	put.Flags().Uint32("protocol-fee-rate", 120000, "protocol share of the trade fee in hundredths of a bip")
	put.Flags().Uint16("tick-spacing", 10, "tick spacing")

	cmd.AddCommand(put)
	return cmd
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "pool", Short: "Inspect and create pools"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, closer, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			pools, err := engine.Pools()
			if err != nil {
				return err
			}
			out := make([]http.PoolInfo, 0, len(pools))
			for _, p := range pools {
				out = append(out, http.PoolInfo{
					Address:     p.ID.String(),
					TokenMint0:  p.TokenMint0.String(),
					TokenMint1:  p.TokenMint1.String(),
					TickSpacing: p.TickSpacing,
					TickCurrent: p.TickCurrent,
					Price:       p.Price(),
				})
			}
			return printJSON(cmd, out)
		},
	}

	show := &cobra.Command{
		Use:   "show <address>",
		Short: "Print the full state of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return err
			}
			engine, closer, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			p, err := engine.Pool(id)
			if err != nil {
				return err
			}
			return printJSON(cmd, http.NewPoolDetail(p))
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a pool under a fee tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := amm.CreatePoolRequest{}
			for name, dst := range map[string]*solana.PublicKey{
				"config": &req.ConfigID, "mint0": &req.TokenMint0, "mint1": &req.TokenMint1,
			} {
				key, err := keyFlag(cmd, name)
				if err != nil {
					return err
				}
				*dst = key
			}
			if err := derivePoolAddresses(cmd, &req); err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("sqrt-price-x64")
			sqrtPrice, err := uint128.FromString(raw)
			if err != nil {
				return fmt.Errorf("invalid sqrt price %q: %w", raw, err)
			}
			req.SqrtPriceX64 = sqrtPrice

			engine, closer, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			p, err := engine.CreatePool(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, http.NewPoolDetail(p))
		},
	}
	for _, name := range []string{"config", "mint0", "mint1"} {
		create.Flags().String(name, "", name+" address")
	}
	for _, name := range []string{"id", "vault0", "vault1"} {
		create.Flags().String(name, "", name+" address, derived when empty")
	}
	create.Flags().String("sqrt-price-x64", "18446744073709551616", "initial sqrt price as Q64.64")

	cmd.AddCommand(list, show, create)
	return cmd
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Simulate a swap against the stored pool state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			zeroForOne, _ := cmd.Flags().GetBool("zero-for-one")
			exactOut, _ := cmd.Flags().GetBool("exact-out")

			engine, closer, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()
			res, err := engine.QuoteSwap(cmd.Context(), amm.SwapRequest{
				PoolID: id,
				Params: swap.Params{AmountSpecified: amount, ZeroForOne: zeroForOne, IsBaseInput: !exactOut},
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, http.QuoteResponse{
				Pool:              id.String(),
				AmountIn:          fmt.Sprint(res.AmountIn),
				AmountOut:         fmt.Sprint(res.AmountOut),
				FeeAmount:         fmt.Sprint(res.FeeAmount),
				ProtocolFee:       fmt.Sprint(res.ProtocolFee),
				SqrtPriceAfterX64: res.FinalSqrtPriceX64.String(),
				TickAfter:         res.FinalTick,
				TicksCrossed:      res.TicksCrossed,
				PriceLimitReached: res.PriceLimitReached,
			})
		},
	}
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().Uint64("amount", 0, "exact input, or exact output with --exact-out")
	cmd.Flags().Bool("zero-for-one", false, "swap token0 for token1")
	cmd.Flags().Bool("exact-out", false, "treat --amount as the exact output")
	return cmd
}
