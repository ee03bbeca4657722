// Package chain reads token account state from a Solana-compatible RPC node.
package chain

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/clmm-core/internal/common"
)

const rpcTimeout = 10 * time.Second

// AccountFetcher is the subset of the RPC client the balance reader needs.
type AccountFetcher interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// BalanceReader returns SPL token account balances.
type BalanceReader struct {
	client     AccountFetcher
	commitment rpc.CommitmentType
}

func NewBalanceReader(client AccountFetcher, commitment string) *BalanceReader {
	return &BalanceReader{client: client, commitment: rpc.CommitmentType(commitment)}
}

// NewRPCBalanceReader dials rpcURL.
func NewRPCBalanceReader(rpcURL, commitment string) *BalanceReader {
	return NewBalanceReader(rpc.New(rpcURL), commitment)
}

// Balance returns the amount held by the token account. The account must hold mint.
func (r *BalanceReader) Balance(ctx context.Context, account, mint solana.PublicKey) (uint64, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	info, err := r.client.GetAccountInfoWithOpts(timeoutCtx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: r.commitment,
	})
	if err != nil {
		return 0, fmt.Errorf("get token account %s: %w", account, err)
	}
	if info == nil || info.Value == nil {
		return 0, fmt.Errorf("token account %s: %w", account, common.ErrNotFound)
	}
	if !common.IsTokenProgram(info.Value.Owner) {
		return 0, fmt.Errorf("account %s is owned by %s, not a token program", account, info.Value.Owner)
	}

	var acc token.Account
	if err := bin.NewBinDecoder(info.Value.Data.GetBinary()).Decode(&acc); err != nil {
		return 0, fmt.Errorf("decode token account %s: %w", account, err)
	}
	if !acc.Mint.Equals(mint) {
		return 0, fmt.Errorf("token account %s holds %s, want %s", account, acc.Mint, mint)
	}
	return acc.Amount, nil
}
