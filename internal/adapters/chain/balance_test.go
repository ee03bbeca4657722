package chain

import (
	"bytes"
	"context"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-core/internal/common"
)

type fakeFetcher struct {
	accounts map[solana.PublicKey][]byte
	// accounts listed here are owned by the given program instead of the token program
	owners map[solana.PublicKey]solana.PublicKey
	err    error
}

func (f *fakeFetcher) GetAccountInfoWithOpts(_ context.Context, account solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.accounts[account]
	if !ok {
		return &rpc.GetAccountInfoResult{}, nil
	}
	owner, ok := f.owners[account]
	if !ok {
		owner = common.TokenProgramID
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Owner: owner, Data: rpc.DataBytesOrJSONFromBytes(data)}}, nil
}

func encodeTokenAccount(t *testing.T, mint solana.PublicKey, amount uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bin.NewBinEncoder(&buf).Encode(&token.Account{Mint: mint, Owner: solana.PublicKey{9}, Amount: amount}))
	return buf.Bytes()
}

func TestBalance(t *testing.T) {
	mint := solana.PublicKey{1}
	account := solana.PublicKey{2}
	fetcher := &fakeFetcher{accounts: map[solana.PublicKey][]byte{account: encodeTokenAccount(t, mint, 12_345)}}
	reader := NewBalanceReader(fetcher, "confirmed")

	got, err := reader.Balance(context.Background(), account, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_345), got)

	_, err = reader.Balance(context.Background(), account, solana.PublicKey{7})
	require.Error(t, err, "wrong mint")

	_, err = reader.Balance(context.Background(), solana.PublicKey{3}, mint)
	require.ErrorIs(t, err, common.ErrNotFound)

	spoofed := solana.PublicKey{4}
	fetcher.accounts[spoofed] = encodeTokenAccount(t, mint, 1)
	fetcher.owners = map[solana.PublicKey]solana.PublicKey{spoofed: solana.SystemProgramID}
	_, err = reader.Balance(context.Background(), spoofed, mint)
	require.Error(t, err, "not a token account")

	fetcher.err = errors.New("node down")
	_, err = reader.Balance(context.Background(), account, mint)
	require.Error(t, err)
}
