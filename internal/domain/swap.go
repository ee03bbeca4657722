package domain

import "github.com/gagliardetto/solana-go"

// Transfer is a value movement the caller's custody layer must perform. The core only
// describes it; Payer is the account authorizing the debit of Source.
type Transfer struct {
	Payer       solana.PublicKey
	Source      solana.PublicKey
	Destination solana.PublicKey
	Mint        solana.PublicKey
	Amount      uint64
}

// TransferIn describes a payment from a user account into a pool vault.
func TransferIn(payer, source, vault, mint solana.PublicKey, amount uint64) Transfer {
	return Transfer{Payer: payer, Source: source, Destination: vault, Mint: mint, Amount: amount}
}

// TransferOut describes a payment from a pool vault, signed by the pool, to a user account.
func TransferOut(pool, vault, destination, mint solana.PublicKey, amount uint64) Transfer {
	return Transfer{Payer: pool, Source: vault, Destination: destination, Mint: mint, Amount: amount}
}

// AppendNonZero appends each transfer with a non-zero amount.
func AppendNonZero(dst []Transfer, ts ...Transfer) []Transfer {
	for _, t := range ts {
		if t.Amount != 0 {
			dst = append(dst, t)
		}
	}
	return dst
}
