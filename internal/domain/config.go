package domain

import "github.com/gagliardetto/solana-go"

// AmmConfig is the fee tier a pool is created under. Rates are in hundredths of a
// bip (denominator 1e6); ProtocolFeeRate is the share of each trade fee kept by the
// protocol.
type AmmConfig struct {
	ID              solana.PublicKey
	Index           uint16
	Owner           solana.PublicKey
	TradeFeeRate    uint32
	ProtocolFeeRate uint32
	TickSpacing     uint16
}

func (c *AmmConfig) Clone() *AmmConfig {
	cp := *c
	return &cp
}
