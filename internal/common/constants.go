// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID    = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// IsTokenProgram reports whether program owns SPL token accounts.
func IsTokenProgram(program solana.PublicKey) bool {
	return program.Equals(TokenProgramID) || program.Equals(Token2022ID)
}
