package chain

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the mainnet CLMM program that owns pool accounts.
var DefaultProgramID = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")

const (
	poolSeed        = "pool"
	poolVaultSeed   = "pool_vault"
	rewardVaultSeed = "pool_reward_vault"
	tickArraySeed   = "tick_array"
	observationSeed = "observation"
)

type addressKey struct {
	seed string
	a, b solana.PublicKey
	c    solana.PublicKey
	n    int32
}

// Addresses derives program addresses for pool accounts and memoizes them.
type Addresses struct {
	programID solana.PublicKey

	mu    sync.RWMutex
	cache map[addressKey]solana.PublicKey
}

// NewAddresses returns a deriver for programID, or DefaultProgramID when it is zero.
func NewAddresses(programID solana.PublicKey) *Addresses {
	if programID.IsZero() {
		programID = DefaultProgramID
	}
	return &Addresses{programID: programID, cache: make(map[addressKey]solana.PublicKey)}
}

func (a *Addresses) ProgramID() solana.PublicKey { return a.programID }

func (a *Addresses) derive(key addressKey, seeds [][]byte) (solana.PublicKey, error) {
	a.mu.RLock()
	if cached, ok := a.cache[key]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	pda, _, err := solana.FindProgramAddress(seeds, a.programID)
	if err != nil {
		return solana.PublicKey{}, err
	}

	a.mu.Lock()
	a.cache[key] = pda
	a.mu.Unlock()
	return pda, nil
}

// Pool derives the pool address for a fee tier and an ordered mint pair.
func (a *Addresses) Pool(config, mint0, mint1 solana.PublicKey) (solana.PublicKey, error) {
	return a.derive(
		addressKey{seed: poolSeed, a: config, b: mint0, c: mint1},
		[][]byte{[]byte(poolSeed), config[:], mint0[:], mint1[:]},
	)
}

// Vault derives the token vault a pool holds for mint.
func (a *Addresses) Vault(pool, mint solana.PublicKey) (solana.PublicKey, error) {
	return a.derive(
		addressKey{seed: poolVaultSeed, a: pool, b: mint},
		[][]byte{[]byte(poolVaultSeed), pool[:], mint[:]},
	)
}

// RewardVault derives the vault that funds a reward stream.
func (a *Addresses) RewardVault(pool, rewardMint solana.PublicKey) (solana.PublicKey, error) {
	return a.derive(
		addressKey{seed: rewardVaultSeed, a: pool, b: rewardMint},
		[][]byte{[]byte(rewardVaultSeed), pool[:], rewardMint[:]},
	)
}

// TickArray derives the address of the tick array starting at startIndex.
func (a *Addresses) TickArray(pool solana.PublicKey, startIndex int32) (solana.PublicKey, error) {
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], uint32(startIndex))
	return a.derive(
		addressKey{seed: tickArraySeed, a: pool, n: startIndex},
		[][]byte{[]byte(tickArraySeed), pool[:], be[:]},
	)
}

// Observation derives the oracle account of a pool.
func (a *Addresses) Observation(pool solana.PublicKey) (solana.PublicKey, error) {
	return a.derive(
		addressKey{seed: observationSeed, a: pool},
		[][]byte{[]byte(observationSeed), pool[:]},
	)
}
