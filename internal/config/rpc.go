package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/andrew-solarstorm/go-packages/common"
)

// RPCConfig points the engine at a chain node used to read funder balances. With no
// RPCUrl the engine trusts the balance supplied in each request.
type RPCConfig struct {
	RPCUrl     string
	Commitment string
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.Commitment = common.GetEnvOrDefault("RPC_COMMITMENT", "confirmed")
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if !slices.Contains([]string{"processed", "confirmed", "finalized"}, r.Commitment) {
		return fmt.Errorf("invalid rpc commitment %q", r.Commitment)
	}
	return nil
}
