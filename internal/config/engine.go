package config

import (
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
)

type EngineConfig struct {
	// DBPath is the path to the BoltDB file holding pools, tick arrays and positions.
	// Default: "./data/clmm-core.db"
	DBPath string

	// PersistenceEnabled selects the bolt store; when false records live in memory only.
	// Default: true
	PersistenceEnabled bool

	// Codec is the record encoding, "json" or "binary". A database must be reopened
	// with the codec it was written with.
	// Default: "json"
	Codec string

	// ProgramID is the base58 program used to derive vault addresses left unset by
	// callers. Empty selects the mainnet program.
	ProgramID string
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/clmm-core.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.Codec = common.GetEnvOrDefault("ENGINE_RECORD_CODEC", "json")
	c.ProgramID = common.GetEnvOrDefault("ENGINE_PROGRAM_ID", "")
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.Codec != "json" && c.Codec != "binary" {
		return fmt.Errorf("invalid record codec %q", c.Codec)
	}
	if c.PersistenceEnabled && c.DBPath == "" {
		return fmt.Errorf("persistence enabled without a db path")
	}
	return nil
}
