package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CLIConfig holds the settings of the offline command line tool.
type CLIConfig struct {
	DBPath   string
	Codec    string
	LogLevel string
	// ProgramID is the base58 program used to derive pool addresses; empty selects
	// the mainnet program.
	ProgramID string
}

// LoadCLI merges an optional config file, CLMM_* environment variables and flags, in
// increasing order of precedence.
func LoadCLI(cfgFile string, flags *pflag.FlagSet) (CLIConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("CLMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", "./data/clmm-core.db")
	v.SetDefault("codec", "json")
	v.SetDefault("log-level", "warn")
	v.SetDefault("program-id", "")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return CLIConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return CLIConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := CLIConfig{
		DBPath:    v.GetString("db"),
		Codec:     v.GetString("codec"),
		LogLevel:  v.GetString("log-level"),
		ProgramID: v.GetString("program-id"),
	}
	if cfg.Codec != "json" && cfg.Codec != "binary" {
		return CLIConfig{}, fmt.Errorf("invalid record codec %q", cfg.Codec)
	}
	if cfg.DBPath == "" {
		return CLIConfig{}, fmt.Errorf("db path is required")
	}
	return cfg, nil
}
