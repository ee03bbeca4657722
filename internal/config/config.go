package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY = "general-config"
	ENGINE_CONFIG_KEY  = "engine-config"
	RPC_CONFIG_KEY     = "rpc-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
	// LogFile, when set, adds a rotating file sink next to stdout.
	LogFile string

	// per client IP
	RateLimitPerSecond int
	RateLimitBurst     int
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.LogFile = common.GetEnvOrDefault("LOG_FILE", "")
	gc.RateLimitPerSecond = common.GetEnvOrDefaultInt("RATE_LIMIT_PER_SECOND", 10)
	gc.RateLimitBurst = common.GetEnvOrDefaultInt("RATE_LIMIT_BURST", 20)
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" || gc.Env == "" {
		return errors.New("invalid server config")
	}
	if gc.RateLimitPerSecond <= 0 || gc.RateLimitBurst <= 0 {
		return errors.New("invalid rate limit config")
	}
	return nil
}
