package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/common"
	"github.com/hxuan190/clmm-core/internal/config"
	"github.com/hxuan190/clmm-core/internal/http"
)

func main() {
	// a missing .env is fine; the environment may already carry the config
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("invalid general config")
		return
	}
	logFile := common.InitLogger(common.LogOptions{
		Level:  general.LogLevel,
		File:   general.LogFile,
		Pretty: general.Env == config.DevEnv,
	})
	defer logFile.Close()

	common.TuneRuntime()

	// di container config
	conf := container.NewConf(
		general,
		&config.EngineConfig{},
		&config.RPCConfig{},
	)

	dic, err := container.New(
		conf,

		// services
		&amm.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
