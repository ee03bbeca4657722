package amm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/clmm-core/internal/adapters/chain"
	"github.com/hxuan190/clmm-core/internal/adapters/persistence"
	"github.com/hxuan190/clmm-core/internal/config"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/metrics"
	"github.com/hxuan190/clmm-core/internal/services"
	"github.com/hxuan190/clmm-core/internal/store"
)

const (
	AMM_SERVICE = "amm.Service"
)

// Service owns the engine and its store inside the runtime container.
type Service struct {
	container.BaseDIInstance

	engine  *Engine
	storage *persistence.Storage
	logger  *services.ServiceLogger
}

func (svc *Service) ID() string {
	return AMM_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	engineConfig := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	var st store.Store
	if engineConfig.PersistenceEnabled {
		codec, err := persistence.NewCodec(engineConfig.Codec)
		if err != nil {
			return err
		}
		if svc.storage, err = persistence.NewStorage(engineConfig.DBPath, codec); err != nil {
			return fmt.Errorf("open record store: %w", err)
		}
		st = svc.storage
	} else {
		svc.logger.Warn().Msg("[amm] persistence disabled, records are kept in memory only")
		st = store.NewMemory()
	}

	svc.engine = NewEngine(st)
	svc.engine.SetLogger(svc.logger)
	svc.engine.SetTransferer(&LogTransferer{logger: svc.logger})
	var programID solana.PublicKey
	if engineConfig.ProgramID != "" {
		var err error
		if programID, err = solana.PublicKeyFromBase58(engineConfig.ProgramID); err != nil {
			return fmt.Errorf("engine program id: %w", err)
		}
	}
	svc.engine.SetAddresses(chain.NewAddresses(programID))
	if rpcConfig.RPCUrl != "" {
		svc.engine.SetBalanceReader(chain.NewRPCBalanceReader(rpcConfig.RPCUrl, rpcConfig.Commitment))
	}
	return nil
}

func (svc *Service) Start() error {
	pools, err := svc.engine.Pools()
	if err != nil {
		return err
	}
	metrics.PoolCount.Set(float64(len(pools)))
	svc.logger.Info().Int("pools", len(pools)).Msg("[amm] engine ready")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

func (svc *Service) Engine() *Engine {
	return svc.engine
}

// LogTransferer records transfers without moving value. It stands in for a custody
// layer when the runtime runs standalone.
type LogTransferer struct {
	logger *services.ServiceLogger
}

func (t *LogTransferer) Transfer(_ context.Context, tr domain.Transfer) error {
	t.logger.Info().
		Str("payer", tr.Payer.String()).
		Str("source", tr.Source.String()).
		Str("destination", tr.Destination.String()).
		Str("mint", tr.Mint.String()).
		Uint64("amount", tr.Amount).
		Msg("[amm] transfer")
	return nil
}
