package http

import (
	"context"
	"errors"
	gohttp "net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/config"
	"github.com/hxuan190/clmm-core/internal/http/httputil"
	"github.com/hxuan190/clmm-core/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"

	rateLimitSweepInterval = time.Minute
)

type HTTPService struct {
	container.BaseDIInstance

	engine      *amm.Engine
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig
	stopSweep   chan struct{}
	stopOnce    sync.Once
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

// NewRouter builds the inspection API over engine.
func NewRouter(engine *amm.Engine, rateLimiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	if rateLimiter != nil {
		r.Use(rateLimiter.RateLimitMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httputil.Mount(r.Group("api/"+API_VERSION),
		NewPoolHandler(engine),
		NewQuoteHandler(engine),
	)
	return r
}

func (svc *HTTPService) Start() error {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	svc.server = &gohttp.Server{
		Addr:    svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler: NewRouter(svc.engine, svc.rateLimiter),
	}
	go svc.sweepRateLimiter()
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}
	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}

	svc.engine = c.Instance(amm.AMM_SERVICE).(*amm.Service).Engine()
	svc.rateLimiter = middlewares.NewRateLimiter(float64(svc.conf.RateLimitPerSecond), svc.conf.RateLimitBurst)
	svc.stopSweep = make(chan struct{})
	return nil
}

func (svc *HTTPService) Stop() error {
	svc.stopOnce.Do(func() {
		if svc.stopSweep != nil {
			close(svc.stopSweep)
		}
	})
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) sweepRateLimiter() {
	ticker := time.NewTicker(rateLimitSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-svc.stopSweep:
			return
		case now := <-ticker.C:
			if n := svc.rateLimiter.Sweep(now); n > 0 {
				log.Debug().Int("evicted", n).Msg("[http] rate limiter swept")
			}
		}
	}
}
