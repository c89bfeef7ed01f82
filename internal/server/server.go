package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/attribution"
	catalogdomain "github.com/bazimogmbh/easypurchase/internal/catalog/domain"
	"github.com/bazimogmbh/easypurchase/internal/config"
	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	"github.com/bazimogmbh/easypurchase/internal/observability"
	obsmiddleware "github.com/bazimogmbh/easypurchase/internal/observability/logger"
	obsmetrics "github.com/bazimogmbh/easypurchase/internal/observability/metrics"
	obstracing "github.com/bazimogmbh/easypurchase/internal/observability/tracing"
	purchasedomain "github.com/bazimogmbh/easypurchase/internal/purchase/domain"
	restoredomain "github.com/bazimogmbh/easypurchase/internal/restore/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	entitlementSvc entitlementdomain.Service
	catalogSvc     catalogdomain.Service
	purchaseSvc    purchasedomain.Service
	restoreSvc     restoredomain.Service
	pipeline       *attribution.Pipeline
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	EntitlementSvc entitlementdomain.Service
	CatalogSvc     catalogdomain.Service
	PurchaseSvc    purchasedomain.Service
	RestoreSvc     restoredomain.Service
	Pipeline       *attribution.Pipeline `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		entitlementSvc: p.EntitlementSvc,
		catalogSvc:     p.CatalogSvc,
		purchaseSvc:    p.PurchaseSvc,
		restoreSvc:     p.RestoreSvc,
		pipeline:       p.Pipeline,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	v1.GET("/entitlements", s.getEntitlements)
	v1.GET("/offers", s.listOffers)
	v1.POST("/purchases", s.createPurchase)
	v1.POST("/restore", s.createRestore)
	v1.POST("/activate", s.activate)
}
