package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/polydesk/internal/catalog"
	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/handler"
	"github.com/GoPolymarket/polydesk/internal/middleware"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/GoPolymarket/polydesk/internal/repository"
	"github.com/GoPolymarket/polydesk/internal/service"
	"github.com/GoPolymarket/polydesk/internal/venue/clob"
	"github.com/GoPolymarket/polydesk/internal/venue/kalshi"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 2. Credential store
	store, closeStore, err := newCredentialStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}
	defer closeStore()

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := service.SeedCredentials(seedCtx, store, cfg.Accounts); err != nil {
		seedCancel()
		log.Fatalf("Failed to seed credentials: %v", err)
	}
	seedCancel()

	// 3. Venues and services
	kalshiClient := kalshi.NewClient(cfg.Kalshi)
	clobClient := clob.NewClient(cfg.Polymarket)
	accounts := service.NewAccountRegistry(cfg)

	tradingSvc := service.NewTradingService(store, clobClient, kalshiClient)
	catalogSvc := service.NewCatalogService(catalog.NewAggregator(kalshiClient, cfg.Catalog))

	// 4. Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RequestLogMiddleware(logger.Component("http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "polydesk"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, accounts))
	v1.Use(middleware.RateLimitMiddleware(accounts))
	v1.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	handler.Register(v1, handler.NewTradingHandler(tradingSvc), handler.NewCatalogHandler(catalogSvc))

	// 5. Serve with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("polydesk started", "port", cfg.Server.Port, "credential_backend", cfg.Credentials.Backend, "read_only", cfg.Server.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exiting")
}

// newCredentialStore picks the backend named in config. The returned func
// releases its connections.
func newCredentialStore(cfg *config.Config) (service.CredentialStore, func(), error) {
	switch cfg.Credentials.Backend {
	case "redis":
		client, err := repository.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
		return repository.NewRedisCredentialStore(client, cfg.Credentials.KeyPrefix), func() { _ = client.Close() }, nil
	case "postgres":
		db, err := repository.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewPostgresCredentialStore(db)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return store, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	default:
		return repository.NewMemoryCredentialStore(), func() {}, nil
	}
}
