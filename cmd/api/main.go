package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadpipeline_backend/internal/config"
	"leadpipeline_backend/internal/enrich"
	"leadpipeline_backend/internal/events"
	"leadpipeline_backend/internal/ingest"
	"leadpipeline_backend/internal/ledger"
	"leadpipeline_backend/internal/objectstore"
	"leadpipeline_backend/platform/db"
	"leadpipeline_backend/platform/httpkit"
	"leadpipeline_backend/platform/logger"
	"leadpipeline_backend/platform/retry"
	"leadpipeline_backend/platform/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// startupPolicy governs retries of infrastructure setup at boot, where
// everything is worth retrying.
var startupPolicy = retry.Policy{MaxAttempts: 5, BaseDelay: 2 * time.Second, JitterFraction: 0.3}

func alwaysRetry(error) bool { return true }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting ingestion gateway", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := objectstore.NewMinIOStore(objectstore.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		log.Error("failed to initialize object store", "error", err.Error())
		panic("failed to initialize object store: " + err.Error())
	}

	if err := retry.Do(ctx, startupPolicy, alwaysRetry, func(ctx context.Context) error {
		return store.EnsureBucketExists(ctx, cfg.BucketName)
	}); err != nil {
		log.Error("failed to ensure bucket exists", "bucket", cfg.BucketName, "error", err.Error())
		panic("failed to ensure bucket exists: " + err.Error())
	}
	log.Info("object store ready", "bucket", cfg.BucketName)

	queue, err := enrich.NewClient(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err.Error())
		panic("failed to initialize queue client: " + err.Error())
	}
	defer queue.Close()

	bus := events.NewInMemoryBus(log)

	// Optional audit ledger; the pipeline runs fine without a database.
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err.Error())
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()

		if err := retry.Do(ctx, startupPolicy, alwaysRetry, func(ctx context.Context) error {
			return ledger.Migrate(ctx, pool)
		}); err != nil {
			log.Error("failed to run ledger migrations", "error", err.Error())
			panic("failed to run ledger migrations: " + err.Error())
		}

		ledger.NewModule(ledger.New(pool), log).RegisterHandlers(bus)
		log.Info("audit ledger enabled")
	}

	retryPolicy := retry.Policy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		BaseDelay:      cfg.RetryBaseDelay,
		JitterFraction: 0.3,
	}

	ingestModule := ingest.NewModule(store, queue, bus, validator.New(), cfg.BucketName, cfg.SourcePrefix, retryPolicy, log)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())

	if cfg.CORSAllowAll || len(cfg.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		if cfg.CORSAllowAll {
			corsCfg.AllowAllOrigins = true
		} else {
			corsCfg.AllowOrigins = cfg.CORSOrigins
		}
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-ID")
		engine.Use(cors.New(corsCfg))
	}

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := httpkit.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, log)
	ingestModule.RegisterRoutes(engine, limiter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err.Error())
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			panic("server error: " + err.Error())
		}
	}
}
