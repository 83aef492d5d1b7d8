package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadpipeline_backend/internal/config"
	"leadpipeline_backend/internal/enrich"
	"leadpipeline_backend/internal/events"
	"leadpipeline_backend/internal/ledger"
	"leadpipeline_backend/internal/lookup"
	"leadpipeline_backend/internal/notifier"
	"leadpipeline_backend/internal/objectstore"
	"leadpipeline_backend/internal/secrets"
	"leadpipeline_backend/platform/db"
	"leadpipeline_backend/platform/logger"
	"leadpipeline_backend/platform/retry"

	"github.com/redis/go-redis/v9"
)

var startupPolicy = retry.Policy{MaxAttempts: 5, BaseDelay: 2 * time.Second, JitterFraction: 0.3}

func alwaysRetry(error) bool { return true }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting enrichment worker", "env", cfg.Env, "queue", cfg.QueueName, "concurrency", cfg.WorkerConcurrency)

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

	ownerLookup := lookup.New(cfg.LookupBaseURL, cfg.LookupTimeout, log)

	var channels []notifier.Channel
	if cfg.UseSlack {
		provider := secrets.NewProvider(cfg.SecretsDir)
		channels = append(channels, notifier.NewChatChannel(provider, cfg.SlackSecretName, log))
		log.Info("chat notifications enabled", "secret", cfg.SlackSecretName)
	}
	if cfg.UseEmail {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid redis url", "error", err.Error())
			panic("invalid redis url: " + err.Error())
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		channels = append(channels, notifier.NewTopicChannel(rdb, cfg.EmailTopic, log))
		log.Info("email notifications enabled", "topic", cfg.EmailTopic)
	}
	dispatcher := notifier.NewDispatcher(log, channels...)

	bus := events.NewInMemoryBus(log)

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err.Error())
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()

		ledger.NewModule(ledger.New(pool), log).RegisterHandlers(bus)
		log.Info("audit ledger enabled")
	}

	retryPolicy := retry.Policy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		BaseDelay:      cfg.RetryBaseDelay,
		JitterFraction: 0.3,
	}

	service := enrich.NewService(store, ownerLookup, dispatcher, bus, cfg.BucketName, cfg.TargetPrefix, retryPolicy, log)

	worker, err := enrich.NewWorker(cfg.RedisURL, cfg.QueueName, cfg.WorkerConcurrency, service, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err.Error())
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("enrichment worker stopped")
}
