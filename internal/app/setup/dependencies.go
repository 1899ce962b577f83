package setup

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/LavaJover/shvark-kickstarter-service/internal/config"
	httpapi "github.com/LavaJover/shvark-kickstarter-service/internal/delivery/http"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
	publisher "github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/lock"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/oracle"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-kickstarter-service/internal/infrastructure/transfer"
)

type Dependencies struct {
	Config   *config.KickstarterConfig
	Logger   zerolog.Logger
	Registry *prometheus.Registry

	// DB and Redis are nil when the service runs without them.
	DB    *gorm.DB
	Redis *redis.Client

	Store     domain.Store
	Locker    domain.Locker
	Transfers domain.TransferPort
	Oracle    domain.PriceOracle
	Events    domain.EventPublisher

	// KafkaPublisher and Subscriber are nil when no brokers are configured.
	KafkaPublisher *publisher.DefaultKafkaPublisher
	Subscriber     domain.SubscriberPort

	Readiness map[string]httpapi.ReadinessCheck
}

func InitializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg := config.MustLoad()

	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &Dependencies{
		Config:    cfg,
		Logger:    log,
		Registry:  reg,
		Transfers: transfer.NewHTTPTransferClient(cfg.TransferService.BaseURL, cfg.TransferService.Timeout),
		Oracle:    initOracle(cfg, log),
		Readiness: make(map[string]httpapi.ReadinessCheck),
	}

	deps.initStore()
	if err := deps.initLocker(ctx); err != nil {
		return nil, fmt.Errorf("locker: %w", err)
	}
	deps.initEvents()
	return deps, nil
}

func (d *Dependencies) initStore() {
	if d.Config.KickstarterDB.Dsn == "" {
		d.Logger.Warn().Msg("no database configured, using in-memory store")
		d.Store = memory.NewStore()
		return
	}

	d.DB = postgres.MustInitDB(d.Config)
	d.Store = repository.NewStore(d.DB)
	d.Readiness["postgres"] = func(ctx context.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func (d *Dependencies) initLocker(ctx context.Context) error {
	if d.Config.RedisService.URL == "" {
		d.Logger.Warn().Msg("no redis configured, campaign locks are process-local")
		d.Locker = lock.NewKeyedMutex()
		return nil
	}

	client, err := lock.Connect(ctx, d.Config.RedisService.URL)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	d.Redis = client
	d.Locker = lock.NewRedisLocker(client, d.Config.RedisService.LockTTL, d.Config.RedisService.LockMaxWait, d.Logger)
	d.Readiness["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	return nil
}

// initEvents fans ledger events out to every configured sink.
func (d *Dependencies) initEvents() {
	var sinks logger.Tee

	if brokers := d.Config.KafkaService.Brokers; len(brokers) > 0 {
		d.KafkaPublisher = publisher.NewDefaultKafkaPublisher(brokers)
		d.Subscriber = publisher.NewDefaultKafkaSubscriber(brokers, d.Logger)
		sinks = append(sinks, publisher.NewEventPublisher(d.KafkaPublisher, d.Config.KafkaService.EventsTopic, d.Logger))
	}
	if d.DB != nil {
		sinks = append(sinks, logger.NewPGEventLogger(d.DB))
	}
	if d.Config.Webhook.URL != "" {
		sinks = append(sinks, notifier.NewWebhookNotifier(d.Config.Webhook.URL, d.Config.Webhook.Secret, d.Logger))
	}

	d.Logger.Info().Int("sinks", len(sinks)).Msg("event publishing configured")
	d.Events = sinks
}

func initOracle(cfg *config.KickstarterConfig, log zerolog.Logger) domain.PriceOracle {
	chain := oracle.NewChainFromURLs(cfg.PriceOracle.BaseURL, cfg.PriceOracle.Fallback, cfg.PriceOracle.Timeout, log)
	return oracle.NewCachedOracle(chain, cfg.PriceOracle.CacheSizeMB, cfg.PriceOracle.CacheTTL)
}

func (d *Dependencies) Close() {
	if d.KafkaPublisher != nil {
		if err := d.KafkaPublisher.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("failed to close kafka publisher")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
