package bootstrap

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stockwatch/internal/adapters/config"
	errnoop "stockwatch/internal/adapters/errors/noop"
	"stockwatch/internal/adapters/errors/sentry"
	"stockwatch/internal/adapters/kafka"
	pgclient "stockwatch/internal/adapters/postgres"
	"stockwatch/internal/adapters/pricing"
	"stockwatch/internal/adapters/push"
	redisclient "stockwatch/internal/adapters/redis"
	"stockwatch/internal/api"
	"stockwatch/internal/api/health"
	watchapi "stockwatch/internal/api/watch"
	"stockwatch/internal/domain/watch"
	"stockwatch/internal/events"
	"stockwatch/internal/metrics"
	pgrepo "stockwatch/internal/repository/postgres"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

const schemaTimeout = 30 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects Postgres, ensures the schema and
// connects Redis when configured.
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	ctx, cancel := context.WithTimeout(c.Context, schemaTimeout)
	defer cancel()
	if err := pgrepo.EnsureSchema(ctx, c.PG.DB()); err != nil {
		c.Log.Fatalf("failed to ensure schema: %v", err)
	}
	c.Log.Info("✓ Schema ready")

	if !c.Config.Redis.Enabled() {
		c.Log.Info("Redis not configured, price watch runs without a tick lock")
		return
	}

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

func (c *Container) MustInitRepositories() {
	c.Repos.Watch = pgrepo.NewWatchRepository(c.PG.DB())

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes Kafka, the price scraper and the notifier
func (c *Container) MustInitAdapters() {
	var err error

	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.EventPublisher = provideEventPublisher(c.Config, c.Adapters.KafkaProducer)

	c.Adapters.PriceScraper = pricing.NewScraper(c.Config.Pricing)
	c.Log.Infow("✓ Price scraper initialized", "page", c.Config.Pricing.PageURL)

	c.Adapters.Notifier, err = push.New(c.Context, c.Config.Notifier, c.Config.Telegram)
	if err != nil {
		c.Log.Fatalf("failed to init notifier: %v", err)
	}
	c.Log.Infow("✓ Notifier initialized", "provider", c.Config.Notifier.Provider)
}

// ========================================
// Phase 5: Domain Services
// ========================================

func (c *Container) MustInitServices() {
	c.Services.Watch = watch.NewService(c.Repos.Watch, c.Adapters.EventPublisher)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication wires metrics, health and the HTTP server
func (c *Container) MustInitApplication() {
	metrics.Init()
	prometheus.MustRegister(metrics.NewWatchCollector(c.Log.With("component", "watch_collector"), c.Services.Watch))

	c.Background.WorkerScheduler = provideScheduler()

	c.Application.HealthHandler = health.New(
		c.Log,
		c.PG.DB(),
		redisChecker(c.Redis),
		c.Background.WorkerScheduler.WorkerHealth,
		c.Config.App.Name,
		c.Config.App.Version,
	)
	c.Application.WatchHandler = watchapi.NewHandler(c.Services.Watch, c.Log)

	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, c.Application.HealthHandler, c.Application.WatchHandler, c.Log)

	c.Log.Info("✓ Application layer initialized")
}

// ========================================
// Phase 7: Background Workers
// ========================================

func (c *Container) MustInitBackground() {
	c.Background.PriceWatch = providePriceWatchWorker(c)
	c.Background.WorkerScheduler.RegisterWorker(c.Background.PriceWatch)

	c.Log.Info("✓ Background workers initialized")
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled() {
		log.Info("Kafka brokers not configured, watch events are not published")
		return nil
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Infow("✓ Kafka producer initialized", "topic", cfg.Kafka.Topic)
	return producer
}

// provideEventPublisher never hands a typed-nil producer to the publisher
func provideEventPublisher(cfg *config.Config, producer *kafka.Producer) *events.Publisher {
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = kafka.TopicWatchEvents
	}
	if producer == nil {
		return events.NewPublisher(nil, topic, cfg.App.Name)
	}
	return events.NewPublisher(producer, topic, cfg.App.Name)
}

// redisChecker returns a nil interface when Redis is disabled
func redisChecker(client *redisclient.Client) health.Checker {
	if client == nil {
		return nil
	}
	return client
}
