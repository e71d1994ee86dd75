package bootstrap

import (
	"context"
	"sync"

	"stockwatch/internal/adapters/config"
	"stockwatch/internal/adapters/kafka"
	pgclient "stockwatch/internal/adapters/postgres"
	"stockwatch/internal/adapters/pricing"
	redisclient "stockwatch/internal/adapters/redis"
	"stockwatch/internal/api"
	"stockwatch/internal/api/health"
	watchapi "stockwatch/internal/api/watch"
	"stockwatch/internal/domain/notification"
	"stockwatch/internal/domain/watch"
	"stockwatch/internal/events"
	"stockwatch/internal/workers"
	"stockwatch/internal/workers/alerts"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure. Redis is nil unless REDIS_HOST is set.
	PG    *pgclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Services    *Services
	Adapters    *Adapters
	Application *Application
	Background  *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Watch watch.Repository
}

// Services groups all domain services
type Services struct {
	Watch *watch.Service
}

// Adapters groups all external adapters
type Adapters struct {
	// Nil unless KAFKA_BROKERS is set
	KafkaProducer  *kafka.Producer
	EventPublisher *events.Publisher

	PriceScraper *pricing.Scraper
	Notifier     notification.Sender
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	WatchHandler  *watchapi.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
	PriceWatch      *alerts.PriceWatchWorker
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start runs the HTTP server and the worker scheduler
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to stop the polling loop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Adapters.KafkaProducer,
		c.PG,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
