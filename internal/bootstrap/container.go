package bootstrap

import (
	"context"
	"log"
	"time"

	"ecourts-fetcher-be/internal/config"
	"ecourts-fetcher-be/internal/controller"
	"ecourts-fetcher-be/internal/pkg/logger"
	"ecourts-fetcher-be/internal/repository/memory"
	redisrepo "ecourts-fetcher-be/internal/repository/redis"
	"ecourts-fetcher-be/internal/repository/unitofwork"
	"ecourts-fetcher-be/internal/service"
	"ecourts-fetcher-be/pkg/fetch"
	pktNats "ecourts-fetcher-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	FetchController controller.IFetchController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases the optional infrastructure connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewContainer wires the gateway. db may be nil, in which case fetch history
// is disabled; redis and NATS are likewise optional and skipped when unset or
// unreachable.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	fetchLogger := logger.NewIsolatedLogger(cfg.App.FetchLogFilePath)
	c.Logger = sysLogger

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database configured, fetch history is disabled")
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var runLogs service.RunLogStore
	if cfg.App.RedisURL != "" {
		if rdb := connectRedis(cfg.App.RedisURL); rdb != nil {
			runLogRepo := redisrepo.NewRunLogRepository(rdb, cfg.Backend.RunLogTTL, sysLogger)
			runLogs = runLogRepo
			// closers run in reverse: flush the mirror before the client goes away
			c.closers = append(c.closers, func() { _ = rdb.Close() }, runLogRepo.Close)
		}
	}

	backend := fetch.NewClient(cfg.Backend.BaseURL, fetch.WithTimeout(cfg.Backend.RequestTimeout))

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Events.OutcomeTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Events.OutcomeTopic,
		uowFactory,
		eventPublisher,
		sysLogger,
	)

	fetchService := service.NewFetchService(service.FetchServiceDeps{
		Backend:     backend,
		Runs:        memory.NewRunRepository(cfg.Backend.RunTTL),
		RunLogs:     runLogs,
		Publisher:   publisherService,
		UowFactory:  uowFactory,
		Logger:      sysLogger,
		FetchLogger: fetchLogger,
		DownloadDir: cfg.Backend.DownloadDir,
	})

	// 5. Controllers
	c.FetchController = controller.NewFetchController(fetchService)

	return c
}

func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, run logs stay in memory: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
