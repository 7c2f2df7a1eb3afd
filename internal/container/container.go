package container

import (
	"context"
	"fmt"

	"nextstep-polls/internal/config"
	"nextstep-polls/internal/repository"
	"nextstep-polls/internal/service"
	"nextstep-polls/pkg/database"
	"nextstep-polls/pkg/logger"
	"nextstep-polls/pkg/metrics"
	"nextstep-polls/pkg/redis"
)

// metricsNamespace prefixes every exported metric name
const metricsNamespace = "nextstep"

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Collector

	// Exactly one of RedisClient and DB is set, matching Config.StoreBackend.
	// Both are nil for the memory backend.
	RedisClient *redis.Client
	DB          *database.PostgresDB

	Store     repository.Store
	Polls     *repository.PollRepository
	Voting    *service.VotingService
	Query     *service.QueryService
	Simulator *service.Simulator
	Live      *service.LiveSimulator
}

// New connects the configured store backend and wires every service on top
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.NewCollector(metricsNamespace),
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c.Store = store

	c.Polls = repository.NewPollRepository(store, log)
	c.Voting = service.NewVotingService(c.Polls, log, c.Metrics)
	c.Query = service.NewQueryService(c.Polls, cfg.TrendingLimit)
	c.Simulator = service.NewSimulator(c.Polls, nil, log, c.Metrics)
	c.Live = service.NewLiveSimulator(c.Simulator, cfg.SimulationInterval, log, c.Metrics)

	return c, nil
}

func (c *Container) openStore(ctx context.Context) (repository.Store, error) {
	cfg := c.Config
	log := c.Logger.WithField("backend", cfg.StoreBackend)

	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL, cfg.StorageNamespace, cfg.Environment, c.Logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.RedisClient = client
		log.WithField("prefix", client.KeyBuilder.GetPrefix()).Info("Poll store connected")
		return repository.NewRedisStore(client, c.Logger), nil

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", config.BackendPostgres)
		}
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		c.DB = db
		keys := redis.NewKeyBuilder(cfg.StorageNamespace, cfg.Environment)
		log.WithField("prefix", keys.GetPrefix()).Info("Poll store connected")
		return repository.NewPostgresStore(db, keys, c.Logger), nil

	case config.BackendMemory:
		log.Warn("Using in-memory poll store, data is lost on restart")
		return repository.NewMemoryStore(c.Logger), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Health checks the store backend connection
func (c *Container) Health(ctx context.Context) error {
	switch {
	case c.RedisClient != nil:
		return c.RedisClient.Health(ctx)
	case c.DB != nil:
		return c.DB.Health(ctx)
	default:
		return nil
	}
}

// Close stops live simulations and releases backend connections
func (c *Container) Close() error {
	c.Live.StopAll()

	var err error
	if c.RedisClient != nil {
		err = c.RedisClient.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return err
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}
