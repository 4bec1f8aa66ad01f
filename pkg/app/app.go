package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/pkg/api"
	"gitlab.connectwisedev.com/cars-service/pkg/cache"
	"gitlab.connectwisedev.com/cars-service/pkg/config"
	"gitlab.connectwisedev.com/cars-service/pkg/database"
	"gitlab.connectwisedev.com/cars-service/pkg/service"
)

// App holds the process-wide handles shared by every entrypoint
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   database.Store
	Cache   *cache.RedisClient
	Service *service.CarService
}

// NewLogger builds a development logger for LOG_LEVEL=debug and a production
// logger otherwise
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New opens the configured store, connects the optional cache and seeds an
// empty catalog.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Store: store}

	var carCache service.CarCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, logger)
		if err != nil {
			logger.Warn("Redis unavailable, serving without cache", zap.Error(err))
		} else {
			a.Cache = redisClient
			carCache = redisClient
		}
	}

	a.Service = service.NewCarService(store, carCache, logger)

	if _, err := a.Service.SeedIfEmpty(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	return a, nil
}

// OpenStore connects to the store selected by cfg.StoreDriver
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return database.NewMongoStore(ctx, cfg.MongoURL, logger)
	case config.DriverPostgres:
		return database.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on exit")
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Router builds the gin engine serving the catalog API
func (a *App) Router() *gin.Engine {
	if a.Config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewCarHandler(a.Service, a.Logger)
	return api.NewRouter(handler, a.Logger, a.Config.AllowOrigins)
}

// Close releases the cache and store connections
func (a *App) Close(ctx context.Context) error {
	if a.Cache != nil {
		a.Cache.Close()
	}
	if err := a.Store.Close(ctx); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
