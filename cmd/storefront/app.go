package main

import (
	"context"
	"fmt"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/cache"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/metrics"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/repository/memory"
	"github.com/example/storefront/pkg/service"
	"go.uber.org/zap"
)

// app holds every long-lived client so main can close them in order.
type app struct {
	services gateway.Services
	metrics  *metrics.Metrics
	pinger   gateway.Pinger
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{metrics: metrics.New("storefront")}
	deps := service.Deps{
		Metrics:  a.metrics,
		Tokens:   auth.NewTokenManager(cfg.Auth),
		Logger:   log,
		CacheTTL: cfg.Redis.TTL,
	}

	var audit events.AuditWriter
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		mongoRepo, err := repository.NewMongoRepository(ctx, &cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				log.Error("Failed to close MongoDB", zap.Error(err))
			}
		})
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		log.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))

		deps.Products = repository.NewProductRepository(mongoRepo.Products())
		deps.Users = repository.NewUserRepository(mongoRepo.Users())
		a.pinger = mongoRepo
		audit = mongoRepo
		deps.Audit = mongoRepo
	default:
		users := memory.NewUserStore()
		deps.Products = memory.NewProductStore()
		deps.Users = users
		a.pinger = users
		log.Warn("Using in-memory storage, data is lost on restart")
	}

	if cfg.Redis.Enabled {
		redisRepo := repository.NewRedisRepository(&cfg.Redis)
		if err := redisRepo.Ping(ctx); err != nil {
			log.Warn("Redis connection failed, using in-process cache", zap.Error(err))
			_ = redisRepo.Close()
		} else {
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
			deps.Cache = redisRepo
			a.closers = append(a.closers, func() { _ = redisRepo.Close() })
		}
	}
	if deps.Cache == nil {
		mem := cache.NewMemory(cfg.Redis.TTL, cfg.Redis.TTL)
		deps.Cache = mem
		a.closers = append(a.closers, func() { _ = mem.Close() })
	}

	if cfg.MySQL.Enabled {
		ledger, err := repository.NewStockLedger(&cfg.MySQL)
		if err != nil {
			log.Warn("Stock ledger unavailable", zap.Error(err))
		} else {
			log.Info("Stock ledger connected", zap.String("database", cfg.MySQL.Database))
			deps.Ledger = ledger
			a.closers = append(a.closers, func() { _ = ledger.Close() })
		}
	}

	if audit != nil {
		notifier, err := events.NewNotifier(audit, cfg.Server.Name, log.Named("audit"))
		if err != nil {
			a.close()
			return nil, err
		}
		deps.Events = notifier
		a.closers = append(a.closers, notifier.Stop)
	}

	a.services = gateway.Services{
		Catalog:  service.NewCatalogService(deps),
		Accounts: service.NewAccountService(deps),
		Orders:   service.NewOrderService(deps),
		Admin:    service.NewAdminService(deps),
		Tokens:   deps.Tokens,
	}
	return a, nil
}

// close releases clients in reverse order of creation.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
