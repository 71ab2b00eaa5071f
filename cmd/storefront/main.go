package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	healthcheck := flag.Bool("healthcheck", false, "probe the gRPC health service of a running instance and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	if *healthcheck {
		os.Exit(probe(cfg, log))
	}

	log.Info("Starting storefront API",
		zap.String("name", cfg.Server.Name),
		zap.String("address", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Driver))

	ctx := context.Background()
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialise", zap.Error(err))
	}
	defer app.close()

	gw := gateway.NewGateway(cfg, app.services, app.metrics, app.pinger, log)
	server := gw.NewServer()

	serverErr := make(chan error, 2)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("http: %w", err)
		}
	}()

	var health *grpc.HealthServer
	if cfg.GRPC.Enabled {
		health = grpc.NewHealthServer(app.pinger, cfg.Server.Name, 10*time.Second, log)
		go func() {
			if err := health.Start(cfg.GRPC.Addr()); err != nil {
				serverErr <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	// Register in etcd
	var sd *discovery.ServiceDiscovery
	instance := &discovery.ServiceInstance{Name: cfg.Server.Name, Host: cfg.GRPC.Host, Port: cfg.GRPC.Port}
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			log.Warn("Failed to register service", zap.Error(err))
		} else {
			log.Info("Service registered in etcd", zap.String("name", instance.Name), zap.String("address", instance.Addr()))
		}
	}

	log.Info("Storefront API started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server did not shut down cleanly", zap.Error(err))
	}
	if health != nil {
		health.Stop()
	}
	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}

	log.Info("Storefront API stopped")
}

// probe checks a running instance, found through etcd when enabled.
func probe(cfg *config.Config, log *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fallback := cfg.GRPC.Addr()
	target := fallback
	if cfg.Etcd.Enabled {
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd", zap.Error(err))
		} else {
			defer sd.Close()
			target = grpc.ResolveTarget(ctx, sd, cfg.Server.Name, fallback, log)
		}
	}

	client, err := grpc.NewHealthClient(target)
	if err != nil {
		log.Error("Health check failed", zap.Error(err))
		return 1
	}
	defer client.Close()

	if err := client.Check(ctx, cfg.Server.Name); err != nil {
		log.Error("Health check failed", zap.String("target", target), zap.Error(err))
		return 1
	}
	log.Info("Healthy", zap.String("target", target))
	return 0
}
