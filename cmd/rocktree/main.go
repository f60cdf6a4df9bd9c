// Package main is the entry point for the rocktree streaming client: it
// bootstraps the planetoid, then runs the level-of-detail engine along a
// scripted camera flight, reporting occupancy as it goes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rocktree/internal/cache"
	"rocktree/internal/client"
	"rocktree/internal/config"
	"rocktree/internal/logger"
	"rocktree/internal/stream"
)

const frameInterval = 50 * time.Millisecond

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== rocktree client ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("client error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("client closed normally")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := buildCache(cfg.Cache)
	if err != nil {
		return err
	}

	cl := client.New(client.Options{
		BaseURL: cfg.Network.BaseURL,
		Timeout: cfg.Network.RequestTimeout,
		Cache:   store,
		Logger:  logger.Log,
	})

	planetoid, err := cl.Planetoid(ctx)
	if err != nil {
		return fmt.Errorf("bootstrapping planetoid: %w", err)
	}
	logger.Info("planetoid loaded",
		zap.Float64("radius", planetoid.Radius),
		zap.Uint32("root_epoch", planetoid.RootEpoch))

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	engine := stream.New(ctx, stream.Config{
		MaxNodeFetches: cfg.Streaming.MaxNodeFetches,
		MaxBulkFetches: cfg.Streaming.MaxBulkFetches,
		MaxDepth:       cfg.Streaming.MaxDepth,
		PhysicsOffset:  cfg.Streaming.PhysicsOffset,
		PhysicsRadius:  cfg.Streaming.PhysicsRadius,
	}, cl, planetoid, nil, nil, logger.Log)

	cam, err := loadFlight(cfg.Camera.ScriptPath, cfg.Camera.FovYDegrees, cfg.Camera.ScreenHeight)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-report.C:
			s := engine.Stats()
			logger.Info("streaming",
				zap.Int("loaded", s.LoadedNodes),
				zap.Int("loading", s.LoadingNodes),
				zap.Int("bulks", s.CachedBulks),
				zap.Int("failed_bulks", s.FailedBulks),
				zap.Int("cached_nodes", s.CachedNodes))
		case <-ticker.C:
			engine.Update(cam.Step())
		}
	}
}

// buildCache constructs the configured payload cache backend.
func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "none":
		return cache.NewNoop(), nil
	case "memory":
		return cache.NewMemory(int(cfg.MaxBytes)), nil
	case "fs":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("cache backend 'fs' requires cache.dir")
		}
		return cache.NewFS(cfg.Dir, cfg.Compressed)
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("cache backend 'sqlite' requires cache.path")
		}
		return cache.NewSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
