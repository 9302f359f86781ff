package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/blockmart/blockmart/internal/archive"
	"github.com/blockmart/blockmart/internal/config"
	"github.com/blockmart/blockmart/internal/marketplace"
	"github.com/blockmart/blockmart/internal/notify"
	"github.com/blockmart/blockmart/internal/registry"
	"github.com/blockmart/blockmart/internal/server"
	"github.com/blockmart/blockmart/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Asset registry, with the marketplace bound as the privileged minter.
	reg := registry.NewMemory()
	if err := reg.Bind(cfg.Marketplace.OperatorAddress); err != nil {
		zapLogger.Fatal("Failed to bind marketplace to registry", zap.Error(err))
	}

	notifiers := notify.Multi{notify.NewLogging(zapLogger)}

	if cfg.Redis.Addr != "" {
		redisNotifier, err := notify.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisNotifier.Close()
		notifiers = append(notifiers, redisNotifier)
		zapLogger.Info("event publishing enabled", zap.String("redis", cfg.Redis.Addr))
	}

	var arch *archive.Archive
	if cfg.Database.DSN != "" {
		db, err := archive.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		arch, err = archive.New(db, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to initialize event archive", zap.Error(err))
		}
		defer arch.Close()
		notifiers = append(notifiers, arch)
		zapLogger.Info("event archiving enabled")
	}

	mkt := marketplace.New(reg, cfg.Marketplace.OperatorAddress,
		marketplace.WithLogger(zapLogger),
		marketplace.WithNotifier(notifiers),
	)

	srv := server.New(cfg.Server, mkt, arch, zapLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	case sig := <-quit:
		zapLogger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
