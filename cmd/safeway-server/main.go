package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/safeway/server/internal/config"
	"github.com/safeway/server/internal/httpapi"
	"github.com/safeway/server/internal/logging"
	"github.com/safeway/server/internal/rpc"
	"github.com/safeway/server/internal/safeway/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "safeway-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Services
	engine := service.NewAccessEngine(st.creds, st.users, st.events, service.EngineConfig{
		Location:          cfg.Location,
		DefaultWindow:     cfg.DefaultWindow,
		AuditWriteTimeout: cfg.AuditWriteTimeout,
	}, logger)
	directory := service.NewDirectoryService(st.users, st.creds, service.DirectoryConfig{
		SyncPageSize:  cfg.SyncPageSize,
		DefaultWindow: cfg.DefaultWindow,
	}, logger)
	logs := service.NewLogService(st.events, st.errors, st.http, logger)

	pruner := service.NewHTTPLogPruner(st.http, service.PrunerConfig{
		RetentionDays: cfg.HTTPLogRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)

	// Transports
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		Engine:    engine,
		Directory: directory,
		Logs:      logs,
	})

	health := rpc.NewHealth(st.ping, cfg.HealthCheckInterval, logger)
	grpcServer := rpc.NewServer(health, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", cfg.GRPCAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	pruner.Start(gctx)
	defer pruner.Stop()

	g.Go(func() error {
		logger.Info("http listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("time_zone", cfg.Location.String()),
			zap.String("store", cfg.Store),
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		health.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		grpcServer.GracefulStop()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
