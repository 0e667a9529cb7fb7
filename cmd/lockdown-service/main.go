package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/app/background"
	"github.com/LavaJover/shvark-lockdown-service/internal/app/setup"
	"github.com/LavaJover/shvark-lockdown-service/internal/config"
	"github.com/LavaJover/shvark-lockdown-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const serviceName = "lockdown-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	zlog, err := logger.NewLogger(cfg.LogConfig, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("lockdown service stopped", zap.Error(err))
	}
}

func run(cfg *config.LockdownConfig, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(cfg, zlog, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			zlog.Warn("failed to close dependencies", zap.Error(err))
		}
	}()

	uc, err := setup.InitializeUsecases(deps)
	if err != nil {
		return err
	}
	if err := uc.Gate.Restore(ctx); err != nil {
		return err
	}
	// Flush queued events and callbacks before the broker writer is closed.
	defer uc.Gate.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	tasks := background.NewBackgroundTasks(uc.Gate, uc.CheckConsumer, loc, cfg.Rollover.CheckInterval, zlog)

	// Creating gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.UnaryLoggingInterceptor(zlog)))
	grpcapi.RegisterLockdownServiceServer(grpcServer, grpcapi.NewLockdownHandler(uc.Gate))

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("gRPC server started", zap.String("addr", cfg.GRPCAddr()), zap.String("location_id", cfg.LocationID))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		zlog.Info("metrics server started", zap.String("addr", cfg.MetricsAddr()))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return tasks.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down")
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
