package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"

	grpcadapter "github.com/simaogato/wealthflow-projection/internal/adapter/grpc"
	"github.com/simaogato/wealthflow-projection/internal/adapter/rest"
	"github.com/simaogato/wealthflow-projection/internal/app"
	"github.com/simaogato/wealthflow-projection/internal/config"
	"github.com/simaogato/wealthflow-projection/internal/logging"
	"github.com/simaogato/wealthflow-projection/internal/scheduler"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.StoreDriver == config.StorePostgres {
		// Give Postgres a moment when it is started alongside the server
		time.Sleep(2 * time.Second)
	}

	// 2. Repositories and services
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close application")
		}
	}()

	// 3. Seed the catalog from the universe files, then keep it fresh
	if _, err := application.Seeder.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed instrument catalog")
	}

	var sched *scheduler.Scheduler
	if cfg.MarketDataEnabled && cfg.RefreshSchedule != "" {
		sched = scheduler.New(log)
		if err := sched.AddJob(cfg.RefreshSchedule, application.Seeder); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Invalid refresh schedule")
		}
		sched.Start()
	}

	// 4. gRPC server
	var grpcServer *grpclib.Server
	var healthServer *health.Server
	if cfg.GRPCAddr != "" {
		srv := grpcadapter.NewServer(application.Projection, application.Catalog)
		grpcServer, healthServer = grpcadapter.NewGRPCServer(srv, cfg.APIToken, log)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("Failed to listen")
		}

		go func() {
			log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
				log.Fatal().Err(err).Msg("Failed to serve gRPC server")
			}
		}()
	}

	// 5. HTTP server
	var httpServer *rest.Server
	if cfg.HTTPAddr != "" {
		httpServer = rest.New(rest.Config{
			Addr:       cfg.HTTPAddr,
			APIToken:   cfg.APIToken,
			Log:        log,
			Projection: application.Projection,
			Catalog:    application.Catalog,
			Metrics:    application.Metrics,
		})

		go func() {
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to serve HTTP server")
			}
		}()
	}

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down gracefully...")

	if healthServer != nil {
		healthServer.Shutdown()
	}
	if sched != nil {
		sched.Stop()
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP shutdown failed")
		}
		cancel()
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
		log.Info().Msg("gRPC server stopped")
	}
}
