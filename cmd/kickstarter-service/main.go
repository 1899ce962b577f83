package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-kickstarter-service/internal/app/background"
	"github.com/LavaJover/shvark-kickstarter-service/internal/app/setup"
	"github.com/LavaJover/shvark-kickstarter-service/internal/delivery/consumer"
	"github.com/LavaJover/shvark-kickstarter-service/internal/delivery/grpcapi"
	httpapi "github.com/LavaJover/shvark-kickstarter-service/internal/delivery/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()
	logger := deps.Logger
	cfg := deps.Config

	uc := setup.InitializeUseCases(deps).Kickstarter

	// gRPC
	grpcServer, healthServer := grpcapi.NewServer(grpcapi.NewKickstarterHandler(uc), logger)
	grpcAddr := fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", grpcAddr).Msg("failed to listen")
	}
	go func() {
		logger.Info().Str("addr", grpcAddr).Msg("gRPC server started")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
			stop()
		}
	}()

	// HTTP
	router := httpapi.NewRouter(httpapi.NewHandler(uc, logger), httpapi.RouterConfig{
		CallbackToken: cfg.HTTPServer.CallbackToken,
		Gatherer:      deps.Registry,
		Readiness:     deps.Readiness,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	// Transfer results
	if deps.Subscriber != nil {
		results := consumer.NewTransferResultConsumer(
			deps.Subscriber,
			uc,
			cfg.KafkaService.TransfersTopic,
			cfg.KafkaService.ConsumerGroupID,
			logger,
		)
		go func() {
			if err := results.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("transfer result consumer stopped")
			}
		}()
	}

	tasks := background.NewBackgroundTasks(uc, cfg.Scheduler, logger)
	tasks.StartAll(ctx)

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown")
	}
	grpcServer.GracefulStop()
	tasks.Wait()
	logger.Info().Msg("stopped")
}
