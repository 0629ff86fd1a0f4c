// Command prpd serves PRP sessions over gRPC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/prp-express/internal/async"
	"github.com/joseph-ayodele/prp-express/internal/common"
	"github.com/joseph-ayodele/prp-express/internal/export"
	"github.com/joseph-ayodele/prp-express/internal/llm/provider"
	"github.com/joseph-ayodele/prp-express/internal/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overlays environment)")
	flag.Parse()

	cfg := common.LoadConfig()
	if *configPath != "" {
		var err error
		if cfg, err = common.LoadFromFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(true); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collab, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to create llm collaborator", "error", err)
		os.Exit(1)
	}
	logger.Info("llm collaborator ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	queue := async.NewExtractionQueue(collab, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.Timeout),
	)
	registry := server.NewRegistry(queue, collab, cfg.Server.SessionTTL, cfg.Server.CleanupInterval, logger)
	svc := server.NewSessionService(registry, export.NewService(logger, cfg.Queue.Workers), logger)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(server.UnaryInterceptor(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)
	server.RegisterSessionServiceServer(grpcServer, svc)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("gRPC serving", "addr", lis.Addr().String())

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	hs.Shutdown()
	grpcServer.GracefulStop()

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)
	logger.Info("stopped", "live_sessions", registry.Len())
}
