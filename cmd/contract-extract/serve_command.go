package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/contract-extractor/internal/async"
	"github.com/joseph-ayodele/contract-extractor/internal/export"
	"github.com/joseph-ayodele/contract-extractor/internal/server"
	"github.com/joseph-ayodele/contract-extractor/internal/storage"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.validConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger
			runCtx := cmd.Context()

			store, err := storage.New(cfg.Storage, logger)
			if err != nil {
				return err
			}
			if ensurer, ok := store.(storage.BucketEnsurer); ok {
				if err := ensurer.EnsureBucket(runCtx, cfg.Storage.ProcessedBucket); err != nil {
					return err
				}
			}
			proc, closeFn, err := ctx.newProcessor(runCtx, cfg, store)
			if err != nil {
				return err
			}
			defer closeFn()

			queue := async.NewProcessorQueue(proc, logger,
				async.WithWorkers(cfg.Server.Workers),
				async.WithQueueSize(cfg.Server.QueueSize),
				async.WithProcessTimeout(cfg.ProcessTimeout()),
			)
			svc := server.NewExtractionService(proc, queue, cfg.Storage.RawBucket, logger)

			lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
			if err != nil {
				logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
				return err
			}
			grpcServer, healthServer := server.NewGRPCServer(svc, logger)
			httpServer := &http.Server{
				Addr:              cfg.Server.HTTPAddr,
				Handler:           server.NewHTTPHandler(svc, export.NewService(store, cfg.Storage.ProcessedBucket, logger), logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 2)
			go func() {
				logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
				errCh <- grpcServer.Serve(lis)
			}()
			go func() {
				logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			var serveErr error
			select {
			case <-runCtx.Done():
				logger.Info("shutdown requested")
			case serveErr = <-errCh:
				logger.Error("server stopped", "error", serveErr)
			}

			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProcessTimeout())
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", "error", err)
			}
			grpcServer.GracefulStop()
			queue.Shutdown(shutdownCtx)
			return serveErr
		},
	}
}
