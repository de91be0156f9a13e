package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"s3gateway/internal/config"
	"s3gateway/internal/handler"
	"s3gateway/internal/logger"
	"s3gateway/internal/middleware"
	"s3gateway/internal/port"
	"s3gateway/internal/router"
	"s3gateway/internal/service"
	"s3gateway/internal/storage"
)

// @title s3gateway API
// @version 1.0
// @description Upload, presigned download and delete over KMS-encrypted object storage.
// @host localhost:4000
// @BasePath /
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Log, os.Stdout))
	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize storage
	backend, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Provider, err)
	}
	links, _ := backend.(port.LinkServer)
	objects := storage.Instrument(backend, storage.NewMetrics(reg))

	// Initialize services
	objectSvc := service.NewObjectService(objects, &cfg.Storage, &cfg.Upload)

	// Initialize handlers
	objectH := handler.NewObjectHandler(objectSvc, &cfg.Upload, &cfg.Server)
	healthH := handler.NewHealthHandler(objects)

	// Setup router
	r := router.Setup(objectH, healthH, router.Options{
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes(),
		Links:          links,
		Gatherer:       reg,
		Metrics:        middleware.NewHTTPMetrics(reg),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", cfg.Server.Port,
			"provider", cfg.Storage.Provider,
			"bucket", cfg.Storage.Bucket,
			"environment", cfg.Server.Environment,
		)
		if cfg.Storage.KMSKeyID == "" && cfg.Storage.Provider != config.ProviderMemory {
			slog.Warn("no KMS key configured, uploads use the bucket's default KMS key")
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
