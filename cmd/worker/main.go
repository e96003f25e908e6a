package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giedriusgen/DocumentManagementSystem/internal/bootstrap"
	"github.com/giedriusgen/DocumentManagementSystem/internal/config"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/observability/logging"
	"github.com/giedriusgen/DocumentManagementSystem/internal/observability/metrics"
)

const serviceName = "dms-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: m.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentEvents(ctx, func(handlerCtx context.Context, event domain.DocumentEvent) error {
		// Previews are generated once, on submission.
		if event.Type != domain.EventDocumentSubmitted {
			return nil
		}
		m.ObserveEventLag(serviceName, time.Since(event.OccurredAt))
		m.StartPreview()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		processErr := app.Processor.ProcessDocument(processCtx, event.DocumentID)
		m.FinishPreview(serviceName, time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		slog.Error("worker subscribe", "error", err)
		os.Exit(1)
	}
}
