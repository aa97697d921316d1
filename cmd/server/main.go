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

	"golang.org/x/sync/errgroup"

	audithandler "auditwatch/internal/audit/handler"
	auditmetrics "auditwatch/internal/audit/metrics"
	"auditwatch/internal/audit/workers/cleanup"
	"auditwatch/internal/platform/config"
	"auditwatch/internal/platform/kafka"
	"auditwatch/internal/platform/kafka/consumer"
	"auditwatch/internal/platform/logger"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("auditwatch stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing auditwatch",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"notify_sink", cfg.Notify.Sink,
		"kafka", cfg.Kafka.Enabled(),
	)

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.seedCatalog(ctx); err != nil {
		return err
	}
	router, err := a.router()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var ingest *consumer.Consumer
	if cfg.Kafka.Enabled() {
		handler := audithandler.NewIngestHandler(a.recorder, log, auditmetrics.New())
		if ingest, err = consumer.New(kafka.ConsumerConfigFrom(cfg.Kafka), handler, log); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if ingest != nil {
		ingest.Start()
	}
	if a.outbox != nil {
		a.outbox.Start()
		g.Go(func() error { return maintainOutbox(gctx, a, log) })
	}
	if a.pruner != nil {
		svc := cleanup.New(a.pruner, cleanup.WithLogger(log), cleanup.WithInterval(cfg.Monitor.PruneInterval), cleanup.WithMetrics(auditmetrics.New()))
		g.Go(func() error { return ignoreCanceled(svc.Start(gctx)) })
	}
	if a.redis != nil {
		g.Go(func() error { return a.redis.ReportPoolStats(gctx, poolStatsInterval) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		errs = append(errs, srv.Shutdown(shutdownCtx))
		if ingest != nil {
			errs = append(errs, ingest.Stop(shutdownCtx))
		}
		// Incidents may still dispatch until the consumer has stopped.
		errs = append(errs, a.dispatcher.Close(shutdownCtx))
		if a.outbox != nil {
			errs = append(errs, a.outbox.Stop(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func maintainOutbox(ctx context.Context, a *app, log *slog.Logger) error {
	ticker := time.NewTicker(a.cfg.Notify.MaintainPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.outbox.Maintain(ctx); err != nil {
				log.Warn("outbox maintenance failed", "error", err)
			}
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
