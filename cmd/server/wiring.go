package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	auditmetrics "auditwatch/internal/audit/metrics"
	"auditwatch/internal/audit/monitor"
	auditservice "auditwatch/internal/audit/service"
	auditstore "auditwatch/internal/audit/store"
	compliancemetrics "auditwatch/internal/compliance/metrics"
	"auditwatch/internal/compliance/seed"
	complianceservice "auditwatch/internal/compliance/service"
	compliancestore "auditwatch/internal/compliance/store"
	incidentmetrics "auditwatch/internal/incident/metrics"
	incidentservice "auditwatch/internal/incident/service"
	incidentstore "auditwatch/internal/incident/store"
	"auditwatch/internal/notify"
	notifymetrics "auditwatch/internal/notify/metrics"
	"auditwatch/internal/notify/outbox"
	outboxmetrics "auditwatch/internal/notify/outbox/metrics"
	outboxworker "auditwatch/internal/notify/outbox/worker"
	"auditwatch/internal/platform/config"
	"auditwatch/internal/platform/database"
	"auditwatch/internal/platform/health"
	"auditwatch/internal/platform/kafka"
	"auditwatch/internal/platform/kafka/producer"
	redisclient "auditwatch/internal/platform/redis"
	"auditwatch/internal/platform/tracer"
	reportmetrics "auditwatch/internal/report/metrics"
	reportservice "auditwatch/internal/report/service"
	"auditwatch/migrations"
	"auditwatch/pkg/platform/circuit"
)

// app holds the wired components and the infrastructure they depend on.
type app struct {
	cfg    config.Server
	logger *slog.Logger

	pool     *database.Pool
	redis    *redisclient.Client
	producer *producer.Producer
	health   *health.Handler

	recorder   *auditservice.Recorder
	incidents  *incidentservice.Manager
	registry   *complianceservice.Registry
	reports    *reportservice.Generator
	dispatcher *notify.Dispatcher
	outbox     *outboxworker.Worker
	// pruner is set only for in-memory failure windows; Redis expires its own keys.
	pruner *monitor.InMemoryWindowStore
}

type stores struct {
	events       auditservice.Store
	incidents    incidentservice.Store
	requirements complianceservice.Store
	outbox       outbox.Store
}

func build(ctx context.Context, cfg config.Server, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, health: health.New(cfg.Environment)}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	st := a.stores()

	sink, err := a.sink(st.outbox)
	if err != nil {
		return nil, err
	}
	a.dispatcher = notify.New(sink, notify.Config{
		BufferSize:  cfg.Notify.BufferSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		Backoff:     cfg.Notify.Backoff,
	},
		notify.WithLogger(logger),
		notify.WithMetrics(notifymetrics.New()),
	)

	otel := tracer.NewOTel()
	a.incidents = incidentservice.New(st.incidents,
		incidentservice.WithLogger(logger),
		incidentservice.WithMetrics(incidentmetrics.New()),
		incidentservice.WithNotifier(a.dispatcher),
		incidentservice.WithTracer(otel),
		incidentservice.WithDedupWindow(cfg.Monitor.DedupWindow),
	)

	monitorCfg, err := monitorConfig(cfg.Monitor)
	if err != nil {
		return nil, err
	}
	mon, err := monitor.New(a.windows(cfg.Monitor.FailureWindow),
		monitor.WithLogger(logger),
		monitor.WithMetrics(auditmetrics.New()),
		monitor.WithConfig(monitorCfg),
		monitor.WithFlagHandler(a.incidents),
	)
	if err != nil {
		return nil, fmt.Errorf("configure pattern monitor: %w", err)
	}
	a.recorder = auditservice.New(st.events,
		auditservice.WithLogger(logger),
		auditservice.WithMetrics(auditmetrics.New()),
		auditservice.WithTracer(otel),
		auditservice.WithPatternObserver(mon),
	)

	a.registry = complianceservice.New(st.requirements,
		complianceservice.WithLogger(logger),
		complianceservice.WithMetrics(compliancemetrics.New()),
	)
	a.reports = reportservice.New(a.registry, a.incidents, a.recorder,
		reportservice.WithLogger(logger),
		reportservice.WithTracer(otel),
		reportservice.WithMetrics(reportmetrics.New()),
	)
	return a, nil
}

// connect opens whichever of Postgres, Redis and Kafka are configured.
func (a *app) connect(ctx context.Context) error {
	var err error
	if a.pool, err = database.New(ctx, a.cfg.Database); err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if a.pool != nil {
		applied, err := a.pool.Migrate(ctx, migrations.FS)
		if err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.logger.InfoContext(ctx, "postgres ready", "migrations_applied", len(applied))
		a.health.RegisterCheck("postgres", a.pool.Health)
		if err := a.pool.RegisterMetrics(prometheus.DefaultRegisterer, "auditwatch"); err != nil {
			return fmt.Errorf("register postgres metrics: %w", err)
		}
	}

	if a.redis, err = redisclient.New(ctx, a.cfg.Redis); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if a.redis != nil {
		a.health.RegisterCheck("redis", a.redis.Health)
	}

	if !a.cfg.Kafka.Enabled() {
		return nil
	}
	if a.producer, err = producer.New(kafka.ProducerConfigFrom(a.cfg.Kafka), a.logger); err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if err := kafka.EnsureTopics(ctx, a.producer.Client(), a.cfg.Kafka.Partitions, a.cfg.Kafka.ReplicationFactor,
		a.cfg.Kafka.IngestTopic, a.cfg.Kafka.NotifyTopic,
	); err != nil {
		return err
	}
	a.health.RegisterCheck("kafka", kafka.NewHealthChecker(a.producer.Client()).Check)
	return nil
}

func (a *app) stores() stores {
	if a.pool == nil {
		a.logger.Warn("no database configured; using in-memory stores")
		return stores{
			events:       auditstore.NewInMemoryStore(),
			incidents:    incidentstore.NewInMemoryStore(),
			requirements: compliancestore.NewInMemoryStore(),
			outbox:       outbox.NewInMemoryStore(),
		}
	}
	db := a.pool.DB()
	return stores{
		events:       auditstore.NewPostgres(db),
		incidents:    incidentstore.NewPostgres(db),
		requirements: compliancestore.NewPostgres(db),
		outbox:       outbox.NewPostgres(db),
	}
}

func (a *app) windows(window time.Duration) monitor.WindowStore {
	if a.redis != nil {
		return monitor.NewRedisWindowStore(a.redis.Client, window)
	}
	a.pruner = monitor.NewInMemoryWindowStore(window)
	return a.pruner
}

// sink picks the delivery channel for dispatched response bundles. The
// Kafka-backed sinks need brokers.
func (a *app) sink(store outbox.Store) (notify.Sink, error) {
	switch a.cfg.Notify.Sink {
	case config.SinkLog:
		return notify.NewLogSink(a.logger), nil
	case config.SinkKafka, config.SinkOutbox:
		if a.producer == nil {
			return nil, fmt.Errorf("notify sink %q requires AUDITWATCH_KAFKA_BROKERS", a.cfg.Notify.Sink)
		}
	default:
		return nil, fmt.Errorf("unknown notify sink %q", a.cfg.Notify.Sink)
	}

	if a.cfg.Notify.Sink == config.SinkKafka {
		breaker := circuit.New("notify-kafka")
		return notify.NewKafkaSink(a.producer, a.cfg.Kafka.NotifyTopic, breaker, notifymetrics.New()), nil
	}
	a.outbox = outboxworker.New(store, a.producer,
		outboxworker.WithTopic(a.cfg.Kafka.NotifyTopic),
		outboxworker.WithBatchSize(a.cfg.Notify.OutboxBatch),
		outboxworker.WithPollInterval(a.cfg.Notify.OutboxPoll),
		outboxworker.WithRetention(a.cfg.Notify.OutboxRetain),
		outboxworker.WithMetrics(outboxmetrics.New()),
		outboxworker.WithLogger(a.logger),
	)
	return notify.NewOutboxSink(store), nil
}

// seedCatalog loads the requirement catalog into the registry.
func (a *app) seedCatalog(ctx context.Context) error {
	var (
		catalog *seed.Catalog
		err     error
	)
	if a.cfg.SeedFile != "" {
		catalog, err = seed.LoadFile(a.cfg.SeedFile)
	} else {
		catalog, err = seed.Default()
	}
	if err != nil {
		return fmt.Errorf("load requirement catalog: %w", err)
	}
	cmds, err := catalog.Commands("seed")
	if err != nil {
		return fmt.Errorf("invalid requirement catalog: %w", err)
	}
	_, err = seed.New(a.registry, a.logger).SeedAll(ctx, cmds)
	return err
}

func monitorConfig(c config.MonitorConfig) (monitor.Config, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return monitor.Config{}, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	cfg := monitor.Config{
		BusinessStartHour: c.BusinessStartHour,
		BusinessEndHour:   c.BusinessEndHour,
		Location:          loc,
		FailureWindow:     c.FailureWindow,
		FailureThreshold:  c.FailureThreshold,
	}
	return cfg, cfg.Validate()
}

// close releases infrastructure. Workers are stopped by the lifecycle in main.
func (a *app) close() {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.pool.Close())
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("failed to release resources", "error", err)
	}
}
