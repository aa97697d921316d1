package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"auditwatch/internal/incident/models"
	notifymetrics "auditwatch/internal/notify/metrics"
	"auditwatch/internal/notify/outbox"
	"auditwatch/internal/platform/kafka"
	"auditwatch/internal/platform/kafka/producer"
	"auditwatch/internal/sentinel"
	"auditwatch/pkg/platform/circuit"
)

const aggregateIncident = "incident"

// LogSink writes each notification as an audit log line.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, n models.Notification) error {
	actions := make([]string, len(n.Actions))
	for i, a := range n.Actions {
		actions[i] = string(a)
	}
	s.logger.WarnContext(ctx, "incident response due",
		"incident_id", n.IncidentID.String(),
		"incident_number", n.IncidentNumber,
		"severity", string(n.Severity),
		"trigger", string(n.Trigger),
		"actions", actions,
		"event", "incident_response_due",
		"log_type", "audit",
	)
	return nil
}

// KafkaSink publishes notifications to a topic, keyed by incident id. A
// breaker stops hammering an unavailable cluster.
type KafkaSink struct {
	publisher producer.Publisher
	topic     string
	breaker   *circuit.Breaker
	metrics   *notifymetrics.Metrics
}

func NewKafkaSink(publisher producer.Publisher, topic string, breaker *circuit.Breaker, m *notifymetrics.Metrics) *KafkaSink {
	if topic == "" {
		topic = kafka.TopicNotifications
	}
	if breaker == nil {
		breaker = circuit.New("notify-kafka")
	}
	return &KafkaSink{publisher: publisher, topic: topic, breaker: breaker, metrics: m}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, n models.Notification) error {
	if !s.breaker.Allow() {
		return fmt.Errorf("kafka sink circuit open: %w", sentinel.ErrUnavailable)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	err = s.publisher.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(n.IncidentID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(n.Trigger),
			"severity":   string(n.Severity),
		},
	})
	if err != nil {
		open, _ := s.breaker.RecordFailure()
		s.metrics.SetBreakerOpen(s.Name(), open)
		return err
	}
	closed, _ := s.breaker.RecordSuccess()
	s.metrics.SetBreakerOpen(s.Name(), !closed)
	return nil
}

// OutboxSink persists notifications for the outbox worker to publish.
type OutboxSink struct {
	store outbox.Store
	now   func() time.Time
}

func NewOutboxSink(store outbox.Store) *OutboxSink {
	return &OutboxSink{store: store, now: time.Now}
}

func (s *OutboxSink) Name() string { return "outbox" }

func (s *OutboxSink) Deliver(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	entry := outbox.NewEntry(aggregateIncident, n.IncidentID.String(), string(n.Trigger), payload, s.now())
	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append outbox entry: %w", err)
	}
	return nil
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*KafkaSink)(nil)
	_ Sink = (*OutboxSink)(nil)
)
