package kafka

import (
	"time"

	"auditwatch/internal/platform/config"
)

// Default topic names; deployments may override both through config.
const (
	TopicAccessEvents  = "auditwatch.access.events"
	TopicNotifications = "auditwatch.incident.notifications"
)

type ProducerConfig struct {
	Brokers string
	// Acks is "all", "leader" or "none".
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

type ConsumerConfig struct {
	Brokers string
	GroupID string
	Topics  []string
	// AutoOffsetReset is "earliest" or "latest" for groups without commits.
	AutoOffsetReset string
}

// DefaultProducerConfig waits for all in-sync replicas: notifications and
// outbox records must not be lost on leader failover.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 30 * time.Second,
	}
}

// DefaultConsumerConfig starts new groups from the earliest offset so no
// access event published before the first deploy is skipped.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		GroupID:         "auditwatch-ingest",
		Topics:          []string{TopicAccessEvents},
		AutoOffsetReset: "earliest",
	}
}

// ProducerConfigFrom applies the process configuration to the defaults.
func ProducerConfigFrom(cfg config.KafkaConfig) ProducerConfig {
	pc := DefaultProducerConfig()
	pc.Brokers = cfg.Brokers
	return pc
}

// ConsumerConfigFrom subscribes to the configured ingestion topic.
func ConsumerConfigFrom(cfg config.KafkaConfig) ConsumerConfig {
	cc := DefaultConsumerConfig()
	cc.Brokers = cfg.Brokers
	if cfg.GroupID != "" {
		cc.GroupID = cfg.GroupID
	}
	if cfg.IngestTopic != "" {
		cc.Topics = []string{cfg.IngestTopic}
	}
	return cc
}
