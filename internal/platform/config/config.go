package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	AdminToken  string
	// SeedFile points at a YAML requirement catalog. Empty loads the built-in one.
	SeedFile string
	// TrustedProxies are CIDR prefixes allowed to set X-Forwarded-For.
	TrustedProxies []string

	Monitor  MonitorConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Notify   NotifyConfig
}

// MonitorConfig tunes the pattern monitor.
type MonitorConfig struct {
	BusinessStartHour int
	BusinessEndHour   int
	Timezone          string
	FailureWindow     time.Duration
	FailureThreshold  int
	// DedupWindow bounds how long an open incident absorbs repeat flags.
	DedupWindow time.Duration
	// PruneInterval drives the in-memory failure window cleanup.
	PruneInterval time.Duration
}

// DatabaseConfig selects Postgres storage when URL is set.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the Redis failure window store when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the ingestion consumer and Kafka-backed notification sinks.
type KafkaConfig struct {
	Brokers           string
	GroupID           string
	IngestTopic       string
	NotifyTopic       string
	Partitions        int32
	ReplicationFactor int16
}

// Enabled reports whether brokers are configured.
func (k KafkaConfig) Enabled() bool {
	return k.Brokers != ""
}

// NotifyConfig selects the notification sink and its delivery settings.
type NotifyConfig struct {
	// Sink is one of "log", "kafka" or "outbox".
	Sink           string
	BufferSize     int
	MaxAttempts    int
	Backoff        time.Duration
	OutboxPoll     time.Duration
	OutboxBatch    int
	OutboxRetain   time.Duration
	MaintainPeriod time.Duration
}

const (
	SinkLog    = "log"
	SinkKafka  = "kafka"
	SinkOutbox = "outbox"
)

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed values fall back to their defaults.
func FromEnv() Server {
	return Server{
		Addr:           envString("AUDITWATCH_ADDR", ":8080"),
		Environment:    envString("AUDITWATCH_ENV", "dev"),
		LogLevel:       envString("AUDITWATCH_LOG_LEVEL", "info"),
		AdminToken:     envString("AUDITWATCH_ADMIN_TOKEN", "dev-admin-token-change-in-production"),
		SeedFile:       os.Getenv("AUDITWATCH_SEED_FILE"),
		TrustedProxies: envList("AUDITWATCH_TRUSTED_PROXIES"),
		Monitor: MonitorConfig{
			BusinessStartHour: envInt("AUDITWATCH_BUSINESS_START_HOUR", 6),
			BusinessEndHour:   envInt("AUDITWATCH_BUSINESS_END_HOUR", 22),
			Timezone:          envString("AUDITWATCH_TIMEZONE", "UTC"),
			FailureWindow:     envDuration("AUDITWATCH_FAILURE_WINDOW", 15*time.Minute),
			FailureThreshold:  envInt("AUDITWATCH_FAILURE_THRESHOLD", 5),
			DedupWindow:       envDuration("AUDITWATCH_DEDUP_WINDOW", 15*time.Minute),
			PruneInterval:     envDuration("AUDITWATCH_PRUNE_INTERVAL", time.Minute),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("AUDITWATCH_DATABASE_URL"),
			MaxOpenConns:    envInt("AUDITWATCH_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("AUDITWATCH_DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("AUDITWATCH_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("AUDITWATCH_REDIS_URL"),
			PoolSize:     envInt("AUDITWATCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("AUDITWATCH_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("AUDITWATCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("AUDITWATCH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("AUDITWATCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           os.Getenv("AUDITWATCH_KAFKA_BROKERS"),
			GroupID:           envString("AUDITWATCH_KAFKA_GROUP_ID", "auditwatch-ingest"),
			IngestTopic:       envString("AUDITWATCH_KAFKA_INGEST_TOPIC", "auditwatch.access.events"),
			NotifyTopic:       envString("AUDITWATCH_KAFKA_NOTIFY_TOPIC", "auditwatch.incident.notifications"),
			Partitions:        int32(envInt("AUDITWATCH_KAFKA_PARTITIONS", 3)),
			ReplicationFactor: int16(envInt("AUDITWATCH_KAFKA_REPLICATION", 1)),
		},
		Notify: NotifyConfig{
			Sink:           strings.ToLower(envString("AUDITWATCH_NOTIFY_SINK", SinkLog)),
			BufferSize:     envInt("AUDITWATCH_NOTIFY_BUFFER", 1024),
			MaxAttempts:    envInt("AUDITWATCH_NOTIFY_MAX_ATTEMPTS", 3),
			Backoff:        envDuration("AUDITWATCH_NOTIFY_BACKOFF", 100*time.Millisecond),
			OutboxPoll:     envDuration("AUDITWATCH_OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
			OutboxBatch:    envInt("AUDITWATCH_OUTBOX_BATCH_SIZE", 100),
			OutboxRetain:   envDuration("AUDITWATCH_OUTBOX_RETENTION", 24*time.Hour),
			MaintainPeriod: envDuration("AUDITWATCH_OUTBOX_MAINTAIN_INTERVAL", time.Minute),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
