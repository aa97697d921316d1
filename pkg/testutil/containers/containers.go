//go:build integration

// Package containers starts shared testcontainers fixtures for integration
// suites. Each fixture is started once per test binary and reused.
package containers

import (
	"sync"
	"testing"
)

// fixture starts its container on first use and hands out the same
// instance afterwards. A failed start is retried by the next caller.
type fixture[T any] struct {
	mu    sync.Mutex
	value *T
	start func(*testing.T) *T
}

func (f *fixture[T]) get(t *testing.T) *T {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.value == nil {
		f.value = f.start(t)
	}
	return f.value
}

// Manager owns the per-process fixtures.
type Manager struct {
	postgres fixture[PostgresContainer]
	redis    fixture[RedisContainer]
	kafka    fixture[KafkaContainer]
}

var manager = sync.OnceValue(func() *Manager {
	return &Manager{
		postgres: fixture[PostgresContainer]{start: NewPostgresContainer},
		redis:    fixture[RedisContainer]{start: NewRedisContainer},
		kafka:    fixture[KafkaContainer]{start: NewKafkaContainer},
	}
})

func GetManager() *Manager {
	return manager()
}

// GetPostgres returns the migrated Postgres fixture.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	return m.postgres.get(t)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	return m.redis.get(t)
}

// GetKafka returns the Redpanda-backed Kafka fixture.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	return m.kafka.get(t)
}
