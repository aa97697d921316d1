// Package outbox persists incident notifications until the worker has
// published them to Kafka.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one pending notification.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "incident"
	AggregateID   string // incident id
	EventType     string // dispatch trigger, e.g. "escalated"
	Payload       []byte // JSON-encoded notification
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil until published
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	if e.ProcessedAt != nil {
		t := *e.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
