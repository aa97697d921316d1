package models

import (
	"time"

	id "auditwatch/pkg/domain"
)

// EventFilter narrows a query. Every field is optional; zero values match everything.
// From is inclusive, To is exclusive.
type EventFilter struct {
	From         time.Time
	To           time.Time
	ActorID      string
	Action       string
	ResourceType string
	Outcome      Outcome
	Sensitivity  Sensitivity
	Standard     id.Standard
	Limit        int
}

// Matches reports whether e satisfies every set field of the filter.
func (f EventFilter) Matches(e *AuditEvent) bool {
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
		return false
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.Resource.Type != f.ResourceType {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.Sensitivity != "" && e.Sensitivity != f.Sensitivity {
		return false
	}
	if f.Standard != "" && !e.HasStandard(f.Standard) {
		return false
	}
	return true
}

// NewerFirst orders events newest first, breaking timestamp ties by insertion order.
func NewerFirst(a, b *AuditEvent) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	switch {
	case a.Sequence > b.Sequence:
		return -1
	case a.Sequence < b.Sequence:
		return 1
	}
	return 0
}
