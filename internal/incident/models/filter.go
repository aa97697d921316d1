package models

import (
	"time"

	id "auditwatch/pkg/domain"
)

// IncidentFilter selects incidents; zero fields match everything.
// DetectedFrom is inclusive and DetectedTo exclusive.
type IncidentFilter struct {
	Status       Status
	Severity     Severity
	Type         IncidentType
	Standard     id.Standard
	DetectedFrom time.Time
	DetectedTo   time.Time
	Limit        int
}

func (f IncidentFilter) Matches(i *Incident) bool {
	switch {
	case f.Status != "" && i.Status != f.Status:
		return false
	case f.Severity != "" && i.Severity != f.Severity:
		return false
	case f.Type != "" && i.Type != f.Type:
		return false
	case f.Standard != "" && !i.HasStandard(f.Standard):
		return false
	case !f.DetectedFrom.IsZero() && i.DetectedAt.Before(f.DetectedFrom):
		return false
	case !f.DetectedTo.IsZero() && !i.DetectedAt.Before(f.DetectedTo):
		return false
	}
	return true
}

// NewestFirst orders incidents by descending incident number.
func NewestFirst(a, b *Incident) int {
	switch {
	case a.Number > b.Number:
		return -1
	case a.Number < b.Number:
		return 1
	}
	return 0
}
