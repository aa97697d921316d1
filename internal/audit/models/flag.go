package models

import (
	"time"

	id "auditwatch/pkg/domain"
)

// FlagType names a detected suspicious pattern.
type FlagType string

const (
	FlagAfterHoursSensitiveAccess FlagType = "AFTER_HOURS_SENSITIVE_ACCESS"
	FlagRepeatedAccessFailure     FlagType = "REPEATED_ACCESS_FAILURE"
)

func (f FlagType) IsValid() bool {
	return f == FlagAfterHoursSensitiveAccess || f == FlagRepeatedAccessFailure
}

// Flag is raised by the pattern monitor for an already-stored event.
type Flag struct {
	Type         FlagType
	EventID      id.EventID
	ActorID      string
	ResourceType string
	OccurredAt   time.Time
	Sensitivity  Sensitivity
	Standards    []id.Standard
	// FailureCount is the number of failures in the window when Type is REPEATED_ACCESS_FAILURE.
	FailureCount int
}

// NewFlag builds a flag for the given stored event.
func NewFlag(t FlagType, e *AuditEvent) Flag {
	return Flag{
		Type:         t,
		EventID:      e.ID,
		ActorID:      e.Actor.ID,
		ResourceType: e.Resource.Type,
		OccurredAt:   e.Timestamp,
		Sensitivity:  e.Sensitivity,
		Standards:    e.Standards,
	}
}
