package models

import (
	"slices"
	"strings"
	"time"

	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
)

// Actor is the authenticated identity that performed the action.
// Supplied by the caller's identity context and trusted as-is.
type Actor struct {
	ID   string
	Name string
	Role string
}

// Resource is the protected object the action targeted.
type Resource struct {
	Type string
	ID   string
	Name string
}

// Origin carries request-level context for the access.
type Origin struct {
	Address          string
	ClientDescriptor string
	SessionID        string
}

// AuditEvent is an immutable record of one access or action against a protected resource.
// Corrections are new events; stores expose no update path.
type AuditEvent struct {
	ID          id.EventID
	Timestamp   time.Time
	RecordedAt  time.Time
	Sequence    int64
	Actor       Actor
	Action      string
	Resource    Resource
	Origin      Origin
	Outcome     Outcome
	Sensitivity Sensitivity
	Risk        RiskLevel
	Standards   []id.Standard
}

// NewEventParams is the input to NewAuditEvent. Risk may be empty, in which
// case it is classified from outcome and sensitivity.
type NewEventParams struct {
	ID          id.EventID
	Timestamp   time.Time
	RecordedAt  time.Time
	Actor       Actor
	Action      string
	Resource    Resource
	Origin      Origin
	Outcome     Outcome
	Sensitivity Sensitivity
	Risk        RiskLevel
	Standards   []id.Standard
}

// NewAuditEvent validates the params and builds an event ready to append.
func NewAuditEvent(p NewEventParams) (*AuditEvent, error) {
	p.Actor.ID = strings.TrimSpace(p.Actor.ID)
	p.Action = strings.TrimSpace(p.Action)
	p.Resource.Type = strings.TrimSpace(p.Resource.Type)
	p.Resource.ID = strings.TrimSpace(p.Resource.ID)

	switch {
	case p.ID.IsNil():
		return nil, dErrors.New(dErrors.CodeValidation, "event id is required")
	case p.Actor.ID == "":
		return nil, dErrors.New(dErrors.CodeValidation, "actor id is required")
	case p.Action == "":
		return nil, dErrors.New(dErrors.CodeValidation, "action is required")
	case p.Resource.Type == "" || p.Resource.ID == "":
		return nil, dErrors.New(dErrors.CodeValidation, "resource type and id are required")
	case p.Timestamp.IsZero():
		return nil, dErrors.New(dErrors.CodeValidation, "timestamp is required")
	case p.Outcome == "":
		return nil, dErrors.New(dErrors.CodeValidation, "outcome is required")
	case !p.Outcome.IsValid():
		return nil, dErrors.New(dErrors.CodeValidation, "unknown outcome: "+string(p.Outcome))
	}

	if p.Sensitivity == "" {
		p.Sensitivity = SensitivityInternal
	}
	if !p.Sensitivity.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown sensitivity: "+string(p.Sensitivity))
	}
	if p.Risk == "" {
		p.Risk = ClassifyRisk(p.Outcome, p.Sensitivity)
	}
	if !p.Risk.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown risk level: "+string(p.Risk))
	}
	for _, s := range p.Standards {
		if !s.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown standard: "+string(s))
		}
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now()
	}

	return &AuditEvent{
		ID:          p.ID,
		Timestamp:   p.Timestamp,
		RecordedAt:  p.RecordedAt,
		Actor:       p.Actor,
		Action:      p.Action,
		Resource:    p.Resource,
		Origin:      p.Origin,
		Outcome:     p.Outcome,
		Sensitivity: p.Sensitivity,
		Risk:        p.Risk,
		Standards:   id.NormalizeStandards(p.Standards),
	}, nil
}

// Clone returns a deep copy so callers can never alias stored state.
func (e *AuditEvent) Clone() *AuditEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.Standards = slices.Clone(e.Standards)
	return &c
}

// HasStandard reports whether the event is tagged with s.
func (e *AuditEvent) HasStandard(s id.Standard) bool {
	return slices.Contains(e.Standards, s)
}
