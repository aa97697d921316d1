// Package domain provides type-safe identifiers and shared tags used across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "auditwatch/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an IncidentID where an EventID is expected.
type (
	EventID       uuid.UUID
	IncidentID    uuid.UUID
	RequirementID uuid.UUID
)

func NewEventID() EventID             { return EventID(uuid.New()) }
func NewIncidentID() IncidentID       { return IncidentID(uuid.New()) }
func NewRequirementID() RequirementID { return RequirementID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, message keys, seed files).

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func ParseIncidentID(s string) (IncidentID, error) {
	id, err := parseUUID(s, "incident ID")
	return IncidentID(id), err
}

func ParseRequirementID(s string) (RequirementID, error) {
	id, err := parseUUID(s, "requirement ID")
	return RequirementID(id), err
}

func (id EventID) String() string       { return uuid.UUID(id).String() }
func (id IncidentID) String() string    { return uuid.UUID(id).String() }
func (id RequirementID) String() string { return uuid.UUID(id).String() }

func (id EventID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id IncidentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText and UnmarshalText let typed ids travel as plain uuid strings in JSON.
func (id EventID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id IncidentID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id RequirementID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *EventID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *IncidentID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RequirementID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID is the shared validation logic.
// Nil UUIDs parse successfully; services reject them with IsNil so lookups stay uniform.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
