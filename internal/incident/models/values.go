package models

import (
	"slices"
	"strings"

	dErrors "auditwatch/pkg/domain-errors"
)

// IncidentType is the closed set of incident classifications.
type IncidentType string

const (
	TypeUnauthorizedAccess    IncidentType = "unauthorized-access"
	TypeDataBreach            IncidentType = "data-breach"
	TypeSensitiveDataExposure IncidentType = "sensitive-data-exposure"
	TypeSystemBreach          IncidentType = "system-breach"
	TypeSocialEngineering     IncidentType = "social-engineering"
	TypeMalware               IncidentType = "malware"
)

var incidentTypes = []IncidentType{
	TypeUnauthorizedAccess,
	TypeDataBreach,
	TypeSensitiveDataExposure,
	TypeSystemBreach,
	TypeSocialEngineering,
	TypeMalware,
}

func (t IncidentType) IsValid() bool {
	return slices.Contains(incidentTypes, t)
}

// ParseIncidentType accepts the canonical tag in any case, with "_" for "-".
func ParseIncidentType(raw string) (IncidentType, error) {
	t := IncidentType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-"))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown incident type: "+raw)
	}
	return t, nil
}

// Severity is totally ordered LOW < MEDIUM < HIGH < CRITICAL < EMERGENCY.
type Severity string

const (
	SeverityLow       Severity = "LOW"
	SeverityMedium    Severity = "MEDIUM"
	SeverityHigh      Severity = "HIGH"
	SeverityCritical  Severity = "CRITICAL"
	SeverityEmergency Severity = "EMERGENCY"
)

// Severities lists every severity in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical, SeverityEmergency}

// Rank returns the position in the order, or -1 for an unknown value.
func (s Severity) Rank() int { return slices.Index(Severities, s) }

func (s Severity) IsValid() bool { return s.Rank() >= 0 }

// GreaterThan reports whether s is strictly more severe than other.
func (s Severity) GreaterThan(other Severity) bool { return s.Rank() > other.Rank() }

func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown severity: "+raw)
	}
	return s, nil
}

// Status is the incident lifecycle: OPEN -> INVESTIGATING -> RESOLVED -> CLOSED.
type Status string

const (
	StatusOpen          Status = "OPEN"
	StatusInvestigating Status = "INVESTIGATING"
	StatusResolved      Status = "RESOLVED"
	StatusClosed        Status = "CLOSED"
)

var Statuses = []Status{StatusOpen, StatusInvestigating, StatusResolved, StatusClosed}

func (s Status) Rank() int { return slices.Index(Statuses, s) }

func (s Status) IsValid() bool { return s.Rank() >= 0 }

// IsActive reports whether the incident still accepts pattern updates.
func (s Status) IsActive() bool {
	return s == StatusOpen || s == StatusInvestigating
}

// CanTransitionTo reports whether next immediately follows s.
func (s Status) CanTransitionTo(next Status) bool {
	return s.IsValid() && next.IsValid() && next.Rank() == s.Rank()+1
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown incident status: "+raw)
	}
	return s, nil
}

// ActionPhase selects which response trace an action belongs to.
type ActionPhase string

const (
	PhaseImmediate   ActionPhase = "IMMEDIATE"
	PhaseContainment ActionPhase = "CONTAINMENT"
	PhaseRecovery    ActionPhase = "RECOVERY"
)

func (p ActionPhase) IsValid() bool {
	return p == PhaseImmediate || p == PhaseContainment || p == PhaseRecovery
}

func ParseActionPhase(raw string) (ActionPhase, error) {
	p := ActionPhase(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown action phase: "+raw)
	}
	return p, nil
}
