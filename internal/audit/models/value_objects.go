package models

import (
	"strings"

	dErrors "auditwatch/pkg/domain-errors"
)

// Outcome of the attempted action.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeDenied  Outcome = "DENIED"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeDenied:
		return true
	}
	return false
}

// IsFailure reports whether the outcome counts toward failure clustering.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailure || o == OutcomeDenied
}

func ParseOutcome(raw string) (Outcome, error) {
	o := Outcome(strings.ToUpper(strings.TrimSpace(raw)))
	if !o.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown outcome: "+raw)
	}
	return o, nil
}

// Sensitivity is the data-classification tier of the accessed resource.
// Tiers are ordered; PROTECTED covers regulated personal or health data.
type Sensitivity string

const (
	SensitivityPublic       Sensitivity = "PUBLIC"
	SensitivityInternal     Sensitivity = "INTERNAL"
	SensitivityConfidential Sensitivity = "CONFIDENTIAL"
	SensitivityRestricted   Sensitivity = "RESTRICTED"
	SensitivityProtected    Sensitivity = "PROTECTED"
)

// Sensitivities lists every tier from least to most sensitive.
var Sensitivities = []Sensitivity{
	SensitivityPublic,
	SensitivityInternal,
	SensitivityConfidential,
	SensitivityRestricted,
	SensitivityProtected,
}

// Rank returns the tier's position in the order, or -1 for unknown values.
func (s Sensitivity) Rank() int {
	for i, v := range Sensitivities {
		if v == s {
			return i
		}
	}
	return -1
}

func (s Sensitivity) IsValid() bool { return s.Rank() >= 0 }

// AtLeast reports whether s is as sensitive as other or more.
func (s Sensitivity) AtLeast(other Sensitivity) bool {
	return s.Rank() >= other.Rank()
}

func ParseSensitivity(raw string) (Sensitivity, error) {
	s := Sensitivity(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown sensitivity: "+raw)
	}
	return s, nil
}

// RiskLevel is assigned at ingestion.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

func ParseRiskLevel(raw string) (RiskLevel, error) {
	r := RiskLevel(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown risk level: "+raw)
	}
	return r, nil
}

// ClassifyRisk derives a risk level when the caller did not assign one.
func ClassifyRisk(outcome Outcome, sensitivity Sensitivity) RiskLevel {
	switch {
	case outcome.IsFailure() && sensitivity.AtLeast(SensitivityRestricted):
		return RiskHigh
	case outcome.IsFailure() || sensitivity.AtLeast(SensitivityConfidential):
		return RiskMedium
	default:
		return RiskLow
	}
}
