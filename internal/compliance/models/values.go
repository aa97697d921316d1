package models

import (
	"slices"
	"strings"
	"time"

	dErrors "auditwatch/pkg/domain-errors"
)

// Priority is ordered LOW < MEDIUM < HIGH < CRITICAL.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Rank() int { return slices.Index(Priorities, p) }

func (p Priority) IsValid() bool { return p.Rank() >= 0 }

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown priority: "+raw)
	}
	return p, nil
}

// Status is the implementation lifecycle:
// NOT_IMPLEMENTED -> IN_PROGRESS -> IMPLEMENTED -> VERIFIED.
type Status string

const (
	StatusNotImplemented Status = "NOT_IMPLEMENTED"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusImplemented    Status = "IMPLEMENTED"
	StatusVerified       Status = "VERIFIED"
)

var Statuses = []Status{StatusNotImplemented, StatusInProgress, StatusImplemented, StatusVerified}

func (s Status) Rank() int { return slices.Index(Statuses, s) }

func (s Status) IsValid() bool { return s.Rank() >= 0 }

// CanTransitionTo reports whether next immediately follows s.
func (s Status) CanTransitionTo(next Status) bool {
	return s.IsValid() && next.IsValid() && next.Rank() == s.Rank()+1
}

// Fulfilled reports whether the requirement counts toward the compliance score.
func (s Status) Fulfilled() bool {
	return s == StatusImplemented || s == StatusVerified
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown requirement status: "+raw)
	}
	return s, nil
}

// Frequency is how often a requirement is reviewed.
type Frequency string

const (
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiAnnual Frequency = "SEMI_ANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

var frequencyMonths = map[Frequency]int{
	FrequencyMonthly:    1,
	FrequencyQuarterly:  3,
	FrequencySemiAnnual: 6,
	FrequencyAnnual:     12,
}

func (f Frequency) IsValid() bool {
	_, ok := frequencyMonths[f]
	return ok
}

// After returns the review date one period after t.
func (f Frequency) After(t time.Time) time.Time {
	months, ok := frequencyMonths[f]
	if !ok {
		months = frequencyMonths[FrequencyAnnual]
	}
	return t.AddDate(0, months, 0)
}

// ParseFrequency accepts "semi-annual" and an empty value, which means ANNUAL.
func ParseFrequency(raw string) (Frequency, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FrequencyAnnual, nil
	}
	f := Frequency(strings.ReplaceAll(strings.ToUpper(trimmed), "-", "_"))
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown review frequency: "+raw)
	}
	return f, nil
}

// RiskLevel grades the risk of leaving a requirement unmet.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

func (r RiskLevel) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh || r == RiskCritical
}

// ParseRiskLevel treats an empty value as MEDIUM.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RiskMedium, nil
	}
	r := RiskLevel(strings.ToUpper(trimmed))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown risk level: "+raw)
	}
	return r, nil
}
