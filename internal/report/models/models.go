package models

import (
	"math"
	"slices"
	"time"

	id "auditwatch/pkg/domain"
)

// DefaultWindow is the reporting period used when the caller gives no start.
const DefaultWindow = 30 * 24 * time.Hour

// Window is the half-open reporting period [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Valid reports whether the window is not inverted. An empty window is valid.
func (w Window) Valid() bool {
	return !w.From.After(w.To)
}

// ComplianceStatus buckets a compliance score.
type ComplianceStatus string

const (
	StatusCompliant              ComplianceStatus = "COMPLIANT"
	StatusPartiallyCompliant     ComplianceStatus = "PARTIALLY_COMPLIANT"
	StatusNonCompliant           ComplianceStatus = "NON_COMPLIANT"
	StatusCriticallyNonCompliant ComplianceStatus = "CRITICALLY_NON_COMPLIANT"
)

// StatusForScore maps >=90, >=70, >=50 and the rest.
func StatusForScore(score int) ComplianceStatus {
	switch {
	case score >= 90:
		return StatusCompliant
	case score >= 70:
		return StatusPartiallyCompliant
	case score >= 50:
		return StatusNonCompliant
	default:
		return StatusCriticallyNonCompliant
	}
}

// Score is the rounded percentage of fulfilled requirements, 0 when there are none.
func Score(fulfilled, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(fulfilled) / float64(total)))
}

// Flag marks a report condition a reader must know about.
type Flag string

const (
	FlagNoRequirementsDefined   Flag = "NO_REQUIREMENTS_DEFINED"
	FlagRequirementsUnavailable Flag = "REQUIREMENTS_UNAVAILABLE"
	FlagIncidentsUnavailable    Flag = "INCIDENTS_UNAVAILABLE"
	FlagEventsUnavailable       Flag = "EVENTS_UNAVAILABLE"
	FlagInvalidWindow           Flag = "INVALID_WINDOW"
)

type RequirementSummary struct {
	Total           int
	Fulfilled       int
	ByStatus        map[string]int
	ByPriority      map[string]int
	OverdueReviews  int
	CriticalGapRefs []string
}

type IncidentSummary struct {
	Total               int
	Open                int
	BySeverity          map[string]int
	ByStatus            map[string]int
	AuthoritiesNotified int
}

type EventSummary struct {
	Total         int
	Failures      int
	Denials       int
	HighRisk      int
	BySensitivity map[string]int
}

// Report is derived on demand and never stored.
type Report struct {
	Standard        id.Standard
	Window          Window
	GeneratedAt     time.Time
	ComplianceScore int
	Status          ComplianceStatus
	CriticalGaps    int
	Requirements    RequirementSummary
	Incidents       IncidentSummary
	Events          EventSummary
	Flags           []Flag
}

func (r *Report) HasFlag(f Flag) bool {
	return slices.Contains(r.Flags, f)
}

// Degraded reports whether any section could not be read.
func (r *Report) Degraded() bool {
	return r.HasFlag(FlagRequirementsUnavailable) ||
		r.HasFlag(FlagIncidentsUnavailable) ||
		r.HasFlag(FlagEventsUnavailable)
}

// FlagStrings returns the flags in wire form.
func (r *Report) FlagStrings() []string {
	out := make([]string, len(r.Flags))
	for i, f := range r.Flags {
		out[i] = string(f)
	}
	return out
}
