package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
	pstrings "auditwatch/pkg/platform/strings"
)

// Risk describes what is exposed while the requirement is unmet.
type Risk struct {
	Level       RiskLevel
	Description string
	Mitigations []string
}

// Requirement is one obligation under a standard. Status only moves forward
// one step at a time, and NextReviewAt always lies after LastTransitionAt.
type Requirement struct {
	ID          id.RequirementID
	Standard    id.Standard
	Reference   string
	Title       string
	Description string
	Category    string
	Priority    Priority
	Status      Status

	PolicyRefs    []string
	ProcedureRefs []string
	EvidenceRefs  []string
	Risk          Risk

	Frequency      Frequency
	LastReviewedAt *time.Time
	NextReviewAt   time.Time

	ImplementationDate *time.Time
	VerificationDate   *time.Time
	LastTransitionAt   time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Details are the descriptive, freely editable fields.
type Details struct {
	Title         string
	Description   string
	Category      string
	Priority      Priority
	PolicyRefs    []string
	ProcedureRefs []string
	EvidenceRefs  []string
	Risk          Risk
	Frequency     Frequency
	// NextReviewAt is optional; zero keeps or derives the schedule.
	NextReviewAt time.Time
}

// Draft creates a requirement. A non-empty Status seeds historical state.
type Draft struct {
	Standard  id.Standard
	Reference string
	Details
	Status             Status
	LastReviewedAt     *time.Time
	ImplementationDate *time.Time
	VerificationDate   *time.Time
}

func (d *Details) normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.ToLower(strings.TrimSpace(d.Category))
	d.PolicyRefs = pstrings.DedupeAndTrim(d.PolicyRefs)
	d.ProcedureRefs = pstrings.DedupeAndTrim(d.ProcedureRefs)
	d.EvidenceRefs = pstrings.DedupeAndTrim(d.EvidenceRefs)
	d.Risk.Description = strings.TrimSpace(d.Risk.Description)
	d.Risk.Mitigations = pstrings.DedupeAndTrim(d.Risk.Mitigations)
	if d.Frequency == "" {
		d.Frequency = FrequencyAnnual
	}
	if d.Risk.Level == "" {
		d.Risk.Level = RiskMedium
	}

	switch {
	case d.Title == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case !d.Priority.IsValid():
		return dErrors.New(dErrors.CodeValidation, "unknown priority: "+string(d.Priority))
	case !d.Frequency.IsValid():
		return dErrors.New(dErrors.CodeValidation, "unknown review frequency: "+string(d.Frequency))
	case !d.Risk.Level.IsValid():
		return dErrors.New(dErrors.CodeValidation, "unknown risk level: "+string(d.Risk.Level))
	}
	return nil
}

// NewRequirement validates the draft. Dates implied by a seeded status
// default to now.
func NewRequirement(requirementID id.RequirementID, d Draft, now time.Time) (*Requirement, error) {
	if requirementID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "requirement id is required")
	}
	if !d.Standard.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown standard: "+string(d.Standard))
	}
	d.Reference = strings.TrimSpace(d.Reference)
	if d.Reference == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reference is required")
	}
	if err := d.normalize(); err != nil {
		return nil, err
	}
	if d.Status == "" {
		d.Status = StatusNotImplemented
	}
	if !d.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown requirement status: "+string(d.Status))
	}

	r := &Requirement{
		ID:               requirementID,
		Standard:         d.Standard,
		Reference:        d.Reference,
		Status:           d.Status,
		LastReviewedAt:   cloneTime(d.LastReviewedAt),
		LastTransitionAt: now,
		CreatedAt:        now,
	}
	r.applyDetails(d.Details)

	if d.Status.Rank() >= StatusImplemented.Rank() {
		r.ImplementationDate = orNow(d.ImplementationDate, now)
	}
	if d.Status == StatusVerified {
		r.VerificationDate = orNow(d.VerificationDate, now)
	}

	switch {
	case d.NextReviewAt.After(now):
		r.NextReviewAt = d.NextReviewAt
	case r.LastReviewedAt != nil && r.Frequency.After(*r.LastReviewedAt).After(now):
		r.NextReviewAt = r.Frequency.After(*r.LastReviewedAt)
	default:
		r.NextReviewAt = r.Frequency.After(now)
	}
	r.UpdatedAt = now
	return r, nil
}

func (r *Requirement) applyDetails(d Details) {
	r.Title = d.Title
	r.Description = d.Description
	r.Category = d.Category
	r.Priority = d.Priority
	r.PolicyRefs = d.PolicyRefs
	r.ProcedureRefs = d.ProcedureRefs
	r.EvidenceRefs = d.EvidenceRefs
	r.Risk = d.Risk
	r.Frequency = d.Frequency
}

// UpdateDetails replaces the descriptive fields. Status is untouched.
func (r *Requirement) UpdateDetails(d Details, now time.Time) error {
	if err := d.normalize(); err != nil {
		return err
	}
	if !d.NextReviewAt.IsZero() && !d.NextReviewAt.After(r.LastTransitionAt) {
		return dErrors.New(dErrors.CodeValidation, "next review must be after the last status change")
	}
	r.applyDetails(d)
	if !d.NextReviewAt.IsZero() {
		r.NextReviewAt = d.NextReviewAt
	}
	r.UpdatedAt = now
	return nil
}

// Transition moves the status one step forward, stamping implementation and
// verification dates, and keeps the next review after the transition.
func (r *Requirement) Transition(next Status, now time.Time) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown requirement status: "+string(next))
	}
	if !r.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot transition requirement from %s to %s", r.Status, next))
	}
	at := now
	switch next {
	case StatusImplemented:
		r.ImplementationDate = &at
	case StatusVerified:
		r.VerificationDate = &at
	}
	r.Status = next
	r.LastTransitionAt = now
	if !r.NextReviewAt.After(now) {
		r.NextReviewAt = r.Frequency.After(now)
	}
	r.UpdatedAt = now
	return nil
}

// MarkReviewed records a review at `at` (zero means now) and schedules the next one.
func (r *Requirement) MarkReviewed(at, now time.Time) error {
	if at.IsZero() {
		at = now
	}
	if at.After(now) {
		return dErrors.New(dErrors.CodeValidation, "review time must not be in the future")
	}
	reviewed := at
	r.LastReviewedAt = &reviewed
	next := r.Frequency.After(at)
	if !next.After(r.LastTransitionAt) {
		next = r.Frequency.After(r.LastTransitionAt)
	}
	r.NextReviewAt = next
	r.UpdatedAt = now
	return nil
}

// IsCriticalGap reports a CRITICAL requirement that has not been started.
func (r *Requirement) IsCriticalGap() bool {
	return r.Priority == PriorityCritical && r.Status == StatusNotImplemented
}

// ReviewOverdue reports whether the next review date has passed.
func (r *Requirement) ReviewOverdue(now time.Time) bool {
	return r.NextReviewAt.Before(now)
}

func (r *Requirement) Clone() *Requirement {
	if r == nil {
		return nil
	}
	c := *r
	c.PolicyRefs = slices.Clone(r.PolicyRefs)
	c.ProcedureRefs = slices.Clone(r.ProcedureRefs)
	c.EvidenceRefs = slices.Clone(r.EvidenceRefs)
	c.Risk.Mitigations = slices.Clone(r.Risk.Mitigations)
	c.LastReviewedAt = cloneTime(r.LastReviewedAt)
	c.ImplementationDate = cloneTime(r.ImplementationDate)
	c.VerificationDate = cloneTime(r.VerificationDate)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func orNow(t *time.Time, now time.Time) *time.Time {
	if t != nil && !t.IsZero() {
		return cloneTime(t)
	}
	at := now
	return &at
}
