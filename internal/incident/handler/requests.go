package handler

import (
	"strings"
	"time"

	"auditwatch/internal/incident/models"
	"auditwatch/internal/incident/service"
	id "auditwatch/pkg/domain"
	strutil "auditwatch/pkg/platform/strings"
	"auditwatch/pkg/validation"
)

// HTTP request DTOs. Struct tags drive go-playground/validator; parsing
// into domain enums happens in ToCommand so the error carries the raw value.

type CreateIncidentRequest struct {
	Title           string    `json:"title" validate:"notblank,max=255"`
	Description     string    `json:"description" validate:"max=4000"`
	Type            string    `json:"type" validate:"required"`
	Severity        string    `json:"severity" validate:"required"`
	AffectedActors  int       `json:"affected_actors" validate:"gte=0"`
	AffectedRecords int       `json:"affected_records" validate:"gte=0"`
	Standards       []string  `json:"standards" validate:"max=16"`
	DetectedAt      time.Time `json:"detected_at"`
	Note            string    `json:"note" validate:"max=4000"`
}

func (r *CreateIncidentRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Standards = strutil.DedupeAndTrim(r.Standards)
}

func (r *CreateIncidentRequest) Validate() error {
	return validation.Validate(r)
}

func (r *CreateIncidentRequest) ToCommand(actor string) (service.CreateCommand, error) {
	typ, err := models.ParseIncidentType(r.Type)
	if err != nil {
		return service.CreateCommand{}, err
	}
	sev, err := models.ParseSeverity(r.Severity)
	if err != nil {
		return service.CreateCommand{}, err
	}
	standards, err := id.ParseStandards(r.Standards)
	if err != nil {
		return service.CreateCommand{}, err
	}
	return service.CreateCommand{
		Title:             r.Title,
		Description:       r.Description,
		Type:              typ,
		Severity:          sev,
		Impact:            models.Impact{AffectedActors: r.AffectedActors, AffectedRecords: r.AffectedRecords},
		StandardsImpacted: standards,
		DetectedAt:        r.DetectedAt,
		Note:              r.Note,
		Actor:             actor,
	}, nil
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r *TransitionRequest) Validate() error { return validation.Validate(r) }

type EscalateRequest struct {
	Severity string `json:"severity" validate:"required"`
}

func (r *EscalateRequest) Validate() error { return validation.Validate(r) }

type OverrideSeverityRequest struct {
	Severity string `json:"severity" validate:"required"`
	Reason   string `json:"reason" validate:"notblank,max=4000"`
}

func (r *OverrideSeverityRequest) Validate() error { return validation.Validate(r) }

type ResolutionRequest struct {
	Resolution         string   `json:"resolution" validate:"notblank,max=4000"`
	RootCause          string   `json:"root_cause" validate:"notblank,max=4000"`
	PreventiveMeasures []string `json:"preventive_measures"`
}

func (r *ResolutionRequest) Normalize() {
	r.PreventiveMeasures = strutil.DedupeAndTrim(r.PreventiveMeasures)
}

func (r *ResolutionRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return validation.CheckList("preventive measures", r.PreventiveMeasures, validation.MaxPreventiveMeasures, validation.MaxActionLength)
}

type AssignInvestigatorRequest struct {
	InvestigatorID string `json:"investigator_id" validate:"notblank,max=128"`
}

func (r *AssignInvestigatorRequest) Validate() error { return validation.Validate(r) }

type RecordActionsRequest struct {
	Phase   string   `json:"phase" validate:"required"`
	Actions []string `json:"actions" validate:"required,min=1"`
}

func (r *RecordActionsRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	return validation.CheckList("actions", r.Actions, validation.MaxResponseActions, validation.MaxActionLength)
}

type ImpactRequest struct {
	AffectedActors  int `json:"affected_actors" validate:"gte=0"`
	AffectedRecords int `json:"affected_records" validate:"gte=0"`
}

func (r *ImpactRequest) Validate() error { return validation.Validate(r) }

type AuthorityNotificationRequest struct {
	NotifiedAt time.Time `json:"notified_at"`
}

type NoteRequest struct {
	Text string `json:"text" validate:"notblank,max=4000"`
}

func (r *NoteRequest) Validate() error { return validation.Validate(r) }
