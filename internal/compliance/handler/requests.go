package handler

import (
	"strings"
	"time"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/compliance/service"
	id "auditwatch/pkg/domain"
	strutil "auditwatch/pkg/platform/strings"
	"auditwatch/pkg/validation"
)

type RiskRequest struct {
	Level       string   `json:"level"`
	Description string   `json:"description" validate:"max=4000"`
	Mitigations []string `json:"mitigations"`
}

type UpsertRequirementRequest struct {
	ID                 string      `json:"id"`
	Standard           string      `json:"standard" validate:"required"`
	Reference          string      `json:"reference" validate:"notblank,max=128"`
	Title              string      `json:"title" validate:"notblank,max=255"`
	Description        string      `json:"description" validate:"max=4000"`
	Category           string      `json:"category" validate:"max=128"`
	Priority           string      `json:"priority" validate:"required"`
	Status             string      `json:"status"`
	PolicyRefs         []string    `json:"policy_refs"`
	ProcedureRefs      []string    `json:"procedure_refs"`
	EvidenceRefs       []string    `json:"evidence_refs"`
	Risk               RiskRequest `json:"risk"`
	ReviewFrequency    string      `json:"review_frequency"`
	NextReviewAt       time.Time   `json:"next_review_at"`
	LastReviewedAt     *time.Time  `json:"last_reviewed_at"`
	ImplementationDate *time.Time  `json:"implementation_date"`
	VerificationDate   *time.Time  `json:"verification_date"`
}

func (r *UpsertRequirementRequest) Normalize() {
	r.Reference = strings.TrimSpace(r.Reference)
	r.Title = strings.TrimSpace(r.Title)
	r.PolicyRefs = strutil.DedupeAndTrim(r.PolicyRefs)
	r.ProcedureRefs = strutil.DedupeAndTrim(r.ProcedureRefs)
	r.EvidenceRefs = strutil.DedupeAndTrim(r.EvidenceRefs)
	r.Risk.Mitigations = strutil.DedupeAndTrim(r.Risk.Mitigations)
}

func (r *UpsertRequirementRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if err := validation.CheckList("policy refs", r.PolicyRefs, validation.MaxArtifactRefs, validation.MaxRefLength); err != nil {
		return err
	}
	if err := validation.CheckList("procedure refs", r.ProcedureRefs, validation.MaxArtifactRefs, validation.MaxRefLength); err != nil {
		return err
	}
	if err := validation.CheckList("evidence refs", r.EvidenceRefs, validation.MaxArtifactRefs, validation.MaxRefLength); err != nil {
		return err
	}
	return validation.CheckList("mitigations", r.Risk.Mitigations, validation.MaxMitigations, validation.MaxActionLength)
}

func (r *UpsertRequirementRequest) ToCommand(actor string) (service.UpsertCommand, error) {
	var (
		cmd service.UpsertCommand
		err error
	)
	if r.ID != "" {
		if cmd.ID, err = id.ParseRequirementID(r.ID); err != nil {
			return cmd, err
		}
	}
	if cmd.Standard, err = id.ParseStandard(r.Standard); err != nil {
		return cmd, err
	}
	if cmd.Priority, err = models.ParsePriority(r.Priority); err != nil {
		return cmd, err
	}
	if r.Status != "" {
		if cmd.Status, err = models.ParseStatus(r.Status); err != nil {
			return cmd, err
		}
	}
	if cmd.Frequency, err = models.ParseFrequency(r.ReviewFrequency); err != nil {
		return cmd, err
	}
	if cmd.Risk.Level, err = models.ParseRiskLevel(r.Risk.Level); err != nil {
		return cmd, err
	}
	cmd.Reference = r.Reference
	cmd.Title = r.Title
	cmd.Description = r.Description
	cmd.Category = r.Category
	cmd.PolicyRefs = r.PolicyRefs
	cmd.ProcedureRefs = r.ProcedureRefs
	cmd.EvidenceRefs = r.EvidenceRefs
	cmd.Risk.Description = r.Risk.Description
	cmd.Risk.Mitigations = r.Risk.Mitigations
	cmd.NextReviewAt = r.NextReviewAt
	cmd.LastReviewedAt = r.LastReviewedAt
	cmd.ImplementationDate = r.ImplementationDate
	cmd.VerificationDate = r.VerificationDate
	cmd.Actor = actor
	return cmd, nil
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r *TransitionRequest) Validate() error { return validation.Validate(r) }

type ReviewRequest struct {
	ReviewedAt time.Time `json:"reviewed_at"`
}
