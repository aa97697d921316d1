package handler

import (
	"time"

	"auditwatch/internal/compliance/models"
)

type RiskResponse struct {
	Level       string   `json:"level"`
	Description string   `json:"description,omitempty"`
	Mitigations []string `json:"mitigations"`
}

type RequirementResponse struct {
	ID                 string       `json:"id"`
	Standard           string       `json:"standard"`
	Reference          string       `json:"reference"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	Category           string       `json:"category,omitempty"`
	Priority           string       `json:"priority"`
	Status             string       `json:"status"`
	PolicyRefs         []string     `json:"policy_refs"`
	ProcedureRefs      []string     `json:"procedure_refs"`
	EvidenceRefs       []string     `json:"evidence_refs"`
	Risk               RiskResponse `json:"risk"`
	ReviewFrequency    string       `json:"review_frequency"`
	LastReviewedAt     *time.Time   `json:"last_reviewed_at,omitempty"`
	NextReviewAt       time.Time    `json:"next_review_at"`
	ReviewOverdue      bool         `json:"review_overdue"`
	ImplementationDate *time.Time   `json:"implementation_date,omitempty"`
	VerificationDate   *time.Time   `json:"verification_date,omitempty"`
	LastTransitionAt   time.Time    `json:"last_transition_at"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type RequirementListResponse struct {
	Requirements []*RequirementResponse `json:"requirements"`
	Count        int                    `json:"count"`
}

func toRequirementResponse(r *models.Requirement, now time.Time) *RequirementResponse {
	return &RequirementResponse{
		ID:            r.ID.String(),
		Standard:      string(r.Standard),
		Reference:     r.Reference,
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Priority:      string(r.Priority),
		Status:        string(r.Status),
		PolicyRefs:    nonNil(r.PolicyRefs),
		ProcedureRefs: nonNil(r.ProcedureRefs),
		EvidenceRefs:  nonNil(r.EvidenceRefs),
		Risk: RiskResponse{
			Level:       string(r.Risk.Level),
			Description: r.Risk.Description,
			Mitigations: nonNil(r.Risk.Mitigations),
		},
		ReviewFrequency:    string(r.Frequency),
		LastReviewedAt:     r.LastReviewedAt,
		NextReviewAt:       r.NextReviewAt,
		ReviewOverdue:      r.ReviewOverdue(now),
		ImplementationDate: r.ImplementationDate,
		VerificationDate:   r.VerificationDate,
		LastTransitionAt:   r.LastTransitionAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
