package handler

import (
	"time"

	"auditwatch/internal/incident/models"
	id "auditwatch/pkg/domain"
)

type NoteResponse struct {
	At     time.Time `json:"at"`
	Author string    `json:"author,omitempty"`
	Text   string    `json:"text"`
}

type SeverityChangeResponse struct {
	From     string    `json:"from,omitempty"`
	To       string    `json:"to"`
	At       time.Time `json:"at"`
	Actor    string    `json:"actor,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Override bool      `json:"override,omitempty"`
}

type IncidentResponse struct {
	ID                     string                   `json:"id"`
	Number                 string                   `json:"number"`
	Title                  string                   `json:"title"`
	Description            string                   `json:"description,omitempty"`
	Type                   string                   `json:"type"`
	Severity               string                   `json:"severity"`
	Status                 string                   `json:"status"`
	AffectedActors         int                      `json:"affected_actors"`
	AffectedRecords        int                      `json:"affected_records"`
	ImmediateActions       []string                 `json:"immediate_actions"`
	ContainmentActions     []string                 `json:"containment_actions"`
	RecoveryActions        []string                 `json:"recovery_actions"`
	ReportedBy             string                   `json:"reported_by,omitempty"`
	InvestigatorID         string                   `json:"investigator_id,omitempty"`
	RootCause              string                   `json:"root_cause,omitempty"`
	Resolution             string                   `json:"resolution,omitempty"`
	PreventiveMeasures     []string                 `json:"preventive_measures"`
	StandardsImpacted      []string                 `json:"standards_impacted"`
	AuthoritiesNotified    bool                     `json:"authorities_notified"`
	AuthoritiesNotifiedAt  *time.Time               `json:"authorities_notified_at,omitempty"`
	Notes                  []NoteResponse           `json:"notes"`
	SeverityHistory        []SeverityChangeResponse `json:"severity_history"`
	DetectedAt             time.Time                `json:"detected_at"`
	ReportedAt             time.Time                `json:"reported_at"`
	InvestigationStartedAt *time.Time               `json:"investigation_started_at,omitempty"`
	ResolvedAt             *time.Time               `json:"resolved_at,omitempty"`
	ClosedAt               *time.Time               `json:"closed_at,omitempty"`
	UpdatedAt              time.Time                `json:"updated_at"`
}

type IncidentListResponse struct {
	Incidents []*IncidentResponse `json:"incidents"`
	Count     int                 `json:"count"`
}

func toIncidentResponse(inc *models.Incident) *IncidentResponse {
	notes := make([]NoteResponse, len(inc.Notes))
	for i, n := range inc.Notes {
		notes[i] = NoteResponse{At: n.At, Author: n.Author, Text: n.Text}
	}
	history := make([]SeverityChangeResponse, len(inc.SeverityHistory))
	for i, c := range inc.SeverityHistory {
		history[i] = SeverityChangeResponse{
			From:     string(c.From),
			To:       string(c.To),
			At:       c.At,
			Actor:    c.Actor,
			Reason:   c.Reason,
			Override: c.Override,
		}
	}
	return &IncidentResponse{
		ID:                     inc.ID.String(),
		Number:                 inc.DisplayNumber(),
		Title:                  inc.Title,
		Description:            inc.Description,
		Type:                   string(inc.Type),
		Severity:               string(inc.Severity),
		Status:                 string(inc.Status),
		AffectedActors:         inc.Impact.AffectedActors,
		AffectedRecords:        inc.Impact.AffectedRecords,
		ImmediateActions:       nonNil(inc.ImmediateActions),
		ContainmentActions:     nonNil(inc.ContainmentActions),
		RecoveryActions:        nonNil(inc.RecoveryActions),
		ReportedBy:             inc.ReportedBy,
		InvestigatorID:         inc.InvestigatorID,
		RootCause:              inc.RootCause,
		Resolution:             inc.Resolution,
		PreventiveMeasures:     nonNil(inc.PreventiveMeasures),
		StandardsImpacted:      id.StandardStrings(inc.StandardsImpacted),
		AuthoritiesNotified:    inc.AuthoritiesNotified,
		AuthoritiesNotifiedAt:  inc.AuthoritiesNotifiedAt,
		Notes:                  notes,
		SeverityHistory:        history,
		DetectedAt:             inc.DetectedAt,
		ReportedAt:             inc.ReportedAt,
		InvestigationStartedAt: inc.InvestigationStartedAt,
		ResolvedAt:             inc.ResolvedAt,
		ClosedAt:               inc.ClosedAt,
		UpdatedAt:              inc.UpdatedAt,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

type DispatchResponse struct {
	Severity     string   `json:"severity"`
	Actions      []string `json:"actions"`
	Descriptions []string `json:"descriptions"`
}

func toDispatchResponse(b models.ResponseBundle) *DispatchResponse {
	actions := make([]string, len(b.Actions))
	for i, a := range b.Actions {
		actions[i] = string(a)
	}
	return &DispatchResponse{
		Severity:     string(b.Severity),
		Actions:      actions,
		Descriptions: b.Descriptions(),
	}
}
