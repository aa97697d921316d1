package handler

import (
	"time"

	"auditwatch/internal/report/models"
)

type RequirementSummaryResponse struct {
	Total           int            `json:"total"`
	Fulfilled       int            `json:"fulfilled"`
	ByStatus        map[string]int `json:"by_status"`
	ByPriority      map[string]int `json:"by_priority"`
	OverdueReviews  int            `json:"overdue_reviews"`
	CriticalGapRefs []string       `json:"critical_gap_refs"`
}

type IncidentSummaryResponse struct {
	Total               int            `json:"total"`
	Open                int            `json:"open"`
	BySeverity          map[string]int `json:"by_severity"`
	ByStatus            map[string]int `json:"by_status"`
	AuthoritiesNotified int            `json:"authorities_notified"`
}

type EventSummaryResponse struct {
	Total         int            `json:"total"`
	Failures      int            `json:"failures"`
	Denials       int            `json:"denials"`
	HighRisk      int            `json:"high_risk"`
	BySensitivity map[string]int `json:"by_sensitivity"`
}

type ReportResponse struct {
	Standard        string                     `json:"standard"`
	From            time.Time                  `json:"from"`
	To              time.Time                  `json:"to"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	ComplianceScore int                        `json:"compliance_score"`
	Status          string                     `json:"status"`
	CriticalGaps    int                        `json:"critical_gaps"`
	Requirements    RequirementSummaryResponse `json:"requirements"`
	Incidents       IncidentSummaryResponse    `json:"incidents"`
	Events          EventSummaryResponse       `json:"events"`
	Flags           []string                   `json:"flags"`
}

func ToReportResponse(r *models.Report) *ReportResponse {
	return &ReportResponse{
		Standard:        string(r.Standard),
		From:            r.Window.From,
		To:              r.Window.To,
		GeneratedAt:     r.GeneratedAt,
		ComplianceScore: r.ComplianceScore,
		Status:          string(r.Status),
		CriticalGaps:    r.CriticalGaps,
		Requirements: RequirementSummaryResponse{
			Total:           r.Requirements.Total,
			Fulfilled:       r.Requirements.Fulfilled,
			ByStatus:        r.Requirements.ByStatus,
			ByPriority:      r.Requirements.ByPriority,
			OverdueReviews:  r.Requirements.OverdueReviews,
			CriticalGapRefs: r.Requirements.CriticalGapRefs,
		},
		Incidents: IncidentSummaryResponse{
			Total:               r.Incidents.Total,
			Open:                r.Incidents.Open,
			BySeverity:          r.Incidents.BySeverity,
			ByStatus:            r.Incidents.ByStatus,
			AuthoritiesNotified: r.Incidents.AuthoritiesNotified,
		},
		Events: EventSummaryResponse{
			Total:         r.Events.Total,
			Failures:      r.Events.Failures,
			Denials:       r.Events.Denials,
			HighRisk:      r.Events.HighRisk,
			BySensitivity: r.Events.BySensitivity,
		},
		Flags: r.FlagStrings(),
	}
}
