package models

import (
	"slices"
	"time"

	id "auditwatch/pkg/domain"
)

// ResponseAction is one step of an incident response bundle.
type ResponseAction string

const (
	ActionNotifyEmergencyResponders       ResponseAction = "NOTIFY_EMERGENCY_RESPONDERS"
	ActionActivateEmergencyProcedures     ResponseAction = "ACTIVATE_EMERGENCY_PROCEDURES"
	ActionNotifyRegulatoryAuthorities     ResponseAction = "NOTIFY_REGULATORY_AUTHORITIES"
	ActionNotifySeniorManagement          ResponseAction = "NOTIFY_SENIOR_MANAGEMENT"
	ActionMobilizeAdditionalInvestigators ResponseAction = "MOBILIZE_ADDITIONAL_INVESTIGATORS"
	ActionActivateEscalationProcedure     ResponseAction = "ACTIVATE_ESCALATION_PROCEDURE"
	ActionNotifyManagement                ResponseAction = "NOTIFY_MANAGEMENT"
	ActionAllocateInvestigator            ResponseAction = "ALLOCATE_INVESTIGATOR"
	ActionCoordinateResponse              ResponseAction = "COORDINATE_RESPONSE"
	ActionDocumentIncident                ResponseAction = "DOCUMENT_INCIDENT"
	ActionAssignInvestigator              ResponseAction = "ASSIGN_INVESTIGATOR"
	ActionScheduleFollowUpReview          ResponseAction = "SCHEDULE_FOLLOW_UP_REVIEW"
)

var actionDescriptions = map[ResponseAction]string{
	ActionNotifyEmergencyResponders:       "Notify emergency responders",
	ActionActivateEmergencyProcedures:     "Activate emergency procedures",
	ActionNotifyRegulatoryAuthorities:     "Notify regulatory authorities",
	ActionNotifySeniorManagement:          "Notify senior management",
	ActionMobilizeAdditionalInvestigators: "Mobilize additional investigators",
	ActionActivateEscalationProcedure:     "Activate escalation procedure",
	ActionNotifyManagement:                "Notify management",
	ActionAllocateInvestigator:            "Allocate investigator",
	ActionCoordinateResponse:              "Coordinate response",
	ActionDocumentIncident:                "Document incident",
	ActionAssignInvestigator:              "Assign investigator",
	ActionScheduleFollowUpReview:          "Schedule follow-up review",
}

// Description is the human-readable form recorded in the response trace.
func (a ResponseAction) Description() string {
	if d, ok := actionDescriptions[a]; ok {
		return d
	}
	return string(a)
}

var dispatchTable = map[Severity][]ResponseAction{
	SeverityEmergency: {ActionNotifyEmergencyResponders, ActionActivateEmergencyProcedures, ActionNotifyRegulatoryAuthorities},
	SeverityCritical:  {ActionNotifySeniorManagement, ActionMobilizeAdditionalInvestigators, ActionActivateEscalationProcedure},
	SeverityHigh:      {ActionNotifyManagement, ActionAllocateInvestigator, ActionCoordinateResponse},
	SeverityMedium:    {ActionDocumentIncident, ActionAssignInvestigator, ActionScheduleFollowUpReview},
	SeverityLow:       {ActionDocumentIncident, ActionAssignInvestigator, ActionScheduleFollowUpReview},
}

// ResponseBundle is the set of actions due for a severity.
type ResponseBundle struct {
	Severity Severity
	Actions  []ResponseAction
}

// Descriptions returns the actions in trace form.
func (b ResponseBundle) Descriptions() []string {
	out := make([]string, len(b.Actions))
	for i, a := range b.Actions {
		out[i] = a.Description()
	}
	return out
}

// DispatchResponse maps a severity to its fixed action bundle.
// An unknown severity yields an empty bundle.
func DispatchResponse(severity Severity) ResponseBundle {
	return ResponseBundle{
		Severity: severity,
		Actions:  slices.Clone(dispatchTable[severity]),
	}
}

// DispatchTrigger says why a bundle was dispatched.
type DispatchTrigger string

const (
	TriggerCreated   DispatchTrigger = "created"
	TriggerEscalated DispatchTrigger = "escalated"
	TriggerOverride  DispatchTrigger = "severity_override"
)

// Notification is handed to the delivery collaborator after a dispatch.
type Notification struct {
	IncidentID        id.IncidentID    `json:"incident_id"`
	IncidentNumber    string           `json:"incident_number"`
	Type              IncidentType     `json:"type"`
	Severity          Severity         `json:"severity"`
	Trigger           DispatchTrigger  `json:"trigger"`
	Actions           []ResponseAction `json:"actions"`
	StandardsImpacted []id.Standard    `json:"standards_impacted,omitempty"`
	OccurredAt        time.Time        `json:"occurred_at"`
}

// NewNotification builds the hand-off for a bundle dispatched on inc.
func NewNotification(inc *Incident, bundle ResponseBundle, trigger DispatchTrigger, at time.Time) Notification {
	return Notification{
		IncidentID:        inc.ID,
		IncidentNumber:    inc.DisplayNumber(),
		Type:              inc.Type,
		Severity:          bundle.Severity,
		Trigger:           trigger,
		Actions:           slices.Clone(bundle.Actions),
		StandardsImpacted: slices.Clone(inc.StandardsImpacted),
		OccurredAt:        at,
	}
}
