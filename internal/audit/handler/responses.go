package handler

import (
	"time"

	"auditwatch/internal/audit/models"
	id "auditwatch/pkg/domain"
)

type EventResponse struct {
	ID               string    `json:"id"`
	Sequence         int64     `json:"sequence"`
	Timestamp        time.Time `json:"timestamp"`
	RecordedAt       time.Time `json:"recorded_at"`
	ActorID          string    `json:"actor_id"`
	ActorName        string    `json:"actor_name,omitempty"`
	ActorRole        string    `json:"actor_role,omitempty"`
	Action           string    `json:"action"`
	ResourceType     string    `json:"resource_type"`
	ResourceID       string    `json:"resource_id"`
	ResourceName     string    `json:"resource_name,omitempty"`
	OriginAddress    string    `json:"origin_address,omitempty"`
	ClientDescriptor string    `json:"client_descriptor,omitempty"`
	SessionID        string    `json:"session_id,omitempty"`
	Outcome          string    `json:"outcome"`
	Sensitivity      string    `json:"sensitivity"`
	Risk             string    `json:"risk"`
	Standards        []string  `json:"standards"`
}

type EventListResponse struct {
	Events []*EventResponse `json:"events"`
	Count  int              `json:"count"`
}

func toEventResponse(e *models.AuditEvent) *EventResponse {
	return &EventResponse{
		ID:               e.ID.String(),
		Sequence:         e.Sequence,
		Timestamp:        e.Timestamp,
		RecordedAt:       e.RecordedAt,
		ActorID:          e.Actor.ID,
		ActorName:        e.Actor.Name,
		ActorRole:        e.Actor.Role,
		Action:           e.Action,
		ResourceType:     e.Resource.Type,
		ResourceID:       e.Resource.ID,
		ResourceName:     e.Resource.Name,
		OriginAddress:    e.Origin.Address,
		ClientDescriptor: e.Origin.ClientDescriptor,
		SessionID:        e.Origin.SessionID,
		Outcome:          string(e.Outcome),
		Sensitivity:      string(e.Sensitivity),
		Risk:             string(e.Risk),
		Standards:        id.StandardStrings(e.Standards),
	}
}
