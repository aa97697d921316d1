package handler

import (
	"strings"
	"time"

	"auditwatch/internal/audit/models"
	"auditwatch/internal/audit/service"
	id "auditwatch/pkg/domain"
	strutil "auditwatch/pkg/platform/strings"
	"auditwatch/pkg/validation"
)

// RecordEventRequest is the wire form of one access event, shared by the
// HTTP endpoint and the Kafka ingestion topic.
type RecordEventRequest struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	ActorID          string    `json:"actor_id" validate:"max=128"`
	ActorName        string    `json:"actor_name" validate:"max=255"`
	ActorRole        string    `json:"actor_role" validate:"max=128"`
	Action           string    `json:"action" validate:"max=128"`
	ResourceType     string    `json:"resource_type" validate:"max=128"`
	ResourceID       string    `json:"resource_id" validate:"max=128"`
	ResourceName     string    `json:"resource_name" validate:"max=255"`
	OriginAddress    string    `json:"origin_address" validate:"max=128"`
	ClientDescriptor string    `json:"client_descriptor" validate:"max=255"`
	SessionID        string    `json:"session_id" validate:"max=128"`
	Outcome          string    `json:"outcome"`
	Sensitivity      string    `json:"sensitivity"`
	Risk             string    `json:"risk"`
	Standards        []string  `json:"standards" validate:"max=16"`
}

func (r *RecordEventRequest) Normalize() {
	r.ActorID = strings.TrimSpace(r.ActorID)
	r.Action = strings.TrimSpace(r.Action)
	r.ResourceType = strings.TrimSpace(r.ResourceType)
	r.ResourceID = strings.TrimSpace(r.ResourceID)
	r.Standards = strutil.DedupeAndTrim(r.Standards)
}

func (r *RecordEventRequest) Validate() error {
	return validation.Validate(r)
}

// ToCommand parses enums. Missing required fields are left for the recorder
// to reject so both transports report them the same way.
func (r *RecordEventRequest) ToCommand() (service.RecordCommand, error) {
	var (
		cmd service.RecordCommand
		err error
	)
	if r.ID != "" {
		if cmd.ID, err = id.ParseEventID(r.ID); err != nil {
			return cmd, err
		}
	}
	if r.Outcome != "" {
		if cmd.Outcome, err = models.ParseOutcome(r.Outcome); err != nil {
			return cmd, err
		}
	}
	if r.Sensitivity != "" {
		if cmd.Sensitivity, err = models.ParseSensitivity(r.Sensitivity); err != nil {
			return cmd, err
		}
	}
	if r.Risk != "" {
		if cmd.Risk, err = models.ParseRiskLevel(r.Risk); err != nil {
			return cmd, err
		}
	}
	if cmd.Standards, err = id.ParseStandards(r.Standards); err != nil {
		return cmd, err
	}
	cmd.Timestamp = r.Timestamp
	cmd.Actor = models.Actor{ID: r.ActorID, Name: r.ActorName, Role: r.ActorRole}
	cmd.Action = r.Action
	cmd.Resource = models.Resource{Type: r.ResourceType, ID: r.ResourceID, Name: r.ResourceName}
	cmd.Origin = models.Origin{
		Address:          r.OriginAddress,
		ClientDescriptor: r.ClientDescriptor,
		SessionID:        r.SessionID,
	}
	return cmd, nil
}
