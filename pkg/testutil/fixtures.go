package testutil

import (
	"time"

	"github.com/google/uuid"

	auditmodels "auditwatch/internal/audit/models"
	auditservice "auditwatch/internal/audit/service"
	compliancemodels "auditwatch/internal/compliance/models"
	complianceservice "auditwatch/internal/compliance/service"
	id "auditwatch/pkg/domain"
)

// TestIDs provides fixed IDs for deterministic test data.
var TestIDs = struct {
	EventID1       id.EventID
	EventID2       id.EventID
	IncidentID1    id.IncidentID
	RequirementID1 id.RequirementID
}{
	EventID1:       id.EventID(uuid.MustParse("eeee0000-0000-0000-0000-000000000001")),
	EventID2:       id.EventID(uuid.MustParse("eeee0000-0000-0000-0000-000000000002")),
	IncidentID1:    id.IncidentID(uuid.MustParse("1111aaaa-0000-0000-0000-000000000001")),
	RequirementID1: id.RequirementID(uuid.MustParse("cccc0000-0000-0000-0000-000000000001")),
}

// BusinessHours is a weekday mid-morning timestamp that never trips the
// after-hours check under the default monitor config.
var BusinessHours = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

// EventBuilder builds record commands with a successful INTERNAL read as the default.
type EventBuilder struct {
	cmd auditservice.RecordCommand
}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{cmd: auditservice.RecordCommand{
		Timestamp:   BusinessHours,
		Actor:       auditmodels.Actor{ID: "clinician-1", Name: "Test Clinician", Role: "clinician"},
		Action:      "read",
		Resource:    auditmodels.Resource{Type: "patient_record", ID: "record-1"},
		Outcome:     auditmodels.OutcomeSuccess,
		Sensitivity: auditmodels.SensitivityInternal,
	}}
}

func (b *EventBuilder) WithID(eventID id.EventID) *EventBuilder {
	b.cmd.ID = eventID
	return b
}

func (b *EventBuilder) At(t time.Time) *EventBuilder {
	b.cmd.Timestamp = t
	return b
}

func (b *EventBuilder) ByActor(actorID string) *EventBuilder {
	b.cmd.Actor.ID = actorID
	return b
}

func (b *EventBuilder) OnResource(resourceType, resourceID string) *EventBuilder {
	b.cmd.Resource = auditmodels.Resource{Type: resourceType, ID: resourceID}
	return b
}

func (b *EventBuilder) WithOutcome(o auditmodels.Outcome) *EventBuilder {
	b.cmd.Outcome = o
	return b
}

func (b *EventBuilder) WithSensitivity(s auditmodels.Sensitivity) *EventBuilder {
	b.cmd.Sensitivity = s
	return b
}

func (b *EventBuilder) WithStandards(standards ...id.Standard) *EventBuilder {
	b.cmd.Standards = standards
	return b
}

func (b *EventBuilder) Build() auditservice.RecordCommand {
	cmd := b.cmd
	cmd.Standards = append([]id.Standard(nil), b.cmd.Standards...)
	return cmd
}

// RequirementBuilder builds upsert commands for a MEDIUM priority control.
type RequirementBuilder struct {
	cmd complianceservice.UpsertCommand
}

func NewRequirementBuilder(standard id.Standard, reference string) *RequirementBuilder {
	return &RequirementBuilder{cmd: complianceservice.UpsertCommand{
		Standard:  standard,
		Reference: reference,
		Details: compliancemodels.Details{
			Title:    "Control " + reference,
			Priority: compliancemodels.PriorityMedium,
		},
		Actor: "test",
	}}
}

func (b *RequirementBuilder) WithStatus(s compliancemodels.Status) *RequirementBuilder {
	b.cmd.Status = s
	return b
}

func (b *RequirementBuilder) WithPriority(p compliancemodels.Priority) *RequirementBuilder {
	b.cmd.Priority = p
	return b
}

func (b *RequirementBuilder) Build() complianceservice.UpsertCommand {
	return b.cmd
}
