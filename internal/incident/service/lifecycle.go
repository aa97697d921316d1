package service

import (
	"context"
	"time"

	"auditwatch/internal/incident/models"
	id "auditwatch/pkg/domain"
	dErrors "auditwatch/pkg/domain-errors"
)

// Create opens an incident at OPEN, freezes its severity and dispatches the
// response bundle for it.
func (m *Manager) Create(ctx context.Context, cmd CreateCommand) (*models.Incident, error) {
	return m.open(ctx, models.Draft{
		Title:             cmd.Title,
		Description:       cmd.Description,
		Type:              cmd.Type,
		Severity:          cmd.Severity,
		Impact:            cmd.Impact,
		StandardsImpacted: cmd.StandardsImpacted,
		DetectedAt:        cmd.DetectedAt,
		ReportedBy:        cmd.Actor,
		InitialNote:       cmd.Note,
	}, "manual")
}

func (m *Manager) open(ctx context.Context, draft models.Draft, source string) (*models.Incident, error) {
	inc, err := models.NewIncident(id.NewIncidentID(), draft, m.now())
	if err != nil {
		return nil, err
	}
	bundle := dispatch(inc)

	if err := m.store.Create(ctx, inc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create incident")
	}
	m.metrics.IncrementCreated(source, string(inc.Severity))
	m.logAudit(ctx, "incident_created",
		"incident_id", inc.ID.String(),
		"incident_number", inc.DisplayNumber(),
		"type", string(inc.Type),
		"severity", string(inc.Severity),
		"source", source,
		"actor", draft.ReportedBy,
	)
	m.notify(ctx, inc, bundle, models.TriggerCreated)
	return inc, nil
}

// Transition moves the incident exactly one step forward.
func (m *Manager) Transition(ctx context.Context, incidentID id.IncidentID, next models.Status, actor string) (*models.Incident, error) {
	var from models.Status
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		from = inc.Status
		return inc.Transition(next, now)
	})
	if err != nil {
		return nil, err
	}
	m.metrics.IncrementTransition(string(next))
	m.logAudit(ctx, "incident_transitioned",
		"incident_id", inc.ID.String(),
		"from", string(from),
		"to", string(next),
		"actor", actor,
	)
	return inc, nil
}

// Escalate raises severity and dispatches the bundle for the new severity.
func (m *Manager) Escalate(ctx context.Context, incidentID id.IncidentID, next models.Severity, actor string) (*models.Incident, error) {
	var from models.Severity
	var bundle models.ResponseBundle
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		from = inc.Severity
		if err := inc.Escalate(next, actor, now); err != nil {
			return err
		}
		bundle = dispatch(inc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.metrics.IncrementEscalation(string(next))
	m.logAudit(ctx, "incident_escalated",
		"incident_id", inc.ID.String(),
		"from", string(from),
		"to", string(next),
		"actor", actor,
	)
	m.notify(ctx, inc, bundle, models.TriggerEscalated)
	return inc, nil
}

// OverrideSeverity changes severity in either direction with a mandatory reason.
// A bundle is dispatched only when the override raises severity.
func (m *Manager) OverrideSeverity(ctx context.Context, incidentID id.IncidentID, next models.Severity, reason, actor string) (*models.Incident, error) {
	var from models.Severity
	var bundle models.ResponseBundle
	raised := false
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		from = inc.Severity
		if err := inc.OverrideSeverity(next, reason, actor, now); err != nil {
			return err
		}
		if next.GreaterThan(from) {
			raised = true
			bundle = dispatch(inc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.metrics.IncrementOverride()
	m.logger.WarnContext(ctx, "incident severity overridden",
		"event", "incident_severity_overridden",
		"log_type", "audit",
		"incident_id", inc.ID.String(),
		"from", string(from),
		"to", string(next),
		"reason", reason,
		"actor", actor,
	)
	if raised {
		m.notify(ctx, inc, bundle, models.TriggerOverride)
	}
	return inc, nil
}

func (m *Manager) SetResolution(ctx context.Context, incidentID id.IncidentID, cmd ResolutionCommand, actor string) (*models.Incident, error) {
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		return inc.SetResolution(cmd.Resolution, cmd.RootCause, cmd.PreventiveMeasures, now)
	})
	if err != nil {
		return nil, err
	}
	m.logAudit(ctx, "incident_resolution_recorded", "incident_id", inc.ID.String(), "actor", actor)
	return inc, nil
}

func (m *Manager) AssignInvestigator(ctx context.Context, incidentID id.IncidentID, investigatorID, actor string) (*models.Incident, error) {
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		return inc.AssignInvestigator(investigatorID, now)
	})
	if err != nil {
		return nil, err
	}
	m.logAudit(ctx, "incident_investigator_assigned",
		"incident_id", inc.ID.String(),
		"investigator_id", inc.InvestigatorID,
		"actor", actor,
	)
	return inc, nil
}

// RecordActions appends to the immediate, containment or recovery trace.
func (m *Manager) RecordActions(ctx context.Context, incidentID id.IncidentID, phase models.ActionPhase, actions []string, actor string) (*models.Incident, error) {
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		return inc.AppendActions(phase, actions, now)
	})
	if err != nil {
		return nil, err
	}
	m.logAudit(ctx, "incident_actions_recorded",
		"incident_id", inc.ID.String(),
		"phase", string(phase),
		"count", len(actions),
		"actor", actor,
	)
	return inc, nil
}

func (m *Manager) UpdateImpact(ctx context.Context, incidentID id.IncidentID, impact models.Impact, actor string) (*models.Incident, error) {
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		return inc.UpdateImpact(impact, now)
	})
	if err != nil {
		return nil, err
	}
	m.logAudit(ctx, "incident_impact_updated",
		"incident_id", inc.ID.String(),
		"affected_actors", inc.Impact.AffectedActors,
		"affected_records", inc.Impact.AffectedRecords,
		"actor", actor,
	)
	return inc, nil
}

// RecordAuthorityNotification marks regulators as notified; a zero at means now.
func (m *Manager) RecordAuthorityNotification(ctx context.Context, incidentID id.IncidentID, at time.Time, actor string) (*models.Incident, error) {
	inc, err := m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		return inc.RecordAuthorityNotification(at, now)
	})
	if err != nil {
		return nil, err
	}
	m.logAudit(ctx, "incident_authorities_notified", "incident_id", inc.ID.String(), "actor", actor)
	return inc, nil
}

func (m *Manager) AddNote(ctx context.Context, incidentID id.IncidentID, text, actor string) (*models.Incident, error) {
	return m.update(ctx, incidentID, func(inc *models.Incident, now time.Time) error {
		return inc.AddNote(actor, text, now)
	})
}

func (m *Manager) Get(ctx context.Context, incidentID id.IncidentID) (*models.Incident, error) {
	if incidentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "incident ID required")
	}
	inc, err := m.store.FindByID(ctx, incidentID)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to load incident")
	}
	return inc, nil
}

func (m *Manager) List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	incidents, err := m.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list incidents")
	}
	return incidents, nil
}
