package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	auditmodels "auditwatch/internal/audit/models"
	"auditwatch/internal/incident/models"
	"auditwatch/internal/platform/tracer"
	"auditwatch/internal/sentinel"
	dErrors "auditwatch/pkg/domain-errors"
)

// ReporterPatternMonitor is recorded as the reporter of flag-driven incidents.
const ReporterPatternMonitor = "pattern-monitor"

type flagPolicy struct {
	incidentType models.IncidentType
	severity     models.Severity
	title        string
}

var flagPolicies = map[auditmodels.FlagType]flagPolicy{
	auditmodels.FlagAfterHoursSensitiveAccess: {
		incidentType: models.TypeUnauthorizedAccess,
		severity:     models.SeverityMedium,
		title:        "Sensitive access outside business hours",
	},
	auditmodels.FlagRepeatedAccessFailure: {
		incidentType: models.TypeUnauthorizedAccess,
		severity:     models.SeverityHigh,
		title:        "Repeated access failures",
	},
}

// errPatternMoved means the candidate incident stopped covering the pattern
// between lookup and update, e.g. it was resolved concurrently.
var errPatternMoved = errors.New("incident no longer covers pattern")

// HandleFlag lets the manager receive flags from the pattern monitor.
func (m *Manager) HandleFlag(ctx context.Context, flag auditmodels.Flag) error {
	_, err := m.EvaluateFlag(ctx, flag)
	return err
}

// EvaluateFlag opens an incident for the flag, or appends a note to the
// active incident already tracking the same actor, resource type and flag.
func (m *Manager) EvaluateFlag(ctx context.Context, flag auditmodels.Flag) (inc *models.Incident, err error) {
	policy, ok := flagPolicies[flag.Type]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown flag type: "+string(flag.Type))
	}
	if flag.ActorID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "flag actor is required")
	}

	ctx, span := m.tracer.Start(ctx, tracer.SpanIncidentFlag,
		tracer.String(tracer.AttrFlagType, string(flag.Type)),
		tracer.String(tracer.AttrEventID, flag.EventID.String()),
	)
	defer func() { span.End(err) }()

	key := models.PatternKey{ActorID: flag.ActorID, ResourceType: flag.ResourceType, Flag: string(flag.Type)}
	note := flagNote(flag)

	err = m.patternLocks.WithLock(key.String(), func() error {
		existing, findErr := m.store.FindActiveByPattern(ctx, key)
		if findErr == nil && existing.CoversPattern(key, flag.OccurredAt, m.dedupWindow) {
			updated, updErr := m.update(ctx, existing.ID, func(cur *models.Incident, now time.Time) error {
				if !cur.CoversPattern(key, flag.OccurredAt, m.dedupWindow) {
					return errPatternMoved
				}
				return cur.RecordRecurrence(note, flag.OccurredAt, now)
			})
			switch {
			case updErr == nil:
				inc = updated
				span.SetAttributes(tracer.String(tracer.AttrIncidentID, updated.ID.String()), tracer.Bool(tracer.AttrDeduplicated, true))
				m.metrics.IncrementDeduplicated(string(flag.Type))
				m.logAudit(ctx, "incident_flag_deduplicated",
					"incident_id", updated.ID.String(),
					"incident_number", updated.DisplayNumber(),
					"flag", string(flag.Type),
					"actor_id", flag.ActorID,
					"resource_type", flag.ResourceType,
				)
				return nil
			case !errors.Is(updErr, errPatternMoved):
				return updErr
			}
		} else if findErr != nil && !errors.Is(findErr, sentinel.ErrNotFound) {
			return dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to look up active incident")
		}

		created, createErr := m.open(ctx, models.Draft{
			Title:             policy.title,
			Description:       fmt.Sprintf("%s by %s on %s", flag.Type, flag.ActorID, flag.ResourceType),
			Type:              policy.incidentType,
			Severity:          policy.severity,
			StandardsImpacted: flag.Standards,
			Pattern:           &key,
			DetectedAt:        flag.OccurredAt,
			ReportedBy:        ReporterPatternMonitor,
			InitialNote:       note,
		}, ReporterPatternMonitor)
		if createErr != nil {
			return createErr
		}
		inc = created
		span.SetAttributes(tracer.String(tracer.AttrIncidentID, created.ID.String()), tracer.Bool(tracer.AttrDeduplicated, false))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inc, nil
}

func flagNote(flag auditmodels.Flag) string {
	switch flag.Type {
	case auditmodels.FlagRepeatedAccessFailure:
		return fmt.Sprintf("%d failed accesses to %s by %s within the window (event %s at %s)",
			flag.FailureCount, flag.ResourceType, flag.ActorID, flag.EventID, flag.OccurredAt.UTC().Format(time.RFC3339))
	default:
		return fmt.Sprintf("%s access to %s by %s outside business hours (event %s at %s)",
			flag.Sensitivity, flag.ResourceType, flag.ActorID, flag.EventID, flag.OccurredAt.UTC().Format(time.RFC3339))
	}
}
