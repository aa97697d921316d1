package service

import (
	"time"

	"auditwatch/internal/incident/models"
	id "auditwatch/pkg/domain"
)

// CreateCommand opens an incident manually.
type CreateCommand struct {
	Title             string
	Description       string
	Type              models.IncidentType
	Severity          models.Severity
	Impact            models.Impact
	StandardsImpacted []id.Standard
	DetectedAt        time.Time
	Note              string
	Actor             string
}

// ResolutionCommand records the outcome of an investigation.
type ResolutionCommand struct {
	Resolution         string
	RootCause          string
	PreventiveMeasures []string
}
