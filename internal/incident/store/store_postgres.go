package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"auditwatch/internal/incident/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

// PostgresStore persists incidents. Queryable attributes are columns; the
// response trace, notes and history live in the details JSON document.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type incidentDetails struct {
	Impact                models.Impact           `json:"impact"`
	ImmediateActions      []string                `json:"immediate_actions,omitempty"`
	ContainmentActions    []string                `json:"containment_actions,omitempty"`
	RecoveryActions       []string                `json:"recovery_actions,omitempty"`
	ReportedBy            string                  `json:"reported_by,omitempty"`
	InvestigatorID        string                  `json:"investigator_id,omitempty"`
	RootCause             string                  `json:"root_cause,omitempty"`
	Resolution            string                  `json:"resolution,omitempty"`
	PreventiveMeasures    []string                `json:"preventive_measures,omitempty"`
	AuthoritiesNotified   bool                    `json:"authorities_notified"`
	AuthoritiesNotifiedAt *time.Time              `json:"authorities_notified_at,omitempty"`
	Notes                 []models.Note           `json:"notes,omitempty"`
	SeverityHistory       []models.SeverityChange `json:"severity_history,omitempty"`
}

const incidentColumns = `id, number, title, description, type, severity, status,
	pattern_actor_id, pattern_resource_type, pattern_flag, last_flagged_at, standards_impacted,
	detected_at, reported_at, investigation_started_at, resolved_at, closed_at, updated_at, details`

func (s *PostgresStore) Create(ctx context.Context, inc *models.Incident) error {
	details, err := marshalDetails(inc)
	if err != nil {
		return err
	}
	actor, resource, flag := patternColumns(inc.Pattern)
	query := `
		INSERT INTO incidents (id, number, title, description, type, severity, status,
			pattern_actor_id, pattern_resource_type, pattern_flag, last_flagged_at, standards_impacted,
			detected_at, reported_at, investigation_started_at, resolved_at, closed_at, updated_at, details)
		VALUES ($1, nextval('incident_number_seq'), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO NOTHING
		RETURNING number
	`
	var number int64
	err = s.db.QueryRowContext(ctx, query,
		uuid.UUID(inc.ID),
		inc.Title,
		inc.Description,
		string(inc.Type),
		string(inc.Severity),
		string(inc.Status),
		actor, resource, flag,
		nullTime(inc.LastFlaggedAt),
		pq.Array(id.StandardStrings(inc.StandardsImpacted)),
		inc.DetectedAt,
		inc.ReportedAt,
		inc.InvestigationStartedAt,
		inc.ResolvedAt,
		inc.ClosedAt,
		inc.UpdatedAt,
		details,
	).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create incident: %w", err)
	}
	inc.Number = number
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, inc *models.Incident) error {
	details, err := marshalDetails(inc)
	if err != nil {
		return err
	}
	query := `
		UPDATE incidents SET
			title = $2, description = $3, severity = $4, status = $5, last_flagged_at = $6,
			standards_impacted = $7, investigation_started_at = $8, resolved_at = $9, closed_at = $10,
			updated_at = $11, details = $12
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(inc.ID),
		inc.Title,
		inc.Description,
		string(inc.Severity),
		string(inc.Status),
		nullTime(inc.LastFlaggedAt),
		pq.Array(id.StandardStrings(inc.StandardsImpacted)),
		inc.InvestigationStartedAt,
		inc.ResolvedAt,
		inc.ClosedAt,
		inc.UpdatedAt,
		details,
	)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update incident rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, incidentID id.IncidentID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	inc, err := scanIncident(s.db.QueryRowContext(ctx, query, uuid.UUID(incidentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find incident: %w", err)
	}
	return inc, nil
}

func (s *PostgresStore) FindActiveByPattern(ctx context.Context, key models.PatternKey) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
		WHERE pattern_actor_id = $1 AND pattern_resource_type = $2 AND pattern_flag = $3
			AND status IN ('OPEN', 'INVESTIGATING')
		ORDER BY number DESC
		LIMIT 1`
	inc, err := scanIncident(s.db.QueryRowContext(ctx, query, key.ActorID, key.ResourceType, key.Flag))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find incident by pattern: %w", err)
	}
	return inc, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Severity != "" {
		add("severity = $%d", string(filter.Severity))
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.Standard != "" {
		add("$%d = ANY(standards_impacted)", string(filter.Standard))
	}
	if !filter.DetectedFrom.IsZero() {
		add("detected_at >= $%d", filter.DetectedFrom)
	}
	if !filter.DetectedTo.IsZero() {
		add("detected_at < $%d", filter.DetectedTo)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY number DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	var (
		inc           models.Incident
		incidentID    uuid.UUID
		typ, sev, st  string
		actor         sql.NullString
		resource      sql.NullString
		flag          sql.NullString
		lastFlaggedAt sql.NullTime
		standards     pq.StringArray
		rawDetails    []byte
	)
	err := row.Scan(
		&incidentID,
		&inc.Number,
		&inc.Title,
		&inc.Description,
		&typ,
		&sev,
		&st,
		&actor,
		&resource,
		&flag,
		&lastFlaggedAt,
		&standards,
		&inc.DetectedAt,
		&inc.ReportedAt,
		&inc.InvestigationStartedAt,
		&inc.ResolvedAt,
		&inc.ClosedAt,
		&inc.UpdatedAt,
		&rawDetails,
	)
	if err != nil {
		return nil, err
	}
	inc.ID = id.IncidentID(incidentID)
	inc.Type = models.IncidentType(typ)
	inc.Severity = models.Severity(sev)
	inc.Status = models.Status(st)
	if actor.Valid {
		inc.Pattern = &models.PatternKey{ActorID: actor.String, ResourceType: resource.String, Flag: flag.String}
	}
	if lastFlaggedAt.Valid {
		inc.LastFlaggedAt = lastFlaggedAt.Time
	}
	for _, s := range standards {
		inc.StandardsImpacted = append(inc.StandardsImpacted, id.Standard(s))
	}

	var d incidentDetails
	if err := json.Unmarshal(rawDetails, &d); err != nil {
		return nil, fmt.Errorf("decode incident details: %w", err)
	}
	inc.Impact = d.Impact
	inc.ImmediateActions = d.ImmediateActions
	inc.ContainmentActions = d.ContainmentActions
	inc.RecoveryActions = d.RecoveryActions
	inc.ReportedBy = d.ReportedBy
	inc.InvestigatorID = d.InvestigatorID
	inc.RootCause = d.RootCause
	inc.Resolution = d.Resolution
	inc.PreventiveMeasures = d.PreventiveMeasures
	inc.AuthoritiesNotified = d.AuthoritiesNotified
	inc.AuthoritiesNotifiedAt = d.AuthoritiesNotifiedAt
	inc.Notes = d.Notes
	inc.SeverityHistory = d.SeverityHistory
	return &inc, nil
}

func marshalDetails(inc *models.Incident) ([]byte, error) {
	raw, err := json.Marshal(incidentDetails{
		Impact:                inc.Impact,
		ImmediateActions:      inc.ImmediateActions,
		ContainmentActions:    inc.ContainmentActions,
		RecoveryActions:       inc.RecoveryActions,
		ReportedBy:            inc.ReportedBy,
		InvestigatorID:        inc.InvestigatorID,
		RootCause:             inc.RootCause,
		Resolution:            inc.Resolution,
		PreventiveMeasures:    inc.PreventiveMeasures,
		AuthoritiesNotified:   inc.AuthoritiesNotified,
		AuthoritiesNotifiedAt: inc.AuthoritiesNotifiedAt,
		Notes:                 inc.Notes,
		SeverityHistory:       inc.SeverityHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("encode incident details: %w", err)
	}
	return raw, nil
}

func patternColumns(p *models.PatternKey) (actor, resource, flag sql.NullString) {
	if p == nil {
		return
	}
	return sql.NullString{String: p.ActorID, Valid: true},
		sql.NullString{String: p.ResourceType, Valid: true},
		sql.NullString{String: p.Flag, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
