package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"auditwatch/internal/audit/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

// PostgresStore persists audit events in the insert-only audit_events table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed event store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, seq, occurred_at, recorded_at, actor_id, actor_name, actor_role, action,
	resource_type, resource_id, resource_name, origin_address, client_descriptor, session_id,
	outcome, sensitivity, risk, standards`

func (s *PostgresStore) Append(ctx context.Context, e *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, occurred_at, recorded_at, actor_id, actor_name, actor_role, action,
			resource_type, resource_id, resource_name, origin_address, client_descriptor, session_id,
			outcome, sensitivity, risk, standards)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
		RETURNING seq
	`
	var seq int64
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(e.ID),
		e.Timestamp,
		e.RecordedAt,
		e.Actor.ID,
		e.Actor.Name,
		e.Actor.Role,
		e.Action,
		e.Resource.Type,
		e.Resource.ID,
		e.Resource.Name,
		e.Origin.Address,
		e.Origin.ClientDescriptor,
		e.Origin.SessionID,
		string(e.Outcome),
		string(e.Sensitivity),
		string(e.Risk),
		pq.Array(id.StandardStrings(e.Standards)),
	).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("append audit event: %w", err)
	}
	e.Sequence = seq
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID id.EventID) (*models.AuditEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM audit_events WHERE id = $1`
	e, err := scanEvent(s.db.QueryRowContext(ctx, query, uuid.UUID(eventID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find audit event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Query(ctx context.Context, filter models.EventFilter) ([]*models.AuditEvent, error) {
	where, args := buildEventWhere(filter)
	query := `SELECT ` + eventColumns + ` FROM audit_events` + where + ` ORDER BY occurred_at DESC, seq DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.AuditEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}

func buildEventWhere(f models.EventFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if !f.From.IsZero() {
		add("occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("occurred_at < $%d", f.To)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.ResourceType != "" {
		add("resource_type = $%d", f.ResourceType)
	}
	if f.Outcome != "" {
		add("outcome = $%d", string(f.Outcome))
	}
	if f.Sensitivity != "" {
		add("sensitivity = $%d", string(f.Sensitivity))
	}
	if f.Standard != "" {
		add("$%d = ANY(standards)", string(f.Standard))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.AuditEvent, error) {
	var (
		e         models.AuditEvent
		eventID   uuid.UUID
		outcome   string
		sens      string
		risk      string
		standards pq.StringArray
	)
	err := row.Scan(
		&eventID,
		&e.Sequence,
		&e.Timestamp,
		&e.RecordedAt,
		&e.Actor.ID,
		&e.Actor.Name,
		&e.Actor.Role,
		&e.Action,
		&e.Resource.Type,
		&e.Resource.ID,
		&e.Resource.Name,
		&e.Origin.Address,
		&e.Origin.ClientDescriptor,
		&e.Origin.SessionID,
		&outcome,
		&sens,
		&risk,
		&standards,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.EventID(eventID)
	e.Outcome = models.Outcome(outcome)
	e.Sensitivity = models.Sensitivity(sens)
	e.Risk = models.RiskLevel(risk)
	for _, s := range standards {
		e.Standards = append(e.Standards, id.Standard(s))
	}
	return &e, nil
}
