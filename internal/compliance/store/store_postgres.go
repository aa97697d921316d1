package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"auditwatch/internal/compliance/models"
	"auditwatch/internal/sentinel"
	id "auditwatch/pkg/domain"
)

// PostgresStore persists requirements in compliance_requirements.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requirementColumns = `id, standard, reference, title, description, category, priority, status,
	policy_refs, procedure_refs, evidence_refs, risk_level, risk_description, risk_mitigations,
	review_frequency, last_reviewed_at, next_review_at, implementation_date, verification_date,
	last_transition_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Requirement) error {
	query := `INSERT INTO compliance_requirements (` + requirementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID),
		string(r.Standard),
		r.Reference,
		r.Title,
		r.Description,
		r.Category,
		string(r.Priority),
		string(r.Status),
		pq.Array(nonNil(r.PolicyRefs)),
		pq.Array(nonNil(r.ProcedureRefs)),
		pq.Array(nonNil(r.EvidenceRefs)),
		string(r.Risk.Level),
		r.Risk.Description,
		pq.Array(nonNil(r.Risk.Mitigations)),
		string(r.Frequency),
		r.LastReviewedAt,
		r.NextReviewAt,
		r.ImplementationDate,
		r.VerificationDate,
		r.LastTransitionAt,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create requirement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Requirement) error {
	query := `
		UPDATE compliance_requirements SET
			title = $4, description = $5, category = $6, priority = $7, status = $8,
			policy_refs = $9, procedure_refs = $10, evidence_refs = $11,
			risk_level = $12, risk_description = $13, risk_mitigations = $14,
			review_frequency = $15, last_reviewed_at = $16, next_review_at = $17,
			implementation_date = $18, verification_date = $19, last_transition_at = $20, updated_at = $21
		WHERE id = $1 AND standard = $2 AND reference = $3
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID),
		string(r.Standard),
		r.Reference,
		r.Title,
		r.Description,
		r.Category,
		string(r.Priority),
		string(r.Status),
		pq.Array(nonNil(r.PolicyRefs)),
		pq.Array(nonNil(r.ProcedureRefs)),
		pq.Array(nonNil(r.EvidenceRefs)),
		string(r.Risk.Level),
		r.Risk.Description,
		pq.Array(nonNil(r.Risk.Mitigations)),
		string(r.Frequency),
		r.LastReviewedAt,
		r.NextReviewAt,
		r.ImplementationDate,
		r.VerificationDate,
		r.LastTransitionAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update requirement rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requirementID id.RequirementID) (*models.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM compliance_requirements WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(requirementID))
}

func (s *PostgresStore) FindByReference(ctx context.Context, standard id.Standard, reference string) (*models.Requirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM compliance_requirements WHERE standard = $1 AND reference = $2`
	return s.findOne(ctx, query, string(standard), reference)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Requirement, error) {
	r, err := scanRequirement(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find requirement: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.RequirementFilter) ([]*models.Requirement, error) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Standard != "" {
		add("standard = $%d", string(filter.Standard))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Priority != "" {
		add("priority = $%d", string(filter.Priority))
	}
	if c := strings.ToLower(strings.TrimSpace(filter.Category)); c != "" {
		add("category = $%d", c)
	}

	query := `SELECT ` + requirementColumns + ` FROM compliance_requirements`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY standard, reference"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	requirements := make([]*models.Requirement, 0)
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		requirements = append(requirements, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requirements: %w", err)
	}
	return requirements, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequirement(row rowScanner) (*models.Requirement, error) {
	var (
		r                              models.Requirement
		requirementID                  uuid.UUID
		standard, priority, status     string
		riskLevel, frequency           string
		policies, procedures, evidence pq.StringArray
		mitigations                    pq.StringArray
	)
	err := row.Scan(
		&requirementID,
		&standard,
		&r.Reference,
		&r.Title,
		&r.Description,
		&r.Category,
		&priority,
		&status,
		&policies,
		&procedures,
		&evidence,
		&riskLevel,
		&r.Risk.Description,
		&mitigations,
		&frequency,
		&r.LastReviewedAt,
		&r.NextReviewAt,
		&r.ImplementationDate,
		&r.VerificationDate,
		&r.LastTransitionAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RequirementID(requirementID)
	r.Standard = id.Standard(standard)
	r.Priority = models.Priority(priority)
	r.Status = models.Status(status)
	r.Risk.Level = models.RiskLevel(riskLevel)
	r.Frequency = models.Frequency(frequency)
	r.PolicyRefs = emptyToNil(policies)
	r.ProcedureRefs = emptyToNil(procedures)
	r.EvidenceRefs = emptyToNil(evidence)
	r.Risk.Mitigations = emptyToNil(mitigations)
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func emptyToNil(values pq.StringArray) []string {
	if len(values) == 0 {
		return nil
	}
	return []string(values)
}
