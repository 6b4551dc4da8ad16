// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"loanflow-workers/internal/models"
)

// Sentinel errors, named after the job error codes workers map them to.
var (
	ErrApplicationNotFound  = errors.New("APPLICATION_NOT_FOUND")
	ErrDecisionNotFound     = errors.New("DECISION_NOT_FOUND")
	ErrDuplicateApplication = errors.New("DUPLICATE_APPLICATION")
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// Store provides loan-application persistence on PostgreSQL. Writes are
// row-level only: concurrent decision runs may each append a row, and
// "latest by created_at" is the single consistency guarantee.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateApplication inserts a new application record. The application id is
// caller-supplied; a second insert with the same id fails with
// ErrDuplicateApplication.
func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE application_id = $1
		)`, app.ApplicationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("duplicate check failed: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: application %s already exists", ErrDuplicateApplication, app.ApplicationID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (
			application_id, full_name, age, address, region,
			employment_status, net_income, obligations_ratio, dependents, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		app.ApplicationID,
		app.FullName,
		app.Age,
		app.Address,
		app.Region,
		app.EmploymentStatus,
		app.NetIncome,
		app.ObligationsRatio,
		app.Dependents,
		app.CreatedAt,
	)
	if err != nil {
		// Intake requests can race between the existence check and the
		// insert; the primary key settles it.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: application %s already exists", ErrDuplicateApplication, app.ApplicationID)
		}
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

// GetApplication fetches one application by id.
func (s *Store) GetApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT application_id, full_name, age, address, region,
		       employment_status, net_income, obligations_ratio, dependents, created_at
		FROM applications
		WHERE application_id = $1`, applicationID)

	var app models.Application
	var netIncome, obligationsRatio sql.NullFloat64
	err := row.Scan(
		&app.ApplicationID,
		&app.FullName,
		&app.Age,
		&app.Address,
		&app.Region,
		&app.EmploymentStatus,
		&netIncome,
		&obligationsRatio,
		&app.Dependents,
		&app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	if netIncome.Valid {
		app.NetIncome = &netIncome.Float64
	}
	if obligationsRatio.Valid {
		app.ObligationsRatio = &obligationsRatio.Float64
	}
	return &app, nil
}

// CreateDocument inserts one uploaded document row.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, application_id, filename, content_type,
			size_bytes, extracted_text, preview, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID,
		doc.ApplicationID,
		doc.Filename,
		doc.ContentType,
		doc.SizeBytes,
		doc.ExtractedText,
		doc.Preview,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ListDocuments returns an application's documents in upload order.
func (s *Store) ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, filename, content_type,
		       size_bytes, extracted_text, preview, created_at
		FROM documents
		WHERE application_id = $1
		ORDER BY created_at, id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var doc models.Document
		var extractedText, preview sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.ApplicationID,
			&doc.Filename,
			&doc.ContentType,
			&doc.SizeBytes,
			&extractedText,
			&preview,
			&doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if extractedText.Valid {
			doc.ExtractedText = &extractedText.String
		}
		if preview.Valid {
			doc.Preview = &preview.String
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}

// AppendDecision records one more decision for an application. Decisions
// are append-only; existing rows are never updated.
func (s *Store) AppendDecision(ctx context.Context, decision *models.Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, application_id, status, label, probability, rationale, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		decision.ID,
		decision.ApplicationID,
		decision.Status,
		decision.Label,
		decision.Probability,
		decision.Rationale,
		decision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// LatestDecision returns the most recent decision for an application, or
// ErrDecisionNotFound when none has been recorded yet.
func (s *Store) LatestDecision(ctx context.Context, applicationID string) (*models.Decision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, status, label, probability, rationale, created_at
		FROM decisions
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, applicationID)

	var d models.Decision
	err := row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.Status,
		&d.Label,
		&d.Probability,
		&d.Rationale,
		&d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application %s", ErrDecisionNotFound, applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("latest decision: %w", err)
	}

	return &d, nil
}

// ListDecisions returns an application's full decision history, newest
// first.
func (s *Store) ListDecisions(ctx context.Context, applicationID string) ([]models.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, status, label, probability, rationale, created_at
		FROM decisions
		WHERE application_id = $1
		ORDER BY created_at DESC`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]models.Decision, 0)
	for rows.Next() {
		var d models.Decision
		if err := rows.Scan(
			&d.ID,
			&d.ApplicationID,
			&d.Status,
			&d.Label,
			&d.Probability,
			&d.Rationale,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	return decisions, nil
}

// GetBundle loads the application, its documents, and its latest decision
// in one call. A missing decision is normal for fresh applications and
// leaves Decision nil; a missing application is an error.
func (s *Store) GetBundle(ctx context.Context, applicationID string) (*models.ApplicationBundle, error) {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	docs, err := s.ListDocuments(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	decision, err := s.LatestDecision(ctx, applicationID)
	if err != nil && !errors.Is(err, ErrDecisionNotFound) {
		return nil, err
	}

	return &models.ApplicationBundle{
		Application: app,
		Documents:   docs,
		Decision:    decision,
	}, nil
}
