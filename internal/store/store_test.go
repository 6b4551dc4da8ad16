// internal/store/store_test.go
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"loanflow-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func floatPtr(v float64) *float64 {
	return &v
}

func textPtr(s string) *string {
	return &s
}

func sampleApplication(now time.Time) *models.Application {
	return &models.Application{
		ApplicationID:    "APP-1001",
		FullName:         "Jane Cooper",
		Age:              34,
		Address:          "14 Harbor Lane, Rotterdam",
		Region:           "ZH",
		EmploymentStatus: "employed",
		NetIncome:        floatPtr(4200),
		ObligationsRatio: floatPtr(0.25),
		Dependents:       1,
		CreatedAt:        now,
	}
}

// ==========================
// Application Tests
// ==========================

func TestStore_CreateApplication(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	app := sampleApplication(now)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(app.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO applications").
		WithArgs(app.ApplicationID, app.FullName, app.Age, app.Address, app.Region,
			app.EmploymentStatus, 4200.0, 0.25, app.Dependents, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateApplication(context.Background(), app)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateApplication_Duplicate(t *testing.T) {
	s, mock := newMockStore(t)
	app := sampleApplication(time.Now().UTC())

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(app.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := s.CreateApplication(context.Background(), app)

	assert.ErrorIs(t, err, ErrDuplicateApplication)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateApplication_DuplicateRace(t *testing.T) {
	// The existence check can pass and the insert still collide; the unique
	// violation must map to the same sentinel.
	s, mock := newMockStore(t)
	app := sampleApplication(time.Now().UTC())

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(app.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateApplication(context.Background(), app)

	assert.ErrorIs(t, err, ErrDuplicateApplication)
}

func TestStore_GetApplication(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"application_id", "full_name", "age", "address", "region",
		"employment_status", "net_income", "obligations_ratio", "dependents", "created_at",
	}).AddRow("APP-1001", "Jane Cooper", 34, "14 Harbor Lane, Rotterdam", "ZH",
		"employed", 4200.0, 0.25, 1, now)

	mock.ExpectQuery("SELECT (.+) FROM applications").
		WithArgs("APP-1001").
		WillReturnRows(rows)

	app, err := s.GetApplication(context.Background(), "APP-1001")

	require.NoError(t, err)
	assert.Equal(t, "Jane Cooper", app.FullName)
	require.NotNil(t, app.NetIncome)
	assert.Equal(t, 4200.0, *app.NetIncome)
	require.NotNil(t, app.ObligationsRatio)
	assert.Equal(t, 0.25, *app.ObligationsRatio)
}

func TestStore_GetApplication_NullOptionalFields(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"application_id", "full_name", "age", "address", "region",
		"employment_status", "net_income", "obligations_ratio", "dependents", "created_at",
	}).AddRow("APP-1002", "Sam Verity", 29, "8 Mill Road", "", "", nil, nil, 0, time.Now().UTC())

	mock.ExpectQuery("SELECT (.+) FROM applications").
		WithArgs("APP-1002").
		WillReturnRows(rows)

	app, err := s.GetApplication(context.Background(), "APP-1002")

	require.NoError(t, err)
	assert.Nil(t, app.NetIncome)
	assert.Nil(t, app.ObligationsRatio)
}

func TestStore_GetApplication_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM applications").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	app, err := s.GetApplication(context.Background(), "missing")

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

// ==========================
// Document Tests
// ==========================

func TestStore_CreateDocument(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	doc := &models.Document{
		ID:            "d1b0c9ce-0000-0000-0000-000000000001",
		ApplicationID: "APP-1001",
		Filename:      "bank-june.txt",
		ContentType:   "text/plain",
		SizeBytes:     2048,
		ExtractedText: textPtr("bank statement"),
		Preview:       textPtr("bank statement"),
		CreatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.ApplicationID, doc.Filename, doc.ContentType,
			doc.SizeBytes, "bank statement", "bank statement", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateDocument(context.Background(), doc)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListDocuments(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "application_id", "filename", "content_type",
		"size_bytes", "extracted_text", "preview", "created_at",
	}).
		AddRow("doc-1", "APP-1001", "bank.txt", "text/plain", int64(100), "bank statement", "bank statement", now).
		AddRow("doc-2", "APP-1001", "scan.pdf", "application/pdf", int64(900), nil, nil, now)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("APP-1001").
		WillReturnRows(rows)

	docs, err := s.ListDocuments(context.Background(), "APP-1001")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.NotNil(t, docs[0].ExtractedText)
	assert.Equal(t, "bank statement", *docs[0].ExtractedText)
	assert.Nil(t, docs[1].ExtractedText)
	assert.Nil(t, docs[1].Preview)
}

func TestStore_ListDocuments_Empty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("APP-2000").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "filename", "content_type",
			"size_bytes", "extracted_text", "preview", "created_at",
		}))

	docs, err := s.ListDocuments(context.Background(), "APP-2000")

	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NotNil(t, docs)
}

// ==========================
// Decision Tests
// ==========================

func TestStore_AppendDecision(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	decision := &models.Decision{
		ID:            "dec-1",
		ApplicationID: "APP-1001",
		Status:        models.StatusApprove,
		Label:         models.LabelApprove,
		Probability:   0.91,
		Rationale:     "Validation + baseline ML scorer.",
		CreatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO decisions").
		WithArgs(decision.ID, decision.ApplicationID, decision.Status,
			decision.Label, decision.Probability, decision.Rationale, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AppendDecision(context.Background(), decision)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LatestDecision(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "application_id", "status", "label", "probability", "rationale", "created_at",
	}).AddRow("dec-2", "APP-1001", models.StatusManualReview, models.LabelReview, 0.42,
		"Validation + baseline ML scorer.", now)

	mock.ExpectQuery("SELECT (.+) FROM decisions").
		WithArgs("APP-1001").
		WillReturnRows(rows)

	decision, err := s.LatestDecision(context.Background(), "APP-1001")

	require.NoError(t, err)
	assert.Equal(t, models.LabelReview, decision.Label)
	assert.Equal(t, 0.42, decision.Probability)
}

func TestStore_LatestDecision_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM decisions").
		WithArgs("APP-1001").
		WillReturnError(sql.ErrNoRows)

	decision, err := s.LatestDecision(context.Background(), "APP-1001")

	assert.Nil(t, decision)
	assert.ErrorIs(t, err, ErrDecisionNotFound)
}

func TestStore_ListDecisions(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "application_id", "status", "label", "probability", "rationale", "created_at",
	}).
		AddRow("dec-2", "APP-1001", models.StatusApprove, models.LabelApprove, 0.91, "Validation + baseline ML scorer.", now).
		AddRow("dec-1", "APP-1001", models.StatusSoftDecline, models.LabelSoftDecline, 0.35, "Validation failed; baseline scorer not invoked.", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM decisions").
		WithArgs("APP-1001").
		WillReturnRows(rows)

	decisions, err := s.ListDecisions(context.Background(), "APP-1001")

	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, "dec-2", decisions[0].ID)
}

// ==========================
// Bundle Tests
// ==========================

func TestStore_GetBundle(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	appRows := sqlmock.NewRows([]string{
		"application_id", "full_name", "age", "address", "region",
		"employment_status", "net_income", "obligations_ratio", "dependents", "created_at",
	}).AddRow("APP-1001", "Jane Cooper", 34, "14 Harbor Lane", "ZH", "employed", 4200.0, 0.25, 1, now)
	mock.ExpectQuery("SELECT (.+) FROM applications").
		WithArgs("APP-1001").
		WillReturnRows(appRows)

	docRows := sqlmock.NewRows([]string{
		"id", "application_id", "filename", "content_type",
		"size_bytes", "extracted_text", "preview", "created_at",
	}).AddRow("doc-1", "APP-1001", "bank.txt", "text/plain", int64(100), "bank statement", "bank statement", now)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("APP-1001").
		WillReturnRows(docRows)

	decisionRows := sqlmock.NewRows([]string{
		"id", "application_id", "status", "label", "probability", "rationale", "created_at",
	}).AddRow("dec-1", "APP-1001", models.StatusApprove, models.LabelApprove, 0.91, "Validation + baseline ML scorer.", now)
	mock.ExpectQuery("SELECT (.+) FROM decisions").
		WithArgs("APP-1001").
		WillReturnRows(decisionRows)

	bundle, err := s.GetBundle(context.Background(), "APP-1001")

	require.NoError(t, err)
	assert.Equal(t, "Jane Cooper", bundle.Application.FullName)
	assert.Len(t, bundle.Documents, 1)
	require.NotNil(t, bundle.Decision)
	assert.Equal(t, models.LabelApprove, bundle.Decision.Label)
}

func TestStore_GetBundle_NoDecisionYet(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	appRows := sqlmock.NewRows([]string{
		"application_id", "full_name", "age", "address", "region",
		"employment_status", "net_income", "obligations_ratio", "dependents", "created_at",
	}).AddRow("APP-1001", "Jane Cooper", 34, "14 Harbor Lane", "ZH", "employed", 4200.0, 0.25, 1, now)
	mock.ExpectQuery("SELECT (.+) FROM applications").
		WithArgs("APP-1001").
		WillReturnRows(appRows)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("APP-1001").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "application_id", "filename", "content_type",
			"size_bytes", "extracted_text", "preview", "created_at",
		}))

	mock.ExpectQuery("SELECT (.+) FROM decisions").
		WithArgs("APP-1001").
		WillReturnError(sql.ErrNoRows)

	bundle, err := s.GetBundle(context.Background(), "APP-1001")

	require.NoError(t, err)
	assert.Nil(t, bundle.Decision)
	assert.Empty(t, bundle.Documents)
}

func TestStore_GetBundle_ApplicationMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM applications").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	bundle, err := s.GetBundle(context.Background(), "missing")

	assert.Nil(t, bundle)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}
