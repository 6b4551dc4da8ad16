// internal/eligibility/validation_test.go
package eligibility

import (
	"testing"

	"loanflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func floatPtr(v float64) *float64 {
	return &v
}

func textPtr(s string) *string {
	return &s
}

func createValidApplication() *models.Application {
	return &models.Application{
		ApplicationID:    "APP-1001",
		FullName:         "Jane Cooper",
		Age:              34,
		Address:          "14 Harbor Lane, Rotterdam",
		NetIncome:        floatPtr(4200),
		ObligationsRatio: floatPtr(0.25),
		Dependents:       1,
	}
}

func createCompleteDocuments() []models.Document {
	return []models.Document{
		{
			ID:            "doc-1",
			ApplicationID: "APP-1001",
			Filename:      "bank-june.pdf",
			ContentType:   "application/pdf",
			SizeBytes:     20480,
			ExtractedText: textPtr("ACME Bank statement for June. Closing balance 5,400."),
		},
		{
			ID:            "doc-2",
			ApplicationID: "APP-1001",
			Filename:      "payslip-june.pdf",
			ContentType:   "application/pdf",
			SizeBytes:     10240,
			ExtractedText: textPtr("Monthly payslip. Net salary paid: 4,200."),
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestValidate_AllChecksPass(t *testing.T) {
	result := Validate(createValidApplication(), createCompleteDocuments())

	assert.Equal(t, []string{
		CheckFullNamePresent,
		CheckAgeValid,
		CheckAddressPresent,
		CheckIncomeMeetsThreshold,
		CheckObligationsInRange,
		CheckRequiredDocsPresent,
	}, result.PassChecks)
	assert.Empty(t, result.WarnChecks)
	assert.Empty(t, result.FailChecks)
	assert.False(t, result.HasFailures())
}

func TestValidate_FieldChecks(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(app *models.Application)
		wantFail []string
		wantWarn []string
	}{
		{
			name:     "empty full name",
			mutate:   func(app *models.Application) { app.FullName = "" },
			wantFail: []string{CheckFullNameMissing},
		},
		{
			name:     "full name below minimum length",
			mutate:   func(app *models.Application) { app.FullName = "Jo" },
			wantFail: []string{CheckFullNameMissing},
		},
		{
			name:     "age below policy minimum",
			mutate:   func(app *models.Application) { app.Age = 17 },
			wantFail: []string{CheckAgeInvalid},
		},
		{
			name:     "age above policy maximum",
			mutate:   func(app *models.Application) { app.Age = 101 },
			wantFail: []string{CheckAgeInvalid},
		},
		{
			name:     "age missing",
			mutate:   func(app *models.Application) { app.Age = 0 },
			wantFail: []string{CheckAgeInvalid},
		},
		{
			name:     "address too short",
			mutate:   func(app *models.Application) { app.Address = "NL" },
			wantFail: []string{CheckAddressMissing},
		},
		{
			name:     "income below threshold",
			mutate:   func(app *models.Application) { app.NetIncome = floatPtr(2499.99) },
			wantFail: []string{CheckIncomeBelowThreshold},
		},
		{
			name:     "income missing warns only",
			mutate:   func(app *models.Application) { app.NetIncome = nil },
			wantWarn: []string{CheckIncomeMissing},
		},
		{
			name:     "obligations ratio above one",
			mutate:   func(app *models.Application) { app.ObligationsRatio = floatPtr(1.2) },
			wantFail: []string{CheckObligationsOutOfRange},
		},
		{
			name:     "obligations ratio negative",
			mutate:   func(app *models.Application) { app.ObligationsRatio = floatPtr(-0.1) },
			wantFail: []string{CheckObligationsOutOfRange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := createValidApplication()
			tt.mutate(app)

			result := Validate(app, createCompleteDocuments())

			if tt.wantFail != nil {
				assert.Equal(t, tt.wantFail, result.FailChecks)
			} else {
				assert.Empty(t, result.FailChecks)
			}
			if tt.wantWarn != nil {
				assert.Equal(t, tt.wantWarn, result.WarnChecks)
			} else {
				assert.Empty(t, result.WarnChecks)
			}
		})
	}
}

func TestValidate_BoundaryValues(t *testing.T) {
	app := createValidApplication()
	app.Age = MinAge
	app.NetIncome = floatPtr(MinMonthlyIncome)
	app.ObligationsRatio = floatPtr(0)

	result := Validate(app, createCompleteDocuments())
	assert.False(t, result.HasFailures())

	app.Age = MaxAge
	app.ObligationsRatio = floatPtr(1)

	result = Validate(app, createCompleteDocuments())
	assert.False(t, result.HasFailures())
}

func TestValidate_ObligationsRatioOptional(t *testing.T) {
	app := createValidApplication()
	app.ObligationsRatio = nil

	result := Validate(app, createCompleteDocuments())

	assert.NotContains(t, result.PassChecks, CheckObligationsInRange)
	assert.NotContains(t, result.FailChecks, CheckObligationsOutOfRange)
	assert.False(t, result.HasFailures())
}

// ==========================
// Document Check Tests
// ==========================

func TestValidate_DocumentChecks(t *testing.T) {
	tests := []struct {
		name     string
		docs     []models.Document
		wantFail []string
	}{
		{
			name:     "no documents",
			docs:     nil,
			wantFail: []string{DocCheckPrefix + ReasonNoDocuments},
		},
		{
			name: "bank statement only",
			docs: []models.Document{
				{ID: "doc-1", ExtractedText: textPtr("bank statement for June")},
			},
			wantFail: []string{DocCheckPrefix + ReasonNoIncomeProof},
		},
		{
			name: "income proof only",
			docs: []models.Document{
				{ID: "doc-2", ExtractedText: textPtr("monthly payslip, net pay 4200")},
			},
			wantFail: []string{DocCheckPrefix + ReasonNoBankStatement},
		},
		{
			name: "documents without required keywords",
			docs: []models.Document{
				{ID: "doc-3", ExtractedText: textPtr("utility bill for the apartment")},
			},
			wantFail: []string{
				DocCheckPrefix + ReasonNoBankStatement,
				DocCheckPrefix + ReasonNoIncomeProof,
			},
		},
		{
			name: "document with no extracted text never matches",
			docs: []models.Document{
				{ID: "doc-4", Filename: "bank-statement.pdf", ExtractedText: nil},
			},
			wantFail: []string{
				DocCheckPrefix + ReasonNoBankStatement,
				DocCheckPrefix + ReasonNoIncomeProof,
			},
		},
		{
			name: "keyword match is case-insensitive",
			docs: []models.Document{
				{ID: "doc-5", ExtractedText: textPtr("BANK STATEMENT")},
				{ID: "doc-6", ExtractedText: textPtr("SALARY SLIP")},
			},
			wantFail: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(createValidApplication(), tt.docs)

			if tt.wantFail == nil {
				assert.Empty(t, result.FailChecks)
				assert.Contains(t, result.PassChecks, CheckRequiredDocsPresent)
			} else {
				assert.Equal(t, tt.wantFail, result.FailChecks)
				assert.NotContains(t, result.PassChecks, CheckRequiredDocsPresent)
			}
		})
	}
}

func TestValidate_IndependentRules(t *testing.T) {
	// Every rule reports its own tag even when earlier rules already failed.
	app := &models.Application{
		ApplicationID: "APP-1002",
		FullName:      "",
		Age:           15,
		Address:       "",
		NetIncome:     floatPtr(1000),
	}

	result := Validate(app, nil)

	assert.Equal(t, []string{
		CheckFullNameMissing,
		CheckAgeInvalid,
		CheckAddressMissing,
		CheckIncomeBelowThreshold,
		DocCheckPrefix + ReasonNoDocuments,
	}, result.FailChecks)
	assert.Empty(t, result.PassChecks)
}

func TestValidate_Deterministic(t *testing.T) {
	app := createValidApplication()
	docs := createCompleteDocuments()

	first := Validate(app, docs)
	second := Validate(app, docs)

	assert.Equal(t, first, second)
}

func TestHasDocumentWith(t *testing.T) {
	docs := []models.Document{
		{ID: "doc-1", ExtractedText: textPtr("Quarterly Bank Statement")},
		{ID: "doc-2", ExtractedText: nil},
	}

	assert.True(t, HasDocumentWith(docs, "statement", "bank"))
	assert.True(t, HasDocumentWith(docs, "quarterly"))
	assert.False(t, HasDocumentWith(docs, "payslip", "salary"))
	assert.False(t, HasDocumentWith(nil, "bank"))
}
