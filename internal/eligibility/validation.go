// internal/eligibility/validation.go
package eligibility

import (
	"strings"

	"loanflow-workers/internal/models"
)

// Screening policy bounds. Values outside these ranges block an application
// outright instead of lowering its score.
const (
	MinNameLength    = 3
	MinAddressLength = 3
	MinAge           = 18
	MaxAge           = 100
	MinMonthlyIncome = 2500.0
)

// Check tags emitted by Validate. Recommendation rules and BPMN gateways
// match on these exact strings.
const (
	CheckFullNamePresent       = "full_name_present"
	CheckFullNameMissing       = "full_name_missing"
	CheckAgeValid              = "age_valid"
	CheckAgeInvalid            = "age_invalid"
	CheckAddressPresent        = "address_present"
	CheckAddressMissing        = "address_missing"
	CheckIncomeMissing         = "income_missing"
	CheckIncomeBelowThreshold  = "income_below_min_threshold"
	CheckIncomeMeetsThreshold  = "income_meets_min_threshold"
	CheckObligationsInRange    = "obligations_ratio_in_range"
	CheckObligationsOutOfRange = "obligations_ratio_out_of_range"
	CheckRequiredDocsPresent   = "required_documents_present"
)

// DocCheckPrefix marks document-sufficiency failures in FailChecks so they
// stay distinguishable from field-level tags.
const DocCheckPrefix = "doc_check: "

// Document failure reasons shown to applicants.
const (
	ReasonNoDocuments     = "No documents uploaded."
	ReasonNoBankStatement = "Missing or unreadable bank statement."
	ReasonNoIncomeProof   = "Missing or unreadable income proof (salary/payslip)."
)

// Keyword groups used to recognize required document categories in
// extracted text. Matching is case-insensitive substring search.
var (
	bankStatementKeywords = []string{"statement", "bank"}
	incomeProofKeywords   = []string{"salary", "payslip", "income"}
)

// Validate runs every screening rule against an application and its
// documents. Rules are independent: each contributes exactly one tag (the
// obligations rule only when a ratio was supplied), appended in fixed rule
// order, so repeated runs over the same inputs produce identical results.
func Validate(app *models.Application, docs []models.Document) *models.ValidationResult {
	result := &models.ValidationResult{
		PassChecks: []string{},
		WarnChecks: []string{},
		FailChecks: []string{},
	}

	if len(app.FullName) >= MinNameLength {
		result.PassChecks = append(result.PassChecks, CheckFullNamePresent)
	} else {
		result.FailChecks = append(result.FailChecks, CheckFullNameMissing)
	}

	if app.Age >= MinAge && app.Age <= MaxAge {
		result.PassChecks = append(result.PassChecks, CheckAgeValid)
	} else {
		result.FailChecks = append(result.FailChecks, CheckAgeInvalid)
	}

	if len(app.Address) >= MinAddressLength {
		result.PassChecks = append(result.PassChecks, CheckAddressPresent)
	} else {
		result.FailChecks = append(result.FailChecks, CheckAddressMissing)
	}

	switch {
	case app.NetIncome == nil:
		result.WarnChecks = append(result.WarnChecks, CheckIncomeMissing)
	case *app.NetIncome < MinMonthlyIncome:
		result.FailChecks = append(result.FailChecks, CheckIncomeBelowThreshold)
	default:
		result.PassChecks = append(result.PassChecks, CheckIncomeMeetsThreshold)
	}

	if app.ObligationsRatio != nil {
		if r := *app.ObligationsRatio; r >= 0 && r <= 1 {
			result.PassChecks = append(result.PassChecks, CheckObligationsInRange)
		} else {
			result.FailChecks = append(result.FailChecks, CheckObligationsOutOfRange)
		}
	}

	if reasons := missingDocumentReasons(docs); len(reasons) == 0 {
		result.PassChecks = append(result.PassChecks, CheckRequiredDocsPresent)
	} else {
		for _, r := range reasons {
			result.FailChecks = append(result.FailChecks, DocCheckPrefix+r)
		}
	}

	return result
}

// HasDocumentWith reports whether any document's extracted text contains at
// least one of the given keywords, case-insensitively. Documents without
// extracted text never match.
func HasDocumentWith(docs []models.Document, keywords ...string) bool {
	for _, d := range docs {
		if d.ExtractedText == nil {
			continue
		}
		text := strings.ToLower(*d.ExtractedText)
		for _, k := range keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
	}
	return false
}

// missingDocumentReasons returns one reason per unsatisfied document
// requirement. An application with no documents at all gets the single
// no-documents reason; category checks are skipped in that case.
func missingDocumentReasons(docs []models.Document) []string {
	if len(docs) == 0 {
		return []string{ReasonNoDocuments}
	}

	var reasons []string
	if !HasDocumentWith(docs, bankStatementKeywords...) {
		reasons = append(reasons, ReasonNoBankStatement)
	}
	if !HasDocumentWith(docs, incomeProofKeywords...) {
		reasons = append(reasons, ReasonNoIncomeProof)
	}
	return reasons
}
