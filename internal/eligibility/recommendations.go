// internal/eligibility/recommendations.go
package eligibility

import (
	"strings"

	"loanflow-workers/internal/models"
)

// Nudge thresholds for the supportive suggestions on the non-blocked path.
const (
	fastTrackProbability   = 0.75
	comfortableIncomeFloor = 3000.0
	highObligationsRatio   = 0.5
)

// Recommend produces the ordered next-step list for an applicant after an
// eligibility run. The list is never empty. Validation blockers take
// precedence: when present, only remediation guidance is returned and the
// outcome-based suggestions are skipped entirely.
func Recommend(app *models.Application, docs []models.Document, validation *models.ValidationResult, label string, probability float64) []string {
	recs := []string{}

	if validation.HasFailures() {
		if anyCheckContains(validation.FailChecks, "bank statement") {
			recs = append(recs, "Upload a recent bank statement (last 3 months).")
		}
		if anyCheckContains(validation.FailChecks, "income proof") {
			recs = append(recs, "Upload income proof (salary slip / employment letter).")
		}
		if hasCheck(validation.FailChecks, CheckIncomeBelowThreshold) {
			recs = append(recs, "Consider adding a co-applicant or increasing declared income.")
		}
		if hasCheck(validation.FailChecks, CheckAgeInvalid) {
			recs = append(recs, "Not eligible due to age policy; reapply when policy criteria are met.")
		}
		recs = append(recs,
			"Ensure documents are clear, full-page scans (avoid photos/crops).",
			"Re-submit after fixing the above validation issues.",
		)
		return recs
	}

	if len(validation.WarnChecks) > 0 {
		recs = append(recs, "Some checks raised warnings — verify all details before final submit.")
	}

	if !HasDocumentWith(docs, bankStatementKeywords...) {
		recs = append(recs, "Optionally attach a bank statement to speed up manual review.")
	}
	if !HasDocumentWith(docs, incomeProofKeywords...) {
		recs = append(recs, "Optionally attach a payslip/income proof to strengthen the application.")
	}

	if app.ObligationsRatio != nil && *app.ObligationsRatio > highObligationsRatio {
		recs = append(recs, "Consider debt consolidation or lowering existing obligations.")
	}
	var income float64
	if app.NetIncome != nil {
		income = *app.NetIncome
	}
	if income < comfortableIncomeFloor {
		recs = append(recs, "Explore budgeting resources and income-boost programs.")
	}

	switch {
	case label == models.LabelApprove && probability >= fastTrackProbability:
		recs = append(recs, "Fast-track onboarding — all signals look strong.")
	case label == models.LabelApprove:
		recs = append(recs, "Proceed to onboarding; underwriting may request one more document.")
	case label == models.LabelReview:
		recs = append(recs, "Manual review recommended — add any missing docs to accelerate.")
	default:
		recs = append(recs, "Follow up with support for the next steps.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Proceed to next onboarding step.")
	}

	return recs
}

func hasCheck(checks []string, want string) bool {
	for _, c := range checks {
		if c == want {
			return true
		}
	}
	return false
}

func anyCheckContains(checks []string, sub string) bool {
	for _, c := range checks {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}
