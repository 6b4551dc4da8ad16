// internal/eligibility/decision.go
package eligibility

import (
	"math"

	"loanflow-workers/internal/models"
)

// Probability policy for the decision composer.
const (
	// SoftDeclineProbability is reported when validation blocks an
	// application and the scorer is never consulted.
	SoftDeclineProbability = 0.35
	// FallbackProbability stands in when the scorer is unavailable.
	FallbackProbability = 0.7
	// ApproveThreshold splits approve from review on the scored path.
	ApproveThreshold = 0.5
)

// Rationale sentences recorded on the decision row, one per path.
const (
	RationaleValidationOnly = "Validation failed; baseline scorer not invoked."
	RationaleScored         = "Validation + baseline ML scorer."
)

// Reason lines reported alongside the decision.
const (
	ReasonValidationFailed = "Validation failed"
	ReasonBaselineScorer   = "Baseline ML scorer"
)

// Outcome is the full result of one eligibility run, computed before any
// persistence happens.
type Outcome struct {
	Status      string                   `json:"status"`
	Label       string                   `json:"label"`
	Probability float64                  `json:"probability"`
	Reasons     []string                 `json:"reasons"`
	Rationale   string                   `json:"rationale"`
	Validation  *models.ValidationResult `json:"validation"`
}

// Decide runs validation and, when it passes, the scorer, and composes the
// decision. Any validation failure short-circuits to a soft decline without
// consulting the scorer; a nil or unavailable scorer falls back to the
// policy probability. The same inputs always produce the same outcome.
func Decide(app *models.Application, docs []models.Document, scorer Scorer) *Outcome {
	validation := Validate(app, docs)

	if validation.HasFailures() {
		return &Outcome{
			Status:      models.StatusSoftDecline,
			Label:       models.LabelSoftDecline,
			Probability: SoftDeclineProbability,
			Reasons:     []string{ReasonValidationFailed},
			Rationale:   RationaleValidationOnly,
			Validation:  validation,
		}
	}

	probability := FallbackProbability
	if scorer != nil {
		if p, ok := scorer.Score(app, docs); ok {
			probability = p
		}
	}

	label := models.LabelReview
	status := models.StatusManualReview
	if probability >= ApproveThreshold {
		label = models.LabelApprove
		status = models.StatusApprove
	}

	return &Outcome{
		Status:      status,
		Label:       label,
		Probability: round3(probability),
		Reasons:     []string{ReasonBaselineScorer},
		Rationale:   RationaleScored,
		Validation:  validation,
	}
}

func round3(p float64) float64 {
	return math.Round(p*1000) / 1000
}
