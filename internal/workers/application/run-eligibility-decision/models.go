// internal/workers/application/run-eligibility-decision/models.go
package runeligibilitydecision

import "loanflow-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	DecisionID      string                   `json:"decisionId"`
	ApplicationID   string                   `json:"applicationId"`
	Status          string                   `json:"status"`
	Label           string                   `json:"label"`
	Probability     float64                  `json:"probability"`
	Reasons         []string                 `json:"reasons"`
	Rationale       string                   `json:"rationale"`
	Validation      *models.ValidationResult `json:"validation"`
	Recommendations []string                 `json:"recommendations"`
}
