// internal/workers/application/validate-application-data/models.go
package validateapplicationdata

import "loanflow-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	IsValid    bool                     `json:"isValid"`
	Validation *models.ValidationResult `json:"validation"`
}
