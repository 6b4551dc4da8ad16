// internal/workers/application/create-application-record/validation.go
package createapplicationrecord

import "loanflow-workers/internal/common/validation"

// GetInputSchema describes the intake payload. Identity fields are mandatory;
// the age bounds here are sanity limits only, the 18..100 policy belongs to
// the validation engine so out-of-policy applications still reach a decision.
// AdditionalProperties stays open because job variables carry process-scoped
// state beyond the intake fields.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"applicationId", "fullName", "age", "address"},
		Properties: map[string]validation.Property{
			"applicationId": {
				Type:        "string",
				Description: "Caller-supplied unique application identifier",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(64),
			},
			"fullName": {
				Type:        "string",
				Description: "Applicant full name",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(200),
			},
			"age": {
				Type:        "integer",
				Description: "Applicant age in years",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(130),
			},
			"address": {
				Type:        "string",
				Description: "Postal address",
				MaxLength:   intPtr(500),
			},
			"region": {
				Type:        "string",
				Description: "Region or state code",
				MaxLength:   intPtr(100),
			},
			"employmentStatus": {
				Type:        "string",
				Description: "Employment status, free-form",
				MaxLength:   intPtr(100),
			},
			"netIncome": {
				Type:        "number",
				Description: "Monthly net income",
				Minimum:     floatPtr(0),
			},
			"obligationsRatio": {
				Type:        "number",
				Description: "Monthly obligations as a fraction of income",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(1),
			},
			"dependents": {
				Type:        "integer",
				Description: "Number of dependents",
				Minimum:     floatPtr(0),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
