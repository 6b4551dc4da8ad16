// internal/eligibility/features.go
package eligibility

import "loanflow-workers/internal/models"

// FeatureCount is the width of the scorer input vector.
const FeatureCount = 6

// Features flattens an application and its documents into the fixed-order
// vector the scorer consumes: age, monthly income, obligations ratio,
// dependents, document count, average extracted-text length. Artifact
// weights are positional, so this order is part of the model contract.
// Missing optional fields contribute 0.
func Features(app *models.Application, docs []models.Document) []float64 {
	var income, ratio float64
	if app.NetIncome != nil {
		income = *app.NetIncome
	}
	if app.ObligationsRatio != nil {
		ratio = *app.ObligationsRatio
	}

	var avgTextLen float64
	if len(docs) > 0 {
		total := 0
		for _, d := range docs {
			if d.ExtractedText != nil {
				total += len(*d.ExtractedText)
			}
		}
		avgTextLen = float64(total) / float64(len(docs))
	}

	return []float64{
		float64(app.Age),
		income,
		ratio,
		float64(app.Dependents),
		float64(len(docs)),
		avgTextLen,
	}
}
