// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "loanflow-workers/internal/models"

type Input struct {
	QueryType     string                 `json:"queryType"`
	ApplicationID string                 `json:"applicationId,omitempty"`
	Region        string                 `json:"region,omitempty"`
	Filters       map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

// Export constants for external use
var (
	QueryTypeApplicationByID       = models.QueryTypeApplicationByID
	QueryTypeApplicationsByRegion  = models.QueryTypeApplicationsByRegion
	QueryTypeDocumentsForApp       = models.QueryTypeDocumentsForApp
	QueryTypeDecisionsForApp       = models.QueryTypeDecisionsForApp
	QueryTypeLatestDecision        = models.QueryTypeLatestDecision
	QueryTypeDecisionCountsByLabel = models.QueryTypeDecisionCountsByLabel
)
