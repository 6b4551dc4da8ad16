// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeApplicationByID       QueryType = "application_by_id"
	QueryTypeApplicationsByRegion  QueryType = "applications_by_region"
	QueryTypeDocumentsForApp       QueryType = "documents_for_application"
	QueryTypeDecisionsForApp       QueryType = "decisions_for_application"
	QueryTypeLatestDecision        QueryType = "latest_decision"
	QueryTypeDecisionCountsByLabel QueryType = "decision_counts_by_label"
)
