// internal/workers/data-access/query-postgresql/queries/decision.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

func DecisionsForApplication(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["applicationId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, application_id, status, label, probability, rationale, created_at
		FROM decisions
		WHERE application_id = $1
		ORDER BY created_at DESC`, applicationID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, appID, status, label, rationale, createdAt string
		var probability float64
		err := rows.Scan(&id, &appID, &status, &label, &probability, &rationale, &createdAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"decisionId":    id,
			"applicationId": appID,
			"status":        status,
			"label":         label,
			"probability":   probability,
			"rationale":     rationale,
			"createdAt":     createdAt,
		})
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func LatestDecision(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["applicationId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, appID, status, label, rationale, createdAt string
	var probability float64

	err := db.QueryRowContext(ctx, `
		SELECT id, application_id, status, label, probability, rationale, created_at
		FROM decisions
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, applicationID).Scan(
		&id, &appID, &status, &label, &probability, &rationale, &createdAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"decisionId":    id,
		"applicationId": appID,
		"status":        status,
		"label":         label,
		"probability":   probability,
		"rationale":     rationale,
		"createdAt":     createdAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func DecisionCountsByLabel(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT label, COUNT(*) AS total
		FROM decisions
		GROUP BY label
		ORDER BY label`)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var label string
		var total int
		err := rows.Scan(&label, &total)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"label": label,
			"total": total,
		})
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
