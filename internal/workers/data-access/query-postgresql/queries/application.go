// internal/workers/data-access/query-postgresql/queries/application.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

func ApplicationByID(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["applicationId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, fullName, address, region, employmentStatus, createdAt string
	var age, dependents int
	var netIncome, obligationsRatio sql.NullFloat64

	err := db.QueryRowContext(ctx, `
		SELECT application_id, full_name, age, address, region,
		       employment_status, net_income, obligations_ratio, dependents, created_at
		FROM applications
		WHERE application_id = $1`, applicationID).Scan(
		&id, &fullName, &age, &address, &region,
		&employmentStatus, &netIncome, &obligationsRatio, &dependents, &createdAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"applicationId":    id,
		"fullName":         fullName,
		"age":              age,
		"address":          address,
		"region":           region,
		"employmentStatus": employmentStatus,
		"dependents":       dependents,
		"createdAt":        createdAt,
	}
	if netIncome.Valid {
		result["netIncome"] = netIncome.Float64
	}
	if obligationsRatio.Valid {
		result["obligationsRatio"] = obligationsRatio.Float64
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func ApplicationsByRegion(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	region, ok := params["region"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	// JSON numbers arrive as float64.
	limit := 50
	if filters, ok := params["filters"].(map[string]interface{}); ok {
		if v, ok := filters["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT application_id, full_name, age, region, employment_status, created_at
		FROM applications
		WHERE region = $1
		ORDER BY created_at DESC
		LIMIT $2`, region, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var applicationID, fullName, appRegion, employmentStatus, createdAt string
		var age int
		err := rows.Scan(&applicationID, &fullName, &age, &appRegion, &employmentStatus, &createdAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"applicationId":    applicationID,
			"fullName":         fullName,
			"age":              age,
			"region":           appRegion,
			"employmentStatus": employmentStatus,
			"createdAt":        createdAt,
		})
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func DocumentsForApplication(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["applicationId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, application_id, filename, content_type, size_bytes, preview, created_at
		FROM documents
		WHERE application_id = $1
		ORDER BY created_at, id`, applicationID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, appID, filename, contentType, createdAt string
		var sizeBytes int64
		var preview sql.NullString
		err := rows.Scan(&id, &appID, &filename, &contentType, &sizeBytes, &preview, &createdAt)
		if err != nil {
			return nil, 0, 0, err
		}
		entry := map[string]interface{}{
			"documentId":    id,
			"applicationId": appID,
			"filename":      filename,
			"contentType":   contentType,
			"sizeBytes":     sizeBytes,
			"createdAt":     createdAt,
		}
		if preview.Valid {
			entry["preview"] = preview.String
		}
		results = append(results, entry)
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
