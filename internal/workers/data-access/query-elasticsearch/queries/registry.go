// internal/workers/data-access/query-elasticsearch/queries/registry.go
package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

type QueryResult struct {
	Data      []map[string]interface{}
	TotalHits int64
	MaxScore  float64
	Took      int64
}

func Execute(ctx context.Context, esClient *elasticsearch.Client, input map[string]interface{}) (*QueryResult, error) {
	eq := ElasticsearchQuery{
		Pagination: struct{ From, Size int }{0, 20},
	}
	eq.Index, _ = input["indexName"].(string)
	eq.QueryType, _ = input["queryType"].(string)
	eq.Filters, _ = input["filters"].(map[string]interface{})
	if eq.Filters == nil {
		eq.Filters = map[string]interface{}{}
	}

	if applicationID, ok := input["applicationId"].(string); ok {
		eq.ApplicationID = applicationID
	}
	if documentID, ok := input["documentId"].(string); ok {
		eq.DocumentID = documentID
	}
	if from, ok := input["from"].(int); ok && from > 0 {
		eq.Pagination.From = from
	}
	if size, ok := input["size"].(int); ok && size != 0 {
		eq.Pagination.Size = size
		if eq.Pagination.Size > 100 {
			eq.Pagination.Size = 100
		}
		if eq.Pagination.Size < 1 {
			eq.Pagination.Size = 20
		}
	}

	req, err := BuildQuery(esClient, eq)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, eq.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	hitsWrapper, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response shape")
	}

	var totalHits int64
	if total, ok := hitsWrapper["total"].(map[string]interface{}); ok {
		if value, ok := total["value"].(float64); ok {
			totalHits = int64(value)
		}
	}
	maxScore := 0.0
	if ms, ok := hitsWrapper["max_score"].(float64); ok {
		maxScore = ms
	}

	var data []map[string]interface{}
	if entries, ok := hitsWrapper["hits"].([]interface{}); ok {
		for _, entry := range entries {
			hitMap, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			source, ok := hitMap["_source"].(map[string]interface{})
			if !ok {
				continue
			}
			// The stored source has no id of its own; carry the ES id along
			// so callers can reference the matched document.
			if id, ok := hitMap["_id"].(string); ok {
				source["documentId"] = id
			}
			if score, ok := hitMap["_score"].(float64); ok {
				source["score"] = score
			}
			data = append(data, source)
		}
	}

	return &QueryResult{
		Data:      data,
		TotalHits: totalHits,
		MaxScore:  maxScore,
		Took:      time.Since(start).Milliseconds(),
	}, nil
}
