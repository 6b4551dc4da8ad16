// internal/workers/data-access/query-elasticsearch/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrIndexNotFound    = errors.New("index not found")
	ErrConnectionFailed = errors.New("elasticsearch unreachable")
)

// ElasticsearchQuery defines the structure of a query request
type ElasticsearchQuery struct {
	Index         string
	QueryType     string
	Filters       map[string]interface{}
	ApplicationID string
	DocumentID    string
	Pagination    struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, eq ElasticsearchQuery) (*esapi.SearchRequest, error) {
	if eq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch eq.QueryType {
	case "documents_fulltext":
		queryBody = buildDocumentSearchQuery(eq)
	case "related_documents":
		queryBody = buildRelatedDocumentsQuery(eq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, eq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index:  []string{eq.Index},
		Body:   strings.NewReader(string(body)),
		From:   &eq.Pagination.From,
		Size:   &eq.Pagination.Size,
		Pretty: true,
	}

	return &req, nil
}

// buildDocumentSearchQuery builds the main document search query dynamically.
// Field names follow what the ingest worker indexes: extractedText carries the
// body of the document, filename the upload name.
func buildDocumentSearchQuery(eq ElasticsearchQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Keyword search
	if keywords, ok := eq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"extractedText^3", "filename"},
				"type":   "best_fields",
			},
		})
	}

	// Application scope
	if applicationID, ok := eq.Filters["applicationId"].(string); ok && applicationID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"applicationId.keyword": applicationID},
		})
	} else if eq.ApplicationID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"applicationId.keyword": eq.ApplicationID},
		})
	}

	// Content type filter
	if contentType, ok := eq.Filters["contentType"].(string); ok && contentType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"contentType.keyword": contentType},
		})
	}

	// Size range filter, bounds optional
	if sizeRange, ok := eq.Filters["sizeRange"].(map[string]interface{}); ok {
		bounds := make(map[string]interface{})
		if min, ok := toFloat(sizeRange["min"]); ok && min > 0 {
			bounds["gte"] = min
		}
		if max, ok := toFloat(sizeRange["max"]); ok && max > 0 {
			bounds["lte"] = max
		}
		if len(bounds) > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{"sizeBytes": bounds},
			})
		}
	}

	// Default match_all if no keyword
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	// Sorting logic
	if sortBy, ok := eq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "createdAt":
			query["sort"] = []map[string]interface{}{{"createdAt": "desc"}}
		case "filename":
			query["sort"] = []map[string]interface{}{{"filename.keyword": "asc"}}
		}
	}

	return query
}

// buildRelatedDocumentsQuery builds a "similar documents" query seeded by one
// indexed document.
func buildRelatedDocumentsQuery(eq ElasticsearchQuery) map[string]interface{} {
	if eq.DocumentID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"extractedText", "filename"},
				"like": []map[string]interface{}{
					{"_index": eq.Index, "_id": eq.DocumentID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
