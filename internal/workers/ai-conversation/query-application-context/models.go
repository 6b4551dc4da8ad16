// internal/workers/ai-conversation/query-application-context/models.go
package queryapplicationcontext

// Input selects which stores feed the context bundle. DataSources comes
// from the intent classifier; an empty list means the relational view
// alone. SearchQuery scopes the document index leg to the question being
// answered.
type Input struct {
	ApplicationID string   `json:"applicationId"`
	DataSources   []string `json:"dataSources,omitempty"`
	SearchQuery   string   `json:"searchQuery,omitempty"`
}

// Output carries the merged context under one variable so downstream
// tasks can hand it to the model tiers without reassembly.
type Output struct {
	ContextData map[string]interface{} `json:"contextData"`
}
