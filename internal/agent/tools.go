// internal/agent/tools.go
package agent

import (
	"strings"

	"loanflow-workers/internal/models"
)

// Logical tools the model is allowed to invoke. Each has a primary name
// and an alias because models alternate freely between the two.
const (
	toolDocsSummary      = "docs_summary"
	toolDecisionOverview = "decision_overview"
)

var toolAliases = map[string]string{
	"docs_summary":        toolDocsSummary,
	"summarize_documents": toolDocsSummary,
	"decision_overview":   toolDecisionOverview,
	"explain_decision":    toolDecisionOverview,
}

// RunToolCalls executes recognized tool calls in order against the bundle
// and returns one formatted section per call. Unrecognized tool names are
// skipped silently; arguments are accepted but unused because both tools
// operate on the whole bundle.
func RunToolCalls(bundle *models.ApplicationBundle, calls []models.ToolCall) []string {
	var parts []string
	for _, call := range calls {
		name := strings.ToLower(strings.TrimSpace(call.Tool))
		switch toolAliases[name] {
		case toolDocsSummary:
			parts = append(parts, "**Documents Summary**\n"+SummarizeDocuments(bundle.Documents))
		case toolDecisionOverview:
			parts = append(parts, "**Decision Explanation**\n"+ExplainDecision(bundle.Decision))
		}
	}
	return parts
}
