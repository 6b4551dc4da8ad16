// internal/workers/ai-conversation/classify-chat-intent/models.go
package classifychatintent

import (
	"loanflow-workers/internal/models"
)

// Intent labels the routing gateway switches on. They mirror the canned
// responders of the deterministic chat tier, so the gateway and the
// fallback agent never disagree about what a question is asking for.
const (
	IntentStatus      = "status"
	IntentDocuments   = "documents"
	IntentValidation  = "validation"
	IntentEligibility = "eligibility"
	IntentNextSteps   = "next_steps"
	IntentHelp        = "help"
)

// Input carries the conversation; only the newest user message is
// classified. ApplicationID is along for the log trail.
type Input struct {
	ApplicationID string               `json:"applicationId,omitempty"`
	Messages      []models.ChatMessage `json:"messages"`
}

type Output struct {
	Intent      string   `json:"intent"`
	Confidence  float64  `json:"confidence"`
	DataSources []string `json:"dataSources"`
}
