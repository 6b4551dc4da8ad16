// internal/workers/ai-conversation/answer-application-chat/models.go
package answerapplicationchat

import (
	"loanflow-workers/internal/models"
)

// Input carries the conversation so far. UseLLM is the caller's per-request
// opt-out; when absent the model tiers are on.
type Input struct {
	ApplicationID string               `json:"applicationId"`
	Messages      []models.ChatMessage `json:"messages"`
	UseLLM        *bool                `json:"useLlm,omitempty"`
}

// Output is the assistant reply. Degraded outcomes (missing application,
// model trouble) travel inside the reply text, never as job failures.
type Output struct {
	Reply string `json:"reply"`
}
