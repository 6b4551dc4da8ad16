// internal/agent/react.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"
)

// ModelClient is the chat surface the react tier depends on.
type ModelClient interface {
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

const systemPrompt = `You are an expert financial underwriting assistant.

You must either:
  A) ANSWER directly to the user, or
  B) If you need structured data from tools, EMIT one or more JSON-only tool calls (one per line), e.g.:

{"tool": "<tool_name>", "args": {...}}
{"tool": "<tool_name>", "args": {...}}

Available tools (aliases allowed):
- decision_overview / explain_decision : Summarize latest decision and why.
- docs_summary / summarize_documents  : Summarize uploaded documents.

IMPORTANT:
- If you call tools, reply with JSON object(s) ONLY (no extra text).
- Do NOT include chain-of-thought; keep answers concise and clear.`

// ReactAgent asks the model to answer directly or request tools, then runs
// any requested tools locally and composes the reply. Exactly one model
// request per question; a failed request becomes an error reply so callers
// can still show something.
type ReactAgent struct {
	store BundleLoader
	model ModelClient
}

func NewReactAgent(s BundleLoader, model ModelClient) *ReactAgent {
	return &ReactAgent{store: s, model: model}
}

// Answer handles one user question against one application. Only storage
// failures surface as errors; model failures and unknown applications are
// reported inside the reply text.
func (a *ReactAgent) Answer(ctx context.Context, applicationID, userMessage string) (string, error) {
	bundle, err := a.store.GetBundle(ctx, applicationID)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return notFoundReply(applicationID), nil
		}
		return "", err
	}

	messages := []models.ChatMessage{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: fmt.Sprintf("CONTEXT:\n%s\n\nUSER: %s", buildContext(bundle), userMessage)},
	}

	first, err := a.model.Chat(ctx, messages)
	if err != nil {
		return fmt.Sprintf("LLM error: %v", err), nil
	}

	if calls := ExtractToolCalls(first); len(calls) > 0 {
		if parts := RunToolCalls(bundle, calls); len(parts) > 0 {
			return strings.Join(parts, "\n\n"), nil
		}
	}

	// No recognized tool usage; the model answered directly.
	return first, nil
}

// buildContext renders the bundle as the deterministic context block the
// model sees. Same bundle, same block.
func buildContext(bundle *models.ApplicationBundle) string {
	app := bundle.Application

	lines := []string{
		fmt.Sprintf("Applicant: %s, age: %s", orNA(app.FullName), intOrNA(app.Age)),
		fmt.Sprintf("Address: %s", orNA(app.Address)),
		fmt.Sprintf("Income: %s, Obligations ratio: %s",
			floatOrNA(app.NetIncome), floatOrNA(app.ObligationsRatio)),
		"",
		"Documents (summary):",
		SummarizeDocuments(bundle.Documents),
		"",
		"Latest decision:",
		ExplainDecision(bundle.Decision),
	}
	return strings.Join(lines, "\n")
}
