// internal/agent/rules.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"loanflow-workers/internal/extract"
	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"
)

// BundleLoader is the persistence surface the chat agents need.
type BundleLoader interface {
	GetBundle(ctx context.Context, applicationID string) (*models.ApplicationBundle, error)
}

// docSummaryLimit caps how many documents the summary lists; the rest are
// folded into a "+N more" suffix.
const docSummaryLimit = 3

// docSummaryPreviewLength bounds the per-document excerpt in summaries.
const docSummaryPreviewLength = 160

// RulesAgent answers chat questions from stored state alone, with no model
// dependency. It is the last tier of the chat fallback chain and must stay
// deterministic.
type RulesAgent struct {
	store BundleLoader
}

func NewRulesAgent(s BundleLoader) *RulesAgent {
	return &RulesAgent{store: s}
}

// Answer resolves the most recent user message and routes it by keyword to
// one of the canned responders. An unknown application becomes a textual
// reply; only storage failures surface as errors.
func (a *RulesAgent) Answer(ctx context.Context, applicationID string, messages []models.ChatMessage) (string, error) {
	bundle, err := a.store.GetBundle(ctx, applicationID)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return notFoundReply(applicationID), nil
		}
		return "", err
	}
	return answerFromBundle(bundle, messages), nil
}

func notFoundReply(applicationID string) string {
	return fmt.Sprintf("Application %s not found", applicationID)
}

// answerFromBundle is the keyword router. Priority is fixed and the first
// matching intent wins.
func answerFromBundle(bundle *models.ApplicationBundle, messages []models.ChatMessage) string {
	lastUser := strings.ToLower(latestUserMessage(messages))

	app := bundle.Application
	docs := bundle.Documents
	decision := bundle.Decision

	switch {
	case containsAny(lastUser, "doc", "document", "pdf", "upload", "summary", "summarize"):
		return "**Documents (top 3):**\n" + SummarizeDocuments(docs)

	case containsAny(lastUser, "validat", "check", "pass", "warn", "fail"):
		return formatValidationNote(decision)

	case containsAny(lastUser, "eligib", "approve", "score", "probab", "decision"):
		return ExplainDecision(decision)

	case containsAny(lastUser, "next step", "recommend", "what next"):
		return formatRecommendations(decision)

	case containsAny(lastUser, "status", "overview", "what happened"):
		parts := []string{
			fmt.Sprintf("Applicant: **%s** (age %s)", orNA(app.FullName), intOrNA(app.Age)),
			fmt.Sprintf("Income: %s | Obligations ratio: %s",
				positiveFloatOrNA(app.NetIncome), floatOrNA(app.ObligationsRatio)),
			fmt.Sprintf("Docs: %d uploaded", len(docs)),
			ExplainDecision(decision),
		}
		return strings.Join(parts, "\n")
	}

	return "I can help with:\n" +
		"- Overview of the application\n" +
		"- Documents summary\n" +
		"- Validation explanation\n" +
		"- Eligibility (decision & probability)\n" +
		"- Recommendations / next steps\n" +
		"Try asking: “summarize my documents”, “why soft-decline?”, or “what’s my score?”"
}

// latestUserMessage scans the history from the end for the newest message
// with the user role.
func latestUserMessage(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// SummarizeDocuments renders up to three documents as bullet lines with a
// bounded preview each.
func SummarizeDocuments(docs []models.Document) string {
	if len(docs) == 0 {
		return "No documents available."
	}

	limit := docSummaryLimit
	if len(docs) < limit {
		limit = len(docs)
	}

	lines := make([]string, 0, limit)
	for _, d := range docs[:limit] {
		contentType := d.ContentType
		if contentType == "" {
			contentType = "unknown"
		}
		var preview string
		if d.Preview != nil {
			preview = extract.Preview(*d.Preview, docSummaryPreviewLength)
		}
		lines = append(lines, fmt.Sprintf("- %s (%s, %d bytes) :: %s", d.Filename, contentType, d.SizeBytes, preview))
	}

	summary := strings.Join(lines, "\n")
	if len(docs) > docSummaryLimit {
		summary += fmt.Sprintf("\n(+%d more)", len(docs)-docSummaryLimit)
	}
	return summary
}

// ExplainDecision renders the latest decision with its probability and
// rationale, or a pointer at the pipeline when none has run yet.
func ExplainDecision(decision *models.Decision) string {
	if decision == nil {
		return "No decision has been run yet. Use the Run step first."
	}

	p := math.Round(decision.Probability*1000) / 1000
	rationale := decision.Rationale
	if rationale == "" {
		rationale = "N/A"
	}
	return fmt.Sprintf("Latest decision: **%s** (label: %s, p=%v).\nRationale: %s",
		decision.Status, decision.Label, p, rationale)
}

func formatValidationNote(decision *models.Decision) string {
	if decision == nil {
		return "No decision exists yet; run the pipeline to populate validation checks."
	}
	return "- Validation checks were evaluated during the last run.\n" +
		"- See the 'Decision' panel for pass/warn/fail bullets."
}

func formatRecommendations(decision *models.Decision) string {
	if decision == nil {
		return "No decision exists yet; run the pipeline to generate tailored recommendations."
	}
	if decision.Label == models.LabelApprove || decision.Label == models.LabelReview {
		return "- Proceed to onboarding.\n" +
			"- If underwriting requests a document, upload it in the Upload tab.\n" +
			"- Keep income proof and bank statement handy for faster closure."
	}
	return "- Address validation blockers (missing docs or policy constraints).\n" +
		"- Re-upload clearer PDFs (full page, legible text).\n" +
		"- Re-run after fixes."
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func intOrNA(v int) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", v)
}

// positiveFloatOrNA treats both nil and zero as absent: a declared income
// of zero is no income.
func positiveFloatOrNA(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%v", *v)
}

func floatOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", *v)
}
