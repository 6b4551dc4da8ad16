// internal/agent/react_test.go
package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeModel struct {
	reply    string
	err      error
	requests [][]models.ChatMessage
}

func (f *fakeModel) Chat(_ context.Context, messages []models.ChatMessage) (string, error) {
	f.requests = append(f.requests, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// ==========================
// React Tier Tests
// ==========================

func TestReactAgent_DirectAnswerPassesThrough(t *testing.T) {
	model := &fakeModel{reply: "Your application is in good shape."}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	reply, err := agent.Answer(context.Background(), "APP-1001", "how are things?")

	require.NoError(t, err)
	assert.Equal(t, "Your application is in good shape.", reply)
	assert.Len(t, model.requests, 1, "exactly one model call per question")
}

func TestReactAgent_SendsSystemPromptAndContext(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	_, err := agent.Answer(context.Background(), "APP-1001", "how are things?")

	require.NoError(t, err)
	require.Len(t, model.requests, 1)
	msgs := model.requests[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "docs_summary / summarize_documents")
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "CONTEXT:\n"))
	assert.Contains(t, msgs[1].Content, "Applicant: Jane Cooper, age: 34")
	assert.Contains(t, msgs[1].Content, "Documents (summary):")
	assert.Contains(t, msgs[1].Content, "USER: how are things?")
}

func TestReactAgent_ExecutesRequestedTools(t *testing.T) {
	model := &fakeModel{reply: `{"tool": "docs_summary"}
{"tool": "decision_overview"}`}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	reply, err := agent.Answer(context.Background(), "APP-1001", "give me everything")

	require.NoError(t, err)
	parts := strings.Split(reply, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "**Documents Summary**\n"))
	assert.True(t, strings.HasPrefix(parts[1], "**Decision Explanation**\n"))
	assert.Contains(t, parts[0], "bank-june.pdf")
	assert.Contains(t, parts[1], "Latest decision: **Approve**")
}

func TestReactAgent_ToolAliasesResolve(t *testing.T) {
	model := &fakeModel{reply: `{"tool": "Summarize_Documents"}`}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	reply, err := agent.Answer(context.Background(), "APP-1001", "docs?")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "**Documents Summary**\n"))
}

func TestReactAgent_UnknownToolsFallBackToRawReply(t *testing.T) {
	// A reply that parses as a tool call but names no known tool is
	// returned verbatim rather than dropped.
	model := &fakeModel{reply: `{"tool": "fetch_weather"}`}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	reply, err := agent.Answer(context.Background(), "APP-1001", "weather?")

	require.NoError(t, err)
	assert.Equal(t, `{"tool": "fetch_weather"}`, reply)
}

func TestReactAgent_MixedKnownAndUnknownTools(t *testing.T) {
	model := &fakeModel{reply: `{"tool": "fetch_weather"}
{"tool": "docs_summary"}`}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	reply, err := agent.Answer(context.Background(), "APP-1001", "docs and weather")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "**Documents Summary**\n"))
	assert.NotContains(t, reply, "fetch_weather")
}

func TestReactAgent_ModelFailureBecomesReply(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	agent := NewReactAgent(&fakeBundleStore{bundle: testBundle()}, model)

	reply, err := agent.Answer(context.Background(), "APP-1001", "hello?")

	require.NoError(t, err)
	assert.Equal(t, "LLM error: connection refused", reply)
}

func TestReactAgent_ApplicationNotFound(t *testing.T) {
	model := &fakeModel{reply: "unused"}
	agent := NewReactAgent(&fakeBundleStore{err: store.ErrApplicationNotFound}, model)

	reply, err := agent.Answer(context.Background(), "APP-9999", "status?")

	require.NoError(t, err)
	assert.Equal(t, "Application APP-9999 not found", reply)
	assert.Empty(t, model.requests, "no model call for unknown applications")
}

func TestReactAgent_StorageFailure(t *testing.T) {
	agent := NewReactAgent(&fakeBundleStore{err: errors.New("connection refused")}, &fakeModel{})

	_, err := agent.Answer(context.Background(), "APP-1001", "status?")

	assert.Error(t, err)
}

func TestBuildContext_RendersMissingFieldsAsNA(t *testing.T) {
	bundle := &models.ApplicationBundle{
		Application: &models.Application{ApplicationID: "APP-2000"},
	}

	context := buildContext(bundle)

	assert.Contains(t, context, "Applicant: N/A, age: N/A")
	assert.Contains(t, context, "Income: N/A, Obligations ratio: N/A")
	assert.Contains(t, context, "No documents available.")
	assert.Contains(t, context, "No decision has been run yet.")
}
