// internal/agent/toolcalls_test.go
package agent

import (
	"testing"

	"loanflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToolCalls_SingleObject(t *testing.T) {
	calls := ExtractToolCalls(`{"tool": "docs_summary"}`)

	require.Len(t, calls, 1)
	assert.Equal(t, "docs_summary", calls[0].Tool)
	assert.Nil(t, calls[0].Args)
}

func TestExtractToolCalls_ObjectWithArgs(t *testing.T) {
	calls := ExtractToolCalls(`{"tool": "decision_overview", "args": {"verbose": true}}`)

	require.Len(t, calls, 1)
	assert.Equal(t, "decision_overview", calls[0].Tool)
	assert.Equal(t, map[string]interface{}{"verbose": true}, calls[0].Args)
}

func TestExtractToolCalls_Array(t *testing.T) {
	calls := ExtractToolCalls(`[{"tool": "docs_summary"}, {"tool": "decision_overview"}]`)

	require.Len(t, calls, 2)
	assert.Equal(t, "docs_summary", calls[0].Tool)
	assert.Equal(t, "decision_overview", calls[1].Tool)
}

func TestExtractToolCalls_JSONL(t *testing.T) {
	raw := `{"tool": "docs_summary"}
{"tool": "decision_overview", "args": {}}`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 2)
	assert.Equal(t, "docs_summary", calls[0].Tool)
	assert.Equal(t, "decision_overview", calls[1].Tool)
}

func TestExtractToolCalls_JSONLSkipsBrokenLines(t *testing.T) {
	raw := `{"tool": "docs_summary"}
{"tool": broken
{"tool": "decision_overview"}`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 2)
	assert.Equal(t, "docs_summary", calls[0].Tool)
	assert.Equal(t, "decision_overview", calls[1].Tool)
}

func TestExtractToolCalls_FencedBlock(t *testing.T) {
	raw := "```json\n{\"tool\": \"docs_summary\"}\n```"

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 1)
	assert.Equal(t, "docs_summary", calls[0].Tool)
}

func TestExtractToolCalls_FencedBlockWithNarration(t *testing.T) {
	raw := "Sure, let me check that for you.\n```json\n{\"tool\": \"docs_summary\"}\n```\nOne moment."

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 1)
	assert.Equal(t, "docs_summary", calls[0].Tool)
}

func TestExtractToolCalls_MultipleFencedBlocks(t *testing.T) {
	raw := "```json\n{\"tool\": \"docs_summary\"}\n```\n```json\n{\"tool\": \"decision_overview\"}\n```"

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 2)
	assert.Equal(t, "docs_summary", calls[0].Tool)
	assert.Equal(t, "decision_overview", calls[1].Tool)
}

func TestExtractToolCalls_ObjectInsideNarration(t *testing.T) {
	raw := `I need more data, so I will call {"tool": "docs_summary", "args": {}} right away.`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 1)
	assert.Equal(t, "docs_summary", calls[0].Tool)
}

func TestExtractToolCalls_NestedArgsSurviveScan(t *testing.T) {
	// The span scanner must balance nested braces instead of stopping at
	// the first closing one.
	raw := `Let me look: {"tool": "decision_overview", "args": {"filters": {"label": "approve"}}} done.`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 1)
	assert.Equal(t, "decision_overview", calls[0].Tool)
	assert.Equal(t, map[string]interface{}{
		"filters": map[string]interface{}{"label": "approve"},
	}, calls[0].Args)
}

func TestExtractToolCalls_BracesInsideStringValues(t *testing.T) {
	raw := `Calling {"tool": "docs_summary", "args": {"note": "braces { and } in text"}} now.`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 1)
	assert.Equal(t, "braces { and } in text", calls[0].Args["note"])
}

func TestExtractToolCalls_ArrayInsideNarration(t *testing.T) {
	raw := `Running both: [{"tool": "docs_summary"}, {"tool": "decision_overview"}] as requested.`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 2)
}

func TestExtractToolCalls_DeduplicatesExactRepeats(t *testing.T) {
	raw := `{"tool": "docs_summary"}
{"tool": "decision_overview"}
{"tool": "docs_summary"}`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 2)
	assert.Equal(t, "docs_summary", calls[0].Tool)
	assert.Equal(t, "decision_overview", calls[1].Tool)
}

func TestExtractToolCalls_DedupIgnoresKeyOrder(t *testing.T) {
	raw := `{"tool": "docs_summary", "args": {"x": 1}}
{"args": {"x": 1}, "tool": "docs_summary"}`

	calls := ExtractToolCalls(raw)

	assert.Len(t, calls, 1)
}

func TestExtractToolCalls_SameToolDifferentArgsKept(t *testing.T) {
	raw := `{"tool": "docs_summary", "args": {"limit": 1}}
{"tool": "docs_summary", "args": {"limit": 2}}`

	calls := ExtractToolCalls(raw)

	assert.Len(t, calls, 2)
}

func TestExtractToolCalls_NoCalls(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty input", raw: ""},
		{name: "whitespace only", raw: "  \n\t "},
		{name: "plain prose", raw: "Your application looks strong overall."},
		{name: "object without tool key", raw: `{"answer": "all good"}`},
		{name: "array without tool objects", raw: `[{"a": 1}, {"b": 2}]`},
		{name: "tool value is not a string", raw: `{"tool": 42}`},
		{name: "unbalanced braces", raw: `{"tool": "docs_summary"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := ExtractToolCalls(tt.raw)

			assert.NotNil(t, calls)
			assert.Empty(t, calls)
		})
	}
}

func TestExtractToolCalls_MixedValidAndInvalidArrayMembers(t *testing.T) {
	raw := `[{"tool": "docs_summary"}, {"note": "skip me"}, {"tool": "decision_overview"}]`

	calls := ExtractToolCalls(raw)

	require.Len(t, calls, 2)
	assert.Equal(t, []models.ToolCall{
		{Tool: "docs_summary"},
		{Tool: "decision_overview"},
	}, calls)
}
