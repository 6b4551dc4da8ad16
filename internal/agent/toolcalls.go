// internal/agent/toolcalls.go
package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"loanflow-workers/internal/models"
)

// Models rarely emit clean JSON. The extractor accepts, in order of
// preference: a single JSON object, a JSON array of calls, one object per
// line, and objects buried in narration or code fences. The first stage
// that yields calls wins.

var codeFenceRE = regexp.MustCompile("(?is)```(?:json|jsonl|tool)?\\s*(.*?)```")

// ExtractToolCalls pulls tool invocations out of raw model output. Calls
// are returned in first-seen order, deduplicated by structure; anything
// unparsable is skipped. Output with no recognizable call yields an empty
// slice, never an error.
func ExtractToolCalls(raw string) []models.ToolCall {
	calls := []models.ToolCall{}
	seen := make(map[string]bool)

	push := func(obj map[string]interface{}) {
		tool, ok := obj["tool"].(string)
		if !ok {
			return
		}
		// encoding/json sorts map keys, so the serialization doubles as a
		// canonical structural signature.
		sig, err := json.Marshal(obj)
		if err != nil || seen[string(sig)] {
			return
		}
		seen[string(sig)] = true

		call := models.ToolCall{Tool: tool}
		if args, ok := obj["args"].(map[string]interface{}); ok {
			call.Args = args
		}
		calls = append(calls, call)
	}

	s := stripCodeFences(strings.TrimSpace(raw))
	if s == "" {
		return calls
	}

	// Whole-payload parse first; a model that followed instructions
	// emitted nothing else.
	var whole interface{}
	if err := json.Unmarshal([]byte(s), &whole); err == nil {
		switch v := whole.(type) {
		case map[string]interface{}:
			if _, hasTool := v["tool"]; hasTool {
				push(v)
				return calls
			}
		case []interface{}:
			pushObjects(v, push)
			if len(calls) > 0 {
				return calls
			}
		}
	}

	// One object per line.
	for _, line := range strings.Split(s, "\n") {
		ln := strings.TrimSpace(line)
		if !strings.HasPrefix(ln, "{") || !strings.Contains(ln, `"tool"`) {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(ln), &obj); err != nil {
			continue
		}
		if _, hasTool := obj["tool"]; hasTool {
			push(obj)
		}
	}
	if len(calls) > 0 {
		return calls
	}

	// Last resort: lift balanced JSON spans out of surrounding narration.
	for _, span := range jsonSpans(s) {
		if !strings.Contains(span, `"tool"`) {
			continue
		}
		var v interface{}
		if err := json.Unmarshal([]byte(span), &v); err != nil {
			continue
		}
		switch data := v.(type) {
		case map[string]interface{}:
			if _, hasTool := data["tool"]; hasTool {
				push(data)
			}
		case []interface{}:
			pushObjects(data, push)
		}
	}

	return calls
}

func pushObjects(items []interface{}, push func(map[string]interface{})) {
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if _, hasTool := obj["tool"]; hasTool {
			push(obj)
		}
	}
}

// stripCodeFences removes ``` fences but keeps their inner content. With
// multiple fenced blocks the inner contents are joined line by line, and
// any text outside the fences is appended after them.
func stripCodeFences(s string) string {
	matches := codeFenceRE.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s
	}

	inner := make([]string, 0, len(matches))
	for _, m := range matches {
		inner = append(inner, strings.TrimSpace(m[1]))
	}
	joined := strings.Join(inner, "\n")

	if tail := strings.TrimSpace(codeFenceRE.ReplaceAllString(s, "")); tail != "" {
		return joined + "\n" + tail
	}
	return joined
}

// jsonSpans returns every balanced top-level {...} or [...] span in the
// input, left to right. Braces inside JSON string literals do not count
// toward nesting, so arguments containing "{" survive the scan.
func jsonSpans(input string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, input[start:i+1])
				start = -1
			}
		}
	}

	return spans
}
