// internal/agent/orchestrator.go
package agent

import (
	"context"

	"loanflow-workers/internal/common/logger"
	"loanflow-workers/internal/common/metrics"
	"loanflow-workers/internal/models"
)

// strategy is one tier of the chat fallback chain.
type strategy struct {
	name   string
	answer func(ctx context.Context) (string, error)
}

// Orchestrator routes a chat request through the tier chain: the graph
// pipeline first, the plain react tier when the graph misbehaves, and the
// deterministic rules agent as the floor. The first tier that produces a
// reply wins; tiers below it never run.
type Orchestrator struct {
	rules        *RulesAgent
	react        *ReactAgent
	modelEnabled bool
	logger       logger.Logger
}

// NewOrchestrator wires the tier chain. modelEnabled is the process-wide
// switch; with it off (or no model client at all) every request is
// answered by the rules agent.
func NewOrchestrator(s BundleLoader, model ModelClient, modelEnabled bool, log logger.Logger) *Orchestrator {
	o := &Orchestrator{
		rules:        NewRulesAgent(s),
		modelEnabled: modelEnabled && model != nil,
		logger:       log.WithFields(map[string]interface{}{"component": "chat-orchestrator"}),
	}
	if model != nil {
		o.react = NewReactAgent(s, model)
	}
	return o
}

// Chat answers one request. useModel is the caller's per-request opt-out.
// An error comes back only when every tier failed, which in practice means
// storage is down.
func (o *Orchestrator) Chat(ctx context.Context, applicationID string, messages []models.ChatMessage, useModel bool) (string, error) {
	if !useModel || !o.modelEnabled {
		reply, err := o.rules.Answer(ctx, applicationID, messages)
		if err == nil {
			metrics.ChatReplies.WithLabelValues("rules").Inc()
		}
		return reply, err
	}

	userMessage := latestUserMessage(messages)

	strategies := []strategy{
		{
			name: "graph",
			answer: func(ctx context.Context) (string, error) {
				return newChatGraph(o.react).run(ctx, &chatState{
					applicationID: applicationID,
					userMessage:   userMessage,
				})
			},
		},
		{
			name: "react",
			answer: func(ctx context.Context) (string, error) {
				return o.react.Answer(ctx, applicationID, userMessage)
			},
		},
		{
			name: "rules",
			answer: func(ctx context.Context) (string, error) {
				return o.rules.Answer(ctx, applicationID, messages)
			},
		},
	}

	var lastErr error
	for _, tier := range strategies {
		reply, err := tier.answer(ctx)
		if err != nil {
			metrics.ChatTierFailures.WithLabelValues(tier.name).Inc()
			o.logger.Warn("chat tier failed", map[string]interface{}{
				"tier":          tier.name,
				"applicationId": applicationID,
				"error":         err.Error(),
			})
			lastErr = err
			continue
		}
		metrics.ChatReplies.WithLabelValues(tier.name).Inc()
		return reply, nil
	}

	return "", lastErr
}
