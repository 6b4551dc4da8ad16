// internal/workers/ai-conversation/classify-chat-intent/handler.go
package classifychatintent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loanflow-workers/internal/models"
)

const (
	TaskType = "classify-chat-intent"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// intentRules is the keyword router in fixed priority order. The first
// intent with a hit wins, the same way the deterministic chat tier routes
// its canned responders.
var intentRules = []struct {
	intent   string
	keywords []string
}{
	{IntentDocuments, []string{"doc", "document", "pdf", "upload", "summary", "summarize"}},
	{IntentValidation, []string{"validat", "check", "pass", "warn", "fail"}},
	{IntentEligibility, []string{"eligib", "approve", "score", "probab", "decision"}},
	{IntentNextSteps, []string{"next step", "recommend", "what next"}},
	{IntentStatus, []string{"status", "overview", "what happened"}},
}

type Handler struct {
	config *Config
	logger Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// execute never fails on conversation content. A question that matches
// nothing classifies as help with low confidence, and the gateway routes
// it to the capabilities responder.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	question := latestUserMessage(input.Messages)
	intent, confidence := classifyIntent(question)

	output := &Output{
		Intent:      intent,
		Confidence:  confidence,
		DataSources: determineDataSources(intent),
	}

	h.logger.Info("intent classified", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"intent":        intent,
		"confidence":    confidence,
		"dataSources":   output.DataSources,
	})

	return output, nil
}

// classifyIntent matches the lowercased message against the rule table.
// Confidence steps with the number of keyword hits inside the winning
// rule: one hit 0.7, two 0.8, three or more 0.9.
func classifyIntent(message string) (string, float64) {
	lower := strings.ToLower(message)

	for _, rule := range intentRules {
		hits := 0
		for _, k := range rule.keywords {
			if strings.Contains(lower, k) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		confidence := 0.7
		switch {
		case hits >= 3:
			confidence = 0.9
		case hits == 2:
			confidence = 0.8
		}
		return rule.intent, confidence
	}

	return IntentHelp, 0.2
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

func determineDataSources(intent string) []string {
	// Fixed order keeps gateway expressions deterministic.
	sources := []string{"internal_db"}
	if intent == IntentDocuments {
		sources = append(sources, "document_index")
	}
	return sources
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	errorCode := "UNKNOWN_ERROR"

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
