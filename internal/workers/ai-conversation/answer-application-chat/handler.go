// internal/workers/ai-conversation/answer-application-chat/handler.go
package answerapplicationchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"loanflow-workers/internal/models"
)

const (
	TaskType = "answer-application-chat"
)

var (
	ErrChatAnswerFailed = errors.New("CHAT_ANSWER_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ChatOrchestrator answers one conversation turn. Satisfied by
// *agent.Orchestrator.
type ChatOrchestrator interface {
	Chat(ctx context.Context, applicationID string, messages []models.ChatMessage, useModel bool) (string, error)
}

type Handler struct {
	config       *Config
	orchestrator ChatOrchestrator
	logger       Logger
}

func NewHandler(config *Config, orchestrator ChatOrchestrator, log Logger) *Handler {
	return &Handler{
		config:       config,
		orchestrator: orchestrator,
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
		h.failJob(client, job, fmt.Errorf("parse input: %w", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		retries := int32(0)
		if errors.Is(err, ErrChatAnswerFailed) {
			retries = 3
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute routes the turn through the tier chain. Model problems never
// reach this level: the orchestrator degrades tier by tier and the
// deterministic floor turns a missing application into a reply. An error
// here means even the floor could not read storage.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, errors.New("applicationId is required")
	}

	useModel := true
	if input.UseLLM != nil {
		useModel = *input.UseLLM
	}

	reply, err := h.orchestrator.Chat(ctx, input.ApplicationID, input.Messages, useModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChatAnswerFailed, err)
	}

	h.logger.Info("chat turn answered", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"messageCount":  len(input.Messages),
		"useModel":      useModel,
		"replyLength":   len(reply),
	})

	return &Output{Reply: reply}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, ErrChatAnswerFailed) {
		errorCode = "CHAT_ANSWER_FAILED"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
