// internal/workers/application/validate-application-data/handler.go
package validateapplicationdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"loanflow-workers/internal/common/logger"
	"loanflow-workers/internal/eligibility"
	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-application-data"
)

var (
	ErrDataFetchFailed = errors.New("DATA_FETCH_FAILED")
)

// ApplicationReader is the persistence surface this worker needs.
type ApplicationReader interface {
	GetApplication(ctx context.Context, applicationID string) (*models.Application, error)
	ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error)
}

type Handler struct {
	config *Config
	store  ApplicationReader
	logger logger.Logger
}

func NewHandler(config *Config, store ApplicationReader, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}
	if input.ApplicationID == "" {
		h.failJob(client, job, "PARSE_ERROR", "applicationId is required", 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, store.ErrApplicationNotFound) {
			errorCode = "APPLICATION_NOT_FOUND"
			retries = 0
		} else if errors.Is(err, ErrDataFetchFailed) {
			errorCode = "DATA_FETCH_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute evaluates the screening rules against stored state. A rule failure
// is a normal outcome, reported through isValid so the process gateway can
// branch; only fetch problems become job errors.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	app, err := h.store.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDataFetchFailed, err)
	}

	docs, err := h.store.ListDocuments(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFetchFailed, err)
	}

	validation := eligibility.Validate(app, docs)
	isValid := !validation.HasFailures()

	h.logger.Info("validation completed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"isValid":       isValid,
		"passCount":     len(validation.PassChecks),
		"warnCount":     len(validation.WarnChecks),
		"failCount":     len(validation.FailChecks),
	})

	return &Output{
		IsValid:    isValid,
		Validation: validation,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
