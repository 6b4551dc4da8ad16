// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"loanflow-workers/internal/common/logger"
	"loanflow-workers/internal/common/validation"
	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "create-application-record"
)

var (
	ErrIntakeInvalid        = errors.New("APPLICATION_INTAKE_INVALID")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

// ApplicationStore is the persistence surface this worker needs.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *models.Application) error
}

type Handler struct {
	config *Config
	store  ApplicationStore
	logger logger.Logger
}

func NewHandler(config *Config, store ApplicationStore, log logger.Logger) *Handler {
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

	input, err := h.parseInput(job)
	if err != nil {
		if errors.Is(err, ErrIntakeInvalid) {
			h.failJob(client, job, "APPLICATION_INTAKE_INVALID", err.Error(), 0)
		} else {
			h.failJob(client, job, "PARSE_ERROR", err.Error(), 0)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, store.ErrDuplicateApplication) {
			errorCode = "DUPLICATE_APPLICATION"
			retries = 0
		} else if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// parseInput validates the raw variables against the intake schema before
// decoding them. Nulls are stripped first: the start form serializes
// untouched optional fields as explicit JSON nulls.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, fmt.Errorf("parse job variables: %v", err)
	}

	result := validation.ValidateInput(validation.StripNulls(variables), GetInputSchema())
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrIntakeInvalid, strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, fmt.Errorf("decode input: %v", err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	createdAt := time.Now().UTC()

	app := &models.Application{
		ApplicationID:    input.ApplicationID,
		FullName:         input.FullName,
		Age:              input.Age,
		Address:          input.Address,
		Region:           input.Region,
		EmploymentStatus: input.EmploymentStatus,
		NetIncome:        input.NetIncome,
		ObligationsRatio: input.ObligationsRatio,
		Dependents:       input.Dependents,
		CreatedAt:        createdAt,
	}

	if err := h.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, store.ErrDuplicateApplication) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"region":        input.Region,
	})

	return &Output{
		ApplicationID:     input.ApplicationID,
		ApplicationStatus: "received",
		CreatedAt:         createdAt.Format(time.RFC3339),
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
