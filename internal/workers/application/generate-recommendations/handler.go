// internal/workers/application/generate-recommendations/handler.go
package generaterecommendations

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
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "generate-recommendations"
)

var (
	ErrDataFetchFailed = errors.New("DATA_FETCH_FAILED")
)

// RecommendationStore is the persistence surface this worker needs.
type RecommendationStore interface {
	GetApplication(ctx context.Context, applicationID string) (*models.Application, error)
	ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error)
	LatestDecision(ctx context.Context, applicationID string) (*models.Decision, error)
}

type Handler struct {
	config *Config
	store  RecommendationStore
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, store RecommendationStore, redis *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		redis:  redis,
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

// execute serves the recommendation list, preferring the cache. A miss
// recomputes from fresh validation plus the latest recorded decision; an
// application with no decision yet still gets remediation guidance, just
// without the outcome-specific suggestion.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cacheKey := "recommendations:" + input.ApplicationID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var recs []string
		if err := json.Unmarshal([]byte(val), &recs); err == nil {
			h.logger.Info("recommendations served from cache", map[string]interface{}{
				"applicationId": input.ApplicationID,
				"count":         len(recs),
			})
			return &Output{ApplicationID: input.ApplicationID, Recommendations: recs}, nil
		}
	}

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

	var label string
	var probability float64
	decision, err := h.store.LatestDecision(ctx, input.ApplicationID)
	if err != nil {
		if !errors.Is(err, store.ErrDecisionNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrDataFetchFailed, err)
		}
	} else {
		label = decision.Label
		probability = decision.Probability
	}

	recs := eligibility.Recommend(app, docs, validation, label, probability)

	if payload, err := json.Marshal(recs); err == nil {
		h.redis.Set(ctx, cacheKey, payload, h.config.CacheTTL)
	}

	h.logger.Info("recommendations generated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"count":         len(recs),
		"label":         label,
	})

	return &Output{ApplicationID: input.ApplicationID, Recommendations: recs}, nil
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
