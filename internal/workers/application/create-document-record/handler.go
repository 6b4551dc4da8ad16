// internal/workers/application/create-document-record/handler.go
package createdocumentrecord

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"loanflow-workers/internal/common/logger"
	"loanflow-workers/internal/common/metrics"
	"loanflow-workers/internal/common/validation"
	"loanflow-workers/internal/extract"
	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

const (
	TaskType = "create-document-record"
)

var (
	ErrDocumentInvalid      = errors.New("DOCUMENT_INVALID")
	ErrDataFetchFailed      = errors.New("DATA_FETCH_FAILED")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

// DocumentStore is the persistence surface this worker needs.
type DocumentStore interface {
	GetApplication(ctx context.Context, applicationID string) (*models.Application, error)
	CreateDocument(ctx context.Context, doc *models.Document) error
}

type Handler struct {
	config   *Config
	store    DocumentStore
	esClient *elasticsearch.Client
	logger   logger.Logger
}

func NewHandler(config *Config, store DocumentStore, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		esClient: esClient,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		if errors.Is(err, ErrDocumentInvalid) {
			h.failJob(client, job, "DOCUMENT_INVALID", err.Error(), 0)
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
		if errors.Is(err, ErrDocumentInvalid) {
			errorCode = "DOCUMENT_INVALID"
			retries = 0
		} else if errors.Is(err, store.ErrApplicationNotFound) {
			errorCode = "APPLICATION_NOT_FOUND"
			retries = 0
		} else if errors.Is(err, ErrDataFetchFailed) {
			errorCode = "DATA_FETCH_FAILED"
			retries = 3
		} else if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// parseInput validates the raw variables against the upload schema before
// decoding them. Nulls are stripped first: the upload gateway serializes
// absent optional fields as explicit JSON nulls.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, fmt.Errorf("parse job variables: %v", err)
	}

	result := validation.ValidateInput(validation.StripNulls(variables), GetInputSchema())
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrDocumentInvalid, strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, fmt.Errorf("decode input: %v", err)
	}
	return &input, nil
}

// execute persists the document row and then indexes it for search. Indexing
// is best effort: a failed index call degrades search until a reindex but
// never fails the ingestion.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	raw, err := base64.StdEncoding.DecodeString(input.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode content: %v", ErrDocumentInvalid, err)
	}

	if _, err := h.store.GetApplication(ctx, input.ApplicationID); err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDataFetchFailed, err)
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Pre-extracted text on the payload wins; the raw bytes are only measured.
	var text, preview *string
	if input.ExtractedText != nil && *input.ExtractedText != "" {
		full := *input.ExtractedText
		short := extract.Preview(full, extract.PreviewLength)
		text, preview = &full, &short
	} else {
		text, preview = extract.Extract(raw, contentType)
	}

	createdAt := time.Now().UTC()
	doc := &models.Document{
		ID:            uuid.New().String(),
		ApplicationID: input.ApplicationID,
		Filename:      input.Filename,
		ContentType:   contentType,
		SizeBytes:     int64(len(raw)),
		ExtractedText: text,
		Preview:       preview,
		CreatedAt:     createdAt,
	}

	if err := h.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	if err := h.indexDocument(ctx, doc); err != nil {
		h.logger.Warn("document index failed", map[string]interface{}{
			"documentId": doc.ID,
			"error":      err,
		})
	}

	metrics.DocumentsIngested.Inc()

	h.logger.Info("document record created", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"documentId":    doc.ID,
		"sizeBytes":     doc.SizeBytes,
		"extracted":     text != nil,
	})

	return &Output{
		DocumentID:       doc.ID,
		ApplicationID:    input.ApplicationID,
		Filename:         input.Filename,
		SizeBytes:        doc.SizeBytes,
		HasExtractedText: text != nil,
		CreatedAt:        createdAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) indexDocument(ctx context.Context, doc *models.Document) error {
	body, err := json.Marshal(map[string]interface{}{
		"applicationId": doc.ApplicationID,
		"filename":      doc.Filename,
		"contentType":   doc.ContentType,
		"sizeBytes":     doc.SizeBytes,
		"extractedText": doc.ExtractedText,
		"preview":       doc.Preview,
		"createdAt":     doc.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      h.config.IndexName,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index document: %s", res.String())
	}
	return nil
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
