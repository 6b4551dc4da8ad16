// internal/workers/ai-conversation/query-application-context/handler.go
package queryapplicationcontext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"

	"loanflow-workers/internal/common/metrics"
	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"
)

const (
	TaskType = "query-application-context"
)

var (
	ErrContextQueryFailed = errors.New("DATA_FETCH_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ContextStore is the relational surface this worker reads.
type ContextStore interface {
	GetBundle(ctx context.Context, applicationID string) (*models.ApplicationBundle, error)
}

type Handler struct {
	config      *Config
	store       ContextStore
	esClient    *elasticsearch.Client
	redisClient *redis.Client
	logger      Logger
}

func NewHandler(config *Config, s ContextStore, esClient *elasticsearch.Client, redisClient *redis.Client, log Logger) *Handler {
	return &Handler{
		config:      config,
		store:       s,
		esClient:    esClient,
		redisClient: redisClient,
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
		if errors.Is(err, ErrContextQueryFailed) {
			retries = 3
		}
		h.failJob(client, job, err, retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute assembles the context bundle: cache first, then the selected
// stores in parallel, then a cache refresh. The first store error wins
// and fails the whole fetch; a partial bundle would mislead the model.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, errors.New("applicationId is required")
	}

	sources := input.DataSources
	if len(sources) == 0 {
		sources = []string{"internal_db"}
	}

	cacheKey := h.buildCacheKey(input.ApplicationID, sources, input.SearchQuery)
	if val, err := h.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(val), &data); err == nil {
			metrics.ContextCacheLookups.WithLabelValues("hit").Inc()
			return &Output{ContextData: data}, nil
		}
		h.logger.Warn("cache entry unreadable, refetching", map[string]interface{}{
			"cacheKey": cacheKey,
		})
	}
	metrics.ContextCacheLookups.WithLabelValues("miss").Inc()

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]interface{})
	errChan := make(chan error, 2)

	if containsSource(sources, "internal_db") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := h.queryBundle(ctx, input.ApplicationID)
			if err != nil {
				if errors.Is(err, store.ErrApplicationNotFound) {
					errChan <- err
					return
				}
				errChan <- fmt.Errorf("postgres: %w", err)
				return
			}
			mu.Lock()
			for k, v := range data {
				results[k] = v
			}
			mu.Unlock()
		}()
	}

	if containsSource(sources, "document_index") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := h.searchDocuments(ctx, input.ApplicationID, input.SearchQuery)
			if err != nil {
				errChan <- fmt.Errorf("elasticsearch: %w", err)
				return
			}
			mu.Lock()
			for k, v := range data {
				results[k] = v
			}
			mu.Unlock()
		}()
	}

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrContextQueryFailed, err)
	}

	if len(results) > 0 {
		data, _ := json.Marshal(results)
		h.redisClient.Set(ctx, cacheKey, data, h.config.CacheTTL)
	}

	h.logger.Info("application context assembled", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"dataSources":   sources,
		"resultCount":   len(results),
	})

	return &Output{ContextData: results}, nil
}

func (h *Handler) buildCacheKey(applicationID string, sources []string, searchQuery string) string {
	return "ai:context:" + applicationID + "|" + strings.Join(sources, ",") + "|" + searchQuery
}

// queryBundle loads the stored view of the application. Keys mirror the
// JSON names the chat tiers already speak.
func (h *Handler) queryBundle(ctx context.Context, applicationID string) (map[string]interface{}, error) {
	bundle, err := h.store.GetBundle(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]interface{}, 0, len(bundle.Documents))
	for _, d := range bundle.Documents {
		entry := map[string]interface{}{
			"documentId":  d.ID,
			"filename":    d.Filename,
			"contentType": d.ContentType,
			"sizeBytes":   d.SizeBytes,
		}
		if d.Preview != nil {
			entry["preview"] = *d.Preview
		}
		docs = append(docs, entry)
	}

	results := map[string]interface{}{
		"application": bundle.Application,
		"documents":   docs,
	}
	if bundle.Decision != nil {
		results["decision"] = bundle.Decision
	}
	return results, nil
}

// searchDocuments ranks the application's documents against the search
// query. Without a query it degrades to listing whatever is indexed for
// the application.
func (h *Handler) searchDocuments(ctx context.Context, applicationID, searchQuery string) (map[string]interface{}, error) {
	must := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"applicationId.keyword": applicationID},
		},
	}
	if searchQuery != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"extractedText": searchQuery},
		})
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"size": h.config.MaxSearchHits,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{h.config.IndexName},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	wrapper, ok := r["hits"].(map[string]interface{})
	if !ok {
		return map[string]interface{}{"documentMatches": []interface{}{}}, nil
	}
	hits, ok := wrapper["hits"].([]interface{})
	if !ok {
		return map[string]interface{}{"documentMatches": []interface{}{}}, nil
	}

	matches := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		entry, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := entry["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		match := map[string]interface{}{
			"documentId": entry["_id"],
			"filename":   source["filename"],
			"preview":    source["preview"],
		}
		if score, ok := entry["_score"].(float64); ok {
			match["score"] = score
		}
		matches = append(matches, match)
	}

	return map[string]interface{}{"documentMatches": matches}, nil
}

func containsSource(sources []string, name string) bool {
	for _, source := range sources {
		if source == name {
			return true
		}
	}
	return false
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, store.ErrApplicationNotFound) {
		errorCode = "APPLICATION_NOT_FOUND"
	} else if errors.Is(err, ErrContextQueryFailed) {
		errorCode = "DATA_FETCH_FAILED"
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
