// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loanflow-workers/internal/agent"
	"loanflow-workers/internal/common/camunda"
	"loanflow-workers/internal/common/config"
	"loanflow-workers/internal/common/database"
	"loanflow-workers/internal/common/llm"
	"loanflow-workers/internal/common/logger"
	"loanflow-workers/internal/common/observability"
	"loanflow-workers/internal/eligibility"
	"loanflow-workers/internal/store"

	// Application Pipeline Workers (6)
	car "loanflow-workers/internal/workers/application/create-application-record"
	cdr "loanflow-workers/internal/workers/application/create-document-record"
	gr "loanflow-workers/internal/workers/application/generate-recommendations"
	red "loanflow-workers/internal/workers/application/run-eligibility-decision"
	sn "loanflow-workers/internal/workers/application/send-notification"
	vad "loanflow-workers/internal/workers/application/validate-application-data"

	// Conversation Workers (3)
	aac "loanflow-workers/internal/workers/ai-conversation/answer-application-chat"
	cci "loanflow-workers/internal/workers/ai-conversation/classify-chat-intent"
	qac "loanflow-workers/internal/workers/ai-conversation/query-application-context"

	// Data Access Workers (2)
	qe "loanflow-workers/internal/workers/data-access/query-elasticsearch"
	qp "loanflow-workers/internal/workers/data-access/query-postgresql"
)

// documentsIndex is the Elasticsearch index holding uploaded document text.
// The document ingest worker writes it, the context and search workers read it.
const documentsIndex = "documents"

// jobWorkers collects every opened worker so shutdown can close them
// before the Zeebe connection goes away.
var jobWorkers []*camunda.Worker

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	// Bootstrap logger until the config tells us the real level and format
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	if cfg.Camunda.ProcessDir != "" {
		if err := camundaClient.DeployProcesses(ctx, cfg.Camunda.ProcessDir); err != nil {
			zapLog.Fatal("process deployment failed", zap.Error(err))
		}
		zapLog.Info("Process models deployed", zap.String("dir", cfg.Camunda.ProcessDir))
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema bootstrap failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}

	if err := esClient.EnsureDocumentIndex(ctx, documentsIndex); err != nil {
		zapLog.Fatal("documents index bootstrap failed", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared Domain Services ---
	loanStore := store.New(pg.DB)

	scorer := eligibility.NewLogisticScorer(cfg.Scorer.ModelPath)

	// The model client stays nil when the LLM is disabled; the orchestrator
	// then answers every turn from the deterministic rules tier.
	var modelClient agent.ModelClient
	if cfg.LLM.Enabled {
		modelClient = llm.NewClient(cfg.LLM)
	}
	chatOrchestrator := agent.NewOrchestrator(loanStore, modelClient, cfg.LLM.Enabled, log)

	zapLog.Info("Domain services initialized",
		zap.Bool("llmEnabled", cfg.LLM.Enabled),
		zap.String("scorerModelPath", cfg.Scorer.ModelPath),
	)

	// --- START: Register ALL 11 Workers ---

	// --- 1. Application Pipeline Workers (6) ---
	if config.IsWorkerEnabled(cfg, vad.TaskType) {
		handler := vad.NewHandler(
			&vad.Config{
				Timeout: config.GetDuration(cfg.Workers[vad.TaskType].Timeout),
			},
			loanStore, log,
		)
		startWorker(zeebeClient, vad.TaskType, cfg.Workers[vad.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, car.TaskType) {
		handler := car.NewHandler(
			&car.Config{
				Timeout: config.GetDuration(cfg.Workers[car.TaskType].Timeout),
			},
			loanStore, log,
		)
		startWorker(zeebeClient, car.TaskType, cfg.Workers[car.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, red.TaskType) {
		handler := red.NewHandler(
			&red.Config{
				Timeout: config.GetDuration(cfg.Workers[red.TaskType].Timeout),
			},
			loanStore, scorer, log,
		)
		startWorker(zeebeClient, red.TaskType, cfg.Workers[red.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, gr.TaskType) {
		handler := gr.NewHandler(
			&gr.Config{
				CacheTTL: 5 * time.Minute,
				Timeout:  config.GetDuration(cfg.Workers[gr.TaskType].Timeout),
			},
			loanStore, redis.Client, log,
		)
		startWorker(zeebeClient, gr.TaskType, cfg.Workers[gr.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, sn.TaskType) {
		handler, err := sn.NewHandler(
			&sn.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      config.GetDuration(cfg.Workers[sn.TaskType].Timeout),
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		startWorker(zeebeClient, sn.TaskType, cfg.Workers[sn.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, cdr.TaskType) {
		handler := cdr.NewHandler(
			&cdr.Config{
				IndexName: documentsIndex,
				Timeout:   config.GetDuration(cfg.Workers[cdr.TaskType].Timeout),
			},
			loanStore, esClient.Client, log,
		)
		startWorker(zeebeClient, cdr.TaskType, cfg.Workers[cdr.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 2. Conversation Workers (3) ---
	// These packages declare their own Logger interfaces
	aacLogAdapter := &answerApplicationChatLoggerAdapter{log}
	cciLogAdapter := &classifyChatIntentLoggerAdapter{log}
	qacLogAdapter := &queryApplicationContextLoggerAdapter{log}

	if config.IsWorkerEnabled(cfg, cci.TaskType) {
		handler := cci.NewHandler(
			&cci.Config{
				Timeout: config.GetDuration(cfg.Workers[cci.TaskType].Timeout),
			},
			cciLogAdapter,
		)
		startWorker(zeebeClient, cci.TaskType, cfg.Workers[cci.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, qac.TaskType) {
		handler := qac.NewHandler(
			&qac.Config{
				IndexName:     documentsIndex,
				Timeout:       config.GetDuration(cfg.Workers[qac.TaskType].Timeout),
				CacheTTL:      60 * time.Second,
				MaxSearchHits: 5,
			},
			loanStore, esClient.Client, redis.Client, qacLogAdapter,
		)
		startWorker(zeebeClient, qac.TaskType, cfg.Workers[qac.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, aac.TaskType) {
		handler := aac.NewHandler(
			&aac.Config{
				Timeout: config.GetDuration(cfg.Workers[aac.TaskType].Timeout),
			},
			chatOrchestrator,
			aacLogAdapter,
		)
		startWorker(zeebeClient, aac.TaskType, cfg.Workers[aac.TaskType], handler.Handle, obs, zapLog)
	}

	// --- 3. Data Access Workers (2) ---
	if config.IsWorkerEnabled(cfg, qp.TaskType) {
		handler := qp.NewHandler(
			&qp.Config{
				Timeout: config.GetDuration(cfg.Workers[qp.TaskType].Timeout),
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, qp.TaskType, cfg.Workers[qp.TaskType], handler.Handle, obs, zapLog)
	}

	if config.IsWorkerEnabled(cfg, qe.TaskType) {
		handler := qe.NewHandler(
			&qe.Config{
				Timeout: config.GetDuration(cfg.Workers[qe.TaskType].Timeout),
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, qe.TaskType, cfg.Workers[qe.TaskType], handler.Handle, obs, zapLog)
	}

	zapLog.Info("All 11 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"reason": "postgres: " + err.Error(),
				})
				return
			}
			if err := redis.Ping(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"reason": "redis: " + err.Error(),
				})
				return
			}
			if err := camundaClient.HealthCheck(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"reason": "zeebe: " + err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range jobWorkers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// Logger adapters for conversation workers that have their own Logger interfaces
type answerApplicationChatLoggerAdapter struct {
	logger.Logger
}

func (a *answerApplicationChatLoggerAdapter) With(fields map[string]interface{}) aac.Logger {
	return &answerApplicationChatLoggerAdapter{a.Logger.With(fields)}
}

type classifyChatIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyChatIntentLoggerAdapter) With(fields map[string]interface{}) cci.Logger {
	return &classifyChatIntentLoggerAdapter{a.Logger.With(fields)}
}

type queryApplicationContextLoggerAdapter struct {
	logger.Logger
}

func (a *queryApplicationContextLoggerAdapter) With(fields map[string]interface{}) qac.Logger {
	return &queryApplicationContextLoggerAdapter{a.Logger.With(fields)}
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.JobHandler, obs *observability.Observability, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	jobWorkers = append(jobWorkers, camunda.NewWorker(client, taskType, wcfg, handlerFunc, obs, log))
}
