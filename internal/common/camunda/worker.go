// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"loanflow-workers/internal/common/config"
	"loanflow-workers/internal/common/metrics"
	"loanflow-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler is the signature every worker handler exposes. Handlers
// complete or fail the job themselves; nothing is returned to the poller.
type JobHandler func(client worker.JobClient, job entities.Job)

// Worker is a single registered job poller with Prometheus and OTel
// instrumentation wrapped around its handler.
type Worker struct {
	jobWorker worker.JobWorker
	taskType  string
	logger    *zap.Logger
}

// NewWorker opens a job poller for taskType. A panicking handler must not
// take the whole manager down; the job is left to time out and be retried
// by the broker.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log *zap.Logger,
) *Worker {
	instrumented := func(jobClient worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		obs.RecordJobActive(context.Background(), taskType, 1)
		start := time.Now()
		defer func() {
			duration := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			obs.RecordJobActive(context.Background(), taskType, -1)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(duration.Seconds())
			obs.RecordJobDuration(context.Background(), taskType, duration)
			if r := recover(); r != nil {
				metrics.WorkerJobsFailed.WithLabelValues(taskType, "PANIC").Inc()
				obs.RecordJobProcessed(context.Background(), taskType, "panic")
				log.Error("worker handler panicked",
					zap.String("taskType", taskType),
					zap.Int64("jobKey", job.Key),
					zap.Any("panic", r),
				)
				return
			}
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			obs.RecordJobProcessed(context.Background(), taskType, "handled")
		}()
		handler(jobClient, job)
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrumented).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	return &Worker{
		jobWorker: jobWorker,
		taskType:  taskType,
		logger:    log,
	}
}

// Close stops polling for new jobs.
func (w *Worker) Close() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.jobWorker.Close()
}
