// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs whose handler ran to completion",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs whose handler aborted",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DecisionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eligibility_decisions_total",
			Help: "Total number of eligibility decisions by label",
		},
		[]string{"label"},
	)

	ChatReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_replies_total",
			Help: "Total number of chat replies by answering tier",
		},
		[]string{"tier"},
	)

	ChatTierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_tier_failures_total",
			Help: "Total number of chat tier failures before fallback",
		},
		[]string{"tier"},
	)

	ContextCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "context_cache_lookups_total",
			Help: "Application context cache lookups by result",
		},
		[]string{"result"},
	)

	DocumentsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Total number of documents ingested",
		},
	)
)
