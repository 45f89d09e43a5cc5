package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_jobs_total",
			Help: "Ingestion jobs by entity kind and outcome",
		},
		[]string{"kind", "status"}, // status=success/failure
	)

	rowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Input rows by entity kind and per-row outcome",
		},
		[]string{"kind", "status"}, // status=success/error/duplicate
	)

	chunkCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_chunk_commits_total",
			Help: "Batched document-store commits by entity kind and result",
		},
		[]string{"kind", "status"},
	)

	mediaFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_media_failures_total",
			Help: "Media uploads that degraded to a fallback",
		},
		[]string{"kind"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_job_duration_seconds",
			Help:    "End-to-end ingestion job duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)
)
