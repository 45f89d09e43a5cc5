package ingest

// service.go is the transport-facing entry point: it resolves the entity
// kind, enforces the concurrent-job bound and the per-job deadline, and
// runs the pipeline.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service runs ingestion jobs for all registered entity kinds.
type Service struct {
	deps    Deps
	opts    Options
	limiter *JobLimiter
	timeout time.Duration
	log     *slog.Logger
}

// ServiceConfig bounds job admission and duration.
type ServiceConfig struct {
	MaxConcurrentJobs int
	MaxWaitTime       time.Duration
	Timeout           time.Duration
}

// NewService creates a Service writing through deps.
func NewService(deps Deps, opts Options, cfg ServiceConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Service{
		deps:    deps,
		opts:    opts,
		limiter: NewJobLimiter(cfg.MaxConcurrentJobs, cfg.MaxWaitTime),
		timeout: timeout,
		log:     log,
	}
}

// Ingest runs one synchronous ingestion job for kind. Returns
// ErrUnknownKind for unregistered kinds and ErrTooManyJobs when no slot
// frees up in time. A partial report accompanies a *CommitError.
func (s *Service) Ingest(ctx context.Context, kind string, data []byte, format Format) (*Report, error) {
	schema, ok := Lookup(kind)
	if !ok {
		return nil, ErrUnknownKind
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	jobID := uuid.New().String()
	log := s.log.With("job_id", jobID, "kind", kind)
	log.Info("ingestion started", "bytes", len(data), "format", format)

	pipeline := NewPipeline(schema, s.deps, s.opts, log)
	report, err := pipeline.Run(jobCtx, data, format)
	if report != nil {
		log.Info("ingestion finished",
			"success", report.Success,
			"total", report.TotalRows,
			"succeeded", report.Succeeded,
			"errors", report.ValidationErrors,
			"duplicates", report.Duplicates,
			"committed", report.RecordsProcessed,
			"duration_ms", report.Duration.Milliseconds(),
		)
	} else {
		log.Warn("ingestion rejected", "error", err)
	}

	return report, err
}

// ActiveJobs returns the number of jobs currently running.
func (s *Service) ActiveJobs() int {
	return s.limiter.ActiveCount()
}

// WaitForJobs blocks until running jobs drain or ctx is cancelled.
func (s *Service) WaitForJobs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
