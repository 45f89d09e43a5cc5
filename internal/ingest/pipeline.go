package ingest

// pipeline.go wires the stages together. Data flows strictly downward:
// parse, validate, deduplicate, derive, media, commit. A stage never
// reaches back upstream, and every input row ends with exactly one
// outcome in the original order.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options tunes a pipeline run.
type Options struct {
	MaxBatchSize    int    // Commit chunk bound (default DefaultMaxBatchSize)
	ValidateWorkers int    // Parallel row validation (default 4)
	MediaWorkers    int    // Parallel media processing (default 4)
	Org             string // Identifier prefix (default "CISS")
	Now             func() time.Time
}

// Deps are the external collaborators a pipeline writes through. Docs is
// required; the others may be nil, and the corresponding stage then
// degrades (no dedupe against the store, random identifier suffixes,
// media fallback).
type Deps struct {
	Docs  DocumentStore
	Keys  KeySource
	Seq   Sequencer
	Blobs ObjectStore
}

// Pipeline ingests uploads for one entity kind.
type Pipeline struct {
	schema EntitySchema
	deps   Deps
	opts   Options
	media  *MediaProcessor
	log    *slog.Logger
}

// NewPipeline creates a pipeline for schema with the given collaborators.
func NewPipeline(schema EntitySchema, deps Deps, opts Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if opts.ValidateWorkers <= 0 {
		opts.ValidateWorkers = 4
	}
	if opts.MediaWorkers <= 0 {
		opts.MediaWorkers = 4
	}
	if opts.Org == "" {
		opts.Org = "CISS"
	}

	return &Pipeline{
		schema: schema,
		deps:   deps,
		opts:   opts,
		media:  NewMediaProcessor(deps.Blobs, log.With("stage", "media")),
		log:    log,
	}
}

// Run ingests one uploaded file. Job-level failures (empty input,
// unparsable file) return a nil report. A chunk commit failure returns
// both the partial report and a *CommitError, so the committed prefix
// stays visible to the caller.
func (p *Pipeline) Run(ctx context.Context, data []byte, format Format) (*Report, error) {
	start := time.Now()

	rows, err := ParseUpload(data, format, p.schema)
	if err != nil {
		jobsTotal.WithLabelValues(p.schema.Kind, "failure").Inc()
		return nil, err
	}

	outcomes := p.validateAll(rows)

	if err := p.dedupe(ctx, outcomes); err != nil {
		jobsTotal.WithLabelValues(p.schema.Kind, "failure").Inc()
		return nil, err
	}

	p.derive(ctx, outcomes)
	p.processMedia(ctx, outcomes)

	report := p.commit(ctx, outcomes)
	report.Duration = time.Since(start)

	for _, o := range report.Rows {
		rowsTotal.WithLabelValues(p.schema.Kind, string(o.Status)).Inc()
	}
	jobDuration.WithLabelValues(p.schema.Kind).Observe(report.Duration.Seconds())

	if report.Success {
		jobsTotal.WithLabelValues(p.schema.Kind, "success").Inc()
		return report, nil
	}
	jobsTotal.WithLabelValues(p.schema.Kind, "failure").Inc()
	return report, report.commitErr
}

// validateAll validates rows with a bounded worker pool. Outcomes land at
// their row's index, so the original ordering is preserved regardless of
// scheduling.
func (p *Pipeline) validateAll(rows []RawRow) []RowOutcome {
	outcomes := make([]RowOutcome, len(rows))
	validator := NewRowValidator(p.schema)

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.opts.ValidateWorkers)

	for i := range rows {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, errs := validator.ValidateRow(rows[i])
			if len(errs) > 0 {
				outcomes[i] = RowOutcome{Row: rows[i].Index, Status: StatusError, Messages: errs}
				return
			}
			outcomes[i] = RowOutcome{Row: rows[i].Index, Status: StatusSuccess, Record: rec}
		}(i)
	}
	wg.Wait()

	return outcomes
}

// dedupe runs serially after parallel validation, so the seen-set needs
// no locking. Rows already rejected by validation are never key-checked:
// duplicates and validation errors stay distinct outcomes.
func (p *Pipeline) dedupe(ctx context.Context, outcomes []RowOutcome) error {
	if !p.schema.HasNaturalKey() {
		return nil
	}

	set, err := newDedupeSet(ctx, p.deps.Keys, p.schema.Kind)
	if err != nil {
		return err
	}

	for i := range outcomes {
		if outcomes[i].Status != StatusSuccess {
			continue
		}
		key := NaturalKey(p.schema, outcomes[i].Record)
		if set.claim(key) {
			outcomes[i] = RowOutcome{
				Row:      outcomes[i].Row,
				Status:   StatusDuplicate,
				Messages: []string{"duplicate record: " + key},
				Key:      key,
			}
		}
	}

	return nil
}

// derive merges synthetic fields into surviving records.
func (p *Pipeline) derive(ctx context.Context, outcomes []RowOutcome) {
	if len(p.schema.Derive) == 0 {
		return
	}

	d := &Deriver{
		Org:   p.opts.Org,
		Seq:   p.deps.Seq,
		Blobs: p.deps.Blobs,
		Now:   p.opts.Now,
		Log:   p.log.With("stage", "derive"),
	}

	for i := range outcomes {
		if outcomes[i].Status != StatusSuccess {
			continue
		}
		for _, fn := range p.schema.Derive {
			fn(ctx, d, outcomes[i].Record, outcomes[i].Row)
		}
	}
}

// processMedia resolves media fields with a bounded worker pool. Media is
// the dominant I/O cost; unbounded fan-out would overwhelm the object
// store on large files. Each row's media completes before the row is
// eligible for commit.
func (p *Pipeline) processMedia(ctx context.Context, outcomes []RowOutcome) {
	if len(p.schema.Media) == 0 {
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.opts.MediaWorkers)

	for i := range outcomes {
		if outcomes[i].Status != StatusSuccess {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(o *RowOutcome) {
			defer wg.Done()
			defer func() { <-sem }()

			for _, spec := range p.schema.Media {
				o.Warnings = append(o.Warnings, p.media.Process(ctx, p.schema.Kind, spec, o.Record)...)
			}
		}(&outcomes[i])
	}
	wg.Wait()
}

// commit batches successful records into the document store and builds
// the final report.
func (p *Pipeline) commit(ctx context.Context, outcomes []RowOutcome) *Report {
	report := &Report{
		Kind:      p.schema.Kind,
		TotalRows: len(outcomes),
		Rows:      outcomes,
	}

	var docs []Document
	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			report.Succeeded++
			docs = append(docs, Document{Key: p.documentKey(o.Record), Data: o.Record})
		case StatusError:
			report.ValidationErrors++
		case StatusDuplicate:
			report.Duplicates++
		}
	}

	committer := NewCommitter(p.deps.Docs, p.opts.MaxBatchSize, p.log.With("stage", "commit"))
	committed, err := committer.Commit(ctx, p.schema.Kind, docs)
	report.RecordsProcessed = committed

	if err != nil {
		report.Success = false
		report.Message = err.Error()
		if ce, ok := err.(*CommitError); ok {
			report.commitErr = ce
		} else {
			report.commitErr = &CommitError{Committed: committed, Err: err}
		}
		return report
	}

	report.Success = true
	report.Message = summaryMessage(report)
	return report
}

func (p *Pipeline) documentKey(rec Record) string {
	if p.schema.KeyField != "" {
		if key := rec.String(p.schema.KeyField); key != "" {
			return key
		}
	}
	return uuid.New().String()
}

func summaryMessage(r *Report) string {
	switch {
	case r.Succeeded == r.TotalRows:
		return "all rows imported"
	case r.Succeeded == 0:
		return "no rows imported"
	default:
		return "imported with skipped rows"
	}
}
