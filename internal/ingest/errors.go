package ingest

// errors.go defines the job-level error taxonomy. Row-level problems are
// never surfaced as errors; they are collected into RowOutcomes and the
// job continues. Only the failures here abort the remainder of a job.

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the uploaded file has no data rows
// (header only, or empty).
var ErrEmptyInput = errors.New("file has no data rows")

// ErrUnknownKind is returned when no schema is registered for the
// requested entity kind.
var ErrUnknownKind = errors.New("unknown entity kind")

// ErrTooManyJobs is returned when all ingestion slots are occupied and
// the wait timeout expires. Clients should retry after a short delay.
var ErrTooManyJobs = errors.New("too many concurrent ingestion jobs, please try again later")

// ConfigError indicates the job cannot start at all: a malformed schema,
// an unparsable file format, or a missing required header.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// CommitError indicates a chunk commit failed. Chunks committed before
// the failing one remain committed; Committed reflects that prefix.
type CommitError struct {
	Chunk     int // 0-based index of the failing chunk
	Committed int // Records committed before the failure
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit chunk %d failed after %d records: %v", e.Chunk, e.Committed, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
