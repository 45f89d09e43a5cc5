package ingest

import (
	"context"
	"strings"
	"time"
)

// FieldType represents the expected data type for a source column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldDate
	FieldGeo
)

// FieldSpec defines validation and normalization rules for a single column.
type FieldSpec struct {
	Name       string              // Canonical field name in the normalized record
	Header     string              // Source column header (defaults to Name)
	Type       FieldType           // Expected data type
	Required   bool                // Empty or missing value fails validation
	Normalizer func(string) string // Optional transformation applied before validation
	Validate   func(string) error  // Optional format check after the type check
}

// SourceHeader returns the column header this field reads from.
func (f FieldSpec) SourceHeader() string {
	if f.Header != "" {
		return f.Header
	}
	return f.Name
}

// MediaSpec declares one embedded-media field and how to offload it.
type MediaSpec struct {
	Field          string // Record field holding the inline data URI
	FallbackField  string // Optional field carrying an external URL
	TargetField    string // Record field receiving the storage URL (or nil)
	NamespaceField string // Field whose value namespaces the storage path
	MaxWidth       int    // Bounding box for downscaling
	MaxHeight      int
}

// DeriveFunc computes synthetic fields for a record that survived
// validation and duplicate detection. Failures must degrade to a
// placeholder value rather than rejecting the record.
type DeriveFunc func(ctx context.Context, d *Deriver, rec Record, rowIndex int)

// EntitySchema contains everything needed to ingest one upload kind.
type EntitySchema struct {
	Kind   string // Unique registry key: "employee", "site", "workorder"
	Label  string // Display name
	Fields []FieldSpec

	// NaturalKey lists canonical field names whose lowercased values,
	// joined with "_", form the duplicate-detection key. Empty disables
	// duplicate detection for this kind.
	NaturalKey []string

	// KeyField names the record field used as the document key. When
	// empty, or when the field is absent from a record, a fresh UUID
	// is used instead.
	KeyField string

	Derive []DeriveFunc
	Media  []MediaSpec
}

// HeaderMap returns the mapping from lowercased source header to
// canonical field name, built from the field specs.
func (s EntitySchema) HeaderMap() map[string]string {
	m := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		m[strings.ToLower(f.SourceHeader())] = f.Name
	}
	return m
}

// HasNaturalKey reports whether this kind participates in duplicate detection.
func (s EntitySchema) HasNaturalKey() bool {
	return len(s.NaturalKey) > 0
}

// Headers returns the source column headers in declaration order,
// used for template downloads.
func (s EntitySchema) Headers() []string {
	headers := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		headers[i] = f.SourceHeader()
	}
	return headers
}

// RawRow is one parsed input line: trimmed cell values keyed by canonical
// field name (when the header is schema-mapped) or by the trimmed source
// header (when unmapped). Index is 1-based with the header row excluded.
type RawRow struct {
	Index int
	Cells map[string]string
}

// GeoPoint is a parsed geocoordinate pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is a normalized record: canonical field names mapped to typed
// values (string, float64, time.Time, GeoPoint). Derived fields are merged
// in after validation. A Record is owned by a single pipeline run and
// never shared across rows.
type Record map[string]any

// String returns the record's value for field as a string, or "" when the
// field is absent or not a string.
func (r Record) String(field string) string {
	v, ok := r[field].(string)
	if !ok {
		return ""
	}
	return v
}

// RowStatus classifies the outcome of a single input row.
type RowStatus string

const (
	StatusSuccess   RowStatus = "success"
	StatusError     RowStatus = "error"
	StatusDuplicate RowStatus = "duplicate"
)

// RowOutcome is the final disposition of one input row.
type RowOutcome struct {
	Row      int       // 1-based data row index, header excluded
	Status   RowStatus
	Messages []string // Validation errors, or the duplicate key note
	Warnings []string // Non-fatal degradations (media fallback, QR fallback)
	Key      string   // Natural key, set for duplicates
	Record   Record   // Non-nil only for successful rows
}

// Message joins the row's messages into a single string for reporting.
func (o RowOutcome) Message() string {
	return strings.Join(o.Messages, "; ")
}

// Report is the aggregate result of one ingestion job.
type Report struct {
	Kind             string
	Success          bool
	Message          string
	TotalRows        int
	Succeeded        int
	ValidationErrors int
	Duplicates       int
	RecordsProcessed int // Records actually committed to the store
	Rows             []RowOutcome
	Duration         time.Duration

	commitErr *CommitError
}

// CommitFailure returns the chunk-level commit error, or nil when every
// chunk committed.
func (r *Report) CommitFailure() *CommitError {
	return r.commitErr
}

// Document is one keyed record bound for the document store.
type Document struct {
	Key  string
	Data Record
}

// DocumentStore is an abstract keyed-document store with an atomic
// batched-write primitive. Implementations must reject batches larger
// than their per-operation limit.
type DocumentStore interface {
	WriteBatch(ctx context.Context, kind string, docs []Document) error
}

// KeySource loads the natural keys already persisted for an entity kind.
// Called once per job, before any row is processed.
type KeySource interface {
	ExistingKeys(ctx context.Context, kind string) (map[string]struct{}, error)
}

// Sequencer hands out monotonically increasing integers per scope. Used
// for identifier suffixes so repeated runs cannot collide.
type Sequencer interface {
	Next(ctx context.Context, scope string) (int, error)
}

// ObjectStore accepts bytes at a path and returns a retrievable URL.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
}
