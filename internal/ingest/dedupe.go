package ingest

// dedupe.go detects duplicate records by natural key: a derived,
// case-insensitive composite that is never persisted as a field.
//
// Existing keys are loaded with one upfront read per job, not one read
// per row. Detection is serialized after parallel validation, so the
// seen-set needs no locking.

import (
	"context"
	"strings"
)

// NaturalKey computes the composite key for a record: the lowercased
// values of the schema's key fields joined with "_". Returns "" when the
// schema declares no natural key.
func NaturalKey(schema EntitySchema, rec Record) string {
	if !schema.HasNaturalKey() {
		return ""
	}

	parts := make([]string, len(schema.NaturalKey))
	for i, field := range schema.NaturalKey {
		parts[i] = strings.ToLower(strings.TrimSpace(rec.String(field)))
	}
	return strings.Join(parts, "_")
}

// dedupeSet tracks keys persisted in the store plus keys emitted by
// earlier rows in the same job.
type dedupeSet struct {
	existing map[string]struct{}
	seen     map[string]struct{}
}

// newDedupeSet loads the persisted key set for kind. A nil KeySource
// means nothing is persisted yet and only in-job duplicates are caught.
func newDedupeSet(ctx context.Context, keys KeySource, kind string) (*dedupeSet, error) {
	existing := map[string]struct{}{}
	if keys != nil {
		loaded, err := keys.ExistingKeys(ctx, kind)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			existing = loaded
		}
	}

	return &dedupeSet{
		existing: existing,
		seen:     make(map[string]struct{}),
	}, nil
}

// claim reports whether key is a duplicate. A fresh key is recorded so a
// later row with the same key is flagged.
func (d *dedupeSet) claim(key string) bool {
	if _, ok := d.existing[key]; ok {
		return true
	}
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}
