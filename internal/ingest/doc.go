// Package ingest implements the tabular batch-ingestion pipeline.
//
// This package contains all domain logic independent of any transport layer.
// An uploaded spreadsheet flows through a fixed sequence of stages, each
// consuming the previous stage's output:
//
//  1. Parse: CSV or XLSX bytes become ordered header-keyed rows.
//  2. Validate: each row is checked against the entity's field schema and
//     normalized into typed values. All errors for a row are collected
//     before the row is rejected.
//  3. Deduplicate: natural keys are checked against the store and against
//     earlier rows in the same job. Schemas without a natural key skip
//     this stage.
//  4. Derive: synthetic fields (identifiers, QR payloads, full names) are
//     merged into surviving records.
//  5. Media: inline images are decoded, downscaled, re-encoded, and
//     offloaded to object storage. Failures degrade to a fallback URL or
//     null, never failing the row.
//  6. Commit: records are written to the document store in size-bounded
//     atomic chunks, strictly in order.
//
// # Entity Registry
//
// Entity kinds are registered at init time using [Register]. Each
// [EntitySchema] declares the field specs, header aliases, natural key,
// derivation steps, and media rules for one upload kind:
//
//	ingest.Register(ingest.EntitySchema{
//	    Kind:  "site",
//	    Label: "Sites",
//	    Fields: []ingest.FieldSpec{
//	        {Name: "clientName", Header: "Client Name", Required: true},
//	        {Name: "geolocation", Header: "Geolocation", Type: ingest.FieldGeo},
//	    },
//	    NaturalKey: []string{"clientName", "siteName"},
//	})
//
// # External collaborators
//
// The document store, object store, and identifier sequencer are consumed
// through small interfaces ([DocumentStore], [ObjectStore], [KeySource],
// [Sequencer]) and injected into [NewPipeline], so the pipeline is fully
// testable without a live backend.
//
// # Outcome accounting
//
// Every input data row produces exactly one [RowOutcome], in the original
// row order. A row is reported as a duplicate only after it has passed
// validation; the two failure classes never overlap. Chunk commits are
// sequential, so [Report.RecordsProcessed] always reflects a committed
// prefix of the successful rows even when a later chunk fails.
package ingest
