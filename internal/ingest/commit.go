package ingest

// commit.go writes surviving records to the document store in bounded,
// strictly sequential chunks. Each chunk is one atomic batched write;
// there is no rollback across chunks. When a chunk fails, processing
// stops immediately and the committed prefix is reported as-is.

import (
	"context"
	"log/slog"
)

// DefaultMaxBatchSize is the chunk bound. The backend's hard limit is 500
// operations per atomic batch; 400 leaves headroom for store internals.
const DefaultMaxBatchSize = 400

// Committer partitions documents into chunks and commits them in order.
type Committer struct {
	docs      DocumentStore
	batchSize int
	log       *slog.Logger
}

// NewCommitter creates a committer writing through docs. A non-positive
// batchSize falls back to DefaultMaxBatchSize.
func NewCommitter(docs DocumentStore, batchSize int, log *slog.Logger) *Committer {
	if batchSize <= 0 {
		batchSize = DefaultMaxBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Committer{docs: docs, batchSize: batchSize, log: log}
}

// Commit writes docs for kind chunk by chunk. It returns the number of
// records committed; on chunk failure the error is a *CommitError and the
// count reflects the committed prefix only.
func (c *Committer) Commit(ctx context.Context, kind string, docs []Document) (int, error) {
	committed := 0

	for chunk := 0; committed < len(docs); chunk++ {
		end := committed + c.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		if err := c.docs.WriteBatch(ctx, kind, docs[committed:end]); err != nil {
			chunkCommits.WithLabelValues(kind, "failure").Inc()
			c.log.Error("chunk commit failed",
				"kind", kind,
				"chunk", chunk,
				"committed", committed,
				"error", err,
			)
			return committed, &CommitError{Chunk: chunk, Committed: committed, Err: err}
		}

		committed = end
		chunkCommits.WithLabelValues(kind, "success").Inc()
		c.log.Debug("chunk committed", "kind", kind, "chunk", chunk, "records", committed)
	}

	return committed, nil
}
