package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// recordingStore records every WriteBatch call and can be told to fail a
// specific chunk.
type recordingStore struct {
	batches   [][]Document
	failChunk int // -1 never fails
}

func (s *recordingStore) WriteBatch(_ context.Context, _ string, docs []Document) error {
	if s.failChunk >= 0 && len(s.batches) == s.failChunk {
		return errors.New("write refused")
	}
	s.batches = append(s.batches, docs)
	return nil
}

func makeDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{Key: fmt.Sprintf("doc-%04d", i), Data: Record{"i": i}}
	}
	return docs
}

func TestCommit_ChunksInOrder(t *testing.T) {
	store := &recordingStore{failChunk: -1}
	c := NewCommitter(store, 400, nil)

	n, err := c.Commit(context.Background(), "employee", makeDocs(1000))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1000 {
		t.Errorf("committed = %d, want 1000", n)
	}

	wantSizes := []int{400, 400, 200}
	if len(store.batches) != len(wantSizes) {
		t.Fatalf("chunks = %d, want %d", len(store.batches), len(wantSizes))
	}
	for i, want := range wantSizes {
		if len(store.batches[i]) != want {
			t.Errorf("chunk %d size = %d, want %d", i, len(store.batches[i]), want)
		}
	}

	// Order across chunk boundaries must be preserved.
	if store.batches[1][0].Key != "doc-0400" {
		t.Errorf("chunk 1 starts at %q, want doc-0400", store.batches[1][0].Key)
	}
	if store.batches[2][199].Key != "doc-0999" {
		t.Errorf("last doc = %q, want doc-0999", store.batches[2][199].Key)
	}
}

func TestCommit_StopsAtFailedChunk(t *testing.T) {
	store := &recordingStore{failChunk: 1}
	c := NewCommitter(store, 400, nil)

	n, err := c.Commit(context.Background(), "employee", makeDocs(1000))

	if n != 400 {
		t.Errorf("committed = %d, want exactly the first chunk", n)
	}
	// The third chunk must never be attempted.
	if len(store.batches) != 1 {
		t.Errorf("successful chunks = %d, want 1", len(store.batches))
	}

	var ce *CommitError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T, want *CommitError", err)
	}
	if ce.Chunk != 1 || ce.Committed != 400 {
		t.Errorf("CommitError = chunk %d committed %d", ce.Chunk, ce.Committed)
	}
	if errors.Unwrap(ce) == nil {
		t.Error("CommitError should wrap the store error")
	}
}

func TestCommit_Empty(t *testing.T) {
	store := &recordingStore{failChunk: -1}
	c := NewCommitter(store, 400, nil)

	n, err := c.Commit(context.Background(), "employee", nil)
	if err != nil || n != 0 {
		t.Errorf("Commit(nil) = %d, %v", n, err)
	}
	if len(store.batches) != 0 {
		t.Error("empty commit issued a write")
	}
}

func TestCommit_DefaultBatchSize(t *testing.T) {
	store := &recordingStore{failChunk: -1}
	c := NewCommitter(store, 0, nil)

	if _, err := c.Commit(context.Background(), "employee", makeDocs(401)); err != nil {
		t.Fatal(err)
	}
	if len(store.batches) != 2 || len(store.batches[0]) != DefaultMaxBatchSize {
		t.Errorf("chunks = %v sizes, want default-sized first chunk", len(store.batches))
	}
}
