package ingest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceIngest_UnknownKind(t *testing.T) {
	Clear()
	defer Clear()

	s := NewService(Deps{Docs: &recordingStore{failChunk: -1}}, Options{}, ServiceConfig{}, nil)

	if _, err := s.Ingest(context.Background(), "vendor", []byte("a,b\n1,2\n"), FormatCSV); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestServiceIngest_RunsRegisteredKind(t *testing.T) {
	Clear()
	defer Clear()
	Register(pipelineTestSchema())

	store := &recordingStore{failChunk: -1}
	s := NewService(Deps{Docs: store}, Options{Now: fixedClock()}, ServiceConfig{}, nil)

	csv := "Client Name,Site Name,Site ID\nAcme Corp,Main Gate,S-001\n"
	report, err := s.Ingest(context.Background(), "site", []byte(csv), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Success || report.RecordsProcessed != 1 {
		t.Errorf("report = success=%v processed=%d", report.Success, report.RecordsProcessed)
	}
	if s.ActiveJobs() != 0 {
		t.Errorf("ActiveJobs() = %d after completion", s.ActiveJobs())
	}
}

func TestServiceIngest_TooManyJobs(t *testing.T) {
	Clear()
	defer Clear()
	Register(pipelineTestSchema())

	s := NewService(Deps{Docs: &recordingStore{failChunk: -1}}, Options{}, ServiceConfig{
		MaxConcurrentJobs: 1,
		MaxWaitTime:       10 * time.Millisecond,
	}, nil)

	// Occupy the only slot directly.
	if err := s.limiter.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.limiter.Release()

	_, err := s.Ingest(context.Background(), "site", []byte("Client Name,Site Name,Site ID\nA,B,C\n"), FormatCSV)
	if !errors.Is(err, ErrTooManyJobs) {
		t.Errorf("err = %v, want ErrTooManyJobs", err)
	}
}
