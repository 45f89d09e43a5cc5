package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldops/ingest/internal/config"
	"github.com/fieldops/ingest/internal/ingest"
)

type memStore struct {
	docs []ingest.Document
}

func (s *memStore) WriteBatch(_ context.Context, _ string, docs []ingest.Document) error {
	s.docs = append(s.docs, docs...)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Ingest: config.IngestConfig{
			MaxFileSize:       1 << 20,
			MaxBatchSize:      400,
			ValidateWorkers:   2,
			MediaWorkers:      2,
			MaxConcurrentJobs: 2,
			MaxWaitTime:       time.Second,
			Timeout:           time.Minute,
		},
	}
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	ingest.Clear()
	t.Cleanup(ingest.Clear)

	ingest.Register(ingest.EntitySchema{
		Kind:  "site",
		Label: "Sites",
		Fields: []ingest.FieldSpec{
			{Name: "clientName", Header: "Client Name", Required: true},
			{Name: "siteName", Header: "Site Name", Required: true},
			{Name: "siteId", Header: "Site ID"},
		},
		NaturalKey: []string{"clientName", "siteName"},
		KeyField:   "siteId",
	})

	store := &memStore{}
	svc := ingest.NewService(ingest.Deps{Docs: store}, ingest.Options{}, ingest.ServiceConfig{}, nil)
	return NewServer(svc, testConfig()), store
}

// multipartUpload builds a multipart body with one "file" part.
func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleIngest(t *testing.T) {
	srv, store := newTestServer(t)

	csv := "Client Name,Site Name,Site ID\n" +
		"Acme Corp,Main Gate,S-001\n" +
		",East Wing,S-002\n" +
		"Acme Corp,Main Gate,S-003\n"
	body, contentType := multipartUpload(t, "sites.csv", csv)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/site", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp JobResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	if !resp.Success {
		t.Errorf("Success = false: %s", resp.Message)
	}
	if resp.RecordsProcessed != 1 {
		t.Errorf("RecordsProcessed = %d, want 1", resp.RecordsProcessed)
	}
	if len(resp.PerRowResults) != 3 {
		t.Fatalf("PerRowResults = %d rows", len(resp.PerRowResults))
	}

	wantStatus := []string{"success", "error", "duplicate"}
	for i, want := range wantStatus {
		row := resp.PerRowResults[i]
		if row.RowIndex != i+1 {
			t.Errorf("row %d index = %d", i, row.RowIndex)
		}
		if row.Status != want {
			t.Errorf("row %d status = %q, want %q", i+1, row.Status, want)
		}
	}
	if msg := resp.PerRowResults[1].Message; !strings.Contains(msg, "clientName is required") {
		t.Errorf("error row message = %q", msg)
	}

	if len(store.docs) != 1 || store.docs[0].Key != "S-001" {
		t.Errorf("stored docs = %v", store.docs)
	}
}

func TestHandleIngest_UnknownKind(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "x.csv", "a,b\n1,2\n")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/vendor", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleIngest_EmptyFile(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "sites.csv", "Client Name,Site Name,Site ID\n")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest/site", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngest_NoFilePart(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("format", "csv")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/site", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListKinds(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/kinds", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var kinds []KindInfo
	if err := json.NewDecoder(rec.Body).Decode(&kinds); err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 1 || kinds[0].Kind != "site" {
		t.Fatalf("kinds = %v", kinds)
	}
	if len(kinds[0].Headers) != 3 || kinds[0].Headers[0] != "Client Name" {
		t.Errorf("headers = %v", kinds[0].Headers)
	}
}

func TestHandleTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/template/site", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "site_template.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "Client Name,Site Name,Site ID" {
		t.Errorf("body = %q", got)
	}
}

func TestHandleTemplate_UnknownKind(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/template/vendor", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v", resp["status"])
	}
}
