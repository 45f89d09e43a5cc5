package web

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldops/ingest/internal/ingest"
)

// KindInfo describes one registered entity kind for clients building
// upload forms.
type KindInfo struct {
	Kind    string   `json:"kind"`
	Label   string   `json:"label"`
	Headers []string `json:"headers"`
}

// RowResult is the per-row entry in the job response.
type RowResult struct {
	RowIndex int    `json:"rowIndex"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// JobResponse is the response body for an ingestion job.
type JobResponse struct {
	Success          bool        `json:"success"`
	Message          string      `json:"message"`
	RecordsProcessed int         `json:"recordsProcessed"`
	PerRowResults    []RowResult `json:"perRowResults"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"active_jobs": s.service.ActiveJobs(),
	})
}

// handleListKinds returns the registered entity kinds and their upload
// template headers.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	schemas := ingest.All()
	infos := make([]KindInfo, len(schemas))
	for i, schema := range schemas {
		infos[i] = KindInfo{
			Kind:    schema.Kind,
			Label:   schema.Label,
			Headers: schema.Headers(),
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleTemplate serves an empty CSV template with the kind's headers.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	schema, ok := ingest.Lookup(kind)
	if !ok {
		s.respondError(w, r, ingest.ErrUnknownKind, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind+"_template.csv"))

	cw := csv.NewWriter(w)
	_ = cw.Write(schema.Headers())
	cw.Flush()
}

// handleIngest runs one synchronous ingestion job from a multipart file
// upload and returns the job report.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind == "" {
		s.respondError(w, r, errors.New("missing entity kind"), http.StatusBadRequest)
		return
	}

	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	format := ingest.Format(r.FormValue("format"))
	if format == "" {
		format = ingest.SniffFormat(header.Filename)
	}

	report, err := s.service.Ingest(r.Context(), kind, data, format)
	if err != nil && report == nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	// A commit failure still carries the committed prefix; surface the
	// partial report with a gateway error status.
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, toJobResponse(report))
}

func toJobResponse(report *ingest.Report) JobResponse {
	rows := make([]RowResult, len(report.Rows))
	for i, o := range report.Rows {
		rows[i] = RowResult{
			RowIndex: o.Row,
			Status:   string(o.Status),
			Message:  o.Message(),
		}
		if len(o.Warnings) > 0 {
			rows[i].Warning = o.Warnings[0]
		}
	}

	return JobResponse{
		Success:          report.Success,
		Message:          report.Message,
		RecordsProcessed: report.RecordsProcessed,
		PerRowResults:    rows,
	}
}
