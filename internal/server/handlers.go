package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/avelter/qrscan/internal/app"
	"github.com/avelter/qrscan/internal/export"
	"github.com/avelter/qrscan/internal/history"
	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
	"github.com/avelter/qrscan/internal/scanner"
	"github.com/avelter/qrscan/internal/webclient"
)

// handleStartScan accepts a multipart PDF upload plus scan options, stores
// the document, and launches the scan job.
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.AppConfig.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	task, err := parseScanOptions(url.Values(r.MultipartForm.Value))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, scanID, err := s.store.Save(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	task.DocumentPath = path

	// The job outlives this request, so it gets its own context.
	job, err := s.orchestrator.StartScanJob(context.Background(), scanID, header.Filename, task)
	if err != nil {
		s.store.Cleanup(scanID)
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("started scan job",
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "filename", Value: header.Filename})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"scan_id":  job.ScanID,
		"filename": job.Filename,
		"status":   job.Status,
	})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// handleGetScan returns a job's current state. Finished scans that were
// dropped from the job table are served from history.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	if job, ok := s.orchestrator.GetJob(scanID); ok {
		writeJSON(w, http.StatusOK, job)
		return
	}

	report, err := s.history.Get(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, history.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, &app.ScanJob{
		ScanID:   scanID,
		Filename: report.Metadata.FileInfo.Filename,
		Status:   app.JobDone,
		Report:   report,
	})
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	deleted := s.orchestrator.DeleteJob(scanID)
	if err := s.store.Cleanup(scanID); err != nil {
		s.logger.Warn("cleanup on delete", logging.Field{Key: "error", Value: err.Error()})
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleExportCSV streams the per-page CSV view of a finished scan.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	report := s.reportFor(r.Context(), scanID)
	if report == nil {
		writeError(w, http.StatusNotFound, "no finished report for scan")
		return
	}

	content, err := export.PageResultsCSV(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+export.Filename(scanID)+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// reportFor finds a finished report in the job table first, then history.
func (s *Server) reportFor(ctx context.Context, scanID string) *model.ScanReport {
	if job, ok := s.orchestrator.GetJob(scanID); ok && job.Status == app.JobDone && job.Report != nil {
		return job.Report
	}
	report, err := s.history.Get(ctx, scanID)
	if err != nil {
		return nil
	}
	return report
}

// --- History ---

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	report, err := s.history.Get(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, history.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	if err := s.history.Delete(r.Context(), scanID); err != nil {
		if errors.Is(err, history.ErrScanNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Service ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":             "qrscan",
		"scanner_version":     scanner.Version,
		"web_client_backends": webclient.ListBackends(),
		"max_upload_mb":       s.cfg.AppConfig.MaxUploadMB,
		"ai_extraction":       s.cfg.AppConfig.GoogleAPIKey != "",
	})
}

// --- WebSocket ---

// handleScanWS streams a running scan's events. A closed connection cancels
// the scan; an already-finished scan just gets its final state.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	job, ok := s.orchestrator.GetJob(scanID)
	if !ok {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	s.logger.Info("websocket attached", logging.Field{Key: "scan_id", Value: scanID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel the scan.
			s.orchestrator.CancelJob(scanID)
			return
		}
	}
}
