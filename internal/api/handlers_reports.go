package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ==========================================
// REPORT OPERATIONS
// ==========================================

// These handlers turn bugreports into queryable indexes and page through
// them. They are thin adapters over report.Service; all cache/rebuild
// decisions live there.

// HandlePrepare - POST /api/v1/reports/prepare
// Synchronous: blocks until the index is fresh, then returns its summary.
func (s *Server) HandlePrepare(w http.ResponseWriter, r *http.Request) {
	var req PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}

	start := time.Now()
	summary, err := s.svc.Prepare(req.Path, req.TraceID)
	if err != nil {
		failErr(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    summary,
		Meta: map[string]interface{}{
			"trace_id": req.TraceID,
			"took_ms":  time.Since(start).Milliseconds(),
		},
	})
}

// HandlePrepareAsync - POST /api/v1/reports/prepare/async
// Returns a job id immediately; the build runs on the background worker.
func (s *Server) HandlePrepareAsync(w http.ResponseWriter, r *http.Request) {
	var req PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}

	job, err := s.jobs.Submit(req.Path, req.TraceID)
	if err != nil {
		failErr(w, err)
		return
	}

	jsonResponse(w, http.StatusAccepted, StandardResponse{
		Success: true,
		Data:    job,
		Message: "Build queued; poll /api/v1/reports/jobs/" + job.ID,
	})
}

// HandleJobStatus - GET /api/v1/reports/jobs/{id}
func (s *Server) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, ok := s.jobs.Get(id)
	if !ok {
		errorResponse(w, http.StatusNotFound, "Unknown job: "+id)
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{Success: true, Data: job})
}

// HandleQuery - POST /api/v1/reports/{id}/query
func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	start := time.Now()
	page, err := s.svc.Query(reportID, req.FilterSpec, req.Offset, req.Limit)
	if err != nil {
		failErr(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    page,
		Meta:    map[string]interface{}{"took_ms": time.Since(start).Milliseconds()},
	})
}

// HandleReportList - GET /api/v1/reports
func (s *Server) HandleReportList(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.List()
	if err != nil {
		failErr(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    ReportListResponse{Reports: reports, Total: len(reports)},
	})
}

// HandleReportDelete - DELETE /api/v1/reports/{id}
func (s *Server) HandleReportDelete(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")

	if err := s.svc.Delete(reportID); err != nil {
		failErr(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data:    map[string]string{"removed": reportID},
	})
}
