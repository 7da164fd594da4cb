package api

import (
	"net/http"
	"runtime"
	"time"
)

// ==========================================
// SERVICE OPERATIONS
// ==========================================

// HandleHealth - GET /health
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus - GET /api/v1/system/status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.List()
	if err != nil {
		failErr(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, StandardResponse{
		Success: true,
		Data: StatusResponse{
			Status:      "healthy",
			Uptime:      time.Since(s.started).Round(time.Second).String(),
			Version:     s.version,
			CacheRoot:   s.svc.CacheRoot(),
			ReportCount: len(reports),
			GoVersion:   runtime.Version(),
		},
	})
}
