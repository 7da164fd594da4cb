package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/droidscope/logdex/internal/report"
)

// Server wires the report service into an HTTP surface.
type Server struct {
	svc     *report.Service
	jobs    *report.JobRunner
	logger  *log.Logger
	version string
	started time.Time
}

func NewServer(svc *report.Service, jobs *report.JobRunner, logger *log.Logger, version string) *Server {
	return &Server{
		svc:     svc,
		jobs:    jobs,
		logger:  logger,
		version: version,
		started: time.Now(),
	}
}

// Routes builds the router for the whole API surface.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// --- General ---
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /api/v1/system/status", s.HandleStatus)

	// --- Reports ---
	mux.HandleFunc("POST /api/v1/reports/prepare", s.HandlePrepare)
	mux.HandleFunc("POST /api/v1/reports/prepare/async", s.HandlePrepareAsync)
	mux.HandleFunc("GET /api/v1/reports/jobs/{id}", s.HandleJobStatus)
	mux.HandleFunc("POST /api/v1/reports/{id}/query", s.HandleQuery)
	mux.HandleFunc("GET /api/v1/reports", s.HandleReportList)
	mux.HandleFunc("DELETE /api/v1/reports/{id}", s.HandleReportDelete)

	return s.middlewareChain(mux)
}

// ListenAndServe runs the server on the given port until it fails.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Printf("Server starting on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Prepare on a cold cache can be slow
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// middlewareChain wraps the router with CORS, request ids, and latency logging.
func (s *Server) middlewareChain(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// CORS (the desktop frontend talks to us cross-origin)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)

		next.ServeHTTP(w, r)

		s.logger.Printf("%s %s %s %s", reqID, r.Method, r.URL.Path, time.Since(start))
	})
}
