package api

import "github.com/droidscope/logdex/internal/models"

// ==========================================
// 1. STANDARD ENVELOPE
// ==========================================

// StandardResponse wraps all API responses to ensure consistency.
// Clients check "success" first. If false, display "error".
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`    // The actual payload (one of the structs below)
	Message string      `json:"message,omitempty"` // User-friendly message
	Error   string      `json:"error,omitempty"`   // User-friendly error message
	Meta    interface{} `json:"meta,omitempty"`    // Timing, trace id, etc.
}

// ==========================================
// 2. GENERAL SERVICE
// ==========================================

type StatusResponse struct {
	Status      string `json:"status"` // "healthy"
	Uptime      string `json:"uptime"` // Human readable duration
	Version     string `json:"version"`
	CacheRoot   string `json:"cache_root"`
	ReportCount int    `json:"report_count"`
	GoVersion   string `json:"go_version"`
}

// ==========================================
// 3. REPORT OPERATIONS
// ==========================================

// PrepareRequest names the bugreport to index. TraceID is optional; a
// request id is generated when it is empty.
type PrepareRequest struct {
	Path    string `json:"path"`
	TraceID string `json:"trace_id,omitempty"`
}

// QueryRequest is the wire shape of a filtered page request. The filter
// fields are the FilterSpec wire contract, including the legacy
// single-term "text" alias.
type QueryRequest struct {
	models.FilterSpec
	Offset int64 `json:"offset"`
	Limit  int64 `json:"limit"`
}

type ReportListResponse struct {
	Reports []models.IndexMetadata `json:"reports"`
	Total   int                    `json:"total"`
}
