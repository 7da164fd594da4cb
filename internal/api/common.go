package api

import (
	"encoding/json"
	"net/http"

	"github.com/droidscope/logdex/internal/errs"
)

// jsonResponse sends a standard JSON response
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse sends a standard Error response
func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, StandardResponse{
		Success: false,
		Error:   msg,
	})
}

// failErr maps an engine error onto the taxonomy's HTTP status.
func failErr(w http.ResponseWriter, err error) {
	errorResponse(w, errs.HTTPStatus(err), err.Error())
}
