package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes for the indexing engine. Every error that crosses a
// package boundary wraps exactly one of these sentinels so callers can
// branch without string matching.
var (
	// ErrValidation - empty/missing source path, path not a regular file.
	ErrValidation = errors.New("validation error")

	// ErrIO - open/read/write failures on source, archive, or index files.
	ErrIO = errors.New("io error")

	// ErrFormat - no matching bugreport entry in a zip, unparsable sidecar.
	ErrFormat = errors.New("format error")

	// ErrQuery - query compilation or execution failures.
	ErrQuery = errors.New("query error")

	// ErrIndexNotFound - query against a report_id with no on-disk index.
	// Distinct from ErrQuery so callers can offer "prepare first" instead
	// of an opaque failure.
	ErrIndexNotFound = fmt.Errorf("%w: index not found", ErrQuery)
)

// Validation wraps a formatted message as a validation failure.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// IO wraps an underlying error as an I/O failure.
func IO(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIO, op, err)
}

// Format wraps a formatted message as a format failure.
func Format(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrFormat}, args...)...)
}

// Query wraps an underlying error as a query failure.
func Query(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrQuery, op, err)
}

// HTTPStatus maps an error to the status code the API layer should send.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
