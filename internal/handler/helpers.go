package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rlanders/choreward/internal/points"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the points package errors to HTTP statuses.
// Anything unrecognized is treated as an internal error and its detail
// is not leaked to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, points.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, points.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, points.ErrChoreFinalized),
		errors.Is(err, points.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, points.ErrInsufficientPoints),
		errors.Is(err, points.ErrOutOfStock):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// isDomainError reports whether err is one of the expected precondition
// failures, which get logged at debug rather than error level.
func isDomainError(err error) bool {
	return errors.Is(err, points.ErrNotFound) ||
		errors.Is(err, points.ErrForbidden) ||
		errors.Is(err, points.ErrInvalidTransition) ||
		errors.Is(err, points.ErrInsufficientPoints) ||
		errors.Is(err, points.ErrOutOfStock) ||
		errors.Is(err, points.ErrChoreFinalized)
}
