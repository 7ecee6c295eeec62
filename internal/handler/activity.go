package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rlanders/choreward/internal/auth"
	"github.com/rlanders/choreward/internal/store"
)

const defaultActivityLimit = 50

type ActivityHandler struct {
	activityStore *store.ActivityStore
	logger        *slog.Logger
}

func NewActivityHandler(as *store.ActivityStore, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activityStore: as, logger: logger}
}

// List returns the family's recent activity, newest first.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	entries, err := h.activityStore.ListByFamily(auth.FamilyID(r.Context()), limit)
	if err != nil {
		h.logger.Error("list activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
