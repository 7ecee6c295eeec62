package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rlanders/choreward/internal/auth"
	"github.com/rlanders/choreward/internal/events"
	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/store"
)

type ChoreHandler struct {
	choreStore *store.ChoreStore
	hub        *events.Hub
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hub *events.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(ev events.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

func (h *ChoreHandler) fail(w http.ResponseWriter, op string, err error) {
	if isDomainError(err) {
		h.logger.Debug(op, "error", err)
	} else {
		h.logger.Error(op, "error", err)
	}
	writeDomainError(w, err)
}

type choreRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *int64     `json:"category_id"`
	PointValue  int        `json:"point_value"`
	IsBonus     bool       `json:"is_bonus"`
	AssignedTo  *int64     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

func (r *choreRequest) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.PointValue < 0 {
		return "point_value must be >= 0"
	}
	return ""
}

func (r *choreRequest) params() store.ChoreParams {
	return store.ChoreParams{
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		PointValue:  r.PointValue,
		IsBonus:     r.IsBonus,
		AssignedTo:  r.AssignedTo,
		DueDate:     r.DueDate,
	}
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	chore, err := h.choreStore.Create(ac.FamilyID, ac.UserID, req.params())
	if err != nil {
		h.fail(w, "create chore", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "created", chore.ID, nil))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var opts store.ListOptions
	if s := r.URL.Query().Get("status"); s != "" {
		opts.Status = model.ChoreStatus(s)
	}
	if r.URL.Query().Get("claimable") == "true" {
		opts.Claimable = true
	}
	// Children only ever see their own assignments plus the claimable
	// board; parents see everything in the family.
	if ac.Role == model.RoleChild && !opts.Claimable {
		opts.AssignedTo = &ac.UserID
	}

	chores, err := h.choreStore.List(ac.FamilyID, opts)
	if err != nil {
		h.fail(w, "list chores", err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

// VerificationQueue lists completed chores awaiting review, oldest first.
func (h *ChoreHandler) VerificationQueue(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	chores, err := h.choreStore.VerificationQueue(ac.FamilyID)
	if err != nil {
		h.fail(w, "verification queue", err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	chore, err := h.choreStore.Update(ac.FamilyID, id, ac.UserID, ac.Role, req.params())
	if err != nil {
		h.fail(w, "update chore", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "updated", id, nil))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.choreStore.Delete(ac.FamilyID, id, ac.UserID, ac.Role); err != nil {
		h.fail(w, "delete chore", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	deleted, err := h.choreStore.BulkDelete(ac.FamilyID, req.IDs, ac.UserID, ac.Role)
	if err != nil {
		h.fail(w, "bulk delete chores", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "bulk_deleted", 0, map[string]any{"count": deleted}))
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (h *ChoreHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	chore, err := h.choreStore.Claim(ac.FamilyID, id, ac.UserID, ac.Role)
	if err != nil {
		h.fail(w, "claim chore", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "claimed", id, nil))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PhotoURL string `json:"photo_url"`
		Notes    string `json:"notes"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	chore, err := h.choreStore.Complete(ac.FamilyID, id, ac.UserID, ac.Role, req.PhotoURL, req.Notes)
	if err != nil {
		h.fail(w, "complete chore", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "completed", id, nil))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PhotoURL string `json:"photo_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.PhotoURL) == "" {
		writeError(w, http.StatusBadRequest, "photo_url is required")
		return
	}

	chore, err := h.choreStore.AddPhoto(ac.FamilyID, id, ac.UserID, ac.Role, req.PhotoURL)
	if err != nil {
		h.fail(w, "add photo", err)
		return
	}

	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Approved      bool   `json:"approved"`
		Feedback      string `json:"feedback"`
		PointsPenalty int    `json:"points_penalty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PointsPenalty < 0 {
		writeError(w, http.StatusBadRequest, "points_penalty must be >= 0")
		return
	}

	chore, err := h.choreStore.Verify(ac.FamilyID, id, ac.UserID, ac.Role, req.Approved, req.Feedback, req.PointsPenalty)
	if err != nil {
		h.fail(w, "verify chore", err)
		return
	}

	action := "verified"
	if !req.Approved {
		action = "rejected"
	}
	h.broadcast(events.NewEvent(ac.FamilyID, "chore", action, id, map[string]any{
		"points": chore.PointValue,
	}))
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	chore, err := h.choreStore.Reset(ac.FamilyID, id, ac.UserID, ac.Role)
	if err != nil {
		h.fail(w, "reset chore", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "chore", "reset", id, nil))
	writeJSON(w, http.StatusOK, chore)
}
