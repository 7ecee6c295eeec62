package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rlanders/choreward/internal/auth"
	"github.com/rlanders/choreward/internal/events"
	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/store"
)

type RedemptionHandler struct {
	redemptionStore *store.RedemptionStore
	hub             *events.Hub
	logger          *slog.Logger
}

func NewRedemptionHandler(rs *store.RedemptionStore, hub *events.Hub, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{redemptionStore: rs, hub: hub, logger: logger}
}

func (h *RedemptionHandler) broadcast(ev events.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

func (h *RedemptionHandler) fail(w http.ResponseWriter, op string, err error) {
	if isDomainError(err) {
		h.logger.Debug(op, "error", err)
	} else {
		h.logger.Error(op, "error", err)
	}
	writeDomainError(w, err)
}

// Request spends points on a reward, reserving them immediately.
func (h *RedemptionHandler) Request(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		RewardID int64  `json:"reward_id"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.RewardID == 0 {
		writeError(w, http.StatusBadRequest, "reward_id is required")
		return
	}

	redemption, err := h.redemptionStore.Request(ac.FamilyID, ac.UserID, ac.Role, req.RewardID, req.Notes)
	if err != nil {
		h.fail(w, "request redemption", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "redemption", "requested", redemption.ID, map[string]any{
		"points_spent": redemption.PointsSpent,
	}))
	writeJSON(w, http.StatusCreated, redemption)
}

// Review approves or rejects a pending redemption.
func (h *RedemptionHandler) Review(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var approve bool
	switch model.RedemptionStatus(strings.ToLower(req.Status)) {
	case model.RedemptionStatusApproved:
		approve = true
	case model.RedemptionStatusRejected:
		approve = false
	default:
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	redemption, err := h.redemptionStore.Review(ac.FamilyID, id, ac.UserID, ac.Role, approve, req.Notes)
	if err != nil {
		h.fail(w, "review redemption", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "redemption", string(redemption.Status), id, nil))
	writeJSON(w, http.StatusOK, redemption)
}

// Fulfill marks an approved redemption delivered.
func (h *RedemptionHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	redemption, err := h.redemptionStore.Fulfill(ac.FamilyID, id, ac.UserID, ac.Role)
	if err != nil {
		h.fail(w, "fulfill redemption", err)
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "redemption", "fulfilled", id, nil))
	writeJSON(w, http.StatusOK, redemption)
}

// List returns the family's redemptions for parents, or the child's own.
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var redemptions []model.Redemption
	var err error
	if ac.Role == model.RoleParent {
		redemptions, err = h.redemptionStore.ListByFamily(ac.FamilyID)
	} else {
		redemptions, err = h.redemptionStore.ListByChild(ac.FamilyID, ac.UserID)
	}
	if err != nil {
		h.logger.Error("list redemptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list redemptions")
		return
	}
	if redemptions == nil {
		redemptions = []model.Redemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}
