package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rlanders/choreward/internal/auth"
	"github.com/rlanders/choreward/internal/events"
	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/store"
)

type RewardHandler struct {
	rewardStore   *store.RewardStore
	settingsStore *store.SettingsStore
	hub           *events.Hub
	logger        *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, ss *store.SettingsStore, hub *events.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewardStore: rs, settingsStore: ss, hub: hub, logger: logger}
}

func (h *RewardHandler) broadcast(ev events.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

type rewardRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	PointCost         int    `json:"point_cost"`
	QuantityAvailable *int   `json:"quantity_available"`
	Active            bool   `json:"active"`
}

func (r *rewardRequest) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.PointCost < 1 {
		return "point_cost must be >= 1"
	}
	if r.QuantityAvailable != nil && *r.QuantityAvailable < 0 {
		return "quantity_available must be >= 0"
	}
	return ""
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.rewardStore.Create(ac.FamilyID, req.Title, req.Description, req.PointCost, req.QuantityAvailable, req.Active)
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "reward", "created", reward.ID, nil))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var rewards []model.Reward
	var err error
	// Children browse the catalog; inactive rewards are parent-only.
	if ac.Role == model.RoleChild {
		rewards, err = h.rewardStore.ListActive(ac.FamilyID)
	} else {
		rewards, err = h.rewardStore.List(ac.FamilyID)
	}
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(ac.FamilyID, id)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.rewardStore.Update(ac.FamilyID, id, req.Title, req.Description, req.PointCost, req.QuantityAvailable, req.Active)
	if err != nil {
		h.logger.Error("update reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "reward", "updated", id, nil))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(ac.FamilyID, id)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	if err := h.rewardStore.Delete(ac.FamilyID, id); err != nil {
		h.logger.Error("delete reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}

	h.broadcast(events.NewEvent(ac.FamilyID, "reward", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) GetPointBalance(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	userIDStr := r.PathValue("id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Children may only look at their own balance.
	if ac.Role == model.RoleChild && userID != ac.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	balance, err := h.rewardStore.GetPointBalance(ac.FamilyID, userID)
	if err != nil {
		h.logger.Error("get balance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get balance")
		return
	}
	if balance == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

func (h *RewardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	enabled, err := h.settingsStore.Get(ac.FamilyID, "leaderboard_enabled")
	if err != nil {
		h.logger.Error("get leaderboard setting", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get leaderboard")
		return
	}
	if enabled != "true" {
		writeError(w, http.StatusNotFound, "leaderboard is disabled")
		return
	}

	balances, err := h.rewardStore.Leaderboard(ac.FamilyID)
	if err != nil {
		h.logger.Error("get leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get leaderboard")
		return
	}
	if balances == nil {
		balances = []model.PointBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}
