package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rlanders/choreward/internal/events"
	"github.com/rlanders/choreward/internal/handler"
	"github.com/rlanders/choreward/internal/middleware"
	"github.com/rlanders/choreward/internal/store"
)

type Server struct {
	db           *sql.DB
	hub          *events.Hub
	authH        *handler.AuthHandler
	userH        *handler.UserHandler
	categoryH    *handler.CategoryHandler
	choreH       *handler.ChoreHandler
	rewardH      *handler.RewardHandler
	redemptionH  *handler.RedemptionHandler
	activityH    *handler.ActivityHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := events.NewHub(logger.With("component", "events"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	categoryStore := store.NewCategoryStore(db)
	choreStore := store.NewChoreStore(db)
	rewardStore := store.NewRewardStore(db)
	redemptionStore := store.NewRedemptionStore(db)
	activityStore := store.NewActivityStore(db)
	settingsStore := store.NewSettingsStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		userH:        handler.NewUserHandler(userStore, logger.With("component", "user")),
		categoryH:    handler.NewCategoryHandler(categoryStore, logger.With("component", "category")),
		choreH:       handler.NewChoreHandler(choreStore, hub, logger.With("component", "chore")),
		rewardH:      handler.NewRewardHandler(rewardStore, settingsStore, hub, logger.With("component", "reward")),
		redemptionH:  handler.NewRedemptionHandler(redemptionStore, hub, logger.With("component", "redemption")),
		activityH:    handler.NewActivityHandler(activityStore, logger.With("component", "activity")),
		sessionStore: sessionStore,
		userStore:    userStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/login/child", s.rateLimitedHandler(s.authH.LoginChild))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	parent := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireParent(h)
	}

	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Users
	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.Handle("POST /api/users", parent(s.userH.Create))
	mux.Handle("PUT /api/users/{id}", parent(s.userH.Update))
	mux.Handle("DELETE /api/users/{id}", parent(s.userH.Deactivate))
	mux.Handle("PUT /api/users/{id}/pin", parent(s.userH.SetPIN))
	mux.Handle("DELETE /api/users/{id}/pin", parent(s.userH.ClearPIN))

	// Categories
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.Handle("POST /api/categories", parent(s.categoryH.Create))
	mux.Handle("PUT /api/categories/{id}", parent(s.categoryH.Update))
	mux.Handle("DELETE /api/categories/{id}", parent(s.categoryH.Delete))

	// Chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.Handle("POST /api/chores", parent(s.choreH.Create))
	mux.Handle("PUT /api/chores/{id}", parent(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", parent(s.choreH.Delete))
	mux.Handle("POST /api/chores/bulk-delete", parent(s.choreH.BulkDelete))
	mux.Handle("GET /api/chores/verification-queue", parent(s.choreH.VerificationQueue))
	mux.HandleFunc("POST /api/chores/{id}/claim", s.choreH.Claim)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("POST /api/chores/{id}/photo", s.choreH.AddPhoto)
	mux.Handle("POST /api/chores/{id}/verify", parent(s.choreH.Verify))
	mux.Handle("POST /api/chores/{id}/reset", parent(s.choreH.Reset))

	// Rewards and points
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.Handle("POST /api/rewards", parent(s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", parent(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", parent(s.rewardH.Delete))
	mux.HandleFunc("GET /api/users/{id}/points", s.rewardH.GetPointBalance)
	mux.HandleFunc("GET /api/leaderboard", s.rewardH.GetLeaderboard)

	// Redemptions
	mux.HandleFunc("GET /api/redemptions", s.redemptionH.List)
	mux.HandleFunc("POST /api/redemptions", s.redemptionH.Request)
	mux.Handle("POST /api/redemptions/{id}/review", parent(s.redemptionH.Review))
	mux.Handle("POST /api/redemptions/{id}/fulfill", parent(s.redemptionH.Fulfill))

	// Activity feed
	mux.HandleFunc("GET /api/activity", s.activityH.List)

	// WebSocket
	mux.HandleFunc("GET /ws", events.Handler(s.hub, s.logger.With("component", "ws")))
}
