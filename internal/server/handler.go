package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tmater/waitlist/internal/config"
	"github.com/tmater/waitlist/internal/expiry"
	"github.com/tmater/waitlist/internal/identity"
	"github.com/tmater/waitlist/internal/metrics"
	"github.com/tmater/waitlist/internal/notify"
	"github.com/tmater/waitlist/internal/proto"
	"github.com/tmater/waitlist/internal/sheets"
	"github.com/tmater/waitlist/internal/store"
)

// Store is the persistence the handlers need.
type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*store.Profile, error)
	ListProfiles(ctx context.Context) ([]store.Profile, error)
	CreateProfile(ctx context.Context, p store.Profile) (*store.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role store.Role) error
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	CountAdmins(ctx context.Context) (int, error)
	ListCleanupRuns(ctx context.Context, limit int) ([]proto.CleanupRun, error)
	Ping(ctx context.Context) error
}

// Identity is the external auth provider.
type Identity interface {
	CreateUser(ctx context.Context, email, password, fullName string) (*identity.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
}

type Cleaner interface {
	Run(ctx context.Context) (*expiry.Result, error)
}

type Relay interface {
	Trigger(ctx context.Context, source string) (*notify.Response, error)
}

type SheetFetcher interface {
	Fetch(ctx context.Context, sheetID, tab string) (*sheets.Table, error)
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Store    Store
	Identity Identity
	Cleaner  Cleaner
	Relay    Relay
	Sheets   SheetFetcher
	Config   *config.Config
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	Deps
	limiter *rateLimiter
	now     func() time.Time
}

// New creates a new Handler.
func New(d Deps) *Handler {
	d.Log = d.Log.WithField("component", "server")
	return &Handler{Deps: d, limiter: newRateLimiter(), now: time.Now}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestID)
	r.Use(h.recoverer)
	r.Use(h.instrument)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cleanup-expired", h.requireCron(h.handleCleanupExpired))
		r.Get("/cron/match-alerts", h.requireCron(h.handleMatchAlerts))
		r.Post("/register", h.limiter.middleware(h.handleRegister))

		r.Get("/me", h.requireSession(h.handleMe))
		r.Get("/directory", h.requireSession(h.handleDirectory))
		r.Get("/dashboard", h.requireSession(h.handleDashboard))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", h.requireAdmin(h.handleListUsers))
			r.Patch("/users/{id}", h.requireAdmin(h.handleUpdateUserRole))
			r.Delete("/users/{id}", h.requireAdmin(h.handleDeleteUser))
			r.Get("/cleanup-runs", h.requireAdmin(h.handleListCleanupRuns))
		})
	})
	return r
}

// handleHealth reports whether the database is reachable.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.logger(r).WithError(err).Warn("handler: health check failed")
		writeError(w, http.StatusServiceUnavailable, "database unavailable", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}
