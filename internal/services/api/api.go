// Package api provides the read-only HTTP surface over buyer groups and
// run reports
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quorum/internal/core/version"
	"quorum/internal/platform/logger"
	pstrings "quorum/internal/platform/strings"
	bgdomain "quorum/internal/services/buyergroups/domain"
	"quorum/internal/services/runlog"
)

// GroupReader is the buyer-group read surface the handlers need
type GroupReader interface {
	GroupByCompany(ctx context.Context, workspaceID, companyID string) (*bgdomain.GroupView, error)
	ListRecentGroups(ctx context.Context, workspaceID string, limit int) ([]bgdomain.BuyerGroup, error)
	CompaniesNeedingGroups(ctx context.Context, workspaceID string, limit int) ([]bgdomain.Company, error)
}

// RunReader serves persisted run reports
type RunReader interface {
	RecentReports(ctx context.Context, workspaceID string, limit int) ([]runlog.Report, error)
}

// Options configure the router
type Options struct {
	ServiceName    string
	Groups         GroupReader
	Runs           RunReader
	AllowedOrigins []string
}

type handlers struct {
	opts      Options
	log       logger.Logger
	startedAt time.Time
}

// NewRouter builds the chi router with the common middleware stack
func NewRouter(opts Options) *chi.Mux {
	if opts.ServiceName == "" {
		opts.ServiceName = "quorum-api"
	}
	opts.AllowedOrigins = pstrings.IfEmpty(opts.AllowedOrigins, []string{"*"})
	h := &handlers{
		opts:      opts,
		log:       *logger.Named("api"),
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Get("/version", h.version)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/buyer-groups", h.listGroups)
		v1.Get("/buyer-groups/{companyID}", h.groupByCompany)
		v1.Get("/companies/pending", h.pendingCompanies)
		v1.Get("/runs", h.recentRuns)
	})

	return r
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, HealthResponse{
		OK:      true,
		Service: h.opts.ServiceName,
		Started: h.startedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) version(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, version.Info())
}

func (h *handlers) groupByCompany(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceOf(w, r)
	if !ok {
		return
	}
	view, err := h.opts.Groups.GroupByCompany(r.Context(), ws, chi.URLParam(r, "companyID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (h *handlers) listGroups(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceOf(w, r)
	if !ok {
		return
	}
	groups, err := h.opts.Groups.ListRecentGroups(r.Context(), ws, limitOf(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, listResponse[bgdomain.BuyerGroup]{Items: orEmpty(groups)})
}

func (h *handlers) pendingCompanies(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceOf(w, r)
	if !ok {
		return
	}
	companies, err := h.opts.Groups.CompaniesNeedingGroups(r.Context(), ws, limitOf(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, listResponse[bgdomain.Company]{Items: orEmpty(companies)})
}

func (h *handlers) recentRuns(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceOf(w, r)
	if !ok {
		return
	}
	runs, err := h.opts.Runs.RecentReports(r.Context(), ws, limitOf(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, listResponse[runlog.Report]{Items: orEmpty(runs)})
}
