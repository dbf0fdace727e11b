package api

import (
	"net/http"
	"time"

	"leadflow/internal/auth"
	"leadflow/internal/db"
	"leadflow/internal/pubsub"
	"leadflow/internal/schema"
	"leadflow/internal/service"
	"leadflow/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Dependencies struct {
	DB        *db.Pool
	Bus       *pubsub.Bus
	Hub       *ws.Hub
	Log       *zap.Logger
	JobClient service.JobClient
	Auth      *auth.Config

	Leads     *service.LeadService
	Importer  *service.ImportService
	Summaries *service.SummaryService
	Variants  *service.VariantService
	Schemas   *schema.Compiler
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	// Timeout everything except WebSocket upgrades; those live past it.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, req)
				return
			}
			middleware.Timeout(60 * time.Second)(next).ServeHTTP(w, req)
		})
	})

	r.Get("/health", d.health)

	// The webhook authenticates with its own shared secret.
	r.Post("/webhook", d.webhook)

	r.Get("/ws", d.wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		r.Get("/leads", d.listLeads)
		r.Post("/leads", d.createLead)
		r.Get("/leads/{id}", d.getLead)
		r.Put("/leads/{id}", d.updateLead)
		r.Post("/leads/{id}/approve", d.approveLead)
		r.Post("/leads/{id}/reject", d.rejectLead)

		r.Get("/cohorts/summary", d.cohortSummary)
		r.Post("/cohorts/{cohortId}/generate-variants", d.generateVariants)
		r.Post("/cohorts/{cohortId}/apply-variant", d.applyVariant)

		r.Post("/import/start", d.startImport)
		r.Get("/import/status/{jobId}", d.importStatus)
		r.Post("/import/csv", d.importCSVSync)

		r.Get("/export.csv", d.exportCSV)
		r.Post("/seed", d.seed)
	})

	return r
}

func (d Dependencies) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "leadflow-api",
	})
}
