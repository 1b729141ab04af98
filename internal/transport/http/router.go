// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns stay
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vouch/internal/events"
	"vouch/internal/jwttoken"
	"vouch/pkg/platform/httputil"
)

// Deps collects everything the router mounts.
type Deps struct {
	Claim         ClaimService
	Admin         AdminService
	Registrations RegistrationList
	Hub           *events.Hub
	Tokens        *jwttoken.Service
	Logger        *slog.Logger
	Registry      *prometheus.Registry
}

// NewRouter wires all endpoints. The admin surface sits behind bearer-token
// auth; the claim surface is public since the claim link itself is the
// credential.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	NewClaimHandler(deps.Claim, deps.Hub, deps.Logger).Register(r)
	NewEventsHandler(deps.Hub, deps.Logger).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(adminAuth(deps.Tokens))
		NewAdminHandler(deps.Admin, deps.Registrations, deps.Logger).Register(r)
	})

	return r
}
