package router

import (
	"net/http"

	ctrl "github.com/ShubhamDalvi1999/authbridge/internal/http/controllers/health"
	mw "github.com/ShubhamDalvi1999/authbridge/internal/http/middlewares"
)

// HealthRouterDeps contiene las dependencias para las rutas de health check.
type HealthRouterDeps struct {
	Controllers *ctrl.Controllers
}

// RegisterHealthRoutes registra las rutas de health check. Públicas, sin auth.
func RegisterHealthRoutes(mux *http.ServeMux, deps HealthRouterDeps) {
	c := deps.Controllers

	mux.Handle("/healthz", healthChain(http.HandlerFunc(c.Health.Healthz)))
	mux.Handle("/readyz", healthChain(http.HandlerFunc(c.Health.Readyz)))
}

// healthChain es el pipeline de los health checks.
// Sin logging: los probes pegan cada pocos segundos y ensucian el log.
func healthChain(handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
	)
}
