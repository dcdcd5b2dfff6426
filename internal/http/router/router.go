// Package router arma el mux de la API y los middleware chains por ruta.
package router

import (
	"net/http"
	"time"

	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	mw "github.com/ShubhamDalvi1999/authbridge/internal/http/middlewares"
	"github.com/ShubhamDalvi1999/authbridge/internal/rate"
)

// Budget es el presupuesto de rate limiting de un endpoint.
type Budget struct {
	Limit  int
	Window time.Duration
}

// Budgets agrupa los presupuestos por familia de endpoint.
type Budgets struct {
	Login  Budget // token, signin, callbacks
	Signup Budget // alta local y signup delegado
	Forgot Budget // flujo de password reset
}

// Deps contiene todo lo necesario para registrar las rutas de la API.
type Deps struct {
	Auth   AuthRouterDeps
	Social SocialRouterDeps
	Health HealthRouterDeps

	// Metrics es el handler de /metrics. Con nil la ruta no se registra.
	Metrics http.Handler

	CORSAllowedOrigins []string
}

// New construye el handler raíz de la API con todas las rutas registradas.
// CORS envuelve el mux completo para que el preflight funcione en cualquier ruta.
func New(deps Deps) http.Handler {
	mux := http.NewServeMux()

	RegisterAuthRoutes(mux, deps.Auth)
	RegisterSocialRoutes(mux, deps.Social)
	RegisterHealthRoutes(mux, deps.Health)

	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}

	// Todo lo que no matchea responde el 404 JSON de la API, no el del stdlib.
	mux.Handle("/", baseChain(http.HandlerFunc(notFound)))

	return mw.Chain(mux, mw.WithCORS(deps.CORSAllowedOrigins))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteError(w, httperrors.ErrRouteNotFound)
}

// baseChain es el pipeline mínimo de cualquier endpoint de la API.
func baseChain(handler http.Handler, extra ...mw.Middleware) http.Handler {
	chain := []mw.Middleware{
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
	}
	chain = append(chain, extra...)
	chain = append(chain, mw.WithLogging())
	return mw.Chain(handler, chain...)
}

// rateLimited arma el middleware de rate limit para un presupuesto dado.
// Sin limiter o sin presupuesto queda en passthrough.
func rateLimited(limiter rate.MultiLimiter, b Budget, key mw.RateKeyFunc) mw.Middleware {
	return mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: limiter,
		Limit:   b.Limit,
		Window:  b.Window,
		KeyFunc: key,
	})
}
