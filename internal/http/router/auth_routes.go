package router

import (
	"net/http"

	ctrl "github.com/ShubhamDalvi1999/authbridge/internal/http/controllers/auth"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/handlers"
	mw "github.com/ShubhamDalvi1999/authbridge/internal/http/middlewares"
	jwtx "github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/rate"

	"github.com/go-chi/chi/v5"
)

// AuthRouterDeps contiene las dependencias para las rutas de auth local.
type AuthRouterDeps struct {
	Controllers *ctrl.Controllers
	Reset       *handlers.ResetHandler
	Issuer      *jwtx.Issuer
	RateLimiter rate.MultiLimiter // opcional
	Budgets     Budgets
}

// RegisterAuthRoutes registra las rutas de autenticación local.
func RegisterAuthRoutes(mux *http.ServeMux, deps AuthRouterDeps) {
	c := deps.Controllers

	// POST /api/auth/ - alta de usuario. El {$} evita que el subtree
	// /api/auth/* entero caiga en este handler.
	mux.Handle("/api/auth/{$}", baseChain(http.HandlerFunc(c.Create.Create),
		rateLimited(deps.RateLimiter, deps.Budgets.Signup, mw.IPRateKey("signup")),
	))

	// POST /api/auth/token - password grant
	mux.Handle("/api/auth/token", baseChain(http.HandlerFunc(c.Token.Token),
		rateLimited(deps.RateLimiter, deps.Budgets.Login, mw.IPRateKey("login")),
	))

	// GET /api/auth/users/me - requiere bearer token
	mux.Handle("/api/auth/users/me", baseChain(http.HandlerFunc(c.Me.Me),
		mw.RequireAuth(deps.Issuer),
	))

	// /api/auth/password-reset/{request,confirm} - flujo montado como chi.
	if deps.Reset != nil {
		sub := chi.NewRouter()
		deps.Reset.Register(sub)
		mux.Handle("/api/auth/password-reset/",
			baseChain(http.StripPrefix("/api/auth/password-reset", sub),
				rateLimited(deps.RateLimiter, deps.Budgets.Forgot, mw.EmailRateKey("forgot")),
			))
	}
}
