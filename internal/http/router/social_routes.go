package router

import (
	"net/http"

	ctrl "github.com/ShubhamDalvi1999/authbridge/internal/http/controllers/social"
	mw "github.com/ShubhamDalvi1999/authbridge/internal/http/middlewares"
	"github.com/ShubhamDalvi1999/authbridge/internal/rate"
)

// SocialRouterDeps contiene las dependencias para las rutas de login social.
type SocialRouterDeps struct {
	Controllers *ctrl.Controllers
	RateLimiter rate.MultiLimiter // opcional
	Budgets     Budgets
}

// RegisterSocialRoutes registra las rutas de los flujos OAuth.
func RegisterSocialRoutes(mux *http.ServeMux, deps SocialRouterDeps) {
	c := deps.Controllers

	// GET /api/auth/google/authorize
	mux.Handle("/api/auth/google/authorize", baseChain(http.HandlerFunc(c.Google.Authorize)))

	// POST /api/auth/google/callback
	mux.Handle("/api/auth/google/callback", baseChain(http.HandlerFunc(c.Google.Callback),
		rateLimited(deps.RateLimiter, deps.Budgets.Login, mw.IPRateKey("google_callback")),
	))

	// GET /api/auth/supabase/authorize
	mux.Handle("/api/auth/supabase/authorize", baseChain(http.HandlerFunc(c.Supabase.Authorize)))

	// POST /api/auth/supabase/callback
	mux.Handle("/api/auth/supabase/callback", baseChain(http.HandlerFunc(c.Supabase.Callback),
		rateLimited(deps.RateLimiter, deps.Budgets.Login, mw.IPRateKey("supabase_callback")),
	))

	// POST /api/auth/supabase/signup
	mux.Handle("/api/auth/supabase/signup", baseChain(http.HandlerFunc(c.Supabase.SignUp),
		rateLimited(deps.RateLimiter, deps.Budgets.Signup, mw.IPRateKey("supabase_signup")),
	))

	// POST /api/auth/supabase/signin
	mux.Handle("/api/auth/supabase/signin", baseChain(http.HandlerFunc(c.Supabase.SignIn),
		rateLimited(deps.RateLimiter, deps.Budgets.Login, mw.IPRateKey("supabase_signin")),
	))
}
