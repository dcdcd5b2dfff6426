package social

import (
	"errors"
	"net/http"
	"strings"

	httpx "github.com/ShubhamDalvi1999/authbridge/internal/http"
	authdto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/auth"
	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/social"
	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/helpers"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/social"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// SupabaseController maneja los flujos delegados en Supabase/GoTrue.
type SupabaseController struct {
	service svc.SupabaseService
}

// NewSupabaseController crea el controller de los flujos Supabase.
func NewSupabaseController(service svc.SupabaseService) *SupabaseController {
	return &SupabaseController{service: service}
}

// Authorize maneja GET /api/auth/supabase/authorize?provider=google
func (c *SupabaseController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	provider := strings.TrimSpace(r.URL.Query().Get("provider"))

	result, err := c.service.Authorize(ctx, provider)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.SupabaseAuthorizeResponse{
		AuthorizationURL: result.AuthorizationURL,
		State:            result.State,
		Provider:         result.Provider,
	})
}

// Callback maneja POST /api/auth/supabase/callback
func (c *SupabaseController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SupabaseController.Callback"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.CallbackRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	code := strings.TrimSpace(req.Code)
	state := strings.TrimSpace(req.State)
	if code == "" || state == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code and state are required"))
		return
	}

	result, err := c.service.Callback(ctx, code, state)
	if err != nil {
		log.Warn("supabase callback failed", logger.Err(err))
		httpx.RecordLogin("supabase", "failure")
		writeFlowError(w, err)
		return
	}

	httpx.RecordLogin("supabase", "success")
	helpers.WriteJSON(w, http.StatusOK, authdto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}

// SignUp maneja POST /api/auth/supabase/signup
func (c *SupabaseController) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SupabaseController.SignUp"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	email, password, ok := readCredentials(w, r)
	if !ok {
		return
	}

	result, err := c.service.SignUp(ctx, email, password)
	if err != nil {
		log.Warn("supabase signup failed", logger.Err(err))
		writeFlowError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, authdto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}

// SignIn maneja POST /api/auth/supabase/signin
func (c *SupabaseController) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SupabaseController.SignIn"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	email, password, ok := readCredentials(w, r)
	if !ok {
		return
	}

	result, err := c.service.SignIn(ctx, email, password)
	if err != nil {
		// GoTrue responde 400/401/422 para credenciales malas; hacia afuera eso
		// es el mismo 401 del login local para no filtrar el motivo exacto.
		var providerErr *oauth.ProviderError
		if errors.As(err, &providerErr) && providerErr.StatusCode < http.StatusInternalServerError {
			log.Debug("supabase signin rejected", logger.Int("provider_status", providerErr.StatusCode))
			httpx.RecordLogin("supabase", "failure")
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
			return
		}
		log.Warn("supabase signin failed", logger.Err(err))
		writeFlowError(w, err)
		return
	}

	httpx.RecordLogin("supabase", "success")
	helpers.WriteJSON(w, http.StatusOK, authdto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}

// readCredentials lee y valida el body {email, password} de signup/signin.
// Devuelve ok=false si ya escribió error HTTP.
func readCredentials(w http.ResponseWriter, r *http.Request) (email, password string, ok bool) {
	var req dto.CredentialsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return "", "", false
	}
	email = strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
		return "", "", false
	}
	return email, req.Password, true
}
