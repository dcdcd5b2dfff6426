package social

import (
	"net/http"
	"strings"

	httpx "github.com/ShubhamDalvi1999/authbridge/internal/http"
	authdto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/auth"
	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/social"
	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/helpers"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/social"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// GoogleController maneja el authorization-code flow directo contra Google.
type GoogleController struct {
	service svc.GoogleService
}

// NewGoogleController crea el controller del flujo Google.
func NewGoogleController(service svc.GoogleService) *GoogleController {
	return &GoogleController{service: service}
}

// Authorize maneja GET /api/auth/google/authorize
func (c *GoogleController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	result, err := c.service.Authorize(ctx)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.AuthorizeResponse{
		AuthorizationURL: result.AuthorizationURL,
		State:            result.State,
	})
}

// Callback maneja POST /api/auth/google/callback
func (c *GoogleController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleController.Callback"))

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
		log.Warn("google callback failed", logger.Err(err))
		httpx.RecordLogin("google", "failure")
		writeFlowError(w, err)
		return
	}

	httpx.RecordLogin("google", "success")
	helpers.WriteJSON(w, http.StatusOK, authdto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}
