package auth

import (
	"net/http"
	"strings"

	httpx "github.com/ShubhamDalvi1999/authbridge/internal/http"
	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/auth"
	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/helpers"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// TokenController maneja el password grant del login local.
type TokenController struct {
	service svc.Service
}

// NewTokenController crea el controller del endpoint de token.
func NewTokenController(service svc.Service) *TokenController {
	return &TokenController{service: service}
}

// Token maneja POST /api/auth/token
// El body llega como formulario (username + password), no como JSON.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	if !helpers.ReadForm(w, r) {
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	result, err := c.service.LoginPassword(ctx, username, password)
	if err != nil {
		switch err {
		case svc.ErrMissingFields:
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("username and password are required"))
		case svc.ErrInvalidCredentials, svc.ErrUserDisabled:
			// Misma respuesta para credenciales malas y cuentas deshabilitadas,
			// así el endpoint no revela qué cuentas existen.
			log.Debug("login rejected")
			httpx.RecordLogin("local", "failure")
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		default:
			httperrors.WriteError(w, err)
		}
		return
	}

	httpx.RecordLogin("local", "success")
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
	})
}
