// Package handlers contiene handlers montados como sub-router chi.
// Los flujos multi-paso (hoy, password reset) viven acá; los endpoints
// simples van por controllers.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/auth"
	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/helpers"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// ResetHandler expone el flujo de password reset por email.
type ResetHandler struct {
	service svc.ResetService
}

// NewResetHandler crea el handler del flujo de reset.
func NewResetHandler(service svc.ResetService) *ResetHandler {
	return &ResetHandler{service: service}
}

// Register monta las rutas del flujo en un router chi.
func (h *ResetHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Post("/request", h.request)
		r.Post("/confirm", h.confirm)
	})
}

// request inicia el flujo: POST {email} responde 202 exista o no la cuenta.
func (h *ResetHandler) request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("handler"), logger.Op("ResetHandler.request"))

	var req dto.ResetRequestRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email is required"))
		return
	}

	result, err := h.service.RequestReset(ctx, email)
	if err != nil {
		// Solo fallos de render/envío llegan acá; cuentas inexistentes
		// responden 202 igual que las reales.
		log.Error("reset request failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	if result.DebugLink != "" {
		w.Header().Set("X-Debug-Reset-Link", result.DebugLink)
	}
	helpers.WriteJSON(w, http.StatusAccepted, dto.ResetRequestResponse{Status: "ok"})
}

// confirm consume el token single-use y fija la nueva password.
func (h *ResetHandler) confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("handler"), logger.Op("ResetHandler.confirm"))

	var req dto.ResetConfirmRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := h.service.ConfirmReset(ctx, req.Token, req.NewPassword); err != nil {
		var policyErr *svc.PolicyError
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("token and new_password are required"))
		case errors.As(err, &policyErr):
			httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(strings.Join(policyErr.Reasons, ", ")))
		case errors.Is(err, svc.ErrResetTokenInvalid):
			log.Debug("reset token rejected")
			httperrors.WriteError(w, httperrors.ErrResetTokenInvalid)
		default:
			httperrors.WriteError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
