package auth

import (
	"net/http"

	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/auth"
	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/helpers"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/middlewares"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// MeController expone el perfil del usuario autenticado.
type MeController struct {
	service svc.Service
}

// NewMeController crea el controller del endpoint /users/me.
func NewMeController(service svc.Service) *MeController {
	return &MeController{service: service}
}

// Me maneja GET /api/auth/users/me
// La ruta pasa por RequireAuth, acá solo se resuelve la identidad del contexto.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	identity, ok := middlewares.GetIdentity(ctx)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	user, err := c.service.Me(ctx, identity.UserID)
	if err != nil {
		switch err {
		case svc.ErrUserNotFound:
			// Token válido pero el usuario ya no existe en el store.
			log.Warn("authenticated user missing", logger.UserID(identity.UserID))
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
		default:
			httperrors.WriteError(w, err)
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.UserResponse{
		Username:   core.Deref(user.Username),
		ID:         user.ID,
		Email:      core.Deref(user.Email),
		AuthMethod: user.AuthMethod,
	})
}
