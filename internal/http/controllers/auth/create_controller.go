package auth

import (
	"errors"
	"net/http"
	"strings"

	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/auth"
	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/helpers"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// CreateController maneja el alta de usuarios por username/password.
type CreateController struct {
	service svc.Service
}

// NewCreateController crea el controller de alta de usuarios.
func NewCreateController(service svc.Service) *CreateController {
	return &CreateController{service: service}
}

// Create maneja POST /api/auth/
func (c *CreateController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CreateController.Create"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.CreateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	user, err := c.service.Register(ctx, req.Username, req.Password)
	if err != nil {
		var policyErr *svc.PolicyError
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("username and password are required"))
		case errors.As(err, &policyErr):
			httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(strings.Join(policyErr.Reasons, ", ")))
		case errors.Is(err, svc.ErrUsernameTaken):
			log.Warn("username already taken")
			httperrors.WriteError(w, httperrors.ErrUsernameTaken)
		default:
			httperrors.WriteError(w, err)
		}
		return
	}

	log.Info("user created", logger.UserID(user.ID))
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateUserResponse{Message: "User created successfully"})
}
