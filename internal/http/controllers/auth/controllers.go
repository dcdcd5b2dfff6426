// Package auth contiene los controllers de autenticación local.
package auth

import svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Create *CreateController
	Token  *TokenController
	Me     *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Service) *Controllers {
	return &Controllers{
		Create: NewCreateController(s),
		Token:  NewTokenController(s),
		Me:     NewMeController(s),
	}
}
