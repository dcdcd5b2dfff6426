// Package auth contiene los services de autenticación local: registro,
// password grant, perfil y reset de password.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// Service define las operaciones de autenticación local.
type Service interface {
	// Register crea un usuario username/password con auth_method local.
	Register(ctx context.Context, username, plain string) (*core.User, error)

	// LoginPassword autentica username/password y emite un access token.
	LoginPassword(ctx context.Context, username, plain string) (*TokenResult, error)

	// Me devuelve el perfil del usuario autenticado.
	Me(ctx context.Context, userID string) (*core.User, error)
}

// ResetService define el flujo de reset de password por email.
type ResetService interface {
	// RequestReset registra un token de reset y envía el email. Un email
	// desconocido no es error: la respuesta no revela qué cuentas existen.
	RequestReset(ctx context.Context, addr string) (*ResetRequestResult, error)

	// ConfirmReset valida el token (un solo uso) y fija la nueva password.
	ConfirmReset(ctx context.Context, token, newPlain string) error
}

// TokenResult es la salida de un login exitoso.
type TokenResult struct {
	AccessToken string
	TokenType   string // siempre "bearer"
}

// ResetRequestResult es la salida de RequestReset. DebugLink solo se llena
// con el echo de links habilitado (dev).
type ResetRequestResult struct {
	DebugLink string
}

// Errores de autenticación
var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserDisabled       = fmt.Errorf("user disabled")
	ErrUsernameTaken      = fmt.Errorf("username already taken")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrTokenIssueFailed   = fmt.Errorf("failed to issue token")
	ErrResetTokenInvalid  = fmt.Errorf("invalid or expired reset token")
)

// PolicyError reporta una password rechazada por la política o la blacklist.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "password rejected: " + strings.Join(e.Reasons, ", ")
}
