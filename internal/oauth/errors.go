// Package oauth define los errores comunes a los clients de providers
// externos (Google, Supabase).
package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indica que el provider no tiene credenciales cargadas.
	ErrNotConfigured = errors.New("oauth: provider not configured")

	// ErrStateMismatch indica que el state del callback no coincide con el
	// esperado. Se decide antes de cualquier llamada HTTP al provider.
	ErrStateMismatch = errors.New("oauth: state mismatch")

	// ErrInvalidIDToken cubre cualquier fallo de verificación del id_token:
	// firma, issuer, audience, nonce o expiración.
	ErrInvalidIDToken = errors.New("oauth: invalid id token")
)

// ProviderError es una respuesta de error del IdP (token endpoint, userinfo).
type ProviderError struct {
	Provider    string // "google" | "supabase"
	StatusCode  int
	Code        string // error code upstream, ej "invalid_grant"
	Description string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("oauth: %s error (http %d): %s: %s", e.Provider, e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: %s error (http %d)", e.Provider, e.StatusCode)
}

// Detail arma el texto que el handler expone como detalle del error.
func (e *ProviderError) Detail() string {
	switch {
	case e.Code != "" && e.Description != "":
		return e.Code + ": " + e.Description
	case e.Description != "":
		return e.Description
	default:
		return e.Code
	}
}
