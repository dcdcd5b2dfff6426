package middlewares

import (
	"context"

	jwtx "github.com/ShubhamDalvi1999/authbridge/internal/jwt"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxIdentityKey guarda la identidad acreditada por el bearer token
	ctxIdentityKey ctxKey = "identity"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// =================================================================================
// CONTEXT SETTERS (Internos, usados por middlewares)
// =================================================================================

// WithIdentity inyecta la identidad autenticada en el contexto
func WithIdentity(ctx context.Context, id jwtx.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// =================================================================================
// CONTEXT GETTERS (Públicos, usados por controllers/services)
// =================================================================================

// GetIdentity obtiene la identidad del contexto.
// ok=false si la ruta no pasó por RequireAuth.
func GetIdentity(ctx context.Context) (jwtx.Identity, bool) {
	if v := ctx.Value(ctxIdentityKey); v != nil {
		if id, ok := v.(jwtx.Identity); ok {
			return id, true
		}
	}
	return jwtx.Identity{}, false
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
