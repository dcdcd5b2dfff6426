package social

import (
	"errors"
	"net/http"

	httperrors "github.com/ShubhamDalvi1999/authbridge/internal/http/errors"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/social"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/txstore"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// writeFlowError mapea los errores comunes de los flujos OAuth a respuestas
// HTTP. Lo que no reconoce cae al writer genérico (500 si no es AppError).
func writeFlowError(w http.ResponseWriter, err error) {
	var providerErr *oauth.ProviderError

	switch {
	case errors.Is(err, txstore.ErrUnknownState):
		httperrors.WriteError(w, httperrors.ErrStateUnknown)
	case errors.Is(err, oauth.ErrStateMismatch):
		httperrors.WriteError(w, httperrors.ErrStateMismatch)
	case errors.Is(err, oauth.ErrNotConfigured):
		httperrors.WriteError(w, httperrors.ErrProviderNotConfigured)
	case errors.Is(err, oauth.ErrInvalidIDToken):
		httperrors.WriteError(w, httperrors.ErrIDTokenInvalid.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrNoProviderUser):
		httperrors.WriteError(w, httperrors.ErrProviderError.WithDetail("provider returned no user"))
	case errors.Is(err, core.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrConflict)
	case errors.As(err, &providerErr):
		httperrors.WriteError(w, httperrors.ErrProviderError.WithDetail(providerErr.Detail()))
	default:
		httperrors.WriteError(w, err)
	}
}
