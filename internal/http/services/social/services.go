// Package social orquesta los flujos de login con providers externos:
// authorize -> callback con Google OIDC, y authorize/callback/signup/signin
// delegados en Supabase (GoTrue). El resultado de todos los caminos es el
// mismo: un usuario reconciliado en el store local y un access token propio.
package social

import (
	"context"
	"errors"

	"github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/google"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/supabase"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/txstore"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// ErrNoProviderUser indica que el provider respondió sin un usuario
// utilizable (ej: signup que no devolvió perfil).
var ErrNoProviderUser = errors.New("social: provider returned no user")

// AuthorizeResult es la salida del paso authorize de cualquier provider.
type AuthorizeResult struct {
	AuthorizationURL string
	State            string
	Provider         string // provider delegado, solo flujos Supabase
}

// SessionResult es la salida de cualquier camino que termina en sesión.
type SessionResult struct {
	AccessToken string
	TokenType   string // siempre "bearer"
}

// Deps contiene las dependencias compartidas de los services sociales.
type Deps struct {
	Store    core.Repository
	Tx       *txstore.Store
	Google   *google.OIDC
	Supabase *supabase.Client
	Issuer   *jwt.Issuer
}

// Services agrupa los services sociales ya construidos.
type Services struct {
	Google   GoogleService
	Supabase SupabaseService
}

// NewServices construye los services sociales con dependencias compartidas.
func NewServices(deps Deps) *Services {
	return &Services{
		Google:   NewGoogleService(deps),
		Supabase: NewSupabaseService(deps),
	}
}

// issueSession emite el access token propio para un usuario reconciliado.
// El subject replica el criterio del login local: username si hay, si no el
// email del provider.
func issueSession(issuer *jwt.Issuer, u *core.User) (*SessionResult, error) {
	subject := core.Deref(u.Username)
	if subject == "" {
		switch {
		case u.GoogleEmail != nil:
			subject = *u.GoogleEmail
		case u.SupabaseEmail != nil:
			subject = *u.SupabaseEmail
		default:
			subject = core.Deref(u.Email)
		}
	}
	token, _, err := issuer.Issue(subject, u.ID)
	if err != nil {
		return nil, err
	}
	return &SessionResult{AccessToken: token, TokenType: "bearer"}, nil
}

// beginTx genera y registra una transacción nueva para provider. Con
// withNonce también genera el nonce anti-replay que el callback va a exigir
// en el id_token.
func beginTx(ctx context.Context, store *txstore.Store, provider string, withNonce bool) (state, nonce string, err error) {
	state, err = txstore.NewState()
	if err != nil {
		return "", "", err
	}
	if withNonce {
		nonce, err = txstore.NewNonce()
		if err != nil {
			return "", "", err
		}
	}
	if err := store.Put(ctx, state, txstore.Tx{Provider: provider, Nonce: nonce}); err != nil {
		return "", "", err
	}
	return state, nonce, nil
}

// takeFor consume el state y verifica que pertenezca al provider esperado.
// Un state emitido para otro provider cuenta como desconocido.
func takeFor(ctx context.Context, tx *txstore.Store, state, provider string) (txstore.Tx, error) {
	t, err := tx.Take(ctx, state)
	if err != nil {
		return txstore.Tx{}, err
	}
	if t.Provider != provider {
		return txstore.Tx{}, txstore.ErrUnknownState
	}
	return t, nil
}
