package social

import (
	"context"

	"github.com/ShubhamDalvi1999/authbridge/internal/oauth"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	tokens "github.com/ShubhamDalvi1999/authbridge/internal/security/token"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// GoogleService maneja el authorization-code flow directo contra Google.
type GoogleService interface {
	// Authorize genera la URL de autorización y registra state+nonce
	// server-side. El nonce viaja hasheado en la URL, nunca crudo.
	Authorize(ctx context.Context) (*AuthorizeResult, error)

	// Callback consume el state (un solo uso), canjea el code, valida el
	// id_token si vino, trae el perfil de userinfo y reconcilia el usuario.
	Callback(ctx context.Context, code, state string) (*SessionResult, error)
}

type googleService struct {
	deps Deps
}

// NewGoogleService crea el service de Google.
func NewGoogleService(deps Deps) GoogleService {
	return &googleService{deps: deps}
}

func (s *googleService) Authorize(ctx context.Context) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.google"),
		logger.Op("Authorize"),
	)

	if s.deps.Google == nil || !s.deps.Google.Configured() {
		return nil, oauth.ErrNotConfigured
	}

	state, nonce, err := beginTx(ctx, s.deps.Tx, "google", true)
	if err != nil {
		return nil, err
	}

	authURL, err := s.deps.Google.AuthURL(ctx, state, tokens.SHA256Hex(nonce))
	if err != nil {
		return nil, err
	}

	log.Debug("authorization url issued", logger.Provider("google"))
	return &AuthorizeResult{AuthorizationURL: authURL, State: state}, nil
}

func (s *googleService) Callback(ctx context.Context, code, state string) (*SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.google"),
		logger.Op("Callback"),
	)

	if s.deps.Google == nil || !s.deps.Google.Configured() {
		return nil, oauth.ErrNotConfigured
	}

	tx, err := takeFor(ctx, s.deps.Tx, state, "google")
	if err != nil {
		log.Debug("state rejected", logger.Err(err))
		return nil, err
	}

	// El state ya fue validado al consumirlo; el expected del exchange es el
	// propio state recibido.
	tr, err := s.deps.Google.ExchangeCode(ctx, code, state, state)
	if err != nil {
		log.Debug("code exchange failed", logger.Err(err))
		return nil, err
	}

	// Si Google mandó id_token se valida (firma, aud, iss, nonce). El perfil
	// igual sale de userinfo, como garantía de datos frescos.
	if tr.IDToken != "" {
		if _, err := s.deps.Google.VerifyIDToken(ctx, tr.IDToken, tokens.SHA256Hex(tx.Nonce)); err != nil {
			log.Debug("id token rejected", logger.Err(err))
			return nil, err
		}
	}

	ui, err := s.deps.Google.GetUserInfo(ctx, tr.AccessToken)
	if err != nil {
		log.Debug("userinfo failed", logger.Err(err))
		return nil, err
	}

	user, err := reconcile(ctx, s.deps.Store, externalIdentity{
		provider:      core.AuthMethodGoogle,
		id:            ui.ID,
		email:         ui.Email,
		name:          ui.Name,
		picture:       ui.Picture,
		emailVerified: ui.VerifiedEmail,
	})
	if err != nil {
		return nil, err
	}

	log.Info("google login reconciled",
		logger.UserID(user.ID),
		logger.AuthMethod(user.AuthMethod),
	)
	return issueSession(s.deps.Issuer, user)
}
