package social

import (
	"context"
	"strings"

	"github.com/ShubhamDalvi1999/authbridge/internal/oauth"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/supabase"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// SupabaseService delega autenticación en Supabase (GoTrue): OAuth de
// terceros vía authorize/callback y credenciales email/password vía
// signup/signin. En todos los casos el token de sesión lo emitimos nosotros.
type SupabaseService interface {
	// Authorize arma la URL del endpoint authorize de Supabase para el
	// provider delegado (default "google") y registra el state.
	Authorize(ctx context.Context, provider string) (*AuthorizeResult, error)

	// Callback consume el state y canjea el code PKCE-style contra GoTrue.
	Callback(ctx context.Context, code, state string) (*SessionResult, error)

	// SignUp registra el par email/password en GoTrue y reconcilia.
	SignUp(ctx context.Context, email, password string) (*SessionResult, error)

	// SignIn valida credenciales contra GoTrue y reconcilia.
	SignIn(ctx context.Context, email, password string) (*SessionResult, error)
}

type supabaseService struct {
	deps Deps
}

// NewSupabaseService crea el service de Supabase.
func NewSupabaseService(deps Deps) SupabaseService {
	return &supabaseService{deps: deps}
}

func (s *supabaseService) configured() bool {
	return s.deps.Supabase != nil && s.deps.Supabase.Configured()
}

func (s *supabaseService) Authorize(ctx context.Context, provider string) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.supabase"),
		logger.Op("Authorize"),
	)

	if !s.configured() {
		return nil, oauth.ErrNotConfigured
	}

	provider = strings.TrimSpace(strings.ToLower(provider))
	if provider == "" {
		provider = "google"
	}

	// El nonce no aplica: Supabase no devuelve un id_token verificable acá.
	state, _, err := beginTx(ctx, s.deps.Tx, "supabase", false)
	if err != nil {
		return nil, err
	}

	authURL, err := s.deps.Supabase.AuthURL(provider, state)
	if err != nil {
		return nil, err
	}

	log.Debug("authorization url issued", logger.Provider(provider))
	return &AuthorizeResult{AuthorizationURL: authURL, State: state, Provider: provider}, nil
}

func (s *supabaseService) Callback(ctx context.Context, code, state string) (*SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.supabase"),
		logger.Op("Callback"),
	)

	if !s.configured() {
		return nil, oauth.ErrNotConfigured
	}

	if _, err := takeFor(ctx, s.deps.Tx, state, "supabase"); err != nil {
		log.Debug("state rejected", logger.Err(err))
		return nil, err
	}

	tr, err := s.deps.Supabase.ExchangeCode(ctx, code, state, state)
	if err != nil {
		log.Debug("code exchange failed", logger.Err(err))
		return nil, err
	}

	return s.sessionFromGoTrue(ctx, tr.User, tr.AccessToken)
}

func (s *supabaseService) SignUp(ctx context.Context, email, password string) (*SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.supabase"),
		logger.Op("SignUp"),
	)

	if !s.configured() {
		return nil, oauth.ErrNotConfigured
	}

	resp, err := s.deps.Supabase.SignUp(ctx, email, password)
	if err != nil {
		log.Debug("gotrue signup failed", logger.Err(err))
		return nil, err
	}

	su := resp.ResolveUser()
	if su == nil {
		return nil, ErrNoProviderUser
	}
	return s.reconcileAndIssue(ctx, su)
}

func (s *supabaseService) SignIn(ctx context.Context, email, password string) (*SessionResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.supabase"),
		logger.Op("SignIn"),
	)

	if !s.configured() {
		return nil, oauth.ErrNotConfigured
	}

	tr, err := s.deps.Supabase.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.Debug("gotrue signin failed", logger.Err(err))
		return nil, err
	}

	return s.sessionFromGoTrue(ctx, tr.User, tr.AccessToken)
}

// sessionFromGoTrue completa el perfil si la respuesta de tokens no lo trajo
// embebido y después reconcilia.
func (s *supabaseService) sessionFromGoTrue(ctx context.Context, su *supabase.User, accessToken string) (*SessionResult, error) {
	if su == nil || su.ID == "" {
		var err error
		su, err = s.deps.Supabase.GetUser(ctx, accessToken)
		if err != nil {
			return nil, err
		}
	}
	if su == nil || su.ID == "" {
		return nil, ErrNoProviderUser
	}
	return s.reconcileAndIssue(ctx, su)
}

func (s *supabaseService) reconcileAndIssue(ctx context.Context, su *supabase.User) (*SessionResult, error) {
	user, err := reconcile(ctx, s.deps.Store, externalIdentity{
		provider:      core.AuthMethodSupabase,
		id:            su.ID,
		email:         su.Email,
		emailVerified: su.EmailVerified(),
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("supabase login reconciled",
		logger.Layer("service"),
		logger.Component("social.supabase"),
		logger.UserID(user.ID),
		logger.AuthMethod(user.AuthMethod),
	)
	return issueSession(s.deps.Issuer, user)
}
