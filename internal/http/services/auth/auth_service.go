package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/security/password"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// Deps contiene las dependencias del service de autenticación local.
type Deps struct {
	Store     core.Repository
	Issuer    *jwt.Issuer
	Params    password.Params // parámetros argon2id; zero = Default
	Policy    password.Policy // política de passwords; zero = DefaultPolicy
	Blacklist *password.Blacklist
}

type service struct {
	deps Deps
}

// NewService crea el service de autenticación local.
func NewService(deps Deps) Service {
	if deps.Params.KeyLen == 0 {
		deps.Params = password.Default
	}
	if deps.Policy.MinLength == 0 {
		deps.Policy = password.DefaultPolicy
	}
	return &service{deps: deps}
}

// checkPassword aplica política y blacklist sobre una password en claro.
func checkPassword(policy password.Policy, bl *password.Blacklist, plain string) error {
	ok, reasons := policy.Validate(plain)
	if bl.Contains(plain) {
		ok = false
		reasons = append(reasons, "blacklisted")
	}
	if !ok {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}

func (s *service) Register(ctx context.Context, username, plain string) (*core.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return nil, ErrMissingFields
	}

	if err := checkPassword(s.deps.Policy, s.deps.Blacklist, plain); err != nil {
		log.Debug("password rejected by policy")
		return nil, err
	}

	hash, err := password.Hash(s.deps.Params, plain)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return nil, err
	}

	u := &core.User{
		Username:     core.StrPtr(username),
		PasswordHash: &hash,
		AuthMethod:   core.AuthMethodLocal,
		IsActive:     true,
	}
	if err := s.deps.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrConflict) {
			log.Debug("username already taken")
			return nil, ErrUsernameTaken
		}
		log.Error("create user failed", logger.Err(err))
		return nil, err
	}

	log.Info("user registered", logger.UserID(u.ID))
	return u, nil
}

func (s *service) LoginPassword(ctx context.Context, username, plain string) (*TokenResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("LoginPassword"),
	)

	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return nil, ErrMissingFields
	}

	u, err := s.deps.Store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("user not found")
			return nil, ErrInvalidCredentials
		}
		log.Error("user lookup failed", logger.Err(err))
		return nil, err
	}

	log = log.With(logger.UserID(u.ID))

	if !u.HasPassword() {
		log.Debug("no password identity")
		return nil, ErrInvalidCredentials
	}
	if !password.Verify(plain, *u.PasswordHash) {
		log.Debug("password check failed")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		log.Info("user disabled")
		return nil, ErrUserDisabled
	}

	token, _, err := s.deps.Issuer.Issue(core.Deref(u.Username), u.ID)
	if err != nil {
		log.Error("failed to sign access token", logger.Err(err))
		return nil, ErrTokenIssueFailed
	}

	log.Info("login successful")
	return &TokenResult{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *service) Me(ctx context.Context, userID string) (*core.User, error) {
	u, err := s.deps.Store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
