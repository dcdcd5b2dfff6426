package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ShubhamDalvi1999/authbridge/internal/cache"
	"github.com/ShubhamDalvi1999/authbridge/internal/email"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/security/password"
	tokens "github.com/ShubhamDalvi1999/authbridge/internal/security/token"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// ResetDeps contiene las dependencias del flujo de reset de password.
type ResetDeps struct {
	Store  core.Repository
	Cache  cache.Client
	Sender email.Sender

	// TTL del token de reset; <= 0 usa 1 hora.
	TTL time.Duration
	// BaseURL del frontend para armar el link del email.
	BaseURL string
	// EchoLink expone el link en el resultado (solo dev).
	EchoLink bool

	Params    password.Params
	Policy    password.Policy
	Blacklist *password.Blacklist
}

type resetService struct {
	deps ResetDeps
}

// NewResetService crea el service de reset de password.
func NewResetService(deps ResetDeps) ResetService {
	if deps.TTL <= 0 {
		deps.TTL = time.Hour
	}
	if deps.Sender == nil {
		deps.Sender = email.LogSender{}
	}
	if deps.Params.KeyLen == 0 {
		deps.Params = password.Default
	}
	if deps.Policy.MinLength == 0 {
		deps.Policy = password.DefaultPolicy
	}
	return &resetService{deps: deps}
}

// resetClaim es el payload cacheado bajo el hash del token de reset.
type resetClaim struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func resetKey(raw string) string {
	// Se cachea el hash del token, nunca el token crudo.
	return "pwreset:" + tokens.SHA256Base64URL(raw)
}

func (s *resetService) RequestReset(ctx context.Context, addr string) (*ResetRequestResult, error) {
	addr = strings.TrimSpace(strings.ToLower(addr))
	if addr == "" {
		return nil, ErrMissingFields
	}

	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
		logger.Op("RequestReset"),
		logger.Email(addr),
	)

	u, err := s.deps.Store.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Respuesta idéntica a la de una cuenta existente: el endpoint
			// no confirma qué emails están registrados.
			log.Debug("reset requested for unknown email")
			return &ResetRequestResult{}, nil
		}
		log.Error("user lookup failed", logger.Err(err))
		return nil, err
	}
	if !u.HasPassword() {
		// Cuentas solo-social no tienen password que resetear.
		log.Debug("reset requested for passwordless account", logger.UserID(u.ID))
		return &ResetRequestResult{}, nil
	}

	raw, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Error("token generation failed", logger.Err(err))
		return nil, err
	}

	claim, err := json.Marshal(resetClaim{UserID: u.ID, Email: addr})
	if err != nil {
		return nil, err
	}
	if err := s.deps.Cache.Set(ctx, resetKey(raw), string(claim), s.deps.TTL); err != nil {
		log.Error("cache set failed", logger.Err(err))
		return nil, err
	}

	link := strings.TrimRight(s.deps.BaseURL, "/") + "/reset-password?token=" + raw
	subject, htmlBody, textBody, err := email.RenderReset(link, s.deps.TTL)
	if err != nil {
		log.Error("render reset email failed", logger.Err(err))
		return nil, err
	}
	if err := s.deps.Sender.Send(addr, subject, htmlBody, textBody); err != nil {
		log.Error("send reset email failed", logger.Err(err))
		return nil, err
	}

	log.Info("reset email sent", logger.UserID(u.ID))

	res := &ResetRequestResult{}
	if s.deps.EchoLink {
		res.DebugLink = link
	}
	return res, nil
}

func (s *resetService) ConfirmReset(ctx context.Context, token, newPlain string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
		logger.Op("ConfirmReset"),
	)

	token = strings.TrimSpace(token)
	if token == "" || newPlain == "" {
		return ErrMissingFields
	}

	// La política se chequea antes de consumir el token: una password débil
	// no quema el intento.
	if err := checkPassword(s.deps.Policy, s.deps.Blacklist, newPlain); err != nil {
		log.Debug("password rejected by policy")
		return err
	}

	payload, err := s.deps.Cache.GetDel(ctx, resetKey(token))
	if err != nil {
		if cache.IsNotFound(err) {
			log.Debug("reset token unknown or expired")
			return ErrResetTokenInvalid
		}
		log.Error("cache getdel failed", logger.Err(err))
		return err
	}

	var claim resetClaim
	if err := json.Unmarshal([]byte(payload), &claim); err != nil {
		log.Error("reset claim unmarshal failed", logger.Err(err))
		return ErrResetTokenInvalid
	}

	hash, err := password.Hash(s.deps.Params, newPlain)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return err
	}

	if err := s.deps.Store.UpdatePasswordHash(ctx, claim.UserID, hash); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("reset token for missing user", logger.UserID(claim.UserID))
			return ErrResetTokenInvalid
		}
		log.Error("password update failed", logger.Err(err))
		return err
	}

	log.Info("password reset", logger.UserID(claim.UserID))
	return nil
}
