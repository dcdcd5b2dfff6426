package social

import (
	"context"
	"errors"
	"strings"

	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// externalIdentity es lo que un provider acredita sobre la persona.
type externalIdentity struct {
	provider      string // core.AuthMethodGoogle | core.AuthMethodSupabase
	id            string
	email         string
	name          string
	picture       string
	emailVerified bool
}

// reconcile materializa una identidad externa como usuario local:
//
//  1. Si ya hay fila con ese external id, es un login repetido: se devuelve
//     tal cual.
//  2. Si hay fila con el mismo email (solo si el provider lo verificó, para
//     que nadie se cuelgue de una cuenta ajena declarando su email), se
//     linkea la identidad a esa fila. auth_method pasa a "both" si la fila
//     ya tenía credenciales locales u otro método externo.
//  3. Si no, se crea el usuario con username derivado del email.
//
// Ante un choque de unicidad por una carrera entre dos reconciliaciones
// concurrentes se reintenta el lookup una vez; si persiste, el conflicto
// sube al caller.
func reconcile(ctx context.Context, store core.Repository, ident externalIdentity) (*core.User, error) {
	u, err := reconcileOnce(ctx, store, ident)
	if err != nil && errors.Is(err, core.ErrConflict) {
		logger.From(ctx).Debug("reconcile conflict, retrying lookup",
			logger.Provider(ident.provider),
		)
		return reconcileOnce(ctx, store, ident)
	}
	return u, err
}

func reconcileOnce(ctx context.Context, store core.Repository, ident externalIdentity) (*core.User, error) {
	// 1. Login repetido
	u, err := lookupByExternalID(ctx, store, ident)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(ident.email))

	// 2. Link sobre cuenta existente, solo con email verificado
	if email != "" && ident.emailVerified {
		existing, err := store.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return link(ctx, store, existing, ident)
		case !errors.Is(err, core.ErrNotFound):
			return nil, err
		}
	}

	// 3. Alta
	return create(ctx, store, ident, email)
}

func lookupByExternalID(ctx context.Context, store core.Repository, ident externalIdentity) (*core.User, error) {
	switch ident.provider {
	case core.AuthMethodGoogle:
		return store.GetUserByGoogleID(ctx, ident.id)
	case core.AuthMethodSupabase:
		return store.GetUserBySupabaseID(ctx, ident.id)
	default:
		return nil, core.ErrInvalid
	}
}

// linkMethod decide el auth_method resultante de colgar ident sobre u.
func linkMethod(u *core.User, provider string) string {
	if u.HasPassword() || (u.AuthMethod != "" && u.AuthMethod != provider) {
		return core.AuthMethodBoth
	}
	return provider
}

func link(ctx context.Context, store core.Repository, u *core.User, ident externalIdentity) (*core.User, error) {
	method := linkMethod(u, ident.provider)
	switch ident.provider {
	case core.AuthMethodGoogle:
		return store.LinkGoogle(ctx, u.ID, core.GoogleLink{
			ID:      ident.id,
			Email:   ident.email,
			Name:    ident.name,
			Picture: ident.picture,
		}, method)
	case core.AuthMethodSupabase:
		return store.LinkSupabase(ctx, u.ID, core.SupabaseLink{
			ID:    ident.id,
			Email: ident.email,
		}, method)
	default:
		return nil, core.ErrInvalid
	}
}

func create(ctx context.Context, store core.Repository, ident externalIdentity, email string) (*core.User, error) {
	u := &core.User{
		AuthMethod: ident.provider,
		IsActive:   true,
	}

	// El email compartido solo se fija verificado; el del provider va
	// siempre en su columna propia.
	if email != "" && ident.emailVerified {
		u.Email = core.StrPtr(email)
	}
	if email != "" {
		if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
			u.Username = core.StrPtr(local)
		}
	}

	switch ident.provider {
	case core.AuthMethodGoogle:
		u.GoogleID = core.StrPtr(ident.id)
		u.GoogleEmail = core.StrPtr(ident.email)
		u.GoogleName = core.StrPtr(ident.name)
		u.GooglePicture = core.StrPtr(ident.picture)
	case core.AuthMethodSupabase:
		u.SupabaseID = core.StrPtr(ident.id)
		u.SupabaseEmail = core.StrPtr(ident.email)
	default:
		return nil, core.ErrInvalid
	}

	if err := store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("user created from provider",
		logger.Layer("service"),
		logger.Component("social.reconcile"),
		logger.Provider(ident.provider),
		logger.UserID(u.ID),
		logger.Email(ident.email),
	)
	return u, nil
}
