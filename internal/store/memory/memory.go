// Package memory implementa core.Repository sobre mapas en memoria.
// Pensado para tests y desarrollo; el proceso pierde todo al reiniciar.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]*core.User

	// índices de unicidad: valor -> user id
	byUsername      map[string]string
	byEmail         map[string]string
	byGoogleID      map[string]string
	byGoogleEmail   map[string]string
	bySupabaseID    map[string]string
	bySupabaseEmail map[string]string
}

func New() *Store {
	return &Store{
		users:           map[string]*core.User{},
		byUsername:      map[string]string{},
		byEmail:         map[string]string{},
		byGoogleID:      map[string]string{},
		byGoogleEmail:   map[string]string{},
		bySupabaseID:    map[string]string{},
		bySupabaseEmail: map[string]string{},
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func normEmail(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	if v == "" {
		return nil
	}
	return &v
}

// taken reporta si value ya está indexado para otro usuario.
func taken(idx map[string]string, value *string, selfID string) bool {
	if value == nil {
		return false
	}
	id, ok := idx[*value]
	return ok && id != selfID
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u == nil {
		return core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.AuthMethod == "" {
		u.AuthMethod = core.AuthMethodLocal
	}
	u.Email = normEmail(u.Email)
	u.GoogleEmail = normEmail(u.GoogleEmail)
	u.SupabaseEmail = normEmail(u.SupabaseEmail)

	if _, exists := s.users[u.ID]; exists {
		return core.ErrConflict
	}
	if taken(s.byUsername, u.Username, u.ID) ||
		taken(s.byEmail, u.Email, u.ID) ||
		taken(s.byGoogleID, u.GoogleID, u.ID) ||
		taken(s.byGoogleEmail, u.GoogleEmail, u.ID) ||
		taken(s.bySupabaseID, u.SupabaseID, u.ID) ||
		taken(s.bySupabaseEmail, u.SupabaseEmail, u.ID) {
		return core.ErrConflict
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u.Clone()
	s.index(s.users[u.ID])
	return nil
}

func (s *Store) index(u *core.User) {
	put := func(idx map[string]string, v *string) {
		if v != nil {
			idx[*v] = u.ID
		}
	}
	put(s.byUsername, u.Username)
	put(s.byEmail, u.Email)
	put(s.byGoogleID, u.GoogleID)
	put(s.byGoogleEmail, u.GoogleEmail)
	put(s.bySupabaseID, u.SupabaseID)
	put(s.bySupabaseEmail, u.SupabaseEmail)
}

func (s *Store) unindex(u *core.User) {
	del := func(idx map[string]string, v *string) {
		if v != nil {
			delete(idx, *v)
		}
	}
	del(s.byUsername, u.Username)
	del(s.byEmail, u.Email)
	del(s.byGoogleID, u.GoogleID)
	del(s.byGoogleEmail, u.GoogleEmail)
	del(s.bySupabaseID, u.SupabaseID)
	del(s.bySupabaseEmail, u.SupabaseEmail)
}

func (s *Store) getBy(idx map[string]string, key string) (*core.User, error) {
	if key == "" {
		return nil, core.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := idx[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	if id == "" {
		return nil, core.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.getBy(s.byUsername, username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.getBy(s.byEmail, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*core.User, error) {
	return s.getBy(s.byGoogleID, googleID)
}

func (s *Store) GetUserBySupabaseID(ctx context.Context, supabaseID string) (*core.User, error) {
	return s.getBy(s.bySupabaseID, supabaseID)
}

func (s *Store) LinkGoogle(ctx context.Context, userID string, link core.GoogleLink, authMethod string) (*core.User, error) {
	if userID == "" || link.ID == "" || authMethod == "" {
		return nil, core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, core.ErrNotFound
	}

	gid := link.ID
	gemail := normEmail(core.StrPtr(link.Email))
	if taken(s.byGoogleID, &gid, userID) || taken(s.byGoogleEmail, gemail, userID) {
		return nil, core.ErrConflict
	}

	s.unindex(u)
	u.GoogleID = &gid
	u.GoogleEmail = gemail
	u.GoogleName = core.StrPtr(link.Name)
	u.GooglePicture = core.StrPtr(link.Picture)
	u.AuthMethod = authMethod
	u.UpdatedAt = time.Now().UTC()
	s.index(u)

	return u.Clone(), nil
}

func (s *Store) LinkSupabase(ctx context.Context, userID string, link core.SupabaseLink, authMethod string) (*core.User, error) {
	if userID == "" || link.ID == "" || authMethod == "" {
		return nil, core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, core.ErrNotFound
	}

	sid := link.ID
	semail := normEmail(core.StrPtr(link.Email))
	if taken(s.bySupabaseID, &sid, userID) || taken(s.bySupabaseEmail, semail, userID) {
		return nil, core.ErrConflict
	}

	s.unindex(u)
	u.SupabaseID = &sid
	u.SupabaseEmail = semail
	u.AuthMethod = authMethod
	u.UpdatedAt = time.Now().UTC()
	s.index(u)

	return u.Clone(), nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	if userID == "" || passwordHash == "" {
		return core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}
