// Package fs implementa core.Repository sobre un archivo YAML. Es el
// driver por defecto para desarrollo local: el estado sobrevive reinicios
// sin necesidad de levantar Postgres.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
	"github.com/ShubhamDalvi1999/authbridge/internal/util/atomicwrite"
)

type Store struct {
	root string
	mu   sync.RWMutex
}

// New prepara el directorio raíz (lo crea si no existe).
func New(root string) (*Store, error) {
	if root == "" {
		root = "data"
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(root, 0755); mkErr != nil {
				return nil, fmt.Errorf("fs: failed to create root path %s: %w", root, mkErr)
			}
		} else {
			return nil, fmt.Errorf("fs: root path error: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) usersPath() string {
	return filepath.Join(s.root, "users.yaml")
}

type usersFile struct {
	Users []userYAML `yaml:"users"`
}

type userYAML struct {
	ID            string    `yaml:"id"`
	Username      *string   `yaml:"username,omitempty"`
	Email         *string   `yaml:"email,omitempty"`
	PasswordHash  *string   `yaml:"password_hash,omitempty"`
	AuthMethod    string    `yaml:"auth_method"`
	GoogleID      *string   `yaml:"google_id,omitempty"`
	GoogleEmail   *string   `yaml:"google_email,omitempty"`
	GoogleName    *string   `yaml:"google_name,omitempty"`
	GooglePicture *string   `yaml:"google_picture,omitempty"`
	SupabaseID    *string   `yaml:"supabase_id,omitempty"`
	SupabaseEmail *string   `yaml:"supabase_email,omitempty"`
	IsActive      bool      `yaml:"is_active"`
	CreatedAt     time.Time `yaml:"created_at"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

func toYAML(u *core.User) userYAML {
	return userYAML{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		AuthMethod:    u.AuthMethod,
		GoogleID:      u.GoogleID,
		GoogleEmail:   u.GoogleEmail,
		GoogleName:    u.GoogleName,
		GooglePicture: u.GooglePicture,
		SupabaseID:    u.SupabaseID,
		SupabaseEmail: u.SupabaseEmail,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toCore(u userYAML) *core.User {
	return &core.User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		AuthMethod:    u.AuthMethod,
		GoogleID:      u.GoogleID,
		GoogleEmail:   u.GoogleEmail,
		GoogleName:    u.GoogleName,
		GooglePicture: u.GooglePicture,
		SupabaseID:    u.SupabaseID,
		SupabaseEmail: u.SupabaseEmail,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// load lee el archivo completo. El caller debe tener el lock.
func (s *Store) load() ([]userYAML, error) {
	data, err := os.ReadFile(s.usersPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fs: read users file: %w", err)
	}
	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("fs: parse users file: %w", err)
	}
	return file.Users, nil
}

// save escribe el archivo completo de forma atómica.
// El caller debe tener el write lock.
func (s *Store) save(users []userYAML) error {
	data, err := yaml.Marshal(usersFile{Users: users})
	if err != nil {
		return fmt.Errorf("fs: marshal users: %w", err)
	}
	if err := atomicwrite.AtomicWriteFile(s.usersPath(), data, 0644); err != nil {
		return fmt.Errorf("fs: write users file: %w", err)
	}
	return nil
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normEmail(s *string) *string {
	if s == nil {
		return nil
	}
	v := lower(*s)
	if v == "" {
		return nil
	}
	return &v
}

func eq(a *string, b string) bool { return a != nil && *a == b }

// conflictsWith reporta si candidate pisa algún identificador de row.
func conflictsWith(row userYAML, candidate userYAML) bool {
	if candidate.Username != nil && eq(row.Username, *candidate.Username) {
		return true
	}
	if candidate.Email != nil && eq(row.Email, *candidate.Email) {
		return true
	}
	if candidate.GoogleID != nil && eq(row.GoogleID, *candidate.GoogleID) {
		return true
	}
	if candidate.GoogleEmail != nil && eq(row.GoogleEmail, *candidate.GoogleEmail) {
		return true
	}
	if candidate.SupabaseID != nil && eq(row.SupabaseID, *candidate.SupabaseID) {
		return true
	}
	if candidate.SupabaseEmail != nil && eq(row.SupabaseEmail, *candidate.SupabaseEmail) {
		return true
	}
	return false
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u == nil {
		return core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.AuthMethod == "" {
		u.AuthMethod = core.AuthMethodLocal
	}
	u.Email = normEmail(u.Email)
	u.GoogleEmail = normEmail(u.GoogleEmail)
	u.SupabaseEmail = normEmail(u.SupabaseEmail)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	row := toYAML(u)
	for _, existing := range users {
		if existing.ID == row.ID || conflictsWith(existing, row) {
			return core.ErrConflict
		}
	}

	users = append(users, row)
	return s.save(users)
}

func (s *Store) findBy(match func(userYAML) bool) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return toCore(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	if id == "" {
		return nil, core.ErrNotFound
	}
	return s.findBy(func(u userYAML) bool { return u.ID == id })
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	if username == "" {
		return nil, core.ErrNotFound
	}
	return s.findBy(func(u userYAML) bool { return eq(u.Username, username) })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	e := lower(email)
	if e == "" {
		return nil, core.ErrNotFound
	}
	return s.findBy(func(u userYAML) bool { return eq(u.Email, e) })
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*core.User, error) {
	if googleID == "" {
		return nil, core.ErrNotFound
	}
	return s.findBy(func(u userYAML) bool { return eq(u.GoogleID, googleID) })
}

func (s *Store) GetUserBySupabaseID(ctx context.Context, supabaseID string) (*core.User, error) {
	if supabaseID == "" {
		return nil, core.ErrNotFound
	}
	return s.findBy(func(u userYAML) bool { return eq(u.SupabaseID, supabaseID) })
}

func (s *Store) LinkGoogle(ctx context.Context, userID string, link core.GoogleLink, authMethod string) (*core.User, error) {
	if userID == "" || link.ID == "" || authMethod == "" {
		return nil, core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}

	idx := -1
	gemail := normEmail(core.StrPtr(link.Email))
	for i, u := range users {
		if u.ID == userID {
			idx = i
			continue
		}
		if eq(u.GoogleID, link.ID) {
			return nil, core.ErrConflict
		}
		if gemail != nil && eq(u.GoogleEmail, *gemail) {
			return nil, core.ErrConflict
		}
	}
	if idx < 0 {
		return nil, core.ErrNotFound
	}

	users[idx].GoogleID = core.StrPtr(link.ID)
	users[idx].GoogleEmail = gemail
	users[idx].GoogleName = core.StrPtr(link.Name)
	users[idx].GooglePicture = core.StrPtr(link.Picture)
	users[idx].AuthMethod = authMethod
	users[idx].UpdatedAt = time.Now().UTC()

	if err := s.save(users); err != nil {
		return nil, err
	}
	return toCore(users[idx]), nil
}

func (s *Store) LinkSupabase(ctx context.Context, userID string, link core.SupabaseLink, authMethod string) (*core.User, error) {
	if userID == "" || link.ID == "" || authMethod == "" {
		return nil, core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}

	idx := -1
	semail := normEmail(core.StrPtr(link.Email))
	for i, u := range users {
		if u.ID == userID {
			idx = i
			continue
		}
		if eq(u.SupabaseID, link.ID) {
			return nil, core.ErrConflict
		}
		if semail != nil && eq(u.SupabaseEmail, *semail) {
			return nil, core.ErrConflict
		}
	}
	if idx < 0 {
		return nil, core.ErrNotFound
	}

	users[idx].SupabaseID = core.StrPtr(link.ID)
	users[idx].SupabaseEmail = semail
	users[idx].AuthMethod = authMethod
	users[idx].UpdatedAt = time.Now().UTC()

	if err := s.save(users); err != nil {
		return nil, err
	}
	return toCore(users[idx]), nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	if userID == "" || passwordHash == "" {
		return core.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == userID {
			users[i].PasswordHash = &passwordHash
			users[i].UpdatedAt = time.Now().UTC()
			return s.save(users)
		}
	}
	return core.ErrNotFound
}
