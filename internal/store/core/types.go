package core

import "time"

// Métodos de autenticación de un usuario. "both" significa credenciales
// locales + al menos una identidad externa sobre la misma fila.
const (
	AuthMethodLocal    = "local"
	AuthMethodGoogle   = "google"
	AuthMethodSupabase = "supabase"
	AuthMethodBoth     = "both"
)

// User es la fila persistida. Los campos identificadores no nulos
// (username, email, google_id, google_email, supabase_id, supabase_email)
// son únicos entre todos los usuarios; el store rechaza duplicados con
// ErrConflict.
type User struct {
	ID           string
	Username     *string
	Email        *string
	PasswordHash *string
	AuthMethod   string

	GoogleID      *string
	GoogleEmail   *string
	GoogleName    *string
	GooglePicture *string

	SupabaseID    *string
	SupabaseEmail *string

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword indica si la fila tiene credenciales locales.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}

// Clone devuelve una copia profunda (los stores en memoria devuelven copias
// para que el caller no pueda mutar el estado interno).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Username = cloneStr(u.Username)
	c.Email = cloneStr(u.Email)
	c.PasswordHash = cloneStr(u.PasswordHash)
	c.GoogleID = cloneStr(u.GoogleID)
	c.GoogleEmail = cloneStr(u.GoogleEmail)
	c.GoogleName = cloneStr(u.GoogleName)
	c.GooglePicture = cloneStr(u.GooglePicture)
	c.SupabaseID = cloneStr(u.SupabaseID)
	c.SupabaseEmail = cloneStr(u.SupabaseEmail)
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StrPtr es un helper para armar campos opcionales. "" devuelve nil.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref devuelve el valor o "" si el puntero es nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
