// Package social contiene los controllers de login con providers externos.
package social

import svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/social"

// Controllers agrupa los controllers del dominio social.
type Controllers struct {
	Google   *GoogleController
	Supabase *SupabaseController
}

// NewControllers crea el agregador de controllers sociales.
func NewControllers(s *svc.Services) *Controllers {
	return &Controllers{
		Google:   NewGoogleController(s.Google),
		Supabase: NewSupabaseController(s.Supabase),
	}
}
