package core

import "context"

// GoogleLink son los campos de identidad Google que el motor de
// reconciliación fija sobre una fila existente.
type GoogleLink struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// SupabaseLink idem para Supabase.
type SupabaseLink struct {
	ID    string
	Email string
}

// Repository es el contrato común de los drivers (memory, fs, postgres).
// Todos los lookups devuelven ErrNotFound si no hay fila; las escrituras
// devuelven ErrConflict ante un identificador duplicado.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	// CreateUser persiste u. Si u.ID viene vacío el store asigna un uuid;
	// CreatedAt/UpdatedAt se fijan al momento de la inserción.
	CreateUser(ctx context.Context, u *User) error

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetUserBySupabaseID(ctx context.Context, supabaseID string) (*User, error)

	// LinkGoogle fija la identidad Google y el auth_method sobre un usuario
	// existente y devuelve la fila actualizada.
	LinkGoogle(ctx context.Context, userID string, link GoogleLink, authMethod string) (*User, error)
	// LinkSupabase idem para Supabase.
	LinkSupabase(ctx context.Context, userID string, link SupabaseLink, authMethod string) (*User, error)

	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}
