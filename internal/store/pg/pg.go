// Package pg implementa core.Repository sobre Postgres (pgxpool).
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

// Tuning son los knobs opcionales del pool.
type Tuning struct {
	MaxConns        int
	ConnMaxLifetime string // duración parseable, ej "30m"
}

// New arma el pool. El ping inicial es best-effort: si la DB está caída el
// proceso arranca igual y /readyz reporta el estado real.
func New(ctx context.Context, dsn string, tuning Tuning) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if tuning.MaxConns > 0 {
		pcfg.MaxConns = int32(tuning.MaxConns)
	}
	if tuning.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(tuning.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	log := logger.Named("store.pg")
	if err := pool.Ping(ctx); err != nil {
		log.Warn("startup ping failed", logger.Err(err))
	} else {
		log.Info("pool ready", zap.Int32("max_conns", pcfg.MaxConns))
	}

	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (migraciones, métricas).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// isUniqueViolation detecta violaciones de constraint UNIQUE (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const userColumns = `id, username, email, password_hash, auth_method,
	google_id, google_email, google_name, google_picture,
	supabase_id, supabase_email, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AuthMethod,
		&u.GoogleID, &u.GoogleEmail, &u.GoogleName, &u.GooglePicture,
		&u.SupabaseID, &u.SupabaseEmail, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	if u == nil {
		return core.ErrInvalid
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.AuthMethod == "" {
		u.AuthMethod = core.AuthMethodLocal
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, auth_method,
			google_id, google_email, google_name, google_picture,
			supabase_id, supabase_email, is_active
		)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, LOWER($7), $8, $9, $10, LOWER($11), $12)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.AuthMethod,
		u.GoogleID, u.GoogleEmail, u.GoogleName, u.GooglePicture,
		u.SupabaseID, u.SupabaseEmail, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	if id == "" {
		return nil, core.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	if username == "" {
		return nil, core.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	if email == "" {
		return nil, core.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = LOWER($1)`, email))
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*core.User, error) {
	if googleID == "" {
		return nil, core.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
}

func (s *Store) GetUserBySupabaseID(ctx context.Context, supabaseID string) (*core.User, error) {
	if supabaseID == "" {
		return nil, core.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE supabase_id = $1`, supabaseID))
}

func (s *Store) LinkGoogle(ctx context.Context, userID string, link core.GoogleLink, authMethod string) (*core.User, error) {
	if userID == "" || link.ID == "" || authMethod == "" {
		return nil, core.ErrInvalid
	}
	u, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users SET
			google_id = $2,
			google_email = LOWER(NULLIF($3, '')),
			google_name = NULLIF($4, ''),
			google_picture = NULLIF($5, ''),
			auth_method = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, link.ID, link.Email, link.Name, link.Picture, authMethod))
	if err != nil && isUniqueViolation(err) {
		return nil, core.ErrConflict
	}
	return u, err
}

func (s *Store) LinkSupabase(ctx context.Context, userID string, link core.SupabaseLink, authMethod string) (*core.User, error) {
	if userID == "" || link.ID == "" || authMethod == "" {
		return nil, core.ErrInvalid
	}
	u, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users SET
			supabase_id = $2,
			supabase_email = LOWER(NULLIF($3, '')),
			auth_method = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, link.ID, link.Email, authMethod))
	if err != nil && isUniqueViolation(err) {
		return nil, core.ErrConflict
	}
	return u, err
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	if userID == "" || passwordHash == "" {
		return core.ErrInvalid
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
