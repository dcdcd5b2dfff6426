// Package txstore guarda las transacciones OAuth pendientes de callback.
// Cada state es de un solo uso: Take lo consume atómicamente, con lo cual
// un replay del mismo callback falla aunque llegue milisegundos después.
package txstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShubhamDalvi1999/authbridge/internal/cache"
	tokens "github.com/ShubhamDalvi1999/authbridge/internal/security/token"
)

var (
	// ErrDuplicateState indica que el state ya estaba registrado.
	ErrDuplicateState = errors.New("txstore: duplicate state")
	// ErrUnknownState indica state desconocido, ya consumido o expirado.
	ErrUnknownState = errors.New("txstore: unknown or expired state")
)

// Tx es el contexto server-side de un flujo OAuth en curso.
type Tx struct {
	Provider  string    `json:"provider"`
	Nonce     string    `json:"nonce,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	cache cache.Client
	ttl   time.Duration
}

// New crea el store. ttl <= 0 usa el default de 10 minutos.
func New(c cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{cache: c, ttl: ttl}
}

func (s *Store) TTL() time.Duration { return s.ttl }

// NewState genera el token CSRF que viaja en la authorization URL.
func NewState() (string, error) { return tokens.GenerateOpaqueToken(32) }

// NewNonce genera el nonce crudo anti-replay. Al id_token viaja su hash,
// nunca el valor crudo.
func NewNonce() (string, error) { return tokens.GenerateOpaqueToken(32) }

func key(state string) string { return "oauthtx:" + state }

// Put registra una transacción nueva bajo state.
func (s *Store) Put(ctx context.Context, state string, tx Tx) error {
	if state == "" {
		return fmt.Errorf("txstore: empty state")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("txstore: marshal tx: %w", err)
	}
	ok, err := s.cache.SetNX(ctx, key(state), string(raw), s.ttl)
	if err != nil {
		return fmt.Errorf("txstore: put: %w", err)
	}
	if !ok {
		return ErrDuplicateState
	}
	return nil
}

// Take consume la transacción de state. Un segundo Take del mismo state
// devuelve ErrUnknownState.
func (s *Store) Take(ctx context.Context, state string) (Tx, error) {
	if state == "" {
		return Tx{}, ErrUnknownState
	}
	raw, err := s.cache.GetDel(ctx, key(state))
	if err != nil {
		if cache.IsNotFound(err) {
			return Tx{}, ErrUnknownState
		}
		return Tx{}, fmt.Errorf("txstore: take: %w", err)
	}
	var tx Tx
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		return Tx{}, ErrUnknownState
	}
	// Re-chequeo de vigencia por si el backend todavía no expiró la key.
	if !tx.CreatedAt.IsZero() && time.Since(tx.CreatedAt) > s.ttl {
		return Tx{}, ErrUnknownState
	}
	return tx, nil
}
