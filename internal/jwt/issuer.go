// Package jwt emite y valida los access tokens de sesión (HS256, secreto
// compartido). El payload lleva sub (username) e id (user id) además de
// iat/exp estándar.
package jwt

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Issuer firma tokens de sesión con el secreto compartido.
type Issuer struct {
	secret    []byte
	AccessTTL time.Duration
}

// NewIssuer crea un Issuer. ttl <= 0 usa el default de 20 minutos.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	return &Issuer{secret: []byte(secret), AccessTTL: ttl}
}

// Issue emite un token para el usuario. Devuelve el JWT firmado y su expiry.
func (i *Issuer) Issue(subject, userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"sub": subject,
		"id":  userID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp, nil
}
