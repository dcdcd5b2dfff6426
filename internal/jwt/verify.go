package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken cubre firma inválida, token expirado, alg inesperado o
// claims incompletas. El handler lo traduce a 401 sin filtrar la causa.
var ErrInvalidToken = errors.New("jwt: invalid token")

// Identity es lo que un token válido acredita.
type Identity struct {
	Subject string // claim "sub" (username)
	UserID  string // claim "id"
}

// Verify valida firma HS256, expiración (con 30s de tolerancia) y presencia
// de sub/id. Cualquier otra alg se rechaza aunque la firma cierre.
func (i *Issuer) Verify(token string) (Identity, error) {
	tok, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return i.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, _ := claims["id"].(string)
	if sub == "" || id == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: sub, UserID: id}, nil
}
