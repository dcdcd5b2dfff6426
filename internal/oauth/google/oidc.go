// Package google implementa el flujo authorization-code contra Google con
// verificación OIDC del id_token (firma RS256 vía JWKS del discovery).
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/ShubhamDalvi1999/authbridge/internal/oauth"
)

const (
	defaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"
	defaultUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"

	discoveryTTL = 24 * time.Hour
	jwksTTL      = 1 * time.Hour
)

type discoveryDoc struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type OIDC struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Overridables en tests; los defaults apuntan a Google.
	DiscoveryURL string
	UserInfoURL  string

	http *http.Client
	sf   singleflight.Group

	mu    sync.RWMutex
	disc  *discoveryDoc
	discU time.Time

	jwks     *jwks
	jwksAt   time.Time
	jwksETag string
}

func New(clientID, clientSecret, redirectURL string, scopes []string) *OIDC {
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &OIDC{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		DiscoveryURL: defaultDiscoveryURL,
		UserInfoURL:  defaultUserInfoURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured indica si el provider tiene credenciales completas.
func (g *OIDC) Configured() bool {
	return g != nil && g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

func (g *OIDC) discovery(ctx context.Context) (*discoveryDoc, error) {
	g.mu.RLock()
	disc := g.disc
	fresh := disc != nil && time.Since(g.discU) < discoveryTTL
	g.mu.RUnlock()
	if fresh {
		return disc, nil
	}

	// singleflight: un solo fetch aunque lleguen N requests a la vez
	v, err, _ := g.sf.Do("discovery", func() (any, error) {
		g.mu.RLock()
		if g.disc != nil && time.Since(g.discU) < discoveryTTL {
			d := g.disc
			g.mu.RUnlock()
			return d, nil
		}
		g.mu.RUnlock()

		req, _ := http.NewRequestWithContext(ctx, "GET", g.DiscoveryURL, nil)
		resp, err := g.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
		}
		var dd discoveryDoc
		if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.disc = &dd
		g.discU = time.Now()
		g.mu.Unlock()
		return &dd, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discoveryDoc), nil
}

func (g *OIDC) getJWKS(ctx context.Context, uri string) (*jwks, error) {
	g.mu.RLock()
	j := g.jwks
	fresh := j != nil && time.Since(g.jwksAt) < jwksTTL
	g.mu.RUnlock()
	if fresh {
		return j, nil
	}

	v, err, _ := g.sf.Do("jwks", func() (any, error) {
		g.mu.RLock()
		if g.jwks != nil && time.Since(g.jwksAt) < jwksTTL {
			jj := g.jwks
			g.mu.RUnlock()
			return jj, nil
		}
		etag := g.jwksETag
		g.mu.RUnlock()

		req, _ := http.NewRequestWithContext(ctx, "GET", uri, nil)
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		resp, err := g.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotModified {
			g.mu.Lock()
			out := g.jwks
			g.jwksAt = time.Now()
			g.mu.Unlock()
			return out, nil
		}
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
		}
		var jj jwks
		if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.jwks = &jj
		g.jwksAt = time.Now()
		g.jwksETag = resp.Header.Get("ETag")
		g.mu.Unlock()
		return &jj, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jwks), nil
}

func (g *OIDC) rsaKeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	disc, err := g.discovery(ctx)
	if err != nil {
		return nil, err
	}
	jwks, err := g.getJWKS(ctx, disc.JWKSURI)
	if err != nil {
		return nil, err
	}
	for _, k := range jwks.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			n := new(big.Int).SetBytes(nb)
			e := 0
			for _, b := range eb {
				e = (e << 8) | int(b)
			}
			if e == 0 {
				e = 65537
			}
			return &rsa.PublicKey{N: n, E: e}, nil
		}
	}
	return nil, fmt.Errorf("%w: kid not found", oauth.ErrInvalidIDToken)
}

// AuthURL construye la URL de autorización. El nonce que recibe ya viene
// hasheado: el valor crudo queda server-side en la transacción.
func (g *OIDC) AuthURL(ctx context.Context, state, nonce string) (string, error) {
	if !g.Configured() {
		return "", oauth.ErrNotConfigured
	}
	disc, err := g.discovery(ctx)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(disc.AuthEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", g.ClientID)
	q.Set("redirect_uri", g.RedirectURL)
	q.Set("scope", strings.Join(g.Scopes, " "))
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	RefreshTok  string `json:"refresh_token,omitempty"`
}

// ExchangeCode canjea el code por tokens. El chequeo de state se resuelve
// acá, antes de tocar la red: un mismatch nunca gasta el code.
func (g *OIDC) ExchangeCode(ctx context.Context, code, state, expectedState string) (*TokenResponse, error) {
	if !g.Configured() {
		return nil, oauth.ErrNotConfigured
	}
	if state == "" || state != expectedState {
		return nil, oauth.ErrStateMismatch
	}

	disc, err := g.discovery(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", g.ClientID)
	form.Set("client_secret", g.ClientSecret)
	form.Set("redirect_uri", g.RedirectURL)

	req, _ := http.NewRequestWithContext(ctx, "POST", disc.TokenEndpoint, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var b struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		return nil, &oauth.ProviderError{
			Provider:    "google",
			StatusCode:  resp.StatusCode,
			Code:        b.Error,
			Description: b.ErrorDescription,
		}
	}
	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

type IDClaims struct {
	Sub           string          `json:"sub"`
	Iss           string          `json:"iss"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"email_verified"`
	Name          string          `json:"name"`
	GivenName     string          `json:"given_name"`
	FamilyName    string          `json:"family_name"`
	Picture       string          `json:"picture"`
	Locale        string          `json:"locale"`
	Nonce         string          `json:"nonce"`
	Raw           jwtv5.MapClaims `json:"-"`
}

// VerifyIDToken valida firma, iss, aud, nonce y exp (con 30s de tolerancia).
// expectedNonce es el hash que viajó en la authorization URL.
func (g *OIDC) VerifyIDToken(ctx context.Context, idToken, expectedNonce string) (*IDClaims, error) {
	if !g.Configured() {
		return nil, oauth.ErrNotConfigured
	}

	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: bad jwt format", oauth.ErrInvalidIDToken)
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bad header", oauth.ErrInvalidIDToken)
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, fmt.Errorf("%w: bad header", oauth.ErrInvalidIDToken)
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("%w: unexpected alg %s", oauth.ErrInvalidIDToken, header.Alg)
	}

	key, err := g.rsaKeyForKid(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	tok, err := jwtv5.Parse(idToken,
		func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: bad signature", oauth.ErrInvalidIDToken)
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: claims type", oauth.ErrInvalidIDToken)
	}

	iss, _ := claims["iss"].(string)
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, fmt.Errorf("%w: bad iss %s", oauth.ErrInvalidIDToken, iss)
	}

	audOK := false
	switch a := claims["aud"].(type) {
	case string:
		audOK = (a == g.ClientID)
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == g.ClientID {
				audOK = true
				break
			}
		}
	}
	if !audOK {
		return nil, fmt.Errorf("%w: bad aud", oauth.ErrInvalidIDToken)
	}

	if expectedNonce != "" {
		if got, _ := claims["nonce"].(string); got != expectedNonce {
			return nil, fmt.Errorf("%w: bad nonce", oauth.ErrInvalidIDToken)
		}
	}

	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, fmt.Errorf("%w: expired", oauth.ErrInvalidIDToken)
		}
	}

	return &IDClaims{
		Raw:           claims,
		Sub:           strClaim(claims, "sub"),
		Iss:           iss,
		Email:         strClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Name:          strClaim(claims, "name"),
		GivenName:     strClaim(claims, "given_name"),
		FamilyName:    strClaim(claims, "family_name"),
		Picture:       strClaim(claims, "picture"),
		Locale:        strClaim(claims, "locale"),
		Nonce:         strClaim(claims, "nonce"),
	}, nil
}

// UserInfo consulta el endpoint userinfo con el access token del exchange.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func (g *OIDC) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if !g.Configured() {
		return nil, oauth.ErrNotConfigured
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", g.UserInfoURL, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &oauth.ProviderError{Provider: "google", StatusCode: resp.StatusCode, Code: "userinfo_failed"}
	}
	var ui UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&ui); err != nil {
		return nil, err
	}
	return &ui, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}

func boolClaim(m jwtv5.MapClaims, k string) bool {
	b, _ := m[k].(bool)
	return b
}
