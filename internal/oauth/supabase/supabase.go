// Package supabase implementa el flujo OAuth y el password grant contra
// GoTrue (el servicio de auth de Supabase). Todas las llamadas llevan el
// anon key en el header apikey.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShubhamDalvi1999/authbridge/internal/oauth"
)

type Client struct {
	BaseURL     string // ej https://xyzcompany.supabase.co
	AnonKey     string
	RedirectURL string

	http *http.Client
}

func New(baseURL, anonKey, redirectURL string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AnonKey:     anonKey,
		RedirectURL: redirectURL,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured indica si el provider tiene credenciales completas.
func (c *Client) Configured() bool {
	return c != nil && c.BaseURL != "" && c.AnonKey != ""
}

// AuthURL construye la URL de autorización de GoTrue. provider es el IdP
// que Supabase intermediará (default "google").
func (c *Client) AuthURL(provider, state string) (string, error) {
	if !c.Configured() {
		return "", oauth.ErrNotConfigured
	}
	if provider == "" {
		provider = "google"
	}
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", c.RedirectURL)
	q.Set("state", state)
	q.Set("response_type", "code")
	return c.BaseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

// User es el usuario de GoTrue (campos que usamos).
type User struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	Phone            string         `json:"phone"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        string         `json:"created_at"`
}

// EmailVerified indica si GoTrue confirmó el email del usuario.
func (u *User) EmailVerified() bool {
	return u != nil && u.EmailConfirmedAt != ""
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// SignUpResponse cubre las dos formas de respuesta de /signup: sesión
// completa (autoconfirm) o usuario pelado (confirmación pendiente).
type SignUpResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`

	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at"`
}

// ResolveUser devuelve el usuario sin importar la forma de la respuesta.
func (r *SignUpResponse) ResolveUser() *User {
	if r == nil {
		return nil
	}
	if r.User != nil && r.User.ID != "" {
		return r.User
	}
	if r.ID != "" {
		return &User{ID: r.ID, Email: r.Email, EmailConfirmedAt: r.EmailConfirmedAt}
	}
	return nil
}

// gotrueError acepta las distintas formas de error que devuelve GoTrue
// según versión: {error, error_description} | {code, msg} | {message}.
type gotrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (c *Client) providerError(status int, body []byte) *oauth.ProviderError {
	var ge gotrueError
	_ = json.Unmarshal(body, &ge)
	desc := ge.ErrorDescription
	if desc == "" {
		desc = ge.Msg
	}
	if desc == "" {
		desc = ge.Message
	}
	return &oauth.ProviderError{
		Provider:    "supabase",
		StatusCode:  status,
		Code:        ge.Error,
		Description: desc,
	}
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, _ := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.AnonKey)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, _ := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.AnonKey)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return c.providerError(resp.StatusCode, buf.Bytes())
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ExchangeCode canjea el code del callback. El state se compara antes de
// cualquier llamada HTTP.
func (c *Client) ExchangeCode(ctx context.Context, code, state, expectedState string) (*TokenResponse, error) {
	if !c.Configured() {
		return nil, oauth.ErrNotConfigured
	}
	if state == "" || state != expectedState {
		return nil, oauth.ErrStateMismatch
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURL)

	var tr TokenResponse
	if err := c.postForm(ctx, "/auth/v1/token", form, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// GetUser trae el usuario dueño del access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if !c.Configured() {
		return nil, oauth.ErrNotConfigured
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/auth/v1/user", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.AnonKey)

	var u User
	if err := c.do(req, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, fmt.Errorf("supabase: user response without id")
	}
	return &u, nil
}

// SignUp registra un usuario email+password en GoTrue.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResponse, error) {
	if !c.Configured() {
		return nil, oauth.ErrNotConfigured
	}
	var sr SignUpResponse
	err := c.postJSON(ctx, "/auth/v1/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &sr)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// SignInWithPassword autentica email+password contra GoTrue.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error) {
	if !c.Configured() {
		return nil, oauth.ErrNotConfigured
	}
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("email", email)
	form.Set("password", password)

	var tr TokenResponse
	if err := c.postForm(ctx, "/auth/v1/token", form, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
