package e2e

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/google/uuid"
)

/* ============================================================================
   HTTP utils
============================================================================ */

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}

func mustJSON(r io.Reader, v any) error {
	return json.NewDecoder(bufio.NewReader(r)).Decode(v)
}

func readHeader(resp *http.Response, name string) string {
	for k, v := range resp.Header {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func postJSON(c *http.Client, path string, payload any) (*http.Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.Post(baseURL+path, "application/json", bytes.NewReader(b))
}

func postForm(c *http.Client, path string, form url.Values) (*http.Response, error) {
	return c.Post(baseURL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func authGet(c *http.Client, path, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.Do(req)
}

// signupUser da de alta un usuario local. Devuelve el status y el body crudo.
func signupUser(c *http.Client, username, password string) (int, []byte, error) {
	resp, err := postJSON(c, "/api/auth/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// loginUser hace el password grant y devuelve el access token si fue 200.
func loginUser(c *http.Client, username, password string) (int, string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	resp, err := postForm(c, "/api/auth/token", form)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, "", nil
	}
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := mustJSON(resp.Body, &out); err != nil {
		return resp.StatusCode, "", err
	}
	if out.TokenType != "bearer" {
		return resp.StatusCode, "", fmt.Errorf("token_type=%q", out.TokenType)
	}
	return resp.StatusCode, out.AccessToken, nil
}

// errCode extrae el campo code del body de error estándar.
func errCode(body []byte) string {
	var e struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(body, &e)
	return e.Code
}

/* ============================================================================
   Utils genéricos: nombres únicos, QS, JWT decode
============================================================================ */

// usernames únicos por corrida para no chocar con otros tests
func uniqueName(tag string) string {
	suffix := time.Now().UnixNano() % 1_000_000_000
	return tag + "-" + strconv.FormatInt(suffix, 10)
}

func uniqueEmail(tag string) string {
	return uniqueName(tag) + "@example.test"
}

// querystring util
func qs(u, key string) string {
	uu, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return uu.Query().Get(key)
}

func b64urlDecode(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.StdEncoding.DecodeString(s)
}

// decodeJWT parsea header y payload sin verificar la firma.
func decodeJWT(jwt string) (map[string]any, map[string]any, error) {
	parts := strings.Split(jwt, ".")
	if len(parts) < 2 {
		return nil, nil, fmt.Errorf("invalid token format")
	}
	hb, err := b64urlDecode(parts[0])
	if err != nil {
		return nil, nil, err
	}
	pb, err := b64urlDecode(parts[1])
	if err != nil {
		return nil, nil, err
	}
	var hdr, pld map[string]any
	if err := json.Unmarshal(hb, &hdr); err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(pb, &pld); err != nil {
		return nil, nil, err
	}
	return hdr, pld, nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

/* ============================================================================
   Fake GoTrue: suficiente para signup, password grant, code exchange y user
============================================================================ */

type gotrueUser struct {
	ID       string
	Email    string
	Password string
}

type fakeGoTrue struct {
	mu    sync.Mutex
	users map[string]*gotrueUser // por email
	codes map[string]string      // authorization code -> email
}

func newFakeGoTrue() *fakeGoTrue {
	return &fakeGoTrue{
		users: make(map[string]*gotrueUser),
		codes: make(map[string]string),
	}
}

// seedUser da de alta un usuario directamente en el GoTrue falso.
func (g *fakeGoTrue) seedUser(email, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.users[email]; !ok {
		g.users[email] = &gotrueUser{ID: uuid.NewString(), Email: email, Password: password}
	}
}

// seedCode registra un authorization code canjeable para el email dado,
// como si el usuario hubiera completado el consent en el IdP.
func (g *fakeGoTrue) seedCode(email string) string {
	g.seedUser(email, "irrelevant-for-code-flow")
	g.mu.Lock()
	defer g.mu.Unlock()
	code := "code-" + uuid.NewString()
	g.codes[code] = email
	return code
}

func (g *fakeGoTrue) userJSON(u *gotrueUser) map[string]any {
	return map[string]any{
		"id":                 u.ID,
		"aud":                "authenticated",
		"email":              u.Email,
		"email_confirmed_at": "2025-01-01T00:00:00Z",
		"created_at":         "2025-01-01T00:00:00Z",
	}
}

func (g *fakeGoTrue) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (g *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") == "" && r.Header.Get("Authorization") == "" {
		g.write(w, 401, map[string]string{"message": "No API key found in request"})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case r.Method == "POST" && r.URL.Path == "/auth/v1/signup":
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
			g.write(w, 400, map[string]string{"msg": "invalid body"})
			return
		}
		if _, ok := g.users[in.Email]; ok {
			g.write(w, 422, map[string]string{"msg": "User already registered"})
			return
		}
		u := &gotrueUser{ID: uuid.NewString(), Email: in.Email, Password: in.Password}
		g.users[in.Email] = u
		// autoconfirm: sesión completa en la respuesta de signup
		g.write(w, 200, map[string]any{
			"access_token": "sb-" + u.ID,
			"token_type":   "bearer",
			"user":         g.userJSON(u),
		})

	case r.Method == "POST" && r.URL.Path == "/auth/v1/token":
		if err := r.ParseForm(); err != nil {
			g.write(w, 400, map[string]string{"error": "invalid_request"})
			return
		}
		switch r.PostFormValue("grant_type") {
		case "password":
			u, ok := g.users[r.PostFormValue("email")]
			if !ok || u.Password != r.PostFormValue("password") {
				g.write(w, 400, map[string]string{
					"error":             "invalid_grant",
					"error_description": "Invalid login credentials",
				})
				return
			}
			g.write(w, 200, map[string]any{
				"access_token": "sb-" + u.ID,
				"token_type":   "bearer",
				"user":         g.userJSON(u),
			})
		case "authorization_code":
			email, ok := g.codes[r.PostFormValue("code")]
			if !ok {
				g.write(w, 400, map[string]string{
					"error":             "invalid_grant",
					"error_description": "Invalid authorization code",
				})
				return
			}
			delete(g.codes, r.PostFormValue("code"))
			u := g.users[email]
			g.write(w, 200, map[string]any{
				"access_token": "sb-" + u.ID,
				"token_type":   "bearer",
				"user":         g.userJSON(u),
			})
		default:
			g.write(w, 400, map[string]string{"error": "unsupported_grant_type"})
		}

	case r.Method == "GET" && r.URL.Path == "/auth/v1/user":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		for _, u := range g.users {
			if "sb-"+u.ID == token {
				g.write(w, 200, g.userJSON(u))
				return
			}
		}
		g.write(w, 401, map[string]string{"msg": "invalid token"})

	default:
		g.write(w, 404, map[string]string{"msg": "not found"})
	}
}

/* ============================================================================
   Fake Google IdP: discovery + jwks + token + userinfo, firmando id_tokens
   RS256 con una clave generada por corrida
============================================================================ */

const googleKid = "e2e-kid-1"

type googleConsent struct {
	Sub   string
	Email string
	Name  string
	Nonce string // ya hasheado, tal como viaja en la URL de autorización
}

type fakeGoogleIdP struct {
	srv      *httptest.Server
	key      *rsa.PrivateKey
	clientID string

	mu    sync.Mutex
	codes map[string]googleConsent // authorization code -> consent
	users map[string]googleConsent // sub -> consent (para userinfo)
}

func newFakeGoogleIdP(clientID string) (*fakeGoogleIdP, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	f := &fakeGoogleIdP{
		key:      key,
		clientID: clientID,
		codes:    make(map[string]googleConsent),
		users:    make(map[string]googleConsent),
	}

	mux := http.NewServeMux()
	f.srv = httptest.NewServer(mux)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		// authorization_endpoint real: solo se templatea, nunca se fetchea
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 "https://accounts.google.com",
			"authorization_endpoint": "https://accounts.google.com/o/oauth2/v2/auth",
			"token_endpoint":         f.srv.URL + "/token",
			"jwks_uri":               f.srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		pub := &f.key.PublicKey
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"kid": googleKid,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		consent, ok := f.codes[r.PostFormValue("code")]
		if ok {
			delete(f.codes, r.PostFormValue("code"))
		}
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(400)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Bad authorization code",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "ga-" + consent.Sub,
			"id_token":     f.signIDToken(consent),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		sub := strings.TrimPrefix(token, "ga-")
		f.mu.Lock()
		consent, ok := f.users[sub]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(401)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             consent.Sub,
			"email":          consent.Email,
			"verified_email": true,
			"name":           consent.Name,
			"picture":        "https://lh3.example.test/" + consent.Sub + ".png",
		})
	})

	return f, nil
}

func (f *fakeGoogleIdP) Close() { f.srv.Close() }

// mintCode emite un authorization code como si el usuario hubiera pasado por
// el consent con el nonce (hasheado) que vino en la URL de autorización.
func (f *fakeGoogleIdP) mintCode(sub, email, name, nonce string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := "gcode-" + uuid.NewString()
	consent := googleConsent{Sub: sub, Email: email, Name: name, Nonce: nonce}
	f.codes[code] = consent
	f.users[sub] = consent
	return code
}

func (f *fakeGoogleIdP) signIDToken(consent googleConsent) string {
	now := time.Now()
	claims := jwtv5.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            f.clientID,
		"sub":            consent.Sub,
		"email":          consent.Email,
		"email_verified": true,
		"name":           consent.Name,
		"nonce":          consent.Nonce,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = googleKid
	signed, err := tok.SignedString(f.key)
	if err != nil {
		panic(err)
	}
	return signed
}
