package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtx "github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/rate"
)

func TestChainOrder(t *testing.T) {
	var got []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = append(got, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, "handler")
	}), mk("A"), mk("B"), mk("C"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := "A,B,C,handler"
	if strings.Join(got, ",") != want {
		t.Fatalf("order = %v, want %s", got, want)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("request id not injected in context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("header %q != ctx %q", rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetRequestID(r.Context()); got != "client-rid-1" {
			t.Fatalf("request id = %q", got)
		}
	}), WithRequestID())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "client-rid-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Header().Get("X-Request-ID") != "client-rid-1" {
		t.Fatalf("header = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithRecover())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body should be JSON: %v", err)
	}
	if body["code"] != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestRequireAuth(t *testing.T) {
	issuer := jwtx.NewIssuer(strings.Repeat("k", 32), time.Minute)
	token, _, err := issuer.Issue("alice", "u-1")
	if err != nil {
		t.Fatal(err)
	}

	protected := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		if !ok {
			t.Fatal("identity missing in context")
		}
		if id.Subject != "alice" || id.UserID != "u-1" {
			t.Fatalf("identity = %+v", id)
		}
		w.WriteHeader(http.StatusOK)
	}), RequireAuth(issuer))

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("WWW-Authenticate missing")
		}
		if !strings.Contains(rec.Body.String(), "Not authenticated") {
			t.Fatalf("body = %s", rec.Body.String())
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil)
		r.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Could not validate credentials") {
			t.Fatalf("body = %s", rec.Body.String())
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil)
		r.Header.Set("Authorization", "Basic YWxpY2U6cHc=")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestWithRateLimitBlocks(t *testing.T) {
	limiter := rate.NewMemoryLimiter()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithRateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   2,
		Window:  time.Minute,
		KeyFunc: IPRateKey("login"),
	}))

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
		r.RemoteAddr = "10.0.0.9:51234"
		return r
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req())
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}

	// Otra IP no comparte presupuesto
	other := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
	other.RemoteAddr = "10.0.0.10:51234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("other ip blocked: %d", rec.Code)
	}
}

func TestWithRateLimitDisabled(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithRateLimit(RateLimitConfig{Limiter: nil, Limit: 1, Window: time.Minute}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("passthrough broken: %d", rec.Code)
		}
	}
}

func TestEmailRateKeyReadsBodyAndRestoresIt(t *testing.T) {
	body := `{"email":"Alice@Example.COM"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/password-reset/request", strings.NewReader(body))
	r.RemoteAddr = "10.0.0.1:1000"
	r.Header.Set("Content-Type", "application/json")

	key := EmailRateKey("forgot")(r)
	if key != "forgot:10.0.0.1:alice@example.com" {
		t.Fatalf("key = %q", key)
	}

	// El body debe seguir legible para el handler
	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Fatalf("body not restored: %v", err)
	}
	if payload["email"] != "Alice@Example.COM" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run on preflight")
	}), WithCORS([]string{"http://localhost:3000"}))

	r := httptest.NewRequest(http.MethodOptions, "/api/auth/token", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithCORS([]string{"http://localhost:3000"}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("disallowed origin got CORS headers")
	}
}

func TestSecurityHeadersAndNoStore(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithSecurityHeaders(), WithNoStore())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("nosniff missing")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("frame options missing")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("no-store missing")
	}
	// Sin HTTPS no hay HSTS
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS should only be set over HTTPS")
	}
}

func TestClientIPFromForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:9999"
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if ip := clientIP(r); ip != "203.0.113.5" {
		t.Fatalf("ip = %q", ip)
	}
}
