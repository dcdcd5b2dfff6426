package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ShubhamDalvi1999/authbridge/internal/http/middlewares"
	svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"
	jwtx "github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

// fakeService permite fijar el comportamiento del service por test.
type fakeService struct {
	registerFn func(ctx context.Context, username, plain string) (*core.User, error)
	loginFn    func(ctx context.Context, username, plain string) (*svc.TokenResult, error)
	meFn       func(ctx context.Context, userID string) (*core.User, error)
}

func (f *fakeService) Register(ctx context.Context, username, plain string) (*core.User, error) {
	return f.registerFn(ctx, username, plain)
}

func (f *fakeService) LoginPassword(ctx context.Context, username, plain string) (*svc.TokenResult, error) {
	return f.loginFn(ctx, username, plain)
}

func (f *fakeService) Me(ctx context.Context, userID string) (*core.User, error) {
	return f.meFn(ctx, userID)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateSuccess(t *testing.T) {
	var gotUsername, gotPassword string
	ctrl := NewCreateController(&fakeService{
		registerFn: func(_ context.Context, username, plain string) (*core.User, error) {
			gotUsername, gotPassword = username, plain
			return &core.User{ID: "u-1", Username: core.StrPtr(username)}, nil
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Create(rec, postJSON("/api/auth/", `{"username":"walter","password":"Secreta123"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if gotUsername != "walter" || gotPassword != "Secreta123" {
		t.Fatalf("service got (%q, %q)", gotUsername, gotPassword)
	}
	body := decodeBody(t, rec)
	if body["message"] != "User created successfully" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	ctrl := NewCreateController(&fakeService{
		registerFn: func(context.Context, string, string) (*core.User, error) {
			return nil, svc.ErrUsernameTaken
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Create(rec, postJSON("/api/auth/", `{"username":"walter","password":"Secreta123"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "USERNAME_TAKEN" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestCreateWeakPassword(t *testing.T) {
	ctrl := NewCreateController(&fakeService{
		registerFn: func(context.Context, string, string) (*core.User, error) {
			return nil, &svc.PolicyError{Reasons: []string{"too_short", "missing_digit"}}
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Create(rec, postJSON("/api/auth/", `{"username":"walter","password":"x"}`))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != "PASSWORD_TOO_WEAK" {
		t.Fatalf("code = %v", body["code"])
	}
	if body["detail"] != "too_short, missing_digit" {
		t.Fatalf("detail = %v", body["detail"])
	}
}

func TestCreateMissingFields(t *testing.T) {
	ctrl := NewCreateController(&fakeService{
		registerFn: func(context.Context, string, string) (*core.User, error) {
			return nil, svc.ErrMissingFields
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Create(rec, postJSON("/api/auth/", `{"username":"","password":""}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "MISSING_FIELDS" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestCreateRejectsInvalidJSON(t *testing.T) {
	ctrl := NewCreateController(&fakeService{
		registerFn: func(context.Context, string, string) (*core.User, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Create(rec, postJSON("/api/auth/", `{"username":`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "INVALID_JSON" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestCreateMethodNotAllowed(t *testing.T) {
	ctrl := NewCreateController(&fakeService{})

	rec := httptest.NewRecorder()
	ctrl.Create(rec, httptest.NewRequest(http.MethodGet, "/api/auth/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "POST" {
		t.Fatalf("Allow = %q", allow)
	}
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestTokenSuccess(t *testing.T) {
	ctrl := NewTokenController(&fakeService{
		loginFn: func(_ context.Context, username, plain string) (*svc.TokenResult, error) {
			if username != "walter" || plain != "Secreta123" {
				t.Fatalf("service got (%q, %q)", username, plain)
			}
			return &svc.TokenResult{AccessToken: "jwt-abc", TokenType: "bearer"}, nil
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Token(rec, postForm("/api/auth/token", url.Values{
		"username": {" walter "},
		"password": {"Secreta123"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["access_token"] != "jwt-abc" || body["token_type"] != "bearer" {
		t.Fatalf("body = %v", body)
	}
}

func TestTokenInvalidCredentials(t *testing.T) {
	for name, svcErr := range map[string]error{
		"wrong password": svc.ErrInvalidCredentials,
		"disabled user":  svc.ErrUserDisabled,
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := NewTokenController(&fakeService{
				loginFn: func(context.Context, string, string) (*svc.TokenResult, error) {
					return nil, svcErr
				},
			})

			rec := httptest.NewRecorder()
			ctrl.Token(rec, postForm("/api/auth/token", url.Values{
				"username": {"walter"},
				"password": {"nope"},
			}))

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["code"] != "INVALID_CREDENTIALS" {
				t.Fatalf("code = %v", body["code"])
			}
			if body["message"] != "Incorrect username or password" {
				t.Fatalf("message = %v", body["message"])
			}
		})
	}
}

func TestTokenMissingFields(t *testing.T) {
	ctrl := NewTokenController(&fakeService{
		loginFn: func(context.Context, string, string) (*svc.TokenResult, error) {
			return nil, svc.ErrMissingFields
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Token(rec, postForm("/api/auth/token", url.Values{}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTokenInternalError(t *testing.T) {
	ctrl := NewTokenController(&fakeService{
		loginFn: func(context.Context, string, string) (*svc.TokenResult, error) {
			return nil, svc.ErrTokenIssueFailed
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Token(rec, postForm("/api/auth/token", url.Values{
		"username": {"walter"},
		"password": {"Secreta123"},
	}))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestMeReturnsProfile(t *testing.T) {
	ctrl := NewMeController(&fakeService{
		meFn: func(_ context.Context, userID string) (*core.User, error) {
			if userID != "u-9" {
				t.Fatalf("userID = %q", userID)
			}
			return &core.User{
				ID:         "u-9",
				Username:   core.StrPtr("walter"),
				Email:      core.StrPtr("walter@example.com"),
				AuthMethod: core.AuthMethodLocal,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil)
	req = req.WithContext(middlewares.WithIdentity(req.Context(), jwtx.Identity{Subject: "walter", UserID: "u-9"}))

	rec := httptest.NewRecorder()
	ctrl.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["username"] != "walter" || body["id"] != "u-9" {
		t.Fatalf("body = %v", body)
	}
	if body["email"] != "walter@example.com" || body["auth_method"] != core.AuthMethodLocal {
		t.Fatalf("body = %v", body)
	}
}

func TestMeWithoutIdentity(t *testing.T) {
	ctrl := NewMeController(&fakeService{
		meFn: func(context.Context, string) (*core.User, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	ctrl.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMeUserGone(t *testing.T) {
	ctrl := NewMeController(&fakeService{
		meFn: func(context.Context, string) (*core.User, error) {
			return nil, svc.ErrUserNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users/me", nil)
	req = req.WithContext(middlewares.WithIdentity(req.Context(), jwtx.Identity{Subject: "ghost", UserID: "u-gone"}))

	rec := httptest.NewRecorder()
	ctrl.Me(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "User not found" {
		t.Fatalf("message = %v", body["message"])
	}
}
