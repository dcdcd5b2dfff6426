package e2e

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ShubhamDalvi1999/authbridge/internal/cache"
	"github.com/ShubhamDalvi1999/authbridge/internal/email"
	httpx "github.com/ShubhamDalvi1999/authbridge/internal/http"
	authctrl "github.com/ShubhamDalvi1999/authbridge/internal/http/controllers/auth"
	healthctrl "github.com/ShubhamDalvi1999/authbridge/internal/http/controllers/health"
	socialctrl "github.com/ShubhamDalvi1999/authbridge/internal/http/controllers/social"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/handlers"
	"github.com/ShubhamDalvi1999/authbridge/internal/http/router"
	authsvc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/auth"
	healthsvc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/health"
	socialsvc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/social"
	jwtx "github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/google"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/supabase"
	"github.com/ShubhamDalvi1999/authbridge/internal/oauth/txstore"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
	"github.com/ShubhamDalvi1999/authbridge/internal/rate"
	"github.com/ShubhamDalvi1999/authbridge/internal/security/password"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/memory"
)

// La suite levanta el stack completo dentro del proceso de test (store y
// cache en memoria, un GoTrue falso como Supabase) y lo sirve con httptest.
// Los tests le pegan por HTTP real, como un cliente externo.

var (
	baseURL   string
	gotrue    *fakeGoTrue
	googleIdP *fakeGoogleIdP
)

const googleClientID = "dummy-client.apps.googleusercontent.com"

// argon2id con costo mínimo para que la suite corra rápida
var testParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

// usuario pre-cargado con email y password, para el flujo de reset
const (
	seedUsername = "walter"
	seedEmail    = "walter@example.test"
	seedPassword = "Correct-Horse-7"
)

// presupuesto chico de forgot para poder provocar un 429 sin castigar al resto
const forgotLimit = 5

// passwords vetadas que carga el bootstrap
var bannedPasswords = []string{"hunter2hunter2", "qwerty123456"}

func TestMain(m *testing.M) {
	logger.Init(logger.Config{Env: "dev", Level: "error", ServiceName: "authbridge-e2e"})

	gotrue = newFakeGoTrue()
	gotrueSrv := httptest.NewServer(gotrue)

	blacklistPath, err := writeBlacklistFile()
	if err != nil {
		panic(err)
	}
	blacklist, err := password.LoadBlacklist(blacklistPath)
	if err != nil {
		panic(err)
	}

	repo := memory.New()
	hash, err := password.Hash(testParams, seedPassword)
	if err != nil {
		panic(err)
	}
	err = repo.CreateUser(context.Background(), &core.User{
		Username:     core.StrPtr(seedUsername),
		Email:        core.StrPtr(seedEmail),
		PasswordHash: &hash,
		AuthMethod:   core.AuthMethodLocal,
		IsActive:     true,
	})
	if err != nil {
		panic(err)
	}

	cacheClient := cache.NewMemory("e2e", time.Minute)
	issuer := jwtx.NewIssuer("e2e-secret-0123456789abcdef01234567", 20*time.Minute)

	googleIdP, err = newFakeGoogleIdP(googleClientID)
	if err != nil {
		panic(err)
	}
	googleClient := google.New(
		googleClientID,
		"dummy-secret",
		"http://localhost:3000/auth/google/callback",
		nil,
	)
	googleClient.DiscoveryURL = googleIdP.srv.URL + "/.well-known/openid-configuration"
	googleClient.UserInfoURL = googleIdP.srv.URL + "/userinfo"

	supabaseClient := supabase.New(gotrueSrv.URL, "e2e-anon-key", "http://localhost:3000/auth/callback")
	tx := txstore.New(cacheClient, time.Minute)

	authService := authsvc.NewService(authsvc.Deps{
		Store:     repo,
		Issuer:    issuer,
		Params:    testParams,
		Blacklist: blacklist,
	})
	resetService := authsvc.NewResetService(authsvc.ResetDeps{
		Store:     repo,
		Cache:     cacheClient,
		Sender:    email.LogSender{},
		TTL:       time.Minute,
		BaseURL:   "http://localhost:3000",
		EchoLink:  true,
		Params:    testParams,
		Blacklist: blacklist,
	})
	socialServices := socialsvc.NewServices(socialsvc.Deps{
		Store:    repo,
		Tx:       tx,
		Google:   googleClient,
		Supabase: supabaseClient,
		Issuer:   issuer,
	})
	healthService := healthsvc.NewHealthService(healthsvc.Deps{
		StoreCheck:         repo.Ping,
		CacheCheck:         cacheClient.Ping,
		Issuer:             issuer,
		GoogleConfigured:   true,
		SupabaseConfigured: true,
	})

	limiter := rate.NewMemoryLimiter()
	budgets := router.Budgets{
		// login y signup holgados: solo forgot se testea al límite
		Login:  router.Budget{Limit: 1000, Window: time.Minute},
		Signup: router.Budget{Limit: 1000, Window: time.Minute},
		Forgot: router.Budget{Limit: forgotLimit, Window: time.Minute},
	}

	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{})
	if err != nil {
		panic(err)
	}

	handler := router.New(router.Deps{
		Auth: router.AuthRouterDeps{
			Controllers: authctrl.NewControllers(authService),
			Reset:       handlers.NewResetHandler(resetService),
			Issuer:      issuer,
			RateLimiter: limiter,
			Budgets:     budgets,
		},
		Social: router.SocialRouterDeps{
			Controllers: socialctrl.NewControllers(socialServices),
			RateLimiter: limiter,
			Budgets:     budgets,
		},
		Health:             router.HealthRouterDeps{Controllers: healthctrl.NewControllers(healthService)},
		Metrics:            metricsHandler,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	})

	apiSrv := httptest.NewServer(httpx.WithMetrics(handler))
	baseURL = apiSrv.URL

	code := m.Run()

	apiSrv.Close()
	gotrueSrv.Close()
	googleIdP.Close()
	_ = os.Remove(blacklistPath)
	os.Exit(code)
}

func writeBlacklistFile() (string, error) {
	f, err := os.CreateTemp("", "banned-passwords-*.txt")
	if err != nil {
		return "", err
	}
	for _, p := range bannedPasswords {
		if _, err := f.WriteString(p + "\n"); err != nil {
			f.Close()
			return "", err
		}
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}
