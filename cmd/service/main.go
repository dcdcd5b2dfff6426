// cmd/service es el binario principal del backend: carga configuración,
// arma el grafo de dependencias (store, cache, proveedores OAuth, emisor JWT)
// y sirve la API HTTP hasta recibir SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"

	"github.com/ShubhamDalvi1999/authbridge/internal/cache"
	"github.com/ShubhamDalvi1999/authbridge/internal/config"
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
	"github.com/ShubhamDalvi1999/authbridge/internal/store"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/pg"
)

func main() {
	var (
		configPath  = flag.String("config", "", "ruta al YAML de configuración (vacío: solo variables de entorno)")
		envFile     = flag.String("env-file", "", "archivo .env a cargar antes de leer la configuración")
		printConfig = flag.Bool("print-config", false, "imprime la configuración efectiva con secretos enmascarados y sale")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("env file %s: %v", *envFile, err)
		}
	} else {
		// .env del directorio actual, si existe.
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if *printConfig {
		printConfigSummary(cfg)
		return
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "authbridge",
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeCfg := store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		FSRoot: cfg.Storage.FSRoot,
	}
	storeCfg.Postgres.MaxConns = cfg.Storage.Postgres.MaxConns
	if cfg.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime); err != nil {
			lg.Fatal("invalid storage.postgres.conn_max_lifetime", logger.Err(err))
		}
		storeCfg.Postgres.ConnMaxLifetime = cfg.Storage.Postgres.ConnMaxLifetime
	}
	repo, err := store.Open(ctx, storeCfg)
	if err != nil {
		lg.Fatal("store open failed", logger.String("driver", cfg.Storage.Driver), logger.Err(err))
	}
	defer repo.Close()
	lg.Info("store ready", logger.String("driver", cfg.Storage.Driver))

	cacheTTL := 10 * time.Minute
	if cfg.Cache.Memory.DefaultTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
		if err != nil {
			lg.Fatal("invalid cache.memory.default_ttl", logger.Err(err))
		}
		cacheTTL = d
	}
	cacheClient, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cacheTTL,
	})
	if err != nil {
		lg.Fatal("cache init failed", logger.String("kind", cfg.Cache.Kind), logger.Err(err))
	}
	defer cacheClient.Close()
	lg.Info("cache ready", logger.String("kind", cfg.Cache.Kind))

	issuer := jwtx.NewIssuer(cfg.JWT.Secret, cfg.AccessTTL())

	policy := password.DefaultPolicy
	if cfg.Auth.Password.MinLength > 0 {
		policy.MinLength = cfg.Auth.Password.MinLength
	}
	var blacklist *password.Blacklist
	if path := cfg.Auth.Password.BlacklistPath; path != "" {
		blacklist, err = password.LoadBlacklist(path)
		if err != nil {
			// El servicio arranca igual, solo que sin lista de contraseñas vetadas.
			lg.Warn("password blacklist not loaded", logger.String("path", path), logger.Err(err))
			blacklist = nil
		} else {
			lg.Info("password blacklist loaded", logger.String("path", path), logger.Int("entries", blacklist.Len()))
		}
	}

	var sender email.Sender = email.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		lg.Info("smtp sender configured", logger.String("host", cfg.SMTP.Host))
	} else {
		lg.Info("smtp not configured, reset emails go to the log")
	}

	googleClient := google.New(
		cfg.OAuth.Google.ClientID,
		cfg.OAuth.Google.ClientSecret,
		cfg.OAuth.Google.RedirectURL,
		cfg.OAuth.Google.Scopes,
	)
	supabaseClient := supabase.New(cfg.OAuth.Supabase.URL, cfg.OAuth.Supabase.AnonKey, cfg.OAuth.Supabase.RedirectURL)
	tx := txstore.New(cacheClient, cfg.StateTTL())

	authService := authsvc.NewService(authsvc.Deps{
		Store:     repo,
		Issuer:    issuer,
		Policy:    policy,
		Blacklist: blacklist,
	})
	resetService := authsvc.NewResetService(authsvc.ResetDeps{
		Store:     repo,
		Cache:     cacheClient,
		Sender:    sender,
		TTL:       cfg.ResetTTL(),
		BaseURL:   cfg.Email.BaseURL,
		EchoLink:  cfg.Email.DebugEchoLinks,
		Policy:    policy,
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
		GoogleConfigured:   cfg.GoogleConfigured(),
		SupabaseConfigured: cfg.SupabaseConfigured(),
	})

	var limiter rate.MultiLimiter
	if cfg.Rate.Enabled {
		if cfg.Cache.Kind == "redis" {
			client := rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			limiter = rate.NewMultiRedisLimiter(client, "ratelimit")
			lg.Info("rate limiting enabled", logger.String("backend", "redis"))
		} else {
			limiter = rate.NewMemoryLimiter()
			lg.Info("rate limiting enabled", logger.String("backend", "memory"))
		}
	}
	budgets, err := rateBudgets(cfg)
	if err != nil {
		lg.Fatal("invalid rate window", logger.Err(err))
	}

	// Los pools pgx exponen Stat(); el resto de los drivers no aporta gauges.
	var poolFn func() *pgxpool.Pool
	if pgStore, ok := repo.(*pg.Store); ok {
		poolFn = pgStore.Pool
	}
	metricsHandler, err := httpx.RegisterMetrics(httpx.MetricsConfig{Pool: poolFn})
	if err != nil {
		lg.Fatal("metrics init failed", logger.Err(err))
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
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := httpx.NewServer(cfg.Server.Addr, httpx.WithMetrics(handler))
	if err := srv.Start(ctx); err != nil {
		lg.Fatal("server failed", logger.Err(err))
	}
}

func rateBudgets(cfg *config.Config) (router.Budgets, error) {
	parse := func(name, raw string) (time.Duration, error) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("rate.%s.window %q: %w", name, raw, err)
		}
		return d, nil
	}
	login, err := parse("login", cfg.Rate.Login.Window)
	if err != nil {
		return router.Budgets{}, err
	}
	signup, err := parse("signup", cfg.Rate.Signup.Window)
	if err != nil {
		return router.Budgets{}, err
	}
	forgot, err := parse("forgot", cfg.Rate.Forgot.Window)
	if err != nil {
		return router.Budgets{}, err
	}
	return router.Budgets{
		Login:  router.Budget{Limit: cfg.Rate.Login.Limit, Window: login},
		Signup: router.Budget{Limit: cfg.Rate.Signup.Limit, Window: signup},
		Forgot: router.Budget{Limit: cfg.Rate.Forgot.Limit, Window: forgot},
	}, nil
}

// printConfigSummary vuelca la configuración efectiva a stdout para depurar
// despliegues. Los secretos se enmascaran siempre.
func printConfigSummary(cfg *config.Config) {
	fmt.Printf("app:      env=%s log_level=%s\n", cfg.App.Env, cfg.App.LogLevel)
	fmt.Printf("server:   addr=%s cors=%v\n", cfg.Server.Addr, cfg.Server.CORSAllowedOrigins)
	fmt.Printf("storage:  driver=%s dsn=%s fs_root=%s\n", cfg.Storage.Driver, mask(cfg.Storage.DSN), cfg.Storage.FSRoot)
	fmt.Printf("cache:    kind=%s redis_addr=%s\n", cfg.Cache.Kind, cfg.Cache.Redis.Addr)
	fmt.Printf("jwt:      secret=%s access_ttl=%s\n", mask(cfg.JWT.Secret), cfg.AccessTTL())
	fmt.Printf("google:   configured=%t redirect=%s\n", cfg.GoogleConfigured(), cfg.OAuth.Google.RedirectURL)
	fmt.Printf("supabase: configured=%t url=%s\n", cfg.SupabaseConfigured(), cfg.OAuth.Supabase.URL)
	fmt.Printf("rate:     enabled=%t login=%d/%s signup=%d/%s forgot=%d/%s\n",
		cfg.Rate.Enabled,
		cfg.Rate.Login.Limit, cfg.Rate.Login.Window,
		cfg.Rate.Signup.Limit, cfg.Rate.Signup.Window,
		cfg.Rate.Forgot.Limit, cfg.Rate.Forgot.Window)
	fmt.Printf("smtp:     host=%s port=%d from=%s password=%s\n", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, mask(cfg.SMTP.Password))
	fmt.Printf("email:    base_url=%s debug_echo_links=%t\n", cfg.Email.BaseURL, cfg.Email.DebugEchoLinks)
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
