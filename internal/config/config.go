// Package config carga la configuración del servicio desde YAML y variables
// de entorno. El YAML es opcional: un deployment puede configurarse 100% por
// env (los overrides pisan siempre al archivo).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
		// debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// memory | fs | postgres
		Driver string `yaml:"driver"`
		// DSN para postgres
		DSN string `yaml:"dsn"`
		// Raíz para el driver fs
		FSRoot   string `yaml:"fs_root"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		// Secreto HS256. Obligatorio, mínimo 32 bytes.
		Secret    string `yaml:"secret"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	OAuth struct {
		// TTL de la transacción state/nonce
		StateTTL string `yaml:"state_ttl"`

		Google struct {
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			RedirectURL  string   `yaml:"redirect_url"`
			Scopes       []string `yaml:"scopes"`
		} `yaml:"google"`

		Supabase struct {
			URL         string `yaml:"url"`
			AnonKey     string `yaml:"anon_key"`
			RedirectURL string `yaml:"redirect_url"`
		} `yaml:"supabase"`
	} `yaml:"oauth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Signup struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"signup"`
		Forgot struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"forgot"`
	} `yaml:"rate"`

	Auth struct {
		Reset struct {
			TTL string `yaml:"ttl"`
		} `yaml:"reset"`
		Password struct {
			MinLength int `yaml:"min_length"`
			// Archivo con passwords prohibidas, una por línea. Opcional.
			BlacklistPath string `yaml:"blacklist_path"`
		} `yaml:"password"`
	} `yaml:"auth"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`

	Email struct {
		// Base para armar los links de reset
		BaseURL string `yaml:"base_url"`
		// Expone el link por header X-Debug-Reset-Link (solo dev)
		DebugEchoLinks bool `yaml:"debug_echo_links"`
	} `yaml:"email"`
}

// Load lee el YAML (si path no es vacío), aplica defaults, pisa con env y
// valida. path == "" significa configuración solo por entorno.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.FSRoot == "" {
		c.Storage.FSRoot = "./data/authbridge"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "10m"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "20m"
	}
	if c.OAuth.StateTTL == "" {
		c.OAuth.StateTTL = "10m"
	}
	if len(c.OAuth.Google.Scopes) == 0 {
		c.OAuth.Google.Scopes = []string{"openid", "email", "profile"}
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Signup.Limit == 0 {
		c.Rate.Signup.Limit = 5
	}
	if c.Rate.Signup.Window == "" {
		c.Rate.Signup.Window = "1m"
	}
	if c.Rate.Forgot.Limit == 0 {
		c.Rate.Forgot.Limit = 5
	}
	if c.Rate.Forgot.Window == "" {
		c.Rate.Forgot.Window = "10m"
	}
	if c.Auth.Reset.TTL == "" {
		c.Auth.Reset.TTL = "60m"
	}
	if c.Auth.Password.MinLength == 0 {
		c.Auth.Password.MinLength = 8
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	c.applyEnvOverrides()

	// Guardia dura: en prod nunca exponemos links por headers.
	if strings.EqualFold(c.App.Env, "prod") {
		c.Email.DebugEchoLinks = false
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate chequea los valores críticos. Falla temprano en lugar de arrancar
// un servicio que no puede firmar tokens o abrir su store.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "fs", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage driver postgres requires a dsn")
	}

	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: cache kind redis requires an addr")
	}

	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("config: jwt secret must be at least 32 bytes")
	}
	if _, err := time.ParseDuration(c.JWT.AccessTTL); err != nil {
		return fmt.Errorf("config: invalid jwt access_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.OAuth.StateTTL); err != nil {
		return fmt.Errorf("config: invalid oauth state_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Auth.Reset.TTL); err != nil {
		return fmt.Errorf("config: invalid auth reset ttl: %w", err)
	}
	if c.Cache.Memory.DefaultTTL != "" {
		if _, err := time.ParseDuration(c.Cache.Memory.DefaultTTL); err != nil {
			return fmt.Errorf("config: invalid cache memory default_ttl: %w", err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: invalid postgres conn_max_lifetime: %w", err)
		}
	}
	for _, w := range []string{c.Rate.Login.Window, c.Rate.Signup.Window, c.Rate.Forgot.Window} {
		if _, err := time.ParseDuration(w); err != nil {
			return fmt.Errorf("config: invalid rate window %q: %w", w, err)
		}
	}
	return nil
}

// AccessTTL retorna la duración parseada del TTL de los access tokens.
// Validate ya garantizó que parsea.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

// StateTTL retorna la duración parseada de las transacciones OAuth.
func (c *Config) StateTTL() time.Duration {
	d, _ := time.ParseDuration(c.OAuth.StateTTL)
	return d
}

// ResetTTL retorna la duración parseada de los tokens de reset.
func (c *Config) ResetTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.Reset.TTL)
	return d
}

// GoogleConfigured indica si el provider Google tiene credenciales.
func (c *Config) GoogleConfigured() bool {
	return strings.TrimSpace(c.OAuth.Google.ClientID) != "" &&
		strings.TrimSpace(c.OAuth.Google.ClientSecret) != ""
}

// SupabaseConfigured indica si el provider Supabase tiene URL y anon key.
func (c *Config) SupabaseConfigured() bool {
	return strings.TrimSpace(c.OAuth.Supabase.URL) != "" &&
		strings.TrimSpace(c.OAuth.Supabase.AnonKey) != ""
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	} else if v, ok := getEnvCSV("BACKEND_CORS_ORIGINS"); ok {
		// alias heredado del deployment anterior
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	} else if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_FS_ROOT"); ok {
		c.Storage.FSRoot = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	} else if v, ok := getEnvStr("SECRET_KEY"); ok {
		// alias heredado del deployment anterior
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}

	// OAUTH
	if v, ok := getEnvStr("OAUTH_STATE_TTL"); ok {
		c.OAuth.StateTTL = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.OAuth.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.OAuth.Google.ClientSecret = v
	}
	if v, ok := getEnvStr("GOOGLE_REDIRECT_URI"); ok {
		c.OAuth.Google.RedirectURL = v
	}
	if v, ok := getEnvCSV("GOOGLE_SCOPES"); ok && len(v) > 0 {
		c.OAuth.Google.Scopes = v
	}
	if v, ok := getEnvStr("SUPABASE_URL"); ok {
		c.OAuth.Supabase.URL = v
	}
	if v, ok := getEnvStr("SUPABASE_ANON_KEY"); ok {
		c.OAuth.Supabase.AnonKey = v
	}
	if v, ok := getEnvStr("SUPABASE_REDIRECT_URI"); ok {
		c.OAuth.Supabase.RedirectURL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_SIGNUP_LIMIT"); ok {
		c.Rate.Signup.Limit = v
	}
	if v, ok := getEnvStr("RATE_SIGNUP_WINDOW"); ok {
		c.Rate.Signup.Window = v
	}
	if v, ok := getEnvInt("RATE_FORGOT_LIMIT"); ok {
		c.Rate.Forgot.Limit = v
	}
	if v, ok := getEnvStr("RATE_FORGOT_WINDOW"); ok {
		c.Rate.Forgot.Window = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_RESET_TTL"); ok {
		c.Auth.Reset.TTL = v
	}
	if v, ok := getEnvInt("AUTH_PASSWORD_MIN_LENGTH"); ok {
		c.Auth.Password.MinLength = v
	}
	if v, ok := getEnvStr("AUTH_PASSWORD_BLACKLIST"); ok {
		c.Auth.Password.BlacklistPath = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}

	// EMAIL
	if v, ok := getEnvStr("EMAIL_BASE_URL"); ok {
		c.Email.BaseURL = v
	}
	if v, ok := getEnvBool("EMAIL_DEBUG_LINKS"); ok {
		c.Email.DebugEchoLinks = v
	}
}
