// cmd/seed carga usuarios iniciales desde un archivo YAML al store
// configurado. Pensado para entornos de desarrollo y demos: los usuarios
// que ya existen se saltean, así el comando es idempotente.
//
// Formato del archivo:
//
//	users:
//	  - username: walter
//	    email: walter@example.com
//	    password: Correct-Horse-7
//	  - username: jesse
//	    password: Science-Yeah-1
//	    active: false
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ShubhamDalvi1999/authbridge/internal/config"
	"github.com/ShubhamDalvi1999/authbridge/internal/security/password"
	"github.com/ShubhamDalvi1999/authbridge/internal/store"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
)

type seedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Active   *bool  `yaml:"active"`
}

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

func main() {
	var (
		configPath = flag.String("config", "", "ruta al YAML de configuración (opcional, default solo env)")
		envFile    = flag.String("env-file", "", "archivo .env a cargar antes de leer la configuración")
		seedPath   = flag.String("file", "seed_users.yaml", "archivo YAML con los usuarios a crear")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("env file %s: %v", *envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatalf("leyendo %s: %v", *seedPath, err)
	}
	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		log.Fatalf("parseando %s: %v", *seedPath, err)
	}
	if len(seeds.Users) == 0 {
		log.Fatalf("%s no define usuarios (clave `users`)", *seedPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	storeCfg := store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		FSRoot: cfg.Storage.FSRoot,
	}
	storeCfg.Postgres.MaxConns = cfg.Storage.Postgres.MaxConns
	storeCfg.Postgres.ConnMaxLifetime = cfg.Storage.Postgres.ConnMaxLifetime
	repo, err := store.Open(ctx, storeCfg)
	if err != nil {
		log.Fatalf("store (%s): %v", cfg.Storage.Driver, err)
	}
	defer repo.Close()

	created, skipped := 0, 0
	for i, su := range seeds.Users {
		username := strings.TrimSpace(su.Username)
		if username == "" {
			log.Fatalf("users[%d]: username vacío", i)
		}
		if su.Password == "" {
			log.Fatalf("users[%d] (%s): password vacío", i, username)
		}

		hash, err := password.Hash(password.Default, su.Password)
		if err != nil {
			log.Fatalf("users[%d] (%s): hash: %v", i, username, err)
		}

		u := &core.User{
			Username:     core.StrPtr(username),
			PasswordHash: core.StrPtr(hash),
			AuthMethod:   core.AuthMethodLocal,
			IsActive:     true,
		}
		if email := strings.TrimSpace(strings.ToLower(su.Email)); email != "" {
			u.Email = core.StrPtr(email)
		}
		if su.Active != nil {
			u.IsActive = *su.Active
		}

		if err := repo.CreateUser(ctx, u); err != nil {
			if errors.Is(err, core.ErrConflict) {
				fmt.Printf("  - %s ya existe, skip\n", username)
				skipped++
				continue
			}
			log.Fatalf("users[%d] (%s): create: %v", i, username, err)
		}
		fmt.Printf("  + %s (%s)\n", username, u.ID)
		created++
	}

	fmt.Printf("Seed completado: %d creados, %d existentes.\n", created, skipped)
}
