// Package store selecciona el driver de persistencia según configuración.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShubhamDalvi1999/authbridge/internal/store/core"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/fs"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/memory"
	"github.com/ShubhamDalvi1999/authbridge/internal/store/pg"
)

type Config struct {
	Driver   string
	DSN      string
	FSRoot   string
	Postgres struct {
		MaxConns        int
		ConnMaxLifetime string
	}
}

// Open devuelve el core.Repository del driver configurado.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory", "mem":
		return memory.New(), nil
	case "fs", "":
		return fs.New(cfg.FSRoot)
	case "postgres", "pg", "postgresql":
		return pg.New(ctx, cfg.DSN, pg.Tuning{
			MaxConns:        cfg.Postgres.MaxConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
