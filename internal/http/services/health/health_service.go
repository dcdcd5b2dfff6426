// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"os"
	"time"

	dto "github.com/ShubhamDalvi1999/authbridge/internal/http/dto/health"
	"github.com/ShubhamDalvi1999/authbridge/internal/jwt"
	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	StoreCheck func(ctx context.Context) error // ping del user store, crítico
	CacheCheck func(ctx context.Context) error // ping del cache, no crítico
	Issuer     *jwt.Issuer

	// Providers configurados, solo informativo.
	GoogleConfigured   bool
	SupabaseConfigured bool
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}

	// Metadata del deployment
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		response.Version = v
	}
	if git := os.Getenv("SERVICE_COMMIT"); git != "" {
		response.Commit = git
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) User store (crítico)
	if s.deps.StoreCheck != nil {
		if err := s.deps.StoreCheck(ctx); err != nil {
			response.Components["store"] = dto.HealthStatus{
				Status:  "error",
				Message: fmt.Sprintf("unavailable: %v", err),
			}
			hasCriticalErrors = true
			log.Error("store unavailable", logger.Err(err))
		} else {
			response.Components["store"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["store"] = dto.HealthStatus{
			Status:  "error",
			Message: "store not initialized",
		}
		hasCriticalErrors = true
	}

	// 2) Emisión de tokens (crítico): firma y verifica contra sí mismo.
	if s.deps.Issuer != nil {
		if err := s.checkIssuer(); err != nil {
			response.Components["token_signer"] = dto.HealthStatus{
				Status:  "error",
				Message: err.Error(),
			}
			hasCriticalErrors = true
			log.Error("token signer check failed", logger.Err(err))
		} else {
			response.Components["token_signer"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["token_signer"] = dto.HealthStatus{
			Status:  "error",
			Message: "issuer not initialized",
		}
		hasCriticalErrors = true
	}

	// 3) Cache (no crítico: sin cache caen los flujos OAuth y el reset,
	// pero el password grant sigue operativo)
	if s.deps.CacheCheck != nil {
		if err := s.deps.CacheCheck(ctx); err != nil {
			response.Components["cache"] = dto.HealthStatus{
				Status:  "error",
				Message: fmt.Sprintf("unavailable: %v", err),
			}
			hasErrors = true
			log.Error("cache unavailable", logger.Err(err))
		} else {
			response.Components["cache"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	}

	// 4) Providers (informativo)
	response.Components["google"] = providerStatus(s.deps.GoogleConfigured)
	response.Components["supabase"] = providerStatus(s.deps.SupabaseConfigured)

	// Status final
	if hasCriticalErrors {
		response.Status = "unavailable"
	} else if hasErrors {
		response.Status = "degraded"
	} else {
		response.Status = "ready"
	}

	return response
}

func providerStatus(configured bool) dto.HealthStatus {
	if configured {
		return dto.HealthStatus{Status: "ok"}
	}
	return dto.HealthStatus{Status: "disabled", Message: "provider not configured"}
}

func (s *healthService) checkIssuer() error {
	signed, _, err := s.deps.Issuer.Issue("selfcheck", "selfcheck")
	if err != nil {
		return fmt.Errorf("sign failed: %w", err)
	}
	if _, err := s.deps.Issuer.Verify(signed); err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	return nil
}
