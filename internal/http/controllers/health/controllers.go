package health

import svc "github.com/ShubhamDalvi1999/authbridge/internal/http/services/health"

// Controllers agrupa los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador de controllers health.
func NewControllers(s svc.HealthService) *Controllers {
	return &Controllers{
		Health: NewHealthController(s),
	}
}
