// Package errors define el contrato de error JSON de la API y los errores
// predefinidos que los controllers devuelven al cliente.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// errorResponse estructura interna para la serialización JSON.
// Controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
// Los 5xx se loguean con la causa; los 4xx son ruido del cliente y no.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	if appErr.HTTPStatus >= 500 {
		logger.Named("http").Error("request failed",
			logger.String("code", appErr.Code),
			logger.Int("status", appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(resp)
}
