package auth

// ResetRequestRequest pide iniciar el flujo de reset por email.
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetRequestResponse siempre responde ok para no filtrar si el email existe.
type ResetRequestResponse struct {
	Status string `json:"status"` // "ok"
}

// ResetConfirmRequest consume el token de reset y fija la nueva password.
type ResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
